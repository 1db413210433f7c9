package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGoogleModel is used when no model is configured.
const DefaultGoogleModel = "gemini-1.5-flash"

// GoogleClient implements Client using Google's Gemini API.
type GoogleClient struct {
	client *genai.Client
	model  string
}

// NewGoogleClient creates a Gemini-backed client. An empty model selects
// DefaultGoogleModel. Call Close when the client is no longer needed.
func NewGoogleClient(ctx context.Context, apiKey, model string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, errors.New("google API key cannot be empty")
	}
	if model == "" {
		model = DefaultGoogleModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &GoogleClient{
		client: client,
		model:  model,
	}, nil
}

// Complete sends the prompt and concatenates the text parts of the first
// candidate.
func (g *GoogleClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &GenerationError{Op: "google.complete", Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text, nil
}

// Close releases the underlying client resources.
func (g *GoogleClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
