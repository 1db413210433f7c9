package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient implements Client using OpenAI's chat completions API.
//
// Completions request JSON mode, which keeps structured prompts from coming
// back wrapped in prose. Safe for concurrent use.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client. An empty model selects
// DefaultOpenAIModel.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key cannot be empty")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client: &client,
		model:  model,
	}, nil
}

// Complete sends the prompt as a single user message.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(1.0),
	})
	if err != nil {
		return "", &GenerationError{Op: "openai.complete", Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", &GenerationError{Op: "openai.complete", Err: errors.New("no choices in response")}
	}
	return completion.Choices[0].Message.Content, nil
}
