package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dshills/reportflow/llm"
)

// GraphSource is the key under which knowledge graph results are stored.
const GraphSource = "graph_store"

// fallbackGraphQuery is the deterministic query used when LLM generation is
// unavailable. It surfaces customer/product consumption relationships, the
// densest part of the graph.
const fallbackGraphQuery = `MATCH (c:Customer)-[r:CONSUMES]->(p:Product) RETURN p.name AS product, count(r) AS consumers ORDER BY consumers DESC LIMIT 10`

// discoveryGraphQuery is used when the user gave no query text.
const discoveryGraphQuery = `MATCH (n) RETURN labels(n) AS label, count(n) AS nodes ORDER BY nodes DESC LIMIT 10`

// Graph collects relationship context from a knowledge graph service.
//
// The user's request text is translated into a graph query by the LLM
// client; the query is then POSTed to the graph endpoint. When generation
// fails, a deterministic fallback query runs instead; when the endpoint
// itself is unreachable, the collector reports "no data" rather than
// failing.
type Graph struct {
	endpoint string
	gateway  llm.Client
	client   *http.Client
	logger   *slog.Logger
}

// NewGraph creates the graph collector. The gateway may be nil, in which
// case only the deterministic queries run. A nil httpClient selects
// http.DefaultClient; a nil logger selects slog.Default().
func NewGraph(endpoint string, gateway llm.Client, httpClient *http.Client, logger *slog.Logger) *Graph {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{endpoint: endpoint, gateway: gateway, client: httpClient, logger: logger}
}

// Name implements Collector.
func (g *Graph) Name() string {
	return GraphSource
}

// Collect translates the query text into a graph query and executes it.
func (g *Graph) Collect(ctx context.Context, query string, _ map[string]any) Result {
	graphQuery := g.buildQuery(ctx, query)

	rows, err := g.execute(ctx, graphQuery)
	if err != nil && graphQuery != fallbackGraphQuery {
		g.logger.Warn("graph query failed, retrying with fallback", "error", err)
		rows, err = g.execute(ctx, fallbackGraphQuery)
	}
	if err != nil {
		g.logger.Warn("graph store unavailable", "error", err)
		return emptyResult(GraphSource, "no data available from the knowledge graph", map[string]any{
			"rows": []map[string]any{},
		})
	}

	if len(rows) == 0 {
		return emptyResult(GraphSource, "knowledge graph returned no matches", map[string]any{
			"rows": []map[string]any{},
		})
	}

	return Result{
		Source:  GraphSource,
		Summary: fmt.Sprintf("%d relationship records from the knowledge graph", len(rows)),
		Fields:  map[string]any{"rows": rows},
	}
}

// buildQuery picks the graph query: LLM-generated from the user's text,
// discovery when the text is empty, deterministic fallback otherwise.
func (g *Graph) buildQuery(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return discoveryGraphQuery
	}
	if g.gateway == nil {
		return fallbackGraphQuery
	}

	prompt := fmt.Sprintf(`You are a graph query expert. Convert the question into a single Cypher query.

Database context:
- Node labels: Customer, Product, Category
- Relationships: CONSUMES, CONTAINS, BELONGS_TO
- Node names are in the "name" property

Question: %q

Return ONLY the Cypher query, no explanation, no markdown. Limit results to at most 10 rows.`, query)

	generated, err := g.gateway.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("graph query generation failed", "error", err)
		return fallbackGraphQuery
	}

	cleaned := cleanGeneratedQuery(generated)
	if cleaned == "" {
		return fallbackGraphQuery
	}
	return cleaned
}

// cleanGeneratedQuery strips markdown fences and surrounding whitespace from
// model output.
func cleanGeneratedQuery(raw string) string {
	q := strings.TrimSpace(raw)
	q = strings.TrimPrefix(q, "```cypher")
	q = strings.TrimPrefix(q, "```")
	q = strings.TrimSuffix(q, "```")
	return strings.TrimSpace(q)
}

// execute POSTs the query to the graph endpoint and decodes the row set.
func (g *Graph) execute(ctx context.Context, graphQuery string) ([]map[string]any, error) {
	payload, err := json.Marshal(map[string]any{"query": graphQuery})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graph endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Rows []map[string]any `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode graph response: %w", err)
	}
	return decoded.Rows, nil
}
