package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/circuitbreaker"
	"github.com/agentspawn/orchestrator/internal/tracing"
)

const serpAPIBase = "https://serpapi.com/search"

// WebSearchTool queries SerpAPI. Requires SERPAPI_API_KEY.
type WebSearchTool struct {
	httpw      *circuitbreaker.HTTPWrapper
	maxResults int
	logger     *zap.Logger
}

// NewWebSearchTool builds the tool from its configuration.
func NewWebSearchTool(cfg Config, logger *zap.Logger) (Tool, error) {
	maxResults := 5
	if v, ok := cfg.Parameters["max_results"].(int); ok && v > 0 {
		maxResults = v
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	return &WebSearchTool{
		httpw:      circuitbreaker.NewHTTPWrapper(client, "serpapi", logger),
		maxResults: maxResults,
		logger:     logger,
	}, nil
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]interface{}) Result {
	query := stringParam(params, "query")
	if query == "" {
		return errorResult("web_search requires a 'query' parameter")
	}
	apiKey := os.Getenv("SERPAPI_API_KEY")
	if apiKey == "" {
		return errorResult("SERPAPI_API_KEY is not set")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("api_key", apiKey)
	q.Set("num", fmt.Sprintf("%d", t.maxResults))
	endpoint := serpAPIBase + "?" + q.Encode()

	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodGet, serpAPIBase)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errorResult(err.Error())
	}
	resp, err := t.httpw.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("search request failed: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errorResult(fmt.Sprintf("search API status %d", resp.StatusCode))
	}

	var payload struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return errorResult(fmt.Sprintf("decode search response: %v", err))
	}

	results := make([]map[string]string, 0, len(payload.OrganicResults))
	for i, r := range payload.OrganicResults {
		if i >= t.maxResults {
			break
		}
		results = append(results, map[string]string{
			"title":   r.Title,
			"link":    r.Link,
			"snippet": r.Snippet,
		})
	}
	return Result{Success: true, Data: results}
}
