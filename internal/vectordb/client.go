// Package vectordb is a minimal Qdrant HTTP client covering the
// operations the memory subsystem needs: upsert, similarity query,
// and filtered scroll.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/circuitbreaker"
	"github.com/agentspawn/orchestrator/internal/metrics"
	"github.com/agentspawn/orchestrator/internal/tracing"
)

// Client talks to one Qdrant instance.
type Client struct {
	cfg   Config
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewClient builds a vector store client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 6333
	}
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "agent_memory"
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:   cfg,
		base:  fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		httpw: circuitbreaker.NewHTTPWrapper(httpClient, "qdrant", logger),
		log:   logger,
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.cfg }

// Ping verifies the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/collections", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpw.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vector store status %d", resp.StatusCode)
	}
	return nil
}

type queryRequest struct {
	Query          []float32              `json:"query"`
	Limit          int                    `json:"limit"`
	ScoreThreshold *float64               `json:"score_threshold,omitempty"`
	WithPayload    bool                   `json:"with_payload"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
}

type queryResponse struct {
	Result struct {
		Points []Point `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

// Query runs a similarity search over the configured collection.
func (c *Client) Query(ctx context.Context, vec []float32, limit int, filter map[string]interface{}) ([]Point, error) {
	if limit <= 0 {
		limit = c.cfg.TopK
	}
	url := fmt.Sprintf("%s/collections/%s/points/query", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	var thr *float64
	if c.cfg.Threshold > 0 {
		t := c.cfg.Threshold
		thr = &t
	}
	body, _ := json.Marshal(queryRequest{
		Query:          vec,
		Limit:          limit,
		ScoreThreshold: thr,
		WithPayload:    true,
		Filter:         filter,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		metrics.RecordVectorSearchMetrics(c.cfg.Collection, "error")
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		metrics.RecordVectorSearchMetrics(c.cfg.Collection, "error")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.RecordVectorSearchMetrics(c.cfg.Collection, "error")
		return nil, fmt.Errorf("vector query status %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		metrics.RecordVectorSearchMetrics(c.cfg.Collection, "error")
		return nil, err
	}
	metrics.RecordVectorSearchMetrics(c.cfg.Collection, "ok")
	return qr.Result.Points, nil
}

type scrollRequest struct {
	Filter      map[string]interface{} `json:"filter,omitempty"`
	Limit       int                    `json:"limit"`
	WithPayload bool                   `json:"with_payload"`
}

type scrollResponse struct {
	Result struct {
		Points []Point `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

// Scroll fetches points matching a payload filter without a query
// vector. Used for thread-scoped history and context lookups.
func (c *Client) Scroll(ctx context.Context, filter map[string]interface{}, limit int) ([]Point, error) {
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	body, _ := json.Marshal(scrollRequest{Filter: filter, Limit: limit, WithPayload: true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector scroll status %d", resp.StatusCode)
	}

	var sr scrollResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	return sr.Result.Points, nil
}

// Upsert inserts or updates points in the configured collection.
func (c *Client) Upsert(ctx context.Context, points []Point) (*UpsertResponse, error) {
	url := fmt.Sprintf("%s/collections/%s/points", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPut, url)
	defer span.End()

	body, _ := json.Marshal(map[string]interface{}{"points": points})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		metrics.VectorUpserts.WithLabelValues(c.cfg.Collection, "error").Inc()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		metrics.VectorUpserts.WithLabelValues(c.cfg.Collection, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.VectorUpserts.WithLabelValues(c.cfg.Collection, "error").Inc()
		return nil, fmt.Errorf("vector upsert status %d", resp.StatusCode)
	}

	var ur UpsertResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		metrics.VectorUpserts.WithLabelValues(c.cfg.Collection, "error").Inc()
		return nil, err
	}
	metrics.VectorUpserts.WithLabelValues(c.cfg.Collection, "ok").Inc()
	return &ur, nil
}
