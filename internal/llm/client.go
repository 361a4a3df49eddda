// Package llm talks to the external language-model service. The core
// treats completions as an opaque capability: prompt in, text out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agentspawn/orchestrator/internal/circuitbreaker"
	"github.com/agentspawn/orchestrator/internal/metrics"
	"github.com/agentspawn/orchestrator/internal/tracing"
)

// CompletionRequest carries one completion call.
type CompletionRequest struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Prompt       string  `json:"prompt"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// CompletionResponse is the service reply.
type CompletionResponse struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	ModelUsed  string `json:"model_used,omitempty"`
}

// Client is the completion interface consumed by the pipeline.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Config controls the HTTP client.
type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RequestsPerSecond caps the outbound completion rate; 0 disables
	// the limiter.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// HTTPClient calls the completion endpoint of the LLM service.
type HTTPClient struct {
	cfg     Config
	httpw   *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPClient builds a completion client for the given service.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://llm-service:8000"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &HTTPClient{
		cfg:     cfg,
		httpw:   circuitbreaker.NewHTTPWrapper(httpClient, "llm-service", logger),
		limiter: limiter,
		logger:  logger,
	}
}

// Complete posts the request to the completion endpoint.
func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return CompletionResponse{}, err
		}
	}
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.Temperature == 0 {
		req.Temperature = c.cfg.Temperature
	}

	url := fmt.Sprintf("%s/completions", c.cfg.BaseURL)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return CompletionResponse{}, err
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return CompletionResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, httpReq)

	resp, err := c.httpw.Do(httpReq)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return CompletionResponse{}, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return CompletionResponse{}, fmt.Errorf("llm service status %d: %s", resp.StatusCode, string(b))
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		return CompletionResponse{}, fmt.Errorf("decode llm response: %w", err)
	}

	metrics.LLMRequests.WithLabelValues("ok").Inc()
	metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())
	c.logger.Debug("LLM completion",
		zap.String("model", out.ModelUsed),
		zap.Int("tokens_used", out.TokensUsed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
