package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/circuitbreaker"
	"github.com/agentspawn/orchestrator/internal/tracing"
)

// APICallTool performs HTTP requests against an allowlist of endpoint
// prefixes.
type APICallTool struct {
	allowedEndpoints []string
	httpw            *circuitbreaker.HTTPWrapper
	maxBodyBytes     int64
	logger           *zap.Logger
}

// NewAPICallTool builds the tool. Parameters: allowed_endpoints (URL
// prefixes), max_body_bytes.
func NewAPICallTool(cfg Config, logger *zap.Logger) (Tool, error) {
	var endpoints []string
	if raw, ok := cfg.Parameters["allowed_endpoints"].([]interface{}); ok {
		for _, e := range raw {
			if s, ok := e.(string); ok {
				endpoints = append(endpoints, s)
			}
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	var maxBody int64 = 1 << 20
	if v, ok := cfg.Parameters["max_body_bytes"].(int); ok && v > 0 {
		maxBody = int64(v)
	}
	client := &http.Client{Timeout: timeout}
	return &APICallTool{
		allowedEndpoints: endpoints,
		httpw:            circuitbreaker.NewHTTPWrapper(client, "api_call", logger),
		maxBodyBytes:     maxBody,
		logger:           logger,
	}, nil
}

func (t *APICallTool) Name() string { return "api_call" }

func (t *APICallTool) endpointAllowed(url string) bool {
	for _, prefix := range t.allowedEndpoints {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

func (t *APICallTool) Execute(ctx context.Context, params map[string]interface{}) Result {
	endpoint := stringParam(params, "url")
	if endpoint == "" {
		return errorResult("api_call requires a 'url' parameter")
	}
	if !t.endpointAllowed(endpoint) {
		return errorResult(fmt.Sprintf("endpoint %s is not on the allowlist", endpoint))
	}

	method := strings.ToUpper(stringParam(params, "method"))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if raw, ok := params["body"]; ok && raw != nil {
		data, err := json.Marshal(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("encode request body: %v", err))
		}
		body = strings.NewReader(string(data))
	}

	ctx, span := tracing.StartHTTPSpan(ctx, method, endpoint)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errorResult(err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}
	tracing.InjectTraceparent(ctx, req)

	resp, err := t.httpw.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes))
	if err != nil {
		return errorResult(fmt.Sprintf("read response: %v", err))
	}

	payload := map[string]interface{}{
		"status_code": resp.StatusCode,
		"body":        string(data),
	}
	var parsed interface{}
	if json.Unmarshal(data, &parsed) == nil {
		payload["json"] = parsed
	}

	return Result{
		Success: resp.StatusCode >= 200 && resp.StatusCode < 300,
		Data:    payload,
		Error:   statusError(resp.StatusCode),
	}
}

func statusError(code int) string {
	if code >= 200 && code < 300 {
		return ""
	}
	return fmt.Sprintf("unexpected status %d", code)
}
