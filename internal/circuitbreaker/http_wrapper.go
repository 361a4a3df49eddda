package circuitbreaker

import (
	"net/http"

	"go.uber.org/zap"
)

// HTTPWrapper wraps an http.Client with a circuit breaker. A response
// with status >= 500 counts as a failure; 4xx responses count as
// success since the backend is healthy and the request was just bad.
type HTTPWrapper struct {
	client  *http.Client
	breaker *CircuitBreaker
}

// NewHTTPWrapper creates a breaker-guarded HTTP client named after the
// backend it protects.
func NewHTTPWrapper(client *http.Client, name string, logger *zap.Logger) *HTTPWrapper {
	return &HTTPWrapper{
		client:  client,
		breaker: New(name, DefaultConfig(), logger),
	}
}

// Do executes the request through the breaker.
func (w *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := w.breaker.Execute(req.Context(), func() error {
		var callErr error
		resp, callErr = w.client.Do(req)
		if callErr != nil {
			return callErr
		}
		if resp.StatusCode >= 500 {
			return errServerStatus
		}
		return nil
	})
	if err == errServerStatus {
		// Counted as a breaker failure, but the caller still gets the
		// response to inspect.
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// State exposes the breaker state for health reporting.
func (w *HTTPWrapper) State() State {
	return w.breaker.State()
}

var errServerStatus = &serverStatusError{}

type serverStatusError struct{}

func (*serverStatusError) Error() string { return "server error status" }
