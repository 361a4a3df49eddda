package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/metrics"
)

// Factory builds a tool instance from its configuration.
type Factory func(cfg Config, logger *zap.Logger) (Tool, error)

// Registry holds the configured tools and dispatches executions.
type Registry struct {
	mu        sync.RWMutex
	configs   map[string]Config
	instances map[string]Tool
	logger    *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		configs:   make(map[string]Config),
		instances: make(map[string]Tool),
		logger:    logger,
	}
}

// RegisterTool adds a ready tool instance with its configuration.
func (r *Registry) RegisterTool(cfg Config, tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
	r.instances[cfg.Name] = tool
	r.logger.Info("Tool registered",
		zap.String("tool", cfg.Name),
		zap.String("type", cfg.Type),
		zap.Bool("available", cfg.Available()),
	)
}

// RegisterConfig builds the tool through a factory and registers it.
func (r *Registry) RegisterConfig(cfg Config, factory Factory) error {
	tool, err := factory(cfg, r.logger)
	if err != nil {
		return fmt.Errorf("build tool %s: %w", cfg.Name, err)
	}
	r.RegisterTool(cfg, tool)
	return nil
}

// GetTool returns the named tool and its configuration.
func (r *Registry) GetTool(name string) (Tool, Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.instances[name]
	if !ok {
		return nil, Config{}, false
	}
	return tool, r.configs[name], true
}

// ListAvailable returns the names of tools whose environment
// requirements are currently satisfied, sorted for stable output.
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name, cfg := range r.configs {
		if cfg.Available() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ListAll returns every registered tool name, available or not.
func (r *Registry) ListAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool. Unknown or unavailable tools yield an
// error Result rather than a Go error.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}) Result {
	tool, cfg, ok := r.GetTool(name)
	if !ok {
		metrics.ToolExecutions.WithLabelValues(name, "unknown").Inc()
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}
	if !cfg.Available() {
		metrics.ToolExecutions.WithLabelValues(name, "unavailable").Inc()
		return errorResult(fmt.Sprintf("tool %s is not available (missing environment: %v)", name, cfg.RequiredEnvVars))
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	timer := prometheus.NewTimer(metrics.ToolExecutionDuration.WithLabelValues(name))
	res := tool.Execute(ctx, params)
	timer.ObserveDuration()

	status := "ok"
	if !res.Success {
		status = "error"
		r.logger.Warn("Tool execution failed",
			zap.String("tool", name),
			zap.String("error", res.Error),
		)
	}
	metrics.ToolExecutions.WithLabelValues(name, status).Inc()
	return res
}
