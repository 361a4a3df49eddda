// Package tools provides the executable tool registry the specialist
// agents draw on. Tools declare required environment variables and are
// only listed as available when those are set.
package tools

import (
	"context"
	"os"
	"time"
)

// Config describes one tool. Tools are configured declaratively and
// bound to an implementation through the registry's factories.
type Config struct {
	Name            string                 `yaml:"name" mapstructure:"name"`
	Type            string                 `yaml:"type" mapstructure:"type"`
	Description     string                 `yaml:"description" mapstructure:"description"`
	Parameters      map[string]interface{} `yaml:"parameters" mapstructure:"parameters"`
	RequiredEnvVars []string               `yaml:"required_env_vars" mapstructure:"required_env_vars"`
	Enabled         bool                   `yaml:"enabled" mapstructure:"enabled"`
	Timeout         time.Duration          `yaml:"timeout" mapstructure:"timeout"`
}

// Available reports whether the tool is enabled and every required
// environment variable is set.
func (c Config) Available() bool {
	if !c.Enabled {
		return false
	}
	for _, v := range c.RequiredEnvVars {
		if os.Getenv(v) == "" {
			return false
		}
	}
	return true
}

// Result is the outcome of one tool execution. Execution failures are
// reported through Success/Error, not Go errors, so a failing tool
// never aborts the calling agent.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func errorResult(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Tool is one executable capability.
type Tool interface {
	Name() string
	Execute(ctx context.Context, params map[string]interface{}) Result
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
