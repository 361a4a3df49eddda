package tools

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultConfigs returns the built-in tool set. Availability is still
// gated on each tool's environment requirements at call time.
func DefaultConfigs() []Config {
	return []Config{
		{
			Name:        "web_search",
			Type:        "web_search",
			Description: "Search the web for current information",
			Parameters: map[string]interface{}{
				"max_results": 5,
			},
			RequiredEnvVars: []string{"SERPAPI_API_KEY"},
			Enabled:         true,
			Timeout:         15 * time.Second,
		},
		{
			Name:        "code_execution",
			Type:        "code_execution",
			Description: "Execute Python or shell code snippets",
			Parameters: map[string]interface{}{
				"languages": map[string]interface{}{
					"python": "python3",
					"bash":   "bash",
				},
			},
			Enabled: true,
			Timeout: 30 * time.Second,
		},
		{
			Name:        "database_query",
			Type:        "database_query",
			Description: "Run read-only queries against the configured database",
			Parameters: map[string]interface{}{
				"driver":             databaseDriver(),
				"dsn":                os.Getenv("DATABASE_URL"),
				"allowed_operations": []interface{}{"SELECT"},
				"max_rows":           100,
			},
			RequiredEnvVars: []string{"DATABASE_URL"},
			Enabled:         true,
			Timeout:         10 * time.Second,
		},
		{
			Name:        "file_system",
			Type:        "file_system",
			Description: "Read and list files under the allowed directories",
			Parameters: map[string]interface{}{
				"allowed_operations": []interface{}{"read", "list"},
			},
			Enabled: true,
			Timeout: 5 * time.Second,
		},
		{
			Name:        "api_call",
			Type:        "api_call",
			Description: "Call HTTP APIs on the configured allowlist",
			Parameters: map[string]interface{}{
				"allowed_endpoints": []interface{}{},
			},
			Enabled: true,
			Timeout: 15 * time.Second,
		},
	}
}

func databaseDriver() string {
	if d := os.Getenv("DATABASE_DRIVER"); d != "" {
		return d
	}
	return "postgres"
}

// DefaultFactories maps tool types to their constructors.
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		"web_search":     NewWebSearchTool,
		"code_execution": NewCodeExecutionTool,
		"database_query": NewDatabaseQueryTool,
		"file_system":    NewFileSystemTool,
		"api_call":       NewAPICallTool,
	}
}

// RegisterDefaults wires the built-in tools into a registry. Tools
// whose construction fails (for example an unreachable database) are
// logged and skipped rather than failing startup.
func RegisterDefaults(registry *Registry, logger *zap.Logger) {
	factories := DefaultFactories()
	for _, cfg := range DefaultConfigs() {
		factory, ok := factories[cfg.Type]
		if !ok {
			logger.Warn("No factory for tool type", zap.String("type", cfg.Type))
			continue
		}
		if err := registry.RegisterConfig(cfg, factory); err != nil {
			logger.Warn("Tool registration failed",
				zap.String("tool", cfg.Name),
				zap.Error(err),
			)
		}
	}
}
