// Package config loads the application configuration from
// agentspawn.yaml with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentspawn/orchestrator/internal/embeddings"
	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/orchestrator"
	"github.com/agentspawn/orchestrator/internal/tracing"
	"github.com/agentspawn/orchestrator/internal/vectordb"
)

// Config is the full application configuration.
type Config struct {
	LLM        llm.Config        `mapstructure:"llm"`
	Embeddings embeddings.Config `mapstructure:"embeddings"`
	VectorDB   vectordb.Config   `mapstructure:"vectordb"`

	Memory struct {
		Enabled   bool   `mapstructure:"enabled"`
		Provider  string `mapstructure:"provider"`
		RedisAddr string `mapstructure:"redis_addr"`
	} `mapstructure:"memory"`

	Orchestrator orchestrator.Config `mapstructure:"orchestrator"`

	// SpecialistsFile optionally points at a YAML file with additional
	// specialist definitions; watched for changes when set.
	SpecialistsFile string `mapstructure:"specialists_file"`

	Tracing tracing.Config `mapstructure:"tracing"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// Load reads agentspawn.yaml (path from CONFIG_PATH, then the working
// directory) and applies AGENTSPAWN_* environment overrides. A missing
// file is not an error; defaults and environment cover everything.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("agentspawn")
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix("AGENTSPAWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && os.Getenv("CONFIG_PATH") != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "http://llm-service:8000")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("embeddings.base_url", "http://llm-service:8000")
	v.SetDefault("embeddings.default_model", "text-embedding-3-small")
	v.SetDefault("embeddings.cache_ttl", time.Hour)

	v.SetDefault("vectordb.host", "qdrant")
	v.SetDefault("vectordb.port", 6333)
	v.SetDefault("vectordb.collection", "agent_memory")
	v.SetDefault("vectordb.top_k", 5)

	v.SetDefault("memory.enabled", true)
	v.SetDefault("memory.provider", "vector")

	v.SetDefault("orchestrator.default_specialists", []string{"data_analyst", "researcher"})
	v.SetDefault("orchestrator.novelty_policy.enabled", true)
	v.SetDefault("orchestrator.novelty_policy.specialist_id", "task_adapter")
	v.SetDefault("orchestrator.max_concurrent_agents", 1)
	v.SetDefault("orchestrator.memory_enabled", true)
	v.SetDefault("orchestrator.memory_provider", "vector")
	v.SetDefault("orchestrator.context_limit", 5)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "agentspawn-orchestrator")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("logging.level", "info")
}
