package orchestrator

// NoveltyPolicy controls escalation to the novel-task specialist when
// a complex task's keywords overlap no registered capability.
type NoveltyPolicy struct {
	Enabled      bool   `mapstructure:"enabled"`
	SpecialistID string `mapstructure:"specialist_id"`
}

// Config tunes the pipeline.
type Config struct {
	// DefaultSpecialists is the fallback set for complex tasks with no
	// detected specialists.
	DefaultSpecialists []string `mapstructure:"default_specialists"`

	NoveltyPolicy NoveltyPolicy `mapstructure:"novelty_policy"`

	// MaxConcurrentAgents bounds parallel specialist execution.
	// 1 runs specialists sequentially; results always join in spawn
	// order regardless.
	MaxConcurrentAgents int `mapstructure:"max_concurrent_agents"`

	// MemoryEnabled gates the load-context and store stages.
	MemoryEnabled  bool   `mapstructure:"memory_enabled"`
	MemoryProvider string `mapstructure:"memory_provider"`
	ContextLimit   int    `mapstructure:"context_limit"`
}

func (c Config) withDefaults() Config {
	if len(c.DefaultSpecialists) == 0 {
		c.DefaultSpecialists = []string{"data_analyst", "researcher"}
	}
	if c.NoveltyPolicy.SpecialistID == "" {
		c.NoveltyPolicy.SpecialistID = "task_adapter"
	}
	if c.MaxConcurrentAgents <= 0 {
		c.MaxConcurrentAgents = 1
	}
	if c.MemoryProvider == "" {
		c.MemoryProvider = "vector"
	}
	if c.ContextLimit <= 0 {
		c.ContextLimit = 5
	}
	return c
}
