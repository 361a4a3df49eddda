package agents

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/tools"
)

// Registry resolves specialist ids to executable instances. The kind
// is resolved to a concrete executor at registration time, so dispatch
// is a plain map lookup with no runtime type switching.
type Registry struct {
	mu          sync.RWMutex
	configs     map[string]Config
	specialists map[string]Specialist

	llmClient llm.Client
	toolReg   *tools.Registry
	logger    *zap.Logger
}

// NewRegistry builds an empty registry. The LLM client and tool
// registry are shared by the executors it constructs.
func NewRegistry(llmClient llm.Client, toolReg *tools.Registry, logger *zap.Logger) *Registry {
	return &Registry{
		configs:     make(map[string]Config),
		specialists: make(map[string]Specialist),
		llmClient:   llmClient,
		toolReg:     toolReg,
		logger:      logger,
	}
}

// Register validates the config, builds the executor for its kind, and
// stores both. Re-registering an id replaces the previous entry.
func (r *Registry) Register(cfg Config) error {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	var specialist Specialist
	switch cfg.Kind {
	case KindPromptOnly:
		specialist = newPromptSpecialist(cfg, r.llmClient, r.logger)
	case KindAnalyzer:
		specialist = newAnalyzerSpecialist(cfg, r.llmClient, r.toolReg, r.logger)
	case KindAdapter:
		specialist = newAdapterSpecialist(cfg, r.llmClient, r.toolReg, r.logger)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, cfg.Kind)
	}

	r.mu.Lock()
	r.configs[cfg.ID] = cfg
	r.specialists[cfg.ID] = specialist
	r.mu.Unlock()

	r.logger.Info("Specialist registered",
		zap.String("specialist", cfg.ID),
		zap.String("kind", string(cfg.Kind)),
		zap.Strings("capabilities", cfg.Capabilities),
	)
	return nil
}

// GetConfig returns the configuration for a specialist id.
func (r *Registry) GetConfig(id string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return cfg, nil
}

// GetSpecialist returns the executable instance for a specialist id.
func (r *Registry) GetSpecialist(id string) (Specialist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specialists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return s, nil
}

// List returns registered specialist ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListAgents returns the registered configurations keyed by id.
func (r *Registry) ListAgents() map[string]Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Config, len(r.configs))
	for id, cfg := range r.configs {
		out[id] = cfg
	}
	return out
}

// GetCapabilities returns one specialist's capability list.
func (r *Registry) GetCapabilities(id string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return append([]string(nil), cfg.Capabilities...), nil
}

// AllCapabilities returns the union of all registered capabilities.
func (r *Registry) AllCapabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, cfg := range r.configs {
		for _, cap := range cfg.Capabilities {
			set[cap] = struct{}{}
		}
	}
	caps := make([]string, 0, len(set))
	for cap := range set {
		caps = append(caps, cap)
	}
	sort.Strings(caps)
	return caps
}

// FindByCapability returns ids of specialists advertising a capability
// that contains the given keyword (case-insensitive substring).
func (r *Registry) FindByCapability(keyword string) []string {
	keyword = strings.ToLower(keyword)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, cfg := range r.configs {
		for _, cap := range cfg.Capabilities {
			if strings.Contains(strings.ToLower(cap), keyword) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}
