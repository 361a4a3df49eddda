// Package agents holds the specialist registry: the configurations,
// prompts, and executors for the agents the pipeline can spawn.
package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentspawn/orchestrator/internal/state"
)

var (
	// ErrAgentNotFound is returned when a specialist id is not
	// registered.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrUnknownKind is returned at registration for a kind outside the
	// closed enum.
	ErrUnknownKind = errors.New("unknown specialist kind")
)

// SpecialistKind selects the execution strategy for a specialist.
// The set is closed; registration rejects anything else.
type SpecialistKind string

const (
	// KindPromptOnly answers with a single completion built from the
	// specialist's system prompt.
	KindPromptOnly SpecialistKind = "prompt_only"
	// KindAnalyzer runs matching tools first and folds their output
	// into the completion prompt.
	KindAnalyzer SpecialistKind = "analyzer"
	// KindAdapter handles tasks no configured capability covers by
	// synthesizing an approach before answering.
	KindAdapter SpecialistKind = "adapter"
)

// Valid reports whether the kind is a member of the closed enum.
func (k SpecialistKind) Valid() bool {
	switch k {
	case KindPromptOnly, KindAnalyzer, KindAdapter:
		return true
	}
	return false
}

// Config describes one specialist.
type Config struct {
	ID           string         `yaml:"id" mapstructure:"id"`
	Name         string         `yaml:"name" mapstructure:"name"`
	Description  string         `yaml:"description" mapstructure:"description"`
	SystemPrompt string         `yaml:"system_prompt" mapstructure:"system_prompt"`
	Capabilities []string       `yaml:"capabilities" mapstructure:"capabilities"`
	Kind         SpecialistKind `yaml:"kind" mapstructure:"kind"`
	MaxRetries   int            `yaml:"max_retries" mapstructure:"max_retries"`
	Timeout      time.Duration  `yaml:"timeout" mapstructure:"timeout"`
}

func (c Config) withDefaults() (Config, error) {
	if c.ID == "" {
		return c, fmt.Errorf("specialist config requires an id")
	}
	if c.Kind == "" {
		c.Kind = KindPromptOnly
	}
	if !c.Kind.Valid() {
		return c, fmt.Errorf("%w: %s", ErrUnknownKind, c.Kind)
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c, nil
}

// ExecutionResult is one specialist run's output.
type ExecutionResult struct {
	Output          string
	ToolInvocations []state.ToolInvocation
	TokensUsed      int
}

// Specialist executes one task. agentID tags tool invocations;
// memoryContext may be empty.
type Specialist interface {
	Config() Config
	Execute(ctx context.Context, agentID, task, memoryContext string) (ExecutionResult, error)
}
