package agents

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/tools"
)

type fakeLLM struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	reply func(req llm.CompletionRequest) (llm.CompletionResponse, error)
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(req)
	}
	return llm.CompletionResponse{Text: "ok", TokensUsed: 1}, nil
}

func newTestRegistry(t *testing.T, client llm.Client) *Registry {
	t.Helper()
	logger := zap.NewNop()
	return NewRegistry(client, tools.NewRegistry(logger), logger)
}

func TestRegisterDefaults(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, RegisterDefaults(reg))

	assert.Equal(t, []string{"code_generator", "data_analyst", "researcher", "task_adapter"}, reg.List())

	cfg, err := reg.GetConfig("data_analyst")
	require.NoError(t, err)
	assert.Equal(t, "Data Analyst", cfg.Name)
	assert.Equal(t, KindAnalyzer, cfg.Kind)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Contains(t, cfg.Capabilities, "statistical_analysis")
}

func TestRegisterRejectsUnknownKind(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	err := reg.Register(Config{ID: "weird", Kind: "self_improving"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegisterRequiresID(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	assert.Error(t, reg.Register(Config{Kind: KindPromptOnly}))
}

func TestGetConfigUnknown(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	_, err := reg.GetConfig("missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestFindByCapability(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, RegisterDefaults(reg))

	assert.Equal(t, []string{"data_analyst"}, reg.FindByCapability("forecast"))
	assert.Equal(t, []string{"code_generator"}, reg.FindByCapability("DEBUG"))
	assert.Empty(t, reg.FindByCapability("quantum"))
}

func TestAllCapabilitiesUnion(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, RegisterDefaults(reg))

	caps := reg.AllCapabilities()
	assert.Contains(t, caps, "forecasting")
	assert.Contains(t, caps, "literature_review")
	assert.Contains(t, caps, "code_generation")
	assert.Contains(t, caps, "task_adaptation")
}

func TestGetCapabilitiesPerSpecialist(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, RegisterDefaults(reg))

	caps, err := reg.GetCapabilities("data_analyst")
	require.NoError(t, err)
	assert.Contains(t, caps, "forecasting")
	assert.NotContains(t, caps, "code_generation")

	_, err = reg.GetCapabilities("nope")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestListAgentsReturnsConfigsByID(t *testing.T) {
	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, RegisterDefaults(reg))

	all := reg.ListAgents()
	require.Len(t, all, 4)
	assert.Equal(t, "data_analyst", all["data_analyst"].ID)
	assert.Equal(t, KindAdapter, all["task_adapter"].Kind)
	assert.NotEmpty(t, all["researcher"].SystemPrompt)
}

func TestPromptOnlyExecuteUsesTemplate(t *testing.T) {
	client := &fakeLLM{}
	reg := newTestRegistry(t, client)
	require.NoError(t, reg.Register(Config{
		ID:           "data_analyst",
		SystemPrompt: "analyst system prompt",
		Kind:         KindPromptOnly,
	}))

	s, err := reg.GetSpecialist("data_analyst")
	require.NoError(t, err)
	res, err := s.Execute(context.Background(), "run-1", "Summarize sales figures", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Output)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "analyst system prompt", client.calls[0].SystemPrompt)
	assert.Contains(t, client.calls[0].Prompt, "You are a data analyst.")
	assert.Contains(t, client.calls[0].Prompt, "Summarize sales figures")
}

func TestAdapterExecuteRunsTwoCompletions(t *testing.T) {
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		if req.SystemPrompt == taskAnalysisSystemPrompt {
			return llm.CompletionResponse{Text: "analysis of the task", TokensUsed: 2}, nil
		}
		return llm.CompletionResponse{Text: "adapted answer", TokensUsed: 3}, nil
	}}
	reg := newTestRegistry(t, client)
	require.NoError(t, reg.Register(Config{ID: "task_adapter", Kind: KindAdapter}))

	s, err := reg.GetSpecialist("task_adapter")
	require.NoError(t, err)
	res, err := s.Execute(context.Background(), "run-1", "translate whale song", "")
	require.NoError(t, err)

	assert.Equal(t, "adapted answer", res.Output)
	assert.Equal(t, 5, res.TokensUsed)
	require.Len(t, client.calls, 2)
	assert.Contains(t, client.calls[1].SystemPrompt, "analysis of the task")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specialists.yaml")
	content := `specialists:
  - id: translator
    name: Translator
    system_prompt: You translate text.
    capabilities: [translation]
    kind: prompt_only
  - id: broken
    kind: not_a_kind
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg := newTestRegistry(t, &fakeLLM{})
	require.NoError(t, LoadFile(reg, path, zap.NewNop()))

	cfg, err := reg.GetConfig("translator")
	require.NoError(t, err)
	assert.Equal(t, "Translator", cfg.Name)

	// The invalid entry is skipped, not fatal.
	_, err = reg.GetConfig("broken")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}
