package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/agents"
	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/memory"
	"github.com/agentspawn/orchestrator/internal/metrics"
	"github.com/agentspawn/orchestrator/internal/state"
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
	return llm.CompletionResponse{Text: "generic answer", TokensUsed: 1}, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// failingProvider errors on every write, for storage-degradation tests.
type failingProvider struct{}

func (failingProvider) StoreMemory(context.Context, memory.Entry) error {
	return errors.New("vector store down")
}
func (failingProvider) RetrieveMemories(context.Context, string, int, map[string]interface{}) ([]memory.Entry, error) {
	return nil, nil
}
func (failingProvider) GetConversationHistory(context.Context, string, int) ([]memory.Entry, error) {
	return nil, nil
}
func (failingProvider) StoreConversationContext(context.Context, memory.ConversationContext) error {
	return errors.New("vector store down")
}
func (failingProvider) GetConversationContext(context.Context, string) (*memory.ConversationContext, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, client llm.Client, cfg Config, mem *memory.Manager) *Engine {
	t.Helper()
	logger := zap.NewNop()
	toolReg := tools.NewRegistry(logger)
	agentReg := agents.NewRegistry(client, toolReg, logger)
	require.NoError(t, agents.RegisterDefaults(agentReg))
	engine, err := New(agentReg, toolReg, mem, client, cfg, logger)
	require.NoError(t, err)
	return engine
}

func TestSimpleTaskUsesDirectReasoning(t *testing.T) {
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		assert.Equal(t, directReasoningSystemPrompt, req.SystemPrompt)
		return llm.CompletionResponse{Text: "Paris"}, nil
	}}
	engine := newTestEngine(t, client, Config{}, nil)

	res, err := engine.ProcessTask(context.Background(), "What is the capital of France?", "")
	require.NoError(t, err)

	assert.Equal(t, state.ComplexitySimple, res.TaskMetadata.Complexity)
	assert.Empty(t, res.SpawnedAgents)
	assert.False(t, res.TaskMetadata.RequiresMultipleAgents)
	assert.Equal(t, "Paris", res.FinalResponse)
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
	assert.Equal(t, 1, client.callCount())
}

func TestModerateTaskSpawnsDetectedSpecialist(t *testing.T) {
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		if req.SystemPrompt == synthesisSystemPrompt {
			return llm.CompletionResponse{Text: "synthesized"}, nil
		}
		return llm.CompletionResponse{Text: "specialist output"}, nil
	}}
	engine := newTestEngine(t, client, Config{}, nil)

	res, err := engine.ProcessTask(context.Background(),
		"Write a Python function to calculate the average of numbers", "")
	require.NoError(t, err)

	assert.Equal(t, state.ComplexityModerate, res.TaskMetadata.Complexity)
	require.NotEmpty(t, res.SpawnedAgents)
	specialists := make([]string, 0, len(res.SpawnedAgents))
	for _, a := range res.SpawnedAgents {
		specialists = append(specialists, a.Specialist)
		assert.True(t, a.Status.Terminal())
	}
	assert.Contains(t, specialists, "code_generator")
	assert.Equal(t, "synthesized", res.FinalResponse)
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
}

func TestComplexTaskSpawnsMultipleSpecialists(t *testing.T) {
	client := &fakeLLM{}
	engine := newTestEngine(t, client, Config{}, nil)

	task := "Research the best database architecture for our analytics workload. " +
		"Analyze the trade-offs and write example code. " +
		"Which option scales best? What are the costs?"
	res, err := engine.ProcessTask(context.Background(), task, "")
	require.NoError(t, err)

	assert.Equal(t, state.ComplexityComplex, res.TaskMetadata.Complexity)
	assert.GreaterOrEqual(t, len(res.SpawnedAgents), 2)
	assert.True(t, res.TaskMetadata.RequiresMultipleAgents)
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)

	// Every spawned agent reaches a terminal status with a results
	// entry.
	for _, a := range res.SpawnedAgents {
		assert.True(t, a.Status.Terminal(), "agent %s not terminal", a.AgentID)
	}
}

func TestUnknownSpecialistDoesNotAbortBatch(t *testing.T) {
	client := &fakeLLM{}
	cfg := Config{
		DefaultSpecialists: []string{"data_analyst", "nonexistent_specialist"},
		NoveltyPolicy:      NoveltyPolicy{Enabled: false},
	}
	engine := newTestEngine(t, client, cfg, nil)

	// Complex cues but nothing that maps to a specialist, forcing the
	// configured default set.
	task := "Devise a comprehensive strategy spanning multiple factors. " +
		"What should change first? What should wait?"
	res, err := engine.ProcessTask(context.Background(), task, "")
	require.NoError(t, err)

	assert.Equal(t, state.ComplexityComplex, res.TaskMetadata.Complexity)
	require.Len(t, res.SpawnedAgents, 1)
	assert.Equal(t, "data_analyst", res.SpawnedAgents[0].Specialist)
	assert.Equal(t, state.AgentCompleted, res.SpawnedAgents[0].Status)

	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "unknown specialist")
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
}

func TestNoveltyEscalationAddsAdapter(t *testing.T) {
	client := &fakeLLM{}
	cfg := Config{NoveltyPolicy: NoveltyPolicy{Enabled: true, SpecialistID: "task_adapter"}}
	engine := newTestEngine(t, client, cfg, nil)

	task := "Devise a comprehensive strategy spanning multiple factors. " +
		"What should change first? What should wait?"
	res, err := engine.ProcessTask(context.Background(), task, "")
	require.NoError(t, err)

	specialists := make([]string, 0, len(res.SpawnedAgents))
	for _, a := range res.SpawnedAgents {
		specialists = append(specialists, a.Specialist)
	}
	assert.Contains(t, specialists, "task_adapter")
	assert.Contains(t, specialists, "data_analyst")
	assert.True(t, res.TaskMetadata.RequiresMultipleAgents)
}

func TestAllSpecialistsFailedFallsBackToTrace(t *testing.T) {
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		return llm.CompletionResponse{}, errors.New("model overloaded")
	}}
	engine := newTestEngine(t, client, Config{}, nil)

	res, err := engine.ProcessTask(context.Background(),
		"Write a Python function to calculate the average of numbers", "")
	require.NoError(t, err)

	require.NotEmpty(t, res.SpawnedAgents)
	for _, a := range res.SpawnedAgents {
		assert.Equal(t, state.AgentFailed, a.Status)
	}
	assert.NotEmpty(t, res.Errors)
	// Per-specialist failures never force Failed status.
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
	// Final response falls back to the reasoning trace.
	assert.Equal(t, res.ReasoningTrace, res.FinalResponse)
	assert.NotEmpty(t, res.FinalResponse)
}

func TestSynthesisFailureFallsBackToTrace(t *testing.T) {
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		if req.SystemPrompt == synthesisSystemPrompt {
			return llm.CompletionResponse{}, errors.New("synthesis down")
		}
		return llm.CompletionResponse{Text: "specialist output"}, nil
	}}
	engine := newTestEngine(t, client, Config{}, nil)

	res, err := engine.ProcessTask(context.Background(),
		"Write a Python function to calculate the average of numbers", "")
	require.NoError(t, err)

	assert.Equal(t, res.ReasoningTrace, res.FinalResponse)
	assert.Contains(t, strings.Join(res.Errors, "\n"), "synthesis failed")
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
}

func TestMemoryStorageFailureLeavesTraceNoteOnly(t *testing.T) {
	client := &fakeLLM{}
	mem := memory.NewManager(zap.NewNop())
	mem.RegisterProvider("vector", failingProvider{})

	cfg := Config{MemoryEnabled: true}
	engine := newTestEngine(t, client, cfg, mem)

	res, err := engine.ProcessTask(context.Background(), "What is the capital of France?", "thread-1")
	require.NoError(t, err)

	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
	assert.Contains(t, res.ReasoningTrace, "storage failed")
	// Memory trouble never lands in the task error list.
	for _, e := range res.Errors {
		assert.NotContains(t, e, "storage")
	}
}

func TestCancellationRecordsRemainingAsErrors(t *testing.T) {
	client := &fakeLLM{}
	engine := newTestEngine(t, client, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := engine.ProcessTask(ctx,
		"Research the dataset trends and write code to analyze them. "+
			"Compare the approaches in depth. Which wins? Why?", "")
	require.NoError(t, err)

	require.NotEmpty(t, res.SpawnedAgents)
	for _, a := range res.SpawnedAgents {
		assert.Equal(t, state.AgentFailed, a.Status)
	}
	assert.Contains(t, strings.Join(res.Errors, "\n"), "cancelled")
	// The pipeline still proceeds through aggregation to Complete.
	assert.Equal(t, state.WorkflowComplete, res.WorkflowStatus)
}

func TestWorkerPoolPreservesSpawnOrder(t *testing.T) {
	// The first specialist responds slowest; spawn order must still
	// hold in the recorded results.
	client := &fakeLLM{reply: func(req llm.CompletionRequest) (llm.CompletionResponse, error) {
		if strings.Contains(req.SystemPrompt, "data analyst") {
			time.Sleep(50 * time.Millisecond)
			return llm.CompletionResponse{Text: "analyst result"}, nil
		}
		if req.SystemPrompt == synthesisSystemPrompt {
			return llm.CompletionResponse{Text: "synthesized"}, nil
		}
		return llm.CompletionResponse{Text: "other result"}, nil
	}}
	cfg := Config{MaxConcurrentAgents: 3, NoveltyPolicy: NoveltyPolicy{Enabled: false}}
	engine := newTestEngine(t, client, cfg, nil)

	task := "Research the dataset trends and write code to analyze them. " +
		"Compare the approaches in depth. Which wins? Why?"
	res, err := engine.ProcessTask(context.Background(), task, "")
	require.NoError(t, err)

	require.Len(t, res.SpawnedAgents, 3)
	assert.Equal(t, "data_analyst", res.SpawnedAgents[0].Specialist)
	assert.Equal(t, "researcher", res.SpawnedAgents[1].Specialist)
	assert.Equal(t, "code_generator", res.SpawnedAgents[2].Specialist)
	for _, a := range res.SpawnedAgents {
		assert.Equal(t, state.AgentCompleted, a.Status)
	}
}

func TestRequiresMultipleAgentsInvariant(t *testing.T) {
	client := &fakeLLM{}
	engine := newTestEngine(t, client, Config{NoveltyPolicy: NoveltyPolicy{Enabled: false}}, nil)

	t.Run("single specialist", func(t *testing.T) {
		res, err := engine.ProcessTask(context.Background(),
			"Write a Python function to calculate the average of numbers", "")
		require.NoError(t, err)
		assert.Equal(t, len(res.SpawnedAgents) > 1, res.TaskMetadata.RequiresMultipleAgents)
	})

	t.Run("no specialists", func(t *testing.T) {
		res, err := engine.ProcessTask(context.Background(), "hello", "")
		require.NoError(t, err)
		assert.False(t, res.TaskMetadata.RequiresMultipleAgents)
	})
}

// recordingTool stands in for web_search and captures its calls.
type recordingTool struct {
	mu    sync.Mutex
	calls []map[string]interface{}
}

func (rt *recordingTool) Name() string { return "web_search" }

func (rt *recordingTool) Execute(_ context.Context, params map[string]interface{}) tools.Result {
	rt.mu.Lock()
	rt.calls = append(rt.calls, params)
	rt.mu.Unlock()
	return tools.Result{Success: true, Data: "search results"}
}

func TestToolInvocationsReachTaskResult(t *testing.T) {
	logger := zap.NewNop()
	client := &fakeLLM{}
	toolReg := tools.NewRegistry(logger)
	tool := &recordingTool{}
	toolReg.RegisterTool(tools.Config{Name: "web_search", Type: "web_search", Enabled: true}, tool)
	agentReg := agents.NewRegistry(client, toolReg, logger)
	require.NoError(t, agents.RegisterDefaults(agentReg))

	cfg := Config{NoveltyPolicy: NoveltyPolicy{Enabled: false}}
	engine, err := New(agentReg, toolReg, nil, client, cfg, logger)
	require.NoError(t, err)

	task := "Research the latest quantum computing breakthroughs"
	res, err := engine.ProcessTask(context.Background(), task, "")
	require.NoError(t, err)

	require.Len(t, res.SpawnedAgents, 1)
	agent := res.SpawnedAgents[0]
	assert.Equal(t, "researcher", agent.Specialist)
	assert.Equal(t, state.AgentCompleted, agent.Status)

	require.Len(t, tool.calls, 1)
	require.Len(t, res.ToolUsage, 1)
	inv := res.ToolUsage[0]
	assert.Equal(t, "web_search", inv.ToolName)
	assert.Equal(t, agent.AgentID, inv.AgentID)
	assert.True(t, inv.Success)
	assert.Equal(t, task, inv.Parameters["query"])
	assert.Equal(t, "search results", inv.Result)
	assert.False(t, inv.UsedAt.IsZero())
}

func TestTaskDurationObservedWithComplexityLabel(t *testing.T) {
	client := &fakeLLM{}
	engine := newTestEngine(t, client, Config{}, nil)

	_, err := engine.ProcessTask(context.Background(), "What is the capital of France?", "")
	require.NoError(t, err)

	count := testutil.CollectAndCount(metrics.TaskDuration, "agentspawn_task_duration_seconds")
	assert.GreaterOrEqual(t, count, 1)
}

func TestNewValidatesDependencies(t *testing.T) {
	logger := zap.NewNop()
	toolReg := tools.NewRegistry(logger)
	client := &fakeLLM{}
	agentReg := agents.NewRegistry(client, toolReg, logger)

	_, err := New(nil, toolReg, nil, client, Config{}, logger)
	assert.Error(t, err)

	_, err = New(agentReg, toolReg, nil, nil, Config{}, logger)
	assert.Error(t, err)
}
