// Package orchestrator runs the task pipeline: context load, heuristic
// assessment, specialist selection, dispatch, aggregation, and memory
// persistence.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/agents"
	"github.com/agentspawn/orchestrator/internal/heuristics"
	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/memory"
	"github.com/agentspawn/orchestrator/internal/metrics"
	"github.com/agentspawn/orchestrator/internal/state"
	"github.com/agentspawn/orchestrator/internal/tools"
	"github.com/agentspawn/orchestrator/internal/tracing"
)

// Engine drives one task at a time through the six pipeline stages.
// All dependencies are injected; the engine holds no global state.
type Engine struct {
	agents *agents.Registry
	tools  *tools.Registry
	memory *memory.Manager // nil disables the memory stages
	llm    llm.Client
	cfg    Config
	logger *zap.Logger
}

// Result is the caller-facing outcome of one processed task.
type Result struct {
	FinalResponse  string                 `json:"final_response"`
	TaskMetadata   state.TaskMetadata     `json:"task_metadata"`
	SpawnedAgents  []state.SpawnedAgent   `json:"spawned_agents"`
	ToolUsage      []state.ToolInvocation `json:"tool_usage,omitempty"`
	ReasoningTrace string                 `json:"reasoning_trace"`
	WorkflowStatus state.WorkflowStatus   `json:"workflow_status"`
	Errors         []string               `json:"errors,omitempty"`
	MemoryContext  string                 `json:"memory_context,omitempty"`
}

// New builds an engine. The agent registry and LLM client are
// required; the memory manager may be nil.
func New(agentReg *agents.Registry, toolReg *tools.Registry, mem *memory.Manager, llmClient llm.Client, cfg Config, logger *zap.Logger) (*Engine, error) {
	if agentReg == nil {
		return nil, fmt.Errorf("orchestrator requires an agent registry")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("orchestrator requires an LLM client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		agents: agentReg,
		tools:  toolReg,
		memory: mem,
		llm:    llmClient,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}, nil
}

// ProcessTask runs the full pipeline for one task. threadID may be
// empty; it enables conversational memory when set.
func (e *Engine) ProcessTask(ctx context.Context, taskText, threadID string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.ProcessTask")
	defer span.End()

	metrics.TasksSubmitted.Inc()
	start := time.Now()

	meta := state.TaskMetadata{
		TaskID:    fmt.Sprintf("task_%s", uuid.New().String()),
		CreatedAt: time.Now().UTC(),
		UserInput: taskText,
	}
	rs := state.NewRunState(meta, threadID)
	// Duration is observed on exit so the complexity label reflects the
	// assessment made during the run.
	defer func() {
		metrics.TaskDuration.
			WithLabelValues(string(rs.TaskMetadata.Complexity)).
			Observe(time.Since(start).Seconds())
	}()

	e.loadContext(ctx, rs)
	e.assessComplexity(rs)
	chosen := e.decideAgents(rs)
	e.spawnAndExecute(ctx, rs, chosen)
	e.aggregate(ctx, rs)
	e.storeMemory(ctx, rs)

	if rs.WorkflowStatus != state.WorkflowFailed {
		rs.WorkflowStatus = state.WorkflowComplete
	}
	status := "ok"
	if rs.WorkflowStatus == state.WorkflowFailed {
		status = "failed"
	}
	metrics.TasksCompleted.WithLabelValues(string(rs.TaskMetadata.Complexity), status).Inc()

	e.logger.Info("Task processed",
		zap.String("task_id", rs.TaskMetadata.TaskID),
		zap.String("complexity", string(rs.TaskMetadata.Complexity)),
		zap.Int("agents", len(rs.SpawnedAgents)),
		zap.Int("errors", len(rs.Errors)),
		zap.String("status", string(rs.WorkflowStatus)),
	)

	return &Result{
		FinalResponse:  rs.FinalResponse,
		TaskMetadata:   rs.TaskMetadata,
		SpawnedAgents:  rs.SpawnedAgents,
		ToolUsage:      rs.ToolUsage,
		ReasoningTrace: rs.ReasoningText(),
		WorkflowStatus: rs.WorkflowStatus,
		Errors:         rs.Errors,
		MemoryContext:  rs.MemoryContext,
	}, nil
}

// loadContext fetches assembled conversational context. Failures are
// non-fatal: the trace records the outcome and the pipeline continues
// with empty context.
func (e *Engine) loadContext(ctx context.Context, rs *state.RunState) {
	if e.memory == nil || !e.cfg.MemoryEnabled || rs.ThreadID == "" {
		return
	}
	assembled := e.memory.GetRelevantContext(ctx, e.cfg.MemoryProvider, rs.ThreadID, rs.TaskMetadata.UserInput, e.cfg.ContextLimit)
	if assembled == "" {
		rs.Trace("No memory context available for this thread.")
		return
	}
	rs.MemoryContext = assembled
	rs.Trace(fmt.Sprintf("Loaded memory context for thread %s (%d chars).", rs.ThreadID, len(assembled)))
}

// assessComplexity classifies the task. Memory context feeds keyword
// extraction only; the original user text is never rewritten.
func (e *Engine) assessComplexity(rs *state.RunState) {
	rs.WorkflowStatus = state.WorkflowAssessing

	task := rs.TaskMetadata.UserInput
	keywordText := task
	if rs.MemoryContext != "" {
		keywordText = task + "\n" + rs.MemoryContext
	}
	keywords := heuristics.ExtractKeywords(keywordText)
	complexity := heuristics.AssessComplexity(task, keywords)

	rs.TaskMetadata.Keywords = keywords
	rs.TaskMetadata.Complexity = complexity

	shown := keywords
	if len(shown) > 5 {
		shown = shown[:5]
	}
	rationale := fmt.Sprintf("Assessed task complexity as %s. Keywords identified: %s. ",
		complexity, strings.Join(shown, ", "))
	switch complexity {
	case state.ComplexitySimple:
		rationale += "Task is straightforward and can be handled by general reasoning."
	case state.ComplexityModerate:
		rationale += "Task requires specialized analysis. Specialized agents may be beneficial."
	default:
		rationale += "Task is complex. Multiple specialized agents will be spawned."
	}
	rs.Trace(rationale)
}

// decideAgents applies the three-way complexity policy and the novelty
// escalation check, returning the chosen specialist ids in stable
// order.
func (e *Engine) decideAgents(rs *state.RunState) []string {
	rs.WorkflowStatus = state.WorkflowDecidingAgents

	detected := heuristics.DetectRequiredAgents(rs.TaskMetadata.UserInput, rs.TaskMetadata.Keywords)

	var chosen []string
	switch rs.TaskMetadata.Complexity {
	case state.ComplexitySimple:
		chosen = nil
	case state.ComplexityModerate:
		chosen = detected
	default: // complex
		chosen = detected
		if len(chosen) == 0 {
			chosen = append([]string(nil), e.cfg.DefaultSpecialists...)
			rs.Trace(fmt.Sprintf("No specialists detected for complex task; using defaults: %s.", strings.Join(chosen, ", ")))
		}
		if e.cfg.NoveltyPolicy.Enabled && e.isNovelTask(rs.TaskMetadata.Keywords) {
			if id := e.cfg.NoveltyPolicy.SpecialistID; id != "" && !contains(chosen, id) {
				if _, err := e.agents.GetConfig(id); err == nil {
					chosen = append(chosen, id)
					rs.Trace(fmt.Sprintf("Task keywords overlap no registered capability; adding %s.", id))
				}
			}
		}
	}

	rs.TaskMetadata.RequiresMultipleAgents = len(chosen) > 1
	if len(chosen) > 0 {
		rs.Trace(fmt.Sprintf("Spawning %d agents: %s", len(chosen), strings.Join(chosen, ", ")))
	} else {
		rs.Trace("No specialized agents needed. Using direct reasoning.")
	}
	return chosen
}

// isNovelTask reports whether no task keyword appears as a substring
// of any registered capability tag. Both sides are lowercased.
func (e *Engine) isNovelTask(keywords []string) bool {
	caps := e.agents.AllCapabilities()
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, cap := range caps {
			if strings.Contains(strings.ToLower(cap), kw) {
				return false
			}
		}
	}
	return true
}

// spawnAndExecute dispatches each chosen specialist. An empty set
// falls back to one direct completion. A single specialist's failure
// never aborts the batch; cancellation records the remaining
// specialists as errors and lets the pipeline proceed to aggregation.
func (e *Engine) spawnAndExecute(ctx context.Context, rs *state.RunState, chosen []string) {
	rs.WorkflowStatus = state.WorkflowSpawning

	if len(chosen) == 0 {
		rs.WorkflowStatus = state.WorkflowExecuting
		resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: directReasoningSystemPrompt,
			Prompt:       rs.TaskMetadata.UserInput,
		})
		if err != nil {
			rs.AddError(fmt.Sprintf("direct reasoning failed: %v", err))
			rs.FinalResponse = rs.ReasoningText()
			return
		}
		rs.FinalResponse = resp.Text
		return
	}

	type job struct {
		index   int
		agentID string
		cfg     agents.Config
	}
	var jobs []job
	for _, specialistID := range chosen {
		cfg, err := e.agents.GetConfig(specialistID)
		if err != nil {
			rs.AddError(fmt.Sprintf("unknown specialist: %s", specialistID))
			continue
		}
		agentID := fmt.Sprintf("%s_%s", specialistID, uuid.New().String()[:8])
		rs.AddAgent(state.SpawnedAgent{
			Specialist: specialistID,
			AgentID:    agentID,
			SpawnedAt:  time.Now().UTC(),
			Status:     state.AgentInitialized,
		})
		jobs = append(jobs, job{index: len(rs.SpawnedAgents) - 1, agentID: agentID, cfg: cfg})
	}

	rs.WorkflowStatus = state.WorkflowExecuting

	type outcome struct {
		result agents.ExecutionResult
		err    error
	}
	outcomes := make([]outcome, len(jobs))
	sem := make(chan struct{}, e.cfg.MaxConcurrentAgents)
	done := make(chan int, len(jobs))

	for i, j := range jobs {
		if ctx.Err() != nil {
			outcomes[i] = outcome{err: fmt.Errorf("cancelled before execution: %w", ctx.Err())}
			done <- i
			continue
		}
		rs.SpawnedAgents[j.index].Status = state.AgentRunning
		sem <- struct{}{}
		go func(i int, j job) {
			defer func() { <-sem; done <- i }()
			outcomes[i].result, outcomes[i].err = e.runSpecialist(ctx, j.agentID, j.cfg, rs.TaskMetadata.UserInput, rs.MemoryContext)
		}(i, j)
	}
	for range jobs {
		<-done
	}

	// Apply outcomes in spawn order.
	for i, j := range jobs {
		out := outcomes[i]
		for _, inv := range out.result.ToolInvocations {
			rs.AddToolUsage(inv)
		}
		if out.err != nil {
			rs.SetAgentError(j.agentID, out.err.Error())
			rs.AddError(fmt.Sprintf("error executing agent %s: %v", j.cfg.ID, out.err))
			metrics.AgentExecutions.WithLabelValues(j.cfg.ID, "failed").Inc()
			continue
		}
		rs.UpdateAgentResult(j.agentID, out.result.Output, state.AgentCompleted)
		metrics.AgentExecutions.WithLabelValues(j.cfg.ID, "completed").Inc()
	}
}

// runSpecialist executes one specialist with its configured timeout
// and retry budget.
func (e *Engine) runSpecialist(ctx context.Context, agentID string, cfg agents.Config, task, memoryContext string) (agents.ExecutionResult, error) {
	specialist, err := e.agents.GetSpecialist(cfg.ID)
	if err != nil {
		return agents.ExecutionResult{}, err
	}

	timer := prometheus.NewTimer(metrics.AgentExecutionDuration.WithLabelValues(cfg.ID))
	defer timer.ObserveDuration()

	var lastErr error
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result, err := specialist.Execute(runCtx, agentID, task, memoryContext)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		e.logger.Warn("Specialist attempt failed",
			zap.String("specialist", cfg.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return agents.ExecutionResult{}, lastErr
}

// aggregate synthesizes specialist results into the final response.
// With no spawned agents the direct response stands; with no completed
// results, or a failing synthesis call, the trace text is the
// fallback.
func (e *Engine) aggregate(ctx context.Context, rs *state.RunState) {
	rs.WorkflowStatus = state.WorkflowAggregating

	if len(rs.SpawnedAgents) == 0 {
		return
	}

	anyCompleted := false
	for _, a := range rs.SpawnedAgents {
		if a.Status == state.AgentCompleted {
			anyCompleted = true
			break
		}
	}
	if !anyCompleted {
		rs.Trace("All specialists failed; falling back to reasoning trace.")
		rs.FinalResponse = rs.ReasoningText()
		return
	}

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: synthesisSystemPrompt,
		Prompt:       synthesisPrompt(rs.TaskMetadata.UserInput, rs.SpawnedAgents, rs.SpawnedAgentResults),
	})
	if err != nil {
		rs.AddError(fmt.Sprintf("synthesis failed: %v", err))
		rs.Trace("Synthesis call failed; falling back to reasoning trace.")
		rs.FinalResponse = rs.ReasoningText()
		return
	}
	rs.FinalResponse = resp.Text
}

// storeMemory persists the completed turn. Failures only leave a note
// in the trace; they never change workflow status or the error list.
func (e *Engine) storeMemory(ctx context.Context, rs *state.RunState) {
	if e.memory == nil || !e.cfg.MemoryEnabled || rs.ThreadID == "" {
		return
	}

	provider := e.cfg.MemoryProvider
	if err := e.memory.StoreConversationTurn(ctx, provider, rs.ThreadID, rs.TaskMetadata.UserInput, rs.FinalResponse); err != nil {
		rs.Trace(fmt.Sprintf("Memory storage failed for turn: %v", err))
	}

	for _, a := range rs.SpawnedAgents {
		if a.Status != state.AgentCompleted {
			continue
		}
		entry := memory.Entry{
			ID:      uuid.New().String(),
			Content: a.Result,
			Metadata: map[string]interface{}{
				"thread_id":  rs.ThreadID,
				"specialist": a.Specialist,
				"agent_id":   a.AgentID,
				"task_id":    rs.TaskMetadata.TaskID,
			},
			Timestamp: time.Now().UTC(),
			Kind:      memory.KindAgentResult,
		}
		if err := e.memory.StoreMemory(ctx, provider, entry); err != nil {
			rs.Trace(fmt.Sprintf("Memory storage failed for agent result %s: %v", a.AgentID, err))
		}
	}

	cc := memory.ConversationContext{
		ThreadID:    rs.ThreadID,
		LastUpdated: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"last_task_id":    rs.TaskMetadata.TaskID,
			"last_complexity": string(rs.TaskMetadata.Complexity),
			"agent_count":     len(rs.SpawnedAgents),
			"tool_call_count": len(rs.ToolUsage),
		},
	}
	if existing := e.memory.GetConversationContext(ctx, provider, rs.ThreadID); existing != nil {
		cc.CreatedAt = existing.CreatedAt
		cc.UserID = existing.UserID
		cc.SessionID = existing.SessionID
	}
	if err := e.memory.StoreConversationContext(ctx, provider, cc); err != nil {
		rs.Trace(fmt.Sprintf("Memory storage failed for conversation context: %v", err))
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
