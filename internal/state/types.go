package state

import (
	"time"
)

// ComplexityLevel is the coarse triage classification for a task.
type ComplexityLevel string

const (
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityComplex  ComplexityLevel = "complex"
)

// AgentStatus tracks the lifecycle of one spawned specialist.
type AgentStatus string

const (
	AgentInitialized AgentStatus = "initialized"
	AgentRunning     AgentStatus = "running"
	AgentCompleted   AgentStatus = "completed"
	AgentFailed      AgentStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s AgentStatus) Terminal() bool {
	return s == AgentCompleted || s == AgentFailed
}

// WorkflowStatus tracks pipeline progress. It is monotonic along the
// stage sequence; Failed can be entered from any stage and halts
// normal progression.
type WorkflowStatus string

const (
	WorkflowInitialized    WorkflowStatus = "initialized"
	WorkflowAssessing      WorkflowStatus = "assessing"
	WorkflowDecidingAgents WorkflowStatus = "deciding_agents"
	WorkflowSpawning       WorkflowStatus = "spawning"
	WorkflowExecuting      WorkflowStatus = "executing"
	WorkflowAggregating    WorkflowStatus = "aggregating"
	WorkflowComplete       WorkflowStatus = "complete"
	WorkflowFailed         WorkflowStatus = "failed"
)

// TaskMetadata describes the submitted task. It is written by the
// assessment and decision stages and immutable afterwards.
type TaskMetadata struct {
	TaskID                 string          `json:"task_id"`
	CreatedAt              time.Time       `json:"created_at"`
	UserInput              string          `json:"user_input"`
	Keywords               []string        `json:"keywords"`
	Complexity             ComplexityLevel `json:"complexity"`
	RequiresMultipleAgents bool            `json:"requires_multiple_agents"`
}

// SpawnedAgent records one specialist invocation for a task. It is
// created at spawn time and updated exactly once with a terminal status.
type SpawnedAgent struct {
	Specialist string      `json:"specialist"`
	AgentID    string      `json:"agent_id"`
	SpawnedAt  time.Time   `json:"spawned_at"`
	Status     AgentStatus `json:"status"`
	Result     string      `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ToolInvocation records a single tool call made by a specialist.
// Entries are append-only and never mutated after creation.
type ToolInvocation struct {
	ToolName   string                 `json:"tool_name"`
	AgentID    string                 `json:"agent_id"`
	UsedAt     time.Time              `json:"used_at"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Result     interface{}            `json:"result,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Duration   time.Duration          `json:"duration,omitempty"`
}
