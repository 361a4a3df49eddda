package state

import (
	"strings"
)

// RunState is the mutable record tracking one task through the
// pipeline. It is exclusively owned by a single pipeline execution and
// is never shared across concurrent tasks, so it carries no locking.
type RunState struct {
	TaskMetadata  TaskMetadata     `json:"task_metadata"`
	SpawnedAgents []SpawnedAgent   `json:"spawned_agents"`
	ToolUsage     []ToolInvocation `json:"tool_usage"`

	// SpawnedAgentResults maps agent run id to result text. Every
	// spawned agent that reaches a terminal status has an entry here,
	// possibly empty.
	SpawnedAgentResults map[string]string `json:"spawned_agent_results"`

	Reasoning      []string       `json:"-"`
	FinalResponse  string         `json:"final_response"`
	WorkflowStatus WorkflowStatus `json:"workflow_status"`
	Errors         []string       `json:"errors"`

	// Conversational memory fields; empty when memory is disabled or
	// no thread id was supplied.
	ThreadID      string `json:"thread_id,omitempty"`
	MemoryContext string `json:"memory_context,omitempty"`
}

// NewRunState builds the initial state for a submitted task.
func NewRunState(meta TaskMetadata, threadID string) *RunState {
	return &RunState{
		TaskMetadata:        meta,
		SpawnedAgentResults: make(map[string]string),
		WorkflowStatus:      WorkflowInitialized,
		ThreadID:            threadID,
	}
}

// AddAgent appends a spawned agent record.
func (rs *RunState) AddAgent(agent SpawnedAgent) {
	rs.SpawnedAgents = append(rs.SpawnedAgents, agent)
}

// UpdateAgentResult sets the terminal status and result for the agent
// with the given run id and mirrors the result into
// SpawnedAgentResults, keeping the terminal-status invariant.
func (rs *RunState) UpdateAgentResult(agentID, result string, status AgentStatus) {
	for i := range rs.SpawnedAgents {
		if rs.SpawnedAgents[i].AgentID == agentID {
			rs.SpawnedAgents[i].Result = result
			rs.SpawnedAgents[i].Status = status
			rs.SpawnedAgentResults[agentID] = result
			return
		}
	}
}

// SetAgentError marks the agent failed with the given error text.
func (rs *RunState) SetAgentError(agentID, errText string) {
	for i := range rs.SpawnedAgents {
		if rs.SpawnedAgents[i].AgentID == agentID {
			rs.SpawnedAgents[i].Error = errText
			rs.SpawnedAgents[i].Status = AgentFailed
			rs.SpawnedAgentResults[agentID] = ""
			return
		}
	}
}

// AddError appends a task-level error. Unlike agent errors this does
// not change the workflow status; only unrecoverable setup faults move
// the pipeline to Failed.
func (rs *RunState) AddError(msg string) {
	rs.Errors = append(rs.Errors, msg)
}

// AddToolUsage appends a tool invocation record to the shared list.
func (rs *RunState) AddToolUsage(inv ToolInvocation) {
	rs.ToolUsage = append(rs.ToolUsage, inv)
}

// AgentToolUsage returns the invocations made by one agent run.
func (rs *RunState) AgentToolUsage(agentID string) []ToolInvocation {
	var out []ToolInvocation
	for _, u := range rs.ToolUsage {
		if u.AgentID == agentID {
			out = append(out, u)
		}
	}
	return out
}

// Trace appends a line to the reasoning trace.
func (rs *RunState) Trace(line string) {
	rs.Reasoning = append(rs.Reasoning, line)
}

// ReasoningText renders the accumulated trace as one block.
func (rs *RunState) ReasoningText() string {
	return strings.Join(rs.Reasoning, "\n")
}
