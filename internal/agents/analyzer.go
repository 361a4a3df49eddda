package agents

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/state"
	"github.com/agentspawn/orchestrator/internal/tools"
)

// toolTriggers maps task keywords to the tool they call for. Triggers
// only fire for tools the registry currently lists as available.
var toolTriggers = []struct {
	keywords []string
	tool     string
	params   func(task string) map[string]interface{}
}{
	{
		keywords: []string{"database", "query", "sql"},
		tool:     "database_query",
		params: func(task string) map[string]interface{} {
			return map[string]interface{}{"query": task}
		},
	},
	{
		keywords: []string{"calculate", "compute", "python"},
		tool:     "code_execution",
		params: func(task string) map[string]interface{} {
			return map[string]interface{}{"language": "python", "code": task}
		},
	},
	{
		keywords: []string{"research", "search", "latest"},
		tool:     "web_search",
		params: func(task string) map[string]interface{} {
			return map[string]interface{}{"query": task}
		},
	},
}

// analyzerSpecialist runs matching tools first, then folds their
// output into the completion prompt.
type analyzerSpecialist struct {
	cfg     Config
	client  llm.Client
	toolReg *tools.Registry
	logger  *zap.Logger
}

func newAnalyzerSpecialist(cfg Config, client llm.Client, toolReg *tools.Registry, logger *zap.Logger) *analyzerSpecialist {
	return &analyzerSpecialist{cfg: cfg, client: client, toolReg: toolReg, logger: logger}
}

func (s *analyzerSpecialist) Config() Config { return s.cfg }

func (s *analyzerSpecialist) Execute(ctx context.Context, agentID, task, memoryContext string) (ExecutionResult, error) {
	outputs, invocations := s.runMatchingTools(ctx, agentID, task)

	prompt := buildTaskPrompt(task, memoryContext) + renderToolOutputs(outputs)
	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: s.cfg.SystemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		return ExecutionResult{ToolInvocations: invocations}, err
	}
	return ExecutionResult{
		Output:          resp.Text,
		ToolInvocations: invocations,
		TokensUsed:      resp.TokensUsed,
	}, nil
}

// runMatchingTools executes every trigger whose keywords appear in the
// task. A failing tool is recorded and skipped; it never aborts the
// run.
func (s *analyzerSpecialist) runMatchingTools(ctx context.Context, agentID, task string) ([]toolOutput, []state.ToolInvocation) {
	lower := strings.ToLower(task)
	available := make(map[string]struct{})
	for _, name := range s.toolReg.ListAvailable() {
		available[name] = struct{}{}
	}

	var outputs []toolOutput
	var invocations []state.ToolInvocation
	for _, trigger := range toolTriggers {
		if !containsAny(lower, trigger.keywords) {
			continue
		}
		if _, ok := available[trigger.tool]; !ok {
			continue
		}

		params := trigger.params(task)
		start := time.Now()
		res := s.toolReg.Execute(ctx, trigger.tool, params)
		elapsed := time.Since(start)

		invocations = append(invocations, state.ToolInvocation{
			ToolName:   trigger.tool,
			AgentID:    agentID,
			UsedAt:     start,
			Parameters: params,
			Result:     res.Data,
			Success:    res.Success,
			Error:      res.Error,
			Duration:   elapsed,
		})
		if res.Success {
			outputs = append(outputs, toolOutput{tool: trigger.tool, data: res.Data})
		} else {
			s.logger.Debug("Tool trigger failed",
				zap.String("specialist", s.cfg.ID),
				zap.String("tool", trigger.tool),
				zap.String("error", res.Error),
			)
		}
	}
	return outputs, invocations
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
