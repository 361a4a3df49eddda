package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/tools"
)

// adapterSpecialist handles tasks none of the configured capabilities
// covers. It runs two completions: one to analyze the task, one to
// answer it under a system prompt generated from that analysis.
type adapterSpecialist struct {
	cfg     Config
	client  llm.Client
	toolReg *tools.Registry
	logger  *zap.Logger
}

func newAdapterSpecialist(cfg Config, client llm.Client, toolReg *tools.Registry, logger *zap.Logger) *adapterSpecialist {
	return &adapterSpecialist{cfg: cfg, client: client, toolReg: toolReg, logger: logger}
}

func (s *adapterSpecialist) Config() Config { return s.cfg }

func (s *adapterSpecialist) Execute(ctx context.Context, agentID, task, memoryContext string) (ExecutionResult, error) {
	analysis, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: taskAnalysisSystemPrompt,
		Prompt:       taskAnalysisPrompt(task),
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: adaptiveSystemPrompt(task, analysis.Text),
		Prompt:       buildTaskPrompt(task, memoryContext),
	})
	if err != nil {
		return ExecutionResult{TokensUsed: analysis.TokensUsed}, err
	}

	s.logger.Debug("Adapter handled novel task",
		zap.String("specialist", s.cfg.ID),
		zap.Int("analysis_tokens", analysis.TokensUsed),
	)
	return ExecutionResult{
		Output:     resp.Text,
		TokensUsed: analysis.TokensUsed + resp.TokensUsed,
	}, nil
}
