package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/llm"
)

// promptSpecialist answers with a single completion from the
// specialist's system prompt. No tools.
type promptSpecialist struct {
	cfg    Config
	client llm.Client
	logger *zap.Logger
}

func newPromptSpecialist(cfg Config, client llm.Client, logger *zap.Logger) *promptSpecialist {
	return &promptSpecialist{cfg: cfg, client: client, logger: logger}
}

func (s *promptSpecialist) Config() Config { return s.cfg }

func (s *promptSpecialist) Execute(ctx context.Context, agentID, task, memoryContext string) (ExecutionResult, error) {
	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: s.cfg.SystemPrompt,
		Prompt:       specialistPrompt(s.cfg.ID, task, memoryContext),
	})
	if err != nil {
		return ExecutionResult{}, err
	}
	return ExecutionResult{Output: resp.Text, TokensUsed: resp.TokensUsed}, nil
}
