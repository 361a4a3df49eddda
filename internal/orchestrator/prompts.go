package orchestrator

import (
	"fmt"
	"strings"

	"github.com/agentspawn/orchestrator/internal/state"
)

const directReasoningSystemPrompt = `You are a helpful AI assistant. Provide clear, concise, and accurate answers.
Focus on being direct and practical in your responses.`

const synthesisSystemPrompt = "You are an expert synthesizer who combines insights from multiple specialists into clear, actionable recommendations."

// synthesisPrompt renders the aggregation request: the original task
// followed by every specialist report in spawn order.
func synthesisPrompt(task string, agents []state.SpawnedAgent, results map[string]string) string {
	var reports []string
	for _, a := range agents {
		reports = append(reports, fmt.Sprintf("**%s:**\n%s", a.AgentID, results[a.AgentID]))
	}
	return fmt.Sprintf(`Please synthesize the following specialized analyses into a comprehensive response to the original task:

Original Task: %s

Specialist Reports:
%s

Provide a unified, cohesive response that leverages insights from all specialists.`,
		task, strings.Join(reports, "\n\n"))
}
