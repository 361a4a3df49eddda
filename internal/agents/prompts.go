package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildTaskPrompt assembles the user-facing prompt: memory context
// first when present, then the task itself.
func buildTaskPrompt(task, memoryContext string) string {
	if memoryContext == "" {
		return task
	}
	return fmt.Sprintf("%s\n\nContext from previous interactions:\n%s", task, memoryContext)
}

// renderToolOutputs folds tool results into a prompt section the
// completion can draw on.
func renderToolOutputs(outputs []toolOutput) string {
	if len(outputs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nTool results:\n")
	for _, out := range outputs {
		data, err := json.Marshal(out.data)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", out.data))
		}
		b.WriteString(fmt.Sprintf("[%s] %s\n", out.tool, data))
	}
	return b.String()
}

type toolOutput struct {
	tool string
	data interface{}
}

// specialistPrompt renders the per-type user prompt template used by
// prompt-only dispatch. Unknown types get the raw task.
func specialistPrompt(specialistID, task, context string) string {
	contextLine := ""
	if context != "" {
		contextLine = fmt.Sprintf("Context: %s", context)
	}
	switch specialistID {
	case "data_analyst":
		return fmt.Sprintf(`You are a data analyst. Analyze the following task and provide insights.
Focus on patterns, metrics, and data-driven conclusions.

Task: %s
%s

Provide a detailed analysis with specific insights.`, task, contextLine)
	case "researcher":
		return fmt.Sprintf(`You are a research specialist. Investigate and provide comprehensive information.
Focus on background, context, and authoritative sources.

Task: %s
%s

Provide thorough research findings with sources.`, task, contextLine)
	case "code_generator":
		return fmt.Sprintf(`You are a software engineer. Generate code or provide implementation guidance.
Focus on best practices, efficiency, and maintainability.

Task: %s
%s

Provide production-ready code or clear implementation steps.`, task, contextLine)
	default:
		return buildTaskPrompt(task, context)
	}
}

const taskAnalysisSystemPrompt = "You are a task analysis expert."

// taskAnalysisPrompt asks the model to characterize a novel task
// before an adaptive prompt is generated for it.
func taskAnalysisPrompt(task string) string {
	return fmt.Sprintf(`Analyze the following task and provide:
1. Domain/category
2. Required skills or knowledge
3. Complexity level (simple, moderate, complex)
4. Potential approaches
5. Success criteria

Task: %s

Analysis:`, task)
}

// adaptiveSystemPrompt builds the system prompt for a task none of the
// configured capabilities covers.
func adaptiveSystemPrompt(task, analysis string) string {
	return fmt.Sprintf(`You are an intelligent AI agent capable of adapting to novel tasks.

Task Analysis:
%s

Task: %s

Approach this task by:
1. Breaking it down into manageable components
2. Applying general problem-solving strategies
3. Using logical reasoning and available knowledge
4. Providing clear, actionable solutions
5. Explaining your reasoning when appropriate

Be flexible, creative, and thorough in your approach.`, analysis, task)
}
