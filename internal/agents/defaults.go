package agents

// DefaultConfigs returns the built-in specialist set: three domain
// specialists plus the adapter used for tasks no capability covers.
func DefaultConfigs() []Config {
	return []Config{
		{
			ID:          "data_analyst",
			Name:        "Data Analyst",
			Description: "Specializes in data analysis, statistics, and insights extraction",
			SystemPrompt: `You are an expert data analyst with deep knowledge of statistics, data visualization,
and business intelligence. You excel at:
- Identifying patterns and trends in data
- Performing statistical analysis
- Creating actionable insights
- Recommending data-driven decisions

Always provide quantitative backing for your claims and consider multiple perspectives.`,
			Capabilities: []string{
				"statistical_analysis",
				"data_aggregation",
				"trend_identification",
				"metric_calculation",
				"anomaly_detection",
				"forecasting",
			},
			Kind: KindAnalyzer,
		},
		{
			ID:          "researcher",
			Name:        "Research Specialist",
			Description: "Conducts comprehensive research, gathers information, and provides context",
			SystemPrompt: `You are a thorough research specialist with expertise in:
- Information gathering and synthesis
- Literature review and source evaluation
- Contextual analysis
- Pattern recognition across domains

Always cite sources, acknowledge limitations, and provide comprehensive background information.
Consider multiple viewpoints and present balanced analysis.`,
			Capabilities: []string{
				"information_gathering",
				"source_evaluation",
				"literature_review",
				"context_analysis",
				"comparative_analysis",
				"hypothesis_formation",
			},
			Kind: KindAnalyzer,
		},
		{
			ID:          "code_generator",
			Name:        "Code Generator",
			Description: "Generates code, provides implementation guidance, and engineering solutions",
			SystemPrompt: `You are an expert software engineer with proficiency in multiple languages.
You excel at:
- Writing clean, maintainable code
- Implementing algorithms efficiently
- Following design patterns and best practices
- Providing architectural guidance

Always prioritize code quality, readability, and performance. Include comments and docstrings.
Consider edge cases and error handling.`,
			Capabilities: []string{
				"code_generation",
				"algorithm_implementation",
				"architecture_design",
				"debugging",
				"optimization",
				"documentation_generation",
			},
			Kind: KindAnalyzer,
		},
		{
			ID:          "task_adapter",
			Name:        "Task Adapter",
			Description: "Adapts to novel tasks outside the configured capability set",
			Capabilities: []string{
				"task_adaptation",
				"dynamic_prompting",
				"skill_generalization",
			},
			Kind: KindAdapter,
		},
	}
}

// RegisterDefaults wires the built-in specialists into a registry.
func RegisterDefaults(registry *Registry) error {
	for _, cfg := range DefaultConfigs() {
		if err := registry.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}
