package heuristics

import "github.com/agentspawn/orchestrator/internal/state"

// complexityCues maps each complexity level to its fixed cue set. The
// tables are load-bearing for routing behavior: changing an entry
// changes which tasks get delegated, so treat additions as behavior
// changes and cover them with tests.
var complexityCues = map[state.ComplexityLevel][]string{
	state.ComplexitySimple: {
		"hello", "hi", "greet", "simple", "basic", "what is",
		"who is", "define", "explain briefly", "summarize",
	},
	state.ComplexityModerate: {
		"analyze", "compare", "discuss", "evaluate", "review",
		"create", "write", "generate", "solve", "calculate",
		"implement", "develop", "design",
	},
	state.ComplexityComplex: {
		"research", "investigate", "deep dive", "comprehensive",
		"advanced", "optimization", "architecture", "strategy",
		"complex system", "multiple factors", "multi-step",
		"data analysis", "statistical", "algorithm",
	},
}

// complexityOrder fixes the tie-breaking order: the simplest level
// with the highest score wins.
var complexityOrder = []state.ComplexityLevel{
	state.ComplexitySimple,
	state.ComplexityModerate,
	state.ComplexityComplex,
}

// SpecialistCues maps specialist ids to their detection keywords.
// Iteration must follow SpecialistOrder so detection output is stable.
var SpecialistCues = map[string][]string{
	"data_analyst": {
		"data", "analyze", "statistics", "trend", "pattern",
		"metric", "performance", "dataset", "aggregate", "query",
		"excel", "csv", "database", "sql",
	},
	"researcher": {
		"research", "investigate", "study", "explore", "background",
		"literature", "evidence", "sources", "information", "find",
		"discover", "web", "article", "documentation",
	},
	"code_generator": {
		"code", "write", "implement", "function", "class", "script",
		"program", "develop", "build", "python", "javascript",
		"java", "c++", "algorithm", "library",
	},
}

// SpecialistOrder is the directory declaration order used for stable
// detection output.
var SpecialistOrder = []string{"data_analyst", "researcher", "code_generator"}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "is": {}, "are": {}, "a": {}, "an": {},
}
