// Package heuristics implements the keyword and pattern scoring that
// drives task routing. All functions are pure and total: any input,
// including the empty string, yields a deterministic result.
//
// The matching rules are intentionally naive (exact keyword membership
// or substring presence, no stemming, no synonym expansion) so that
// routing decisions stay cheap and reproducible.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/agentspawn/orchestrator/internal/state"
)

var (
	wordPattern     = regexp.MustCompile(`\b\w+\b`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// ExtractKeywords lowercases the text, tokenizes on word boundaries,
// and drops short tokens and stop words. Order is preserved;
// duplicates are not removed.
func ExtractKeywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// AssessComplexity scores the text against the three cue tables. A cue
// counts when it is an exact keyword match or a substring of the
// lowercased text. Two structural signals add to the Complex score
// only: more than two sentences, and more than one question mark.
// Ties and the all-zero case resolve to the simplest qualifying level.
func AssessComplexity(text string, keywords []string) state.ComplexityLevel {
	textLower := strings.ToLower(text)
	keywordSet := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		keywordSet[k] = struct{}{}
	}

	scores := make(map[state.ComplexityLevel]int, len(complexityOrder))
	for level, cues := range complexityCues {
		for _, cue := range cues {
			if _, ok := keywordSet[cue]; ok {
				scores[level]++
			} else if strings.Contains(textLower, cue) {
				scores[level]++
			}
		}
	}

	if len(sentencePattern.Split(text, -1))-1 > 2 {
		scores[state.ComplexityComplex]++
	}
	if strings.Count(text, "?") > 1 {
		scores[state.ComplexityComplex]++
	}

	maxScore := 0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return state.ComplexitySimple
	}
	for _, level := range complexityOrder {
		if scores[level] == maxScore {
			return level
		}
	}
	return state.ComplexitySimple
}

// DetectRequiredAgents returns the specialists whose cue score against
// the text is greater than zero, in declaration order.
func DetectRequiredAgents(text string, keywords []string) []string {
	textLower := strings.ToLower(text)
	keywordSet := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		keywordSet[k] = struct{}{}
	}

	var required []string
	for _, specialist := range SpecialistOrder {
		score := 0
		for _, cue := range SpecialistCues[specialist] {
			if _, ok := keywordSet[cue]; ok {
				score++
			} else if strings.Contains(textLower, cue) {
				score++
			}
		}
		if score > 0 {
			required = append(required, specialist)
		}
	}
	return required
}
