package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern is a keyword rule consulted when the statistical model is unsure.
type Pattern struct {
	Name       string
	Intent     Intent
	Regex      string
	Priority   int     // Higher priority patterns are checked first
	Confidence float64 // Confidence reported when the pattern matches (0.0-1.0)
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// PatternDetector matches normalized text against priority-ordered rules.
// It is immutable after construction.
type PatternDetector struct {
	patterns []CompiledPattern
}

// NewPatternDetector creates a new pattern detector with the given patterns.
func NewPatternDetector(patterns []Pattern) (*PatternDetector, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))

	for _, p := range patterns {
		if _, err := ParseIntent(string(p.Intent)); err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.Name, err)
		}

		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr // Make case-insensitive by default
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	// Stable so equal priorities keep declaration order.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &PatternDetector{
		patterns: compiled,
	}, nil
}

// Match represents a pattern match result.
type Match struct {
	PatternName string
	Intent      Intent
	Confidence  float64
}

// Detect returns the highest-priority pattern matching text, or nil.
func (pd *PatternDetector) Detect(text string) *Match {
	for _, pattern := range pd.patterns {
		if pattern.compiledRegex.MatchString(text) {
			return &Match{
				PatternName: pattern.Name,
				Intent:      pattern.Intent,
				Confidence:  pattern.Confidence,
			}
		}
	}
	return nil
}

// PatternCount returns the number of loaded patterns.
func (pd *PatternDetector) PatternCount() int {
	return len(pd.patterns)
}
