// Package textfilter cleans up narrative lines before they enter the
// history log of family-rated stories.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Replacements for language that falls outside a G/PG/PG13 story. Period
// flavor where a reasonable substitute exists.
var replacements = map[string]string{
	"fuck":           "tarnation",
	"fucking":        "consarned",
	"shit":           "horsefeathers",
	"damn":           "dang",
	"goddamn":        "dadgum",
	"hell":           "blazes",
	"ass":            "hide",
	"bitch":          "snake",
	"bastard":        "varmint",
	"bullshit":       "hogwash",
	"asshole":        "polecat",
	"son of a bitch": "yellow-bellied coward",
}

// HistoryFilter rewrites profanity in narrative lines.
type HistoryFilter struct {
	patterns map[string]*regexp.Regexp
}

// NewHistoryFilter compiles the filter's word patterns.
func NewHistoryFilter() *HistoryFilter {
	hf := &HistoryFilter{patterns: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		hf.patterns[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return hf
}

// FilterLine replaces filtered words in a narrative line, preserving the
// case pattern of the original word.
func (hf *HistoryFilter) FilterLine(line string) string {
	result := line
	for word, pattern := range hf.patterns {
		replacement := replacements[word]
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// ContainsProfanity reports whether a line would be altered by FilterLine.
func (hf *HistoryFilter) ContainsProfanity(line string) bool {
	for _, pattern := range hf.patterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// ShouldFilter reports whether a story rating requires history filtering.
func ShouldFilter(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if original == "" {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case: mirror the original character by character.
	out := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for i, r := range []rune(replacement) {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
