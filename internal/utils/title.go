package utils

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Titled is anything that can be matched by episode title
type Titled interface {
	MatchTitle() string
	MatchURL() string
}

// NormalizeTitle collapses every whitespace run (including U+3000 and a
// stray U+FEFF byte order mark) to a single ASCII space and trims both ends
func NormalizeTitle(s string) string {
	return strings.Join(strings.FieldsFunc(s, isTitleSpace), " ")
}

func isTitleSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// MatchTitle returns the URL of the candidate matching target.
// Tiers are tried in order and the first candidate in list order wins:
// exact title, normalized title, then substring in either direction.
// Candidates with a blank title are ignored and a blank target never matches.
func MatchTitle[T Titled](candidates []T, target string) (string, bool) {
	if NormalizeTitle(target) == "" {
		return "", false
	}

	valid := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if NormalizeTitle(c.MatchTitle()) != "" {
			valid = append(valid, c)
		}
	}

	for _, c := range valid {
		if c.MatchTitle() == target {
			return c.MatchURL(), true
		}
	}

	normalizedTarget := NormalizeTitle(target)
	for _, c := range valid {
		if NormalizeTitle(c.MatchTitle()) == normalizedTarget {
			return c.MatchURL(), true
		}
	}

	for _, c := range valid {
		title := c.MatchTitle()
		if strings.Contains(title, target) || strings.Contains(target, title) {
			return c.MatchURL(), true
		}
	}

	return "", false
}

// ClosestTitle returns the candidate title with the smallest edit distance to
// target. It is only a hint for not-found logs and never affects matching.
func ClosestTitle[T Titled](candidates []T, target string) (string, int) {
	best := ""
	bestDistance := -1
	normalizedTarget := NormalizeTitle(target)

	for _, c := range candidates {
		title := c.MatchTitle()
		if title == "" {
			continue
		}
		d := levenshtein.ComputeDistance(NormalizeTitle(title), normalizedTarget)
		if bestDistance < 0 || d < bestDistance {
			best = title
			bestDistance = d
		}
	}

	return best, bestDistance
}
