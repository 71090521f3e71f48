// Package terms decides whether a lot's title or description satisfies a search's term rules.
package terms

import "strings"

// Verdict is the outcome of matching text against a pair of term lists.
type Verdict int

const (
	Accepted Verdict = iota
	Ignored
	MissingRequirements
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Ignored:
		return "ignored"
	case MissingRequirements:
		return "missing_requirements"
	}
	return "unknown"
}

// Match evaluates text against required and ignored terms, case-insensitively, as substrings.
//
// When any required term is configured the text must contain all of them, and the ignored
// list is not consulted at all. Only when no required terms exist do ignored terms reject.
// Blank terms are skipped.
func Match(text string, required, ignored []string) Verdict {
	lower := strings.ToLower(text)

	if hasTerms(required) {
		for _, term := range required {
			term = normalize(term)
			if term == "" {
				continue
			}
			if !strings.Contains(lower, term) {
				return MissingRequirements
			}
		}
		return Accepted
	}

	for _, term := range ignored {
		term = normalize(term)
		if term == "" {
			continue
		}
		if strings.Contains(lower, term) {
			return Ignored
		}
	}
	return Accepted
}

// Split turns a delimited term string into a clean list.
func Split(s, delim string) []string {
	var out []string
	for _, part := range strings.Split(s, delim) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasTerms(list []string) bool {
	for _, t := range list {
		if normalize(t) != "" {
			return true
		}
	}
	return false
}

func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
