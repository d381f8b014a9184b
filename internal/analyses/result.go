package analyses

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrBadResult marks a provider payload that cannot be shaped into a
// Result. The caller falls back to the heuristic provider.
var ErrBadResult = errors.New("provider payload does not match the result schema")

// canonical section keys; unknown sections from the provider are kept
// as-is, missing canonical ones are filled with a neutral entry.
var canonicalSections = []string{"contact", "summary", "experience", "education", "skills"}

const maxListItems = 20

// ParseResult shapes a raw provider payload into a Result: scores are
// clamped to [0, 100], string lists are trimmed and deduplicated, and
// every collection is non-nil so clients always see arrays.
func ParseResult(raw json.RawMessage) (Result, error) {
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, ErrBadResult
	}

	r.OverallScore = clampScore(r.OverallScore)
	r.ATSScore = clampScore(r.ATSScore)

	if r.Sections == nil {
		r.Sections = make(map[string]SectionFeedback, len(canonicalSections))
	}
	for key, section := range r.Sections {
		section.Score = clampScore(section.Score)
		section.Feedback = strings.TrimSpace(section.Feedback)
		r.Sections[key] = section
	}
	for _, key := range canonicalSections {
		if _, ok := r.Sections[key]; !ok {
			r.Sections[key] = SectionFeedback{Score: 50, Feedback: "No feedback available for this section."}
		}
	}

	r.Strengths = cleanList(r.Strengths)
	r.Improvements = cleanList(r.Improvements)
	r.Keywords = cleanList(r.Keywords)
	r.MissingKeywords = cleanList(r.MissingKeywords)
	r.Recommendations = cleanList(r.Recommendations)
	r.IndustryMatch = strings.TrimSpace(r.IndustryMatch)

	return r, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// cleanList trims entries, drops empties and duplicates, caps the length
// and guarantees a non-nil slice.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
