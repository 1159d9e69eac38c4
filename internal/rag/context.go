package rag

import "strings"

const (
	passageSeparator = "\n---\n"

	// noContextPlaceholder keeps the prompt honest when retrieval comes
	// back empty: the model is told there is nothing instead of being
	// handed a blank context.
	noContextPlaceholder = "no relevant records found"

	maxPassageChars = 1200
)

// AssembleContext joins the retrieved passages into one grounding block.
// Input order is preserved (the store already ranked by similarity) and
// nothing is deduplicated.
func AssembleContext(passages []Passage) string {
	if len(passages) == 0 {
		return noContextPlaceholder
	}

	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, trimBody(p.Content, maxPassageChars))
	}
	return strings.Join(parts, passageSeparator)
}

func trimBody(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
