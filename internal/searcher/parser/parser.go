// Package parser turns a raw query string plus a mode parameter into
// a deduplicated term list, the shape internal/searcher/executor runs
// against a shard.Router.
package parser

import "strings"

// Mode selects which of the block index's three query processors
// services a request.
type Mode string

const (
	Conjunction Mode = "conjunction"
	Disjunction Mode = "disjunction"
	Ranked      Mode = "ranked"
)

// ParseMode validates a mode string from an HTTP query parameter,
// defaulting to Ranked when empty.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "":
		return Ranked, true
	case Conjunction, Disjunction, Ranked:
		return Mode(s), true
	default:
		return "", false
	}
}

// Terms splits a raw query string on whitespace and collapses
// duplicate terms, preserving first-seen order. No case-folding or
// stopword removal, matching the tokenizer's own minimal contract.
func Terms(query string) []string {
	fields := strings.Fields(query)
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
