// Package textutil reads the whitespace-separated document and query
// line formats the block index's external collaborators are defined
// against. It deliberately does no stemming, case-folding, or
// stopword removal: the index operates on terms exactly as given.
package textutil

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseDocumentLine splits one "<text_id> <term_1> <term_2> …" line
// into its document identifier and ordered term occurrences.
func ParseDocumentLine(line string) (textID string, terms []string, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("textutil: empty document line")
	}
	return fields[0], fields[1:], nil
}

// ReadDocuments streams "<text_id> <term…>" lines from r, calling fn
// for each one in order. Blank lines are skipped.
func ReadDocuments(r io.Reader, fn func(textID string, terms []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		textID, terms, err := ParseDocumentLine(line)
		if err != nil {
			return fmt.Errorf("textutil: line %d: %w", lineNo, err)
		}
		if err := fn(textID, terms); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// TermPositions folds a document's ordered terms into 1-based
// occurrence positions per term, for the InsertPositions path.
func TermPositions(terms []string) map[string][]uint32 {
	positions := make(map[string][]uint32, len(terms))
	for i, term := range terms {
		positions[term] = append(positions[term], uint32(i+1))
	}
	return positions
}

// TermFrequencies folds a document's ordered terms into per-term
// occurrence counts, for the Insert (docid, freq) path.
func TermFrequencies(terms []string) map[string]uint32 {
	freqs := make(map[string]uint32, len(terms))
	for _, term := range terms {
		freqs[term]++
	}
	return freqs
}

// Query is one line of a query file: an identifier and a
// duplicate-collapsed set of terms.
type Query struct {
	ID    string
	Terms []string
}

// ParseQueryLine splits "<query_id> <term…>" into a Query, collapsing
// duplicate terms while preserving first-seen order.
func ParseQueryLine(line string) (Query, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Query{}, fmt.Errorf("textutil: empty query line")
	}
	seen := make(map[string]bool, len(fields)-1)
	var terms []string
	for _, t := range fields[1:] {
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return Query{ID: fields[0], Terms: terms}, nil
}

// ReadQueries streams query lines from r.
func ReadQueries(r io.Reader) ([]Query, error) {
	scanner := bufio.NewScanner(r)
	var queries []Query
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		q, err := ParseQueryLine(line)
		if err != nil {
			return nil, fmt.Errorf("textutil: line %d: %w", lineNo, err)
		}
		queries = append(queries, q)
	}
	return queries, scanner.Err()
}
