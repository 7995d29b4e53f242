package textutil

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseDocumentLine(t *testing.T) {
	id, terms, err := ParseDocumentLine("doc1 the quick brown fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "doc1" {
		t.Fatalf("id = %q, want doc1", id)
	}
	want := []string{"the", "quick", "brown", "fox"}
	if !reflect.DeepEqual(terms, want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
}

func TestReadDocumentsSkipsBlankLines(t *testing.T) {
	input := "doc1 a b\n\ndoc2 c\n"
	var got []string
	err := ReadDocuments(strings.NewReader(input), func(textID string, terms []string) error {
		got = append(got, textID)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"doc1", "doc2"}) {
		t.Fatalf("ids = %v, want [doc1 doc2]", got)
	}
}

func TestTermPositions(t *testing.T) {
	got := TermPositions([]string{"a", "b", "a", "a"})
	want := map[string][]uint32{"a": {1, 3, 4}, "b": {2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TermPositions = %v, want %v", got, want)
	}
}

func TestTermFrequencies(t *testing.T) {
	got := TermFrequencies([]string{"a", "b", "a"})
	want := map[string]uint32{"a": 2, "b": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TermFrequencies = %v, want %v", got, want)
	}
}

func TestParseQueryLineCollapsesDuplicates(t *testing.T) {
	q, err := ParseQueryLine("q1 alpha beta alpha gamma beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID != "q1" {
		t.Fatalf("ID = %q, want q1", q.ID)
	}
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(q.Terms, want) {
		t.Fatalf("Terms = %v, want %v", q.Terms, want)
	}
}
