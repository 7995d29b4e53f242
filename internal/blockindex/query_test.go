package blockindex

import (
	"reflect"
	"testing"
)

func buildQueryFixture(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder(4096, 32, SlabFixed)
	postings := map[string][]uint32{
		"short": {5, 10, 20},
		"long":  {1, 5, 9, 10, 15, 20, 25, 30},
		"other": {2, 5, 8, 20},
	}
	for term, ids := range postings {
		for _, id := range ids {
			if err := b.Insert(id, term, 1); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}
	}
	return b
}

func TestConjunctionIntersection(t *testing.T) {
	b := buildQueryFixture(t)
	cursors := []*Cursor{b.Cursor("short"), b.Cursor("long"), b.Cursor("other")}
	got := Conjunction(cursors)
	want := []uint32{5, 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Conjunction = %v, want %v", got, want)
	}
}

func TestConjunctionEmptyWhenOneCursorMissing(t *testing.T) {
	b := buildQueryFixture(t)
	missing := b.Cursor("nope")
	cursors := []*Cursor{b.Cursor("short"), missing}
	got := Conjunction(cursors)
	if len(got) != 0 {
		t.Fatalf("Conjunction with an invalid cursor = %v, want empty", got)
	}
}

func TestDisjunctionUnion(t *testing.T) {
	b := buildQueryFixture(t)
	cursors := []*Cursor{b.Cursor("short"), b.Cursor("other")}
	got := Disjunction(cursors)
	want := []uint32{2, 5, 8, 10, 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Disjunction = %v, want %v", got, want)
	}
}

type constScorer struct{ v float64 }

func (s constScorer) Score(tf, df uint32) float64 { return s.v }

func TestRankedDisjunctionVisitsUnion(t *testing.T) {
	b := buildQueryFixture(t)
	cursors := []*Cursor{b.Cursor("short"), b.Cursor("other")}

	var docs []uint32
	var scores []float64
	insert := func(score float64, docID uint32) {
		docs = append(docs, docID)
		scores = append(scores, score)
	}

	n := RankedDisjunction(cursors, constScorer{v: 1.0}, insert)
	if n != 5 {
		t.Fatalf("RankedDisjunction visited %d docs, want 5", n)
	}
	wantDocs := []uint32{2, 5, 8, 10, 20}
	if !reflect.DeepEqual(docs, wantDocs) {
		t.Fatalf("RankedDisjunction docs = %v, want %v", docs, wantDocs)
	}
	// doc 5 and doc 20 appear in both lists, so their score should be 2x.
	for i, d := range docs {
		if d == 5 || d == 20 {
			if scores[i] != 2.0 {
				t.Fatalf("doc %d score = %f, want 2.0", d, scores[i])
			}
		} else if scores[i] != 1.0 {
			t.Fatalf("doc %d score = %f, want 1.0", d, scores[i])
		}
	}
}
