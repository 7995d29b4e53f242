package blockindex

import "sort"

// Scorer computes a term's contribution to a document's score from
// its within-document frequency and its overall document frequency.
// internal/rank.TFIDF implements this.
type Scorer interface {
	Score(tf, df uint32) float64
}

// Conjunction returns every docid present in all of cursors' chains,
// in ascending order. It orders cursors shortest-chain-first so the
// shortest list drives candidate generation (the leader algorithm).
func Conjunction(cursors []*Cursor) []uint32 {
	if len(cursors) == 0 {
		return nil
	}

	ordered := make([]*Cursor, len(cursors))
	copy(ordered, cursors)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].DocFreq() < ordered[j].DocFreq()
	})

	var results []uint32
	candidate := ordered[0].DocID()
	i := 1

	for candidate != EndChain {
		for ; i < len(ordered); i++ {
			ordered[i].NextGeq(candidate)
			if ordered[i].DocID() != candidate {
				i = 0
				break
			}
		}
		if i == len(ordered) {
			results = append(results, candidate)
		}
		ordered[0].Next()
		candidate = ordered[0].DocID()
		i = 1
	}
	return results
}

// Disjunction returns every docid present in any of cursors' chains,
// in ascending order, via a min-candidate merge.
func Disjunction(cursors []*Cursor) []uint32 {
	if len(cursors) == 0 {
		return nil
	}

	var results []uint32
	candidate := minDocID(cursors)

	for candidate != EndChain {
		results = append(results, candidate)
		nextDoc := EndChain
		for _, c := range cursors {
			if c.DocID() == candidate {
				c.Next()
			}
			if c.DocID() < nextDoc {
				nextDoc = c.DocID()
			}
		}
		candidate = nextDoc
	}
	return results
}

// RankedDisjunction merges cursors' chains via the same min-candidate
// walk as Disjunction, but scores every matching document with scorer
// and reports it through insert(score, docid) instead of returning it
// directly — insert is typically internal/rank.TopKQueue.Insert. It
// returns the number of documents visited.
func RankedDisjunction(cursors []*Cursor, scorer Scorer, insert func(score float64, docID uint32)) int {
	if len(cursors) == 0 {
		return 0
	}

	candidate := minDocID(cursors)
	visited := 0

	for candidate != EndChain {
		var score float64
		nextDoc := EndChain
		for _, c := range cursors {
			if c.DocID() == candidate {
				score += scorer.Score(c.Freq(), c.DocFreq())
				c.Next()
			}
			if c.DocID() < nextDoc {
				nextDoc = c.DocID()
			}
		}
		insert(score, candidate)
		visited++
		candidate = nextDoc
	}
	return visited
}

func minDocID(cursors []*Cursor) uint32 {
	min := cursors[0].DocID()
	for _, c := range cursors[1:] {
		if c.DocID() < min {
			min = c.DocID()
		}
	}
	return min
}
