// Package executor runs conjunction, disjunction, and ranked queries
// across every shard of a shard.Router and merges the per-shard
// results into one answer.
package executor

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/rank"
	"github.com/arjunv/blockdex/internal/searcher/parser"
	"github.com/arjunv/blockdex/internal/shard"
)

// Hit is one matching document in a SearchResult.
type Hit struct {
	TextID string  `json:"text_id"`
	Score  float64 `json:"score,omitempty"`
}

// SearchResult is the outcome of running one query across every
// shard of a Router.
type SearchResult struct {
	Query         string      `json:"query"`
	Mode          parser.Mode `json:"mode"`
	Terms         []string    `json:"terms"`
	TotalHits     int         `json:"total_hits"`
	ShardsQueried int         `json:"shards_queried"`
	Hits          []Hit       `json:"hits"`
}

// Executor runs queries against a shard.Router.
type Executor struct {
	router *shard.Router
	logger *slog.Logger
}

// New returns an Executor fanning queries out over router's shards.
func New(router *shard.Router) *Executor {
	return &Executor{
		router: router,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs query's terms in mode across every shard and merges
// the results. k bounds the number of hits returned in ranked mode;
// it is ignored by the boolean modes.
func (e *Executor) Execute(ctx context.Context, rawQuery string, mode parser.Mode, terms []string, k int) (*SearchResult, error) {
	result := &SearchResult{Query: rawQuery, Mode: mode, Terms: terms, Hits: []Hit{}}
	if len(terms) == 0 {
		return result, nil
	}

	engines := e.router.GetAllEngines()
	type shardOutcome struct {
		hits    []Hit
		queried bool
		err     error
	}
	outcomes := make([]shardOutcome, 0, len(engines))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, engine := range engines {
		wg.Add(1)
		go func(eng engineLike) {
			defer wg.Done()
			hits, queried, err := e.executeShard(eng, mode, terms, k)
			mu.Lock()
			outcomes = append(outcomes, shardOutcome{hits: hits, queried: queried, err: err})
			mu.Unlock()
		}(engine)
	}
	wg.Wait()

	var allHits []Hit
	shardsQueried := 0
	for _, o := range outcomes {
		if o.err != nil {
			e.logger.Error("shard query failed", "error", o.err)
			continue
		}
		if o.queried {
			shardsQueried++
		}
		allHits = append(allHits, o.hits...)
	}

	switch mode {
	case parser.Ranked:
		allHits = mergeTopK(allHits, k)
	default:
		sort.Slice(allHits, func(i, j int) bool { return allHits[i].TextID < allHits[j].TextID })
	}

	result.Hits = allHits
	result.TotalHits = len(allHits)
	result.ShardsQueried = shardsQueried
	e.logger.Info("query executed",
		"mode", mode,
		"terms", terms,
		"shards_queried", shardsQueried,
		"hits", len(allHits),
	)
	return result, nil
}

// engineLike is the subset of indexer.Engine the executor needs; kept
// as an interface so tests can fake a shard without a real builder.
type engineLike interface {
	Cursor(term string) *blockindex.Cursor
	DocFreq(term string) (uint32, bool)
	DocCount() int
	TextID(docID uint32) string
}

func (e *Executor) executeShard(eng engineLike, mode parser.Mode, terms []string, k int) ([]Hit, bool, error) {
	cursors := make([]*blockindex.Cursor, 0, len(terms))
	for _, term := range terms {
		if _, ok := eng.DocFreq(term); !ok {
			if mode == parser.Conjunction {
				return nil, false, nil
			}
			continue
		}
		cursors = append(cursors, eng.Cursor(term))
	}
	if len(cursors) == 0 {
		return nil, false, nil
	}

	switch mode {
	case parser.Conjunction:
		if len(cursors) != len(terms) {
			return nil, false, nil
		}
		docIDs := blockindex.Conjunction(cursors)
		return docIDsToHits(eng, docIDs), true, nil
	case parser.Disjunction:
		docIDs := blockindex.Disjunction(cursors)
		return docIDsToHits(eng, docIDs), true, nil
	case parser.Ranked:
		scorer := rank.TFIDF{NumDocs: uint32(eng.DocCount())}
		queue := rank.NewTopKQueue(k)
		blockindex.RankedDisjunction(cursors, scorer, func(score float64, docID uint32) {
			queue.Insert(score, docID)
		})
		queue.Finalize()
		hits := make([]Hit, 0, queue.Size())
		for _, entry := range queue.TopK() {
			hits = append(hits, Hit{TextID: eng.TextID(entry.DocID), Score: entry.Score})
		}
		return hits, true, nil
	default:
		return nil, false, fmt.Errorf("unknown query mode %q", mode)
	}
}

func docIDsToHits(eng engineLike, docIDs []uint32) []Hit {
	hits := make([]Hit, len(docIDs))
	for i, id := range docIDs {
		hits[i] = Hit{TextID: eng.TextID(id)}
	}
	return hits
}

// mergeTopK keeps the k highest-scoring hits across every shard's
// already-finalized top-k list, via the same bounded min-heap merge
// idiom used to combine per-shard ranked results.
func mergeTopK(hits []Hit, k int) []Hit {
	if k <= 0 {
		k = 10
	}
	h := &hitHeap{}
	heap.Init(h)
	for _, hit := range hits {
		heap.Push(h, hit)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	result := make([]Hit, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Hit)
	}
	return result
}

type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

func (h hitHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].TextID > h[j].TextID
}

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
