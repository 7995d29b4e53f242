package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/rank"
	"github.com/arjunv/blockdex/internal/searcher/executor"
	"github.com/arjunv/blockdex/internal/searcher/parser"
	"github.com/arjunv/blockdex/internal/shard"
	"github.com/arjunv/blockdex/pkg/config"
)

// BenchmarkTermsParse measures query-term splitting latency for queries
// of varying length.
func BenchmarkTermsParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed systems"},
		{"medium", "search analytics platform indexing"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				terms := parser.Terms(q.query)
				_ = terms
			}
		})
	}
}

// BenchmarkRankedDisjunction measures ranked-query scoring and top-k
// selection for different posting-list sizes.
func BenchmarkRankedDisjunction(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			builder := blockindex.NewBuilder(uint32(numDocs/4+16), 64, blockindex.SlabTriangle)
			for i := 0; i < numDocs; i++ {
				if err := builder.Insert(uint32(i), "search", uint32(i%10)+1); err != nil {
					b.Fatal(err)
				}
			}
			scorer := rank.TFIDF{NumDocs: uint32(numDocs * 2)}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				cur := builder.Cursor("search")
				queue := rank.NewTopKQueue(10)
				blockindex.RankedDisjunction([]*blockindex.Cursor{cur}, scorer, func(score float64, docID uint32) {
					queue.Insert(score, docID)
				})
				queue.Finalize()
				_ = queue.TopK()
			}
		})
	}
}

// BenchmarkRankedDisjunctionMultiTerm measures ranked disjunction with an
// increasing number of query terms.
func BenchmarkRankedDisjunctionMultiTerm(b *testing.B) {
	termCounts := []int{1, 3, 5, 10}
	for _, tc := range termCounts {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			builder := blockindex.NewBuilder(1<<16, 1<<12, blockindex.SlabTriangle)
			terms := make([]string, tc)
			for t := 0; t < tc; t++ {
				terms[t] = fmt.Sprintf("term%d", t)
				for i := 0; i < 500; i++ {
					if err := builder.Insert(uint32(i), terms[t], uint32(i%5)+1); err != nil {
						b.Fatal(err)
					}
				}
			}
			scorer := rank.TFIDF{NumDocs: 5000}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				cursors := make([]*blockindex.Cursor, tc)
				for t, term := range terms {
					cursors[t] = builder.Cursor(term)
				}
				queue := rank.NewTopKQueue(10)
				blockindex.RankedDisjunction(cursors, scorer, func(score float64, docID uint32) {
					queue.Insert(score, docID)
				})
				queue.Finalize()
				_ = queue.TopK()
			}
		})
	}
}

// BenchmarkExecutorExecute exercises the sharded query executor with
// varying shard counts.
func BenchmarkExecutorExecute(b *testing.B) {
	shardCounts := []int{1, 4, 8}
	for _, numShards := range shardCounts {
		b.Run(fmt.Sprintf("shards_%d", numShards), func(b *testing.B) {
			router := seedRouter(b, numShards, 1000)
			exec := executor.New(router)
			terms := parser.Terms("distributed search")

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result, err := exec.Execute(context.Background(), "distributed search", parser.Ranked, terms, 10)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}

// BenchmarkExecutorExecuteParallel measures concurrent sharded search
// throughput across 8 shards.
func BenchmarkExecutorExecuteParallel(b *testing.B) {
	router := seedRouter(b, 8, 1000)
	exec := executor.New(router)
	terms := parser.Terms("distributed search")

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			result, err := exec.Execute(context.Background(), "distributed search", parser.Ranked, terms, 10)
			if err != nil {
				b.Fatal(err)
			}
			_ = result
		}
	})
}

// seedRouter builds a shard.Router with numShards shards, each ingesting
// docsPerShard synthetic documents, for use as executor benchmark fixtures.
func seedRouter(b *testing.B, numShards, docsPerShard int) *shard.Router {
	b.Helper()
	cfg := config.IndexerConfig{
		DataDir:       b.TempDir(),
		ArenaBlocks:   1 << 20,
		HashBuckets:   1 << 16,
		SlabPolicy:    "triangle",
		FlushInterval: 0,
	}
	router, err := shard.NewRouter(cfg, numShards)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { router.Close() })

	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "ranking", "engine"}
	for s := 0; s < numShards; s++ {
		engine, err := router.Route(s)
		if err != nil {
			b.Fatal(err)
		}
		for d := 0; d < docsPerShard; d++ {
			docID := fmt.Sprintf("shard%d-doc%d", s, d)
			docTerms := []string{terms[d%len(terms)], terms[(d+1)%len(terms)], "distributed", "search"}
			if err := engine.Ingest(docID, docTerms, false); err != nil {
				b.Fatal(err)
			}
		}
	}
	if err := router.FlushAll(); err != nil {
		b.Fatal(err)
	}
	return router
}
