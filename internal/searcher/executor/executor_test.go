package executor

import (
	"context"
	"testing"
	"time"

	"github.com/arjunv/blockdex/internal/searcher/parser"
	"github.com/arjunv/blockdex/internal/shard"
	"github.com/arjunv/blockdex/pkg/config"
)

func newTestRouter(t *testing.T, numShards int) *shard.Router {
	t.Helper()
	cfg := config.IndexerConfig{
		DataDir:       t.TempDir(),
		ArenaBlocks:   4096,
		HashBuckets:   256,
		SlabPolicy:    "triangle",
		FlushInterval: time.Hour,
	}
	r, err := shard.NewRouter(cfg, numShards)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func ingestAndFlush(t *testing.T, router *shard.Router, shardID int, docID string, terms []string) {
	t.Helper()
	eng, err := router.Route(shardID)
	if err != nil {
		t.Fatalf("Route(%d): %v", shardID, err)
	}
	if err := eng.Ingest(docID, terms, false); err != nil {
		t.Fatalf("Ingest(%s): %v", docID, err)
	}
	if err := eng.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestExecuteConjunctionRequiresAllTermsInShard(t *testing.T) {
	router := newTestRouter(t, 1)
	ingestAndFlush(t, router, 0, "doc-a", []string{"alpha", "beta"})
	ingestAndFlush(t, router, 0, "doc-b", []string{"alpha"})

	exec := New(router)
	terms := parser.Terms("alpha beta")
	result, err := exec.Execute(context.Background(), "alpha beta", parser.Conjunction, terms, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 1 {
		t.Fatalf("TotalHits = %d, want 1", result.TotalHits)
	}
	if result.Hits[0].TextID != "doc-a" {
		t.Fatalf("Hits[0].TextID = %q, want doc-a", result.Hits[0].TextID)
	}
}

func TestExecuteDisjunctionUnionsAcrossTerms(t *testing.T) {
	router := newTestRouter(t, 1)
	ingestAndFlush(t, router, 0, "doc-a", []string{"alpha"})
	ingestAndFlush(t, router, 0, "doc-b", []string{"beta"})

	exec := New(router)
	terms := parser.Terms("alpha beta")
	result, err := exec.Execute(context.Background(), "alpha beta", parser.Disjunction, terms, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 2 {
		t.Fatalf("TotalHits = %d, want 2", result.TotalHits)
	}
}

func TestExecuteRankedMergesAcrossShards(t *testing.T) {
	router := newTestRouter(t, 2)
	ingestAndFlush(t, router, 0, "doc-a", []string{"search", "search", "engine"})
	ingestAndFlush(t, router, 1, "doc-b", []string{"search"})

	exec := New(router)
	terms := parser.Terms("search")
	result, err := exec.Execute(context.Background(), "search", parser.Ranked, terms, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 2 {
		t.Fatalf("TotalHits = %d, want 2", result.TotalHits)
	}
	if result.ShardsQueried != 2 {
		t.Fatalf("ShardsQueried = %d, want 2", result.ShardsQueried)
	}
}

func TestExecuteRankedRespectsK(t *testing.T) {
	router := newTestRouter(t, 1)
	for i := 0; i < 5; i++ {
		eng, err := router.Route(0)
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		docID := "doc-" + string(rune('a'+i))
		if err := eng.Ingest(docID, []string{"search"}, false); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	if err := router.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	exec := New(router)
	terms := parser.Terms("search")
	result, err := exec.Execute(context.Background(), "search", parser.Ranked, terms, 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 2 {
		t.Fatalf("TotalHits = %d, want 2 (bounded by k)", result.TotalHits)
	}
}

func TestExecuteOnUnknownTermReturnsNoHits(t *testing.T) {
	router := newTestRouter(t, 1)
	ingestAndFlush(t, router, 0, "doc-a", []string{"alpha"})

	exec := New(router)
	terms := parser.Terms("nowhere")
	result, err := exec.Execute(context.Background(), "nowhere", parser.Ranked, terms, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 0 {
		t.Fatalf("TotalHits = %d, want 0", result.TotalHits)
	}
}

func TestExecuteOnEmptyTermsReturnsEmptyResult(t *testing.T) {
	router := newTestRouter(t, 1)
	exec := New(router)
	result, err := exec.Execute(context.Background(), "", parser.Ranked, nil, 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 0 || len(result.Hits) != 0 {
		t.Fatalf("Execute with no terms = %+v, want empty result", result)
	}
}
