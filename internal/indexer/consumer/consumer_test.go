package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/arjunv/blockdex/internal/indexer"
	"github.com/arjunv/blockdex/internal/ingestion"
	"github.com/arjunv/blockdex/internal/shard"
	"github.com/arjunv/blockdex/pkg/config"
)

func newTestEngine(t *testing.T) *indexer.Engine {
	t.Helper()
	cfg := config.IndexerConfig{
		DataDir:       t.TempDir(),
		ArenaBlocks:   4096,
		HashBuckets:   256,
		SlabPolicy:    "triangle",
		FlushInterval: time.Hour,
	}
	e, err := indexer.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

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

func TestEventTermsTokenizesTitleAndBody(t *testing.T) {
	event := ingestion.IngestEvent{Title: "distributed search", Body: "engine ranking"}
	got := eventTerms(event)
	want := []string{"distributed", "search", "engine", "ranking"}
	if len(got) != len(want) {
		t.Fatalf("eventTerms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("eventTerms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHandleMessageIndexesDocument(t *testing.T) {
	eng := newTestEngine(t)
	handler := HandleMessage(eng, nil)

	event := ingestion.IngestEvent{DocumentID: "d1", TextID: "text-1", Title: "hello", Body: "world", ShardID: 0}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := handler(context.Background(), []byte("d1"), payload); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if err := eng.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok := eng.DocFreq("hello"); !ok {
		t.Fatal("DocFreq(hello) not found after handling message")
	}
}

func TestHandleMessageInvalidPayloadIsSwallowed(t *testing.T) {
	eng := newTestEngine(t)
	handler := HandleMessage(eng, nil)

	if err := handler(context.Background(), []byte("bad"), []byte("not json")); err != nil {
		t.Fatalf("handler returned error on bad payload, want nil (logged and skipped): %v", err)
	}
}

func TestHandleMessageShardedRoutesToCorrectShard(t *testing.T) {
	router := newTestRouter(t, 4)
	handler := HandleMessageSharded(router, nil)

	event := ingestion.IngestEvent{DocumentID: "d2", TextID: "text-2", Title: "sharded document", Body: "", ShardID: 2}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := handler(context.Background(), []byte("d2"), payload); err != nil {
		t.Fatalf("handler: %v", err)
	}

	eng, err := router.Route(2)
	if err != nil {
		t.Fatalf("Route(2): %v", err)
	}
	if err := eng.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok := eng.DocFreq("sharded"); !ok {
		t.Fatal("DocFreq(sharded) not found in the routed shard")
	}

	other, err := router.Route(0)
	if err != nil {
		t.Fatalf("Route(0): %v", err)
	}
	if other.DocCount() != 0 {
		t.Fatalf("shard 0 DocCount() = %d, want 0 (event should only reach shard 2)", other.DocCount())
	}
}

func TestHandleMessageShardedRejectsOutOfRangeShard(t *testing.T) {
	router := newTestRouter(t, 2)
	handler := HandleMessageSharded(router, nil)

	event := ingestion.IngestEvent{DocumentID: "d3", TextID: "text-3", Title: "oops", ShardID: 99}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := handler(context.Background(), []byte("d3"), payload); err == nil {
		t.Fatal("expected error routing to an out-of-range shard, got nil")
	}
}
