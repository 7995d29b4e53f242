package shard

import (
	"crypto/sha256"
	"fmt"
	"testing"
	"time"

	"github.com/arjunv/blockdex/pkg/config"
)

func TestAssignShardIsDeterministic(t *testing.T) {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte("same content, every time")))
	first := AssignShard(hash, 8)
	for i := 0; i < 100; i++ {
		if got := AssignShard(hash, 8); got != first {
			t.Fatalf("AssignShard(%q, 8) = %d on call %d, want %d (same content hash every time)", hash, got, i, first)
		}
	}
}

func TestAssignShardStaysInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		hash := fmt.Sprintf("%x", sha256.Sum256([]byte(fmt.Sprintf("doc-%d", i))))
		shardID := AssignShard(hash, 8)
		if shardID < 0 || shardID >= 8 {
			t.Fatalf("AssignShard returned out-of-range shard %d for %q", shardID, hash)
		}
	}
}

func newTestRouter(t *testing.T, numShards int) *Router {
	t.Helper()
	cfg := config.IndexerConfig{
		DataDir:       t.TempDir(),
		ArenaBlocks:   4096,
		HashBuckets:   256,
		SlabPolicy:    "triangle",
		FlushInterval: time.Hour,
	}
	r, err := NewRouter(cfg, numShards)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRouteReturnsDistinctEnginePerShard(t *testing.T) {
	r := newTestRouter(t, 4)
	engines := make([]any, 4)
	for i := 0; i < 4; i++ {
		eng, err := r.Route(i)
		if err != nil {
			t.Fatalf("Route(%d): %v", i, err)
		}
		engines[i] = eng
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if engines[i] == engines[j] {
				t.Fatalf("Route(%d) and Route(%d) returned the same engine", i, j)
			}
		}
	}
}

func TestRouteRejectsUnknownShard(t *testing.T) {
	r := newTestRouter(t, 4)
	if _, err := r.Route(4); err == nil {
		t.Fatal("Route(4) on a 4-shard router: expected error, got nil")
	}
	if _, err := r.Route(-1); err == nil {
		t.Fatal("Route(-1): expected error, got nil")
	}
}

func TestFlushAllAndReloadAll(t *testing.T) {
	r := newTestRouter(t, 2)
	for s := 0; s < 2; s++ {
		eng, err := r.Route(s)
		if err != nil {
			t.Fatalf("Route(%d): %v", s, err)
		}
		if err := eng.Ingest(fmt.Sprintf("doc-%d", s), []string{"term"}, false); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	if err := r.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	// Nothing new was written since the flush, so ReloadAll should
	// find no newer index and report zero.
	if n := r.ReloadAll(); n != 0 {
		t.Fatalf("ReloadAll() = %d immediately after FlushAll, want 0", n)
	}
}
