// Package indexer orchestrates one shard's block-index builder: ingest,
// periodic compacting flush to disk, and reload.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/docid"
	"github.com/arjunv/blockdex/internal/textutil"
	"github.com/arjunv/blockdex/pkg/config"
)

const (
	indexFileName = "index.block"
	idsFileName   = "index.ids"
)

// Engine owns one shard's mutable block-index builder plus the
// document-id mapping it was built against, and keeps a separate
// read-only snapshot that query goroutines cursor against. The
// mutable builder is only ever touched by the goroutine that calls
// Ingest and Flush; the snapshot is swapped in atomically once a
// flush completes, so a query never observes a half-written block.
type Engine struct {
	mu      sync.Mutex
	builder *blockindex.Builder
	mapper  *docid.Mapper

	snapMu   sync.RWMutex
	snapshot *blockindex.Builder

	cfg    config.IndexerConfig
	policy blockindex.SlabPolicy
	logger *slog.Logger
}

// NewEngine creates an Engine backed by cfg, recovering a previously
// flushed index from cfg.DataDir if one exists.
func NewEngine(cfg config.IndexerConfig) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	policy := parseSlabPolicy(cfg.SlabPolicy)
	e := &Engine{
		builder: blockindex.NewBuilder(cfg.ArenaBlocks, cfg.HashBuckets, policy),
		mapper:  docid.NewMapper(),
		cfg:     cfg,
		policy:  policy,
		logger:  slog.Default().With("component", "indexer"),
	}
	// The read snapshot starts empty; Flush swaps in what has been
	// ingested.
	e.snapshot = blockindex.NewBuilder(1, 1, policy)

	if err := e.loadExisting(); err != nil {
		return nil, fmt.Errorf("loading existing index: %w", err)
	}
	return e, nil
}

// Ingest tokenizes the given terms for textID and inserts them into
// this shard's builder, assigning textID the next sequential docid if
// it has not been seen before. Only ever called from the shard's
// owning consumer goroutine.
func (e *Engine) Ingest(textID string, terms []string, withPositions bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	docID := e.mapper.GetOrAssign(textID)
	if withPositions {
		for term, positions := range textutil.TermPositions(terms) {
			if err := e.builder.InsertPositions(docID, term, positions); err != nil {
				return fmt.Errorf("inserting positions for term %q: %w", term, err)
			}
		}
		return nil
	}
	for term, freq := range textutil.TermFrequencies(terms) {
		if err := e.builder.Insert(docID, term, freq); err != nil {
			return fmt.Errorf("inserting term %q: %w", term, err)
		}
	}
	return nil
}

// Flush compacts the live builder with SerializePack, atomically
// writes it to an index file under cfg.DataDir, then reloads that
// file into a fresh builder and swaps it in as the new read snapshot.
func (e *Engine) Flush() error {
	e.mu.Lock()
	if e.builder.BlocksUsed() == 0 {
		e.mu.Unlock()
		return nil
	}
	finalPath := filepath.Join(e.cfg.DataDir, indexFileName)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("creating temp index file: %w", err)
	}
	if err := e.builder.SerializePack(f); err != nil {
		f.Close()
		e.mu.Unlock()
		return fmt.Errorf("serializing index: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		e.mu.Unlock()
		return fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("renaming index file: %w", err)
	}

	idsPath := filepath.Join(e.cfg.DataDir, idsFileName)
	idsTmpPath := idsPath + ".tmp"
	if err := e.writeIDs(idsTmpPath); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("writing doc ids: %w", err)
	}
	if err := os.Rename(idsTmpPath, idsPath); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("renaming doc ids file: %w", err)
	}
	e.mu.Unlock()

	if err := e.reloadFrom(finalPath, idsPath); err != nil {
		return fmt.Errorf("reloading flushed index: %w", err)
	}
	e.logger.Info("index flushed", "path", finalPath, "blocks_used", e.snapshot.BlocksUsed())
	return nil
}

// Load replaces both the live builder and the read snapshot with the
// block index persisted at path (and its sibling .ids file).
func (e *Engine) Load(path string) error {
	idsPath := path[:len(path)-len(filepath.Ext(path))] + ".ids"
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(path, idsPath)
}

func (e *Engine) reloadFrom(path, idsPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := blockindex.Load(f, e.policy)
	if err != nil {
		return err
	}
	idsFile, err := os.Open(idsPath)
	if err != nil {
		return err
	}
	defer idsFile.Close()
	m, err := docid.Load(idsFile)
	if err != nil {
		return err
	}
	e.snapMu.Lock()
	e.snapshot = b
	e.snapMu.Unlock()
	e.mu.Lock()
	e.mapper = m
	e.mu.Unlock()
	return nil
}

func (e *Engine) loadLocked(path, idsPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := blockindex.Load(f, e.policy)
	if err != nil {
		return err
	}
	idsFile, err := os.Open(idsPath)
	if err != nil {
		return err
	}
	defer idsFile.Close()
	m, err := docid.Load(idsFile)
	if err != nil {
		return err
	}
	e.builder = b
	e.mapper = m
	e.snapMu.Lock()
	e.snapshot = b
	e.snapMu.Unlock()
	return nil
}

func (e *Engine) loadExisting() error {
	finalPath := filepath.Join(e.cfg.DataDir, indexFileName)
	idsPath := filepath.Join(e.cfg.DataDir, idsFileName)
	if _, err := os.Stat(finalPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := e.loadLocked(finalPath, idsPath); err != nil {
		return err
	}
	e.logger.Info("recovered index from disk", "path", finalPath, "docs", e.mapper.Count())
	return nil
}

func (e *Engine) writeIDs(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.mapper.WriteTo(f); err != nil {
		return err
	}
	return f.Sync()
}

// Cursor returns a postings cursor for term against the current
// read-only snapshot.
func (e *Engine) Cursor(term string) *blockindex.Cursor {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.Cursor(term)
}

// DocFreq reports term's document frequency in the current snapshot.
func (e *Engine) DocFreq(term string) (uint32, bool) {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.DocFreq(term)
}

// DocCount returns the number of distinct documents ingested so far.
func (e *Engine) DocCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapper.Count()
}

// TextID resolves a shard-local docid back to its original text id.
func (e *Engine) TextID(docID uint32) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mapper.String(docID)
}

// TermCount reports how many distinct terms the read snapshot's
// directory holds, for metrics.
func (e *Engine) TermCount() int {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return len(e.snapshot.Terms())
}

// BlocksUsed reports how many physical blocks the read snapshot
// occupies, for metrics.
func (e *Engine) BlocksUsed() uint32 {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.BlocksUsed()
}

// DirectoryLoadFactor reports the read snapshot's term-directory load
// factor, for metrics.
func (e *Engine) DirectoryLoadFactor() float64 {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.DirectoryLoadFactor()
}

// StartFlushLoop starts a goroutine that flushes the engine on
// cfg.FlushInterval until ctx is cancelled and then performs one final
// flush; StartFlushLoop itself returns immediately.
func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("flush loop stopping, performing final flush")
				if err := e.Flush(); err != nil {
					e.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if err := e.Flush(); err != nil {
					e.logger.Error("periodic flush failed", "error", err)
				}
			}
		}
	}()
}

// ReloadSegments re-reads the flushed index from disk if it is newer
// than the current snapshot, mirroring the teacher's segment-recovery
// API name. Returns 1 if a newer index was loaded, 0 otherwise.
func (e *Engine) ReloadSegments() int {
	finalPath := filepath.Join(e.cfg.DataDir, indexFileName)
	idsPath := filepath.Join(e.cfg.DataDir, idsFileName)
	if _, err := os.Stat(finalPath); err != nil {
		return 0
	}
	if err := e.reloadFrom(finalPath, idsPath); err != nil {
		e.logger.Error("reload failed", "error", err)
		return 0
	}
	return 1
}

// Close flushes the engine a final time.
func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		e.logger.Error("final flush on close failed", "error", err)
		return err
	}
	return nil
}

func parseSlabPolicy(name string) blockindex.SlabPolicy {
	switch name {
	case "exponential":
		return blockindex.SlabExponential
	case "fixed":
		return blockindex.SlabFixed
	default:
		return blockindex.SlabTriangle
	}
}
