package pisa

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/arjunv/blockdex/internal/blockindex"
)

func buildFixture(t *testing.T) *blockindex.Builder {
	t.Helper()
	b := blockindex.NewBuilder(256, 16, blockindex.SlabTriangle)
	postings := map[string][]uint32{
		// block-index docids start at 1; these correspond to PISA's
		// 0-based external docids 0 and 2 (alpha) and 1 (beta).
		"alpha": {1, 3},
		"beta":  {2},
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

func readU32s(t *testing.T, path string) []uint32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	if len(data)%4 != 0 {
		t.Fatalf("%s: length %d not a multiple of 4", path, len(data))
	}
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}

func TestExportWritesPISAFormat(t *testing.T) {
	b := buildFixture(t)
	dir := t.TempDir()
	basename := filepath.Join(dir, "idx")

	docIDs := []string{"d0", "d1", "d2"}
	docLengths := []uint32{1, 1, 1}

	if err := Export(b, docIDs, docLengths, basename); err != nil {
		t.Fatalf("Export: %v", err)
	}

	sizes := readU32s(t, basename+".sizes")
	wantSizes := []uint32{3, 1, 1, 1}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("sizes = %v, want %v", sizes, wantSizes)
	}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] {
			t.Fatalf("sizes[%d] = %d, want %d", i, sizes[i], wantSizes[i])
		}
	}

	docs := readU32s(t, basename+".docs")
	if docs[0] != 1 || docs[1] != 3 {
		t.Fatalf("docs header = %v, want [1 3 ...]", docs[:2])
	}
	// alpha sorts before beta: count=2, docs 0,2, then beta: count=1, doc 1
	want := []uint32{1, 3, 2, 0, 2, 1, 1}
	if len(docs) != len(want) {
		t.Fatalf("docs = %v, want %v", docs, want)
	}
	for i := range want {
		if docs[i] != want[i] {
			t.Fatalf("docs[%d] = %d, want %d", i, docs[i], want[i])
		}
	}

	termsData, err := os.ReadFile(basename + ".terms")
	if err != nil {
		t.Fatalf("ReadFile(.terms): %v", err)
	}
	if string(termsData) != "alpha\nbeta\n" {
		t.Fatalf(".terms = %q, want %q", termsData, "alpha\nbeta\n")
	}
}
