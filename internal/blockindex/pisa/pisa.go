// Package pisa exports a built blockindex.Builder to the PISA search
// engine's on-disk format: three binary u32 files (.docs, .freqs,
// .sizes) plus two plaintext files (.terms, .documents).
package pisa

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/arjunv/blockdex/internal/blockindex"
)

// Export writes basename.{docs,freqs,sizes,terms,documents} for the
// postings held in b. docLengths holds, for each docid in ascending
// order, the number of term occurrences in that document; docIDs
// gives the text identifier for each docid in the same order. PISA's
// on-disk docids are 0-based array positions; the block index's own
// docids start at 1 (required by its gap encoding), so each posting's
// docid is translated down by one on the way out.
func Export(b *blockindex.Builder, docIDs []string, docLengths []uint32, basename string) error {
	if len(docIDs) != len(docLengths) {
		return fmt.Errorf("pisa: docIDs and docLengths length mismatch: %d != %d", len(docIDs), len(docLengths))
	}

	terms := b.Terms()
	sort.Strings(terms)

	if err := writeTextFile(basename+".terms", terms); err != nil {
		return err
	}
	if err := writeTextFile(basename+".documents", docIDs); err != nil {
		return err
	}

	docsFile, err := os.Create(basename + ".docs")
	if err != nil {
		return err
	}
	defer docsFile.Close()
	docs := bufio.NewWriter(docsFile)

	freqsFile, err := os.Create(basename + ".freqs")
	if err != nil {
		return err
	}
	defer freqsFile.Close()
	freqs := bufio.NewWriter(freqsFile)

	sizesFile, err := os.Create(basename + ".sizes")
	if err != nil {
		return err
	}
	defer sizesFile.Close()
	sizes := bufio.NewWriter(sizesFile)

	if err := writeU32(docs, 1); err != nil {
		return err
	}
	if err := writeU32(docs, uint32(len(docIDs))); err != nil {
		return err
	}
	if err := writeU32(sizes, uint32(len(docIDs))); err != nil {
		return err
	}
	for _, length := range docLengths {
		if err := writeU32(sizes, length); err != nil {
			return err
		}
	}

	for _, term := range terms {
		cur := b.Cursor(term)
		if !cur.Valid() {
			continue
		}
		if err := writeU32(docs, cur.DocFreq()); err != nil {
			return err
		}
		if err := writeU32(freqs, cur.DocFreq()); err != nil {
			return err
		}
		for cur.DocID() != blockindex.EndChain {
			if err := writeU32(docs, cur.DocID()-1); err != nil {
				return err
			}
			if err := writeU32(freqs, cur.Freq()); err != nil {
				return err
			}
			cur.Next()
		}
	}

	for _, w := range []*bufio.Writer{docs, freqs, sizes} {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// ExportInterleaved writes basename.interleaved: for every term in
// sorted order, its postings as consecutive (dgap, freq) u32 pairs,
// mirroring the alternate single-file layout of the same exporter
// this package is grounded on.
func ExportInterleaved(b *blockindex.Builder, basename string) error {
	terms := b.Terms()
	sort.Strings(terms)

	f, err := os.Create(basename + ".interleaved")
	if err != nil {
		return err
	}
	defer f.Close()
	out := bufio.NewWriter(f)

	for _, term := range terms {
		cur := b.Cursor(term)
		if !cur.Valid() {
			continue
		}
		prevDocID := uint32(0)
		for cur.DocID() != blockindex.EndChain {
			dgap := cur.DocID() - prevDocID
			prevDocID = cur.DocID()
			if err := writeU32(out, dgap); err != nil {
				return err
			}
			if err := writeU32(out, cur.Freq()); err != nil {
				return err
			}
			cur.Next()
		}
	}
	return out.Flush()
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeTextFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}
