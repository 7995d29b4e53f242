// Command indexer builds a block index from a plain document
// collection and writes it to a single output file.
//
// Usage:
//
//	indexer <documents> <output_file> [-p]
//
// -p switches from frequency postings to positional postings.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/textutil"
)

// averageWordBytes and hashVocabSize size the arena and hash table
// ahead of a build from an estimated posting/vocabulary count, giving
// the builder 150% of its best-guess footprint before it starts
// appending.
const (
	averageWordBytes = 8
	hashVocabSize    = 2
)

func main() {
	if len(os.Args) != 3 && len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <documents> <output_file> [-p]\n", os.Args[0])
		os.Exit(1)
	}

	positions := len(os.Args) == 4 && os.Args[3] == "-p"

	fmt.Fprintln(os.Stderr, "Indexing Utility...")
	fmt.Fprintf(os.Stderr, "Data File: %s\n", os.Args[1])
	fmt.Fprintf(os.Stderr, "Index Positions? %v\n", positions)

	in, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening documents file: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	fmt.Fprintln(os.Stderr, "Reading the plain collection...")
	type doc struct {
		textID string
		terms  []string
	}
	var docs []doc
	var totalPostings uint64
	vocab := make(map[string]struct{})
	if err := textutil.ReadDocuments(in, func(textID string, terms []string) error {
		docs = append(docs, doc{textID: textID, terms: terms})
		totalPostings += uint64(len(terms))
		for _, t := range terms {
			vocab[t] = struct{}{}
		}
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "reading documents: %v\n", err)
		os.Exit(1)
	}

	if len(docs) == 0 {
		fmt.Fprintln(os.Stderr, "no documents read, nothing to index")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Read %d documents with a total of %d postings, %d postings/doc\n",
		len(docs), totalPostings, totalPostings/uint64(len(docs)))
	fmt.Fprintf(os.Stderr, "The vocabulary has %d elements\n", len(vocab))

	fmt.Fprintln(os.Stderr, "Init the instant index...")
	indexBlocks := uint32(1.5 * float64(totalPostings*averageWordBytes) / float64(blockindex.BlockSize))
	if indexBlocks == 0 {
		indexBlocks = 1
	}
	hashSlots := uint32(len(vocab) * hashVocabSize)
	if hashSlots == 0 {
		hashSlots = 1
	}
	fmt.Fprintf(os.Stderr, "Index Blocks: %d\n", indexBlocks)
	fmt.Fprintf(os.Stderr, "Hash Table Size: %d\n", hashSlots)

	builder := blockindex.NewBuilder(indexBlocks, hashSlots, blockindex.SlabTriangle)
	fmt.Fprintln(os.Stderr, "Instant Index ready...")

	fmt.Fprintln(os.Stderr, "Adding all documents to the index...")
	start := time.Now()
	for i, d := range docs {
		docID := uint32(i) + 1
		if positions {
			for term, pos := range textutil.TermPositions(d.terms) {
				if err := builder.InsertPositions(docID, term, pos); err != nil {
					fmt.Fprintf(os.Stderr, "inserting positions for %s: %v\n", d.textID, err)
					os.Exit(1)
				}
			}
		} else {
			for term, freq := range textutil.TermFrequencies(d.terms) {
				if err := builder.Insert(docID, term, freq); err != nil {
					fmt.Fprintf(os.Stderr, "inserting %s: %v\n", d.textID, err)
					os.Exit(1)
				}
			}
		}
	}
	elapsed := time.Since(start)
	fmt.Fprintf(os.Stderr, "Added %d documents in %d milliseconds; %d microseconds/doc.\n",
		len(docs), elapsed.Milliseconds(), elapsed.Microseconds()/int64(len(docs)))

	fmt.Fprintln(os.Stderr, "Serializing index...")
	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating output file: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	start = time.Now()
	if err := builder.Serialize(out); err != nil {
		fmt.Fprintf(os.Stderr, "serializing index: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Serialized Index in %d milliseconds\n", time.Since(start).Milliseconds())

	fmt.Fprintln(os.Stderr, "Done.")
}
