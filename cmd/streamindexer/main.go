// Command streamindexer builds a block index from documents read
// line-by-line off stdin, sized ahead of time from a preconfigured
// collection profile.
//
// Usage:
//
//	streamindexer <wsj1|robust|wiki> < /path/to/file
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/textutil"
)

// collectionProfiles gives (index_blocks, hash_buckets) sized for
// three reference TREC-style collections, scaled from an estimated
// total arena footprint in bytes down to this package's BlockSize.
var collectionProfiles = map[string]struct {
	arenaBytes uint64
	hashSlots  uint32
}{
	"wsj1":   {arenaBytes: 248602600, hashSlots: 319468},
	"robust": {arenaBytes: 1463852840, hashSlots: 1313536},
	"wiki":   {arenaBytes: 11955330080, hashSlots: 10561650},
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [wsj1|robust|wiki] < /path/to/file\n", os.Args[0])
		os.Exit(1)
	}
	collection := os.Args[1]

	profile, ok := collectionProfiles[collection]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown collection: %s, cannot guess params...\n", collection)
		os.Exit(1)
	}

	indexBlocks := uint32(profile.arenaBytes / blockindex.BlockSize)
	fmt.Fprintf(os.Stderr, "Block Size = %d\n", blockindex.BlockSize)
	fmt.Fprintf(os.Stderr, "Index Blocks = %d, Hash Buckets = %d\n", indexBlocks, profile.hashSlots)

	builder := blockindex.NewBuilder(indexBlocks, profile.hashSlots, blockindex.SlabTriangle)

	fmt.Fprintln(os.Stderr, "Indexing from stream...")
	start := time.Now()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// docid 0 is never assigned: the builder's gap encoding requires
	// every posting's first docgap to be nonzero.
	var docID uint32 = 1
	var docCount, postingsCount, wordsCount uint64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		_, terms, err := textutil.ParseDocumentLine(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed line: %v\n", err)
			continue
		}
		freqs := textutil.TermFrequencies(terms)
		for term, freq := range freqs {
			if err := builder.Insert(docID, term, freq); err != nil {
				fmt.Fprintf(os.Stderr, "inserting docid %d term %q: %v\n", docID, term, err)
				os.Exit(1)
			}
		}
		postingsCount += uint64(len(freqs))
		wordsCount += uint64(len(terms))
		docID++
		docCount++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stderr, "Indexed %d documents [%d postings] in %.1f milliseconds...\n",
		docCount, postingsCount, float64(elapsed.Microseconds())/1000.0)
	if docCount > 0 {
		fmt.Fprintf(os.Stderr, "That's about %d micro/doc, or %d micro/posting, or %d micro/word\n",
			elapsed.Microseconds()/int64(docCount), elapsed.Microseconds()/int64(postingsCount), elapsed.Microseconds()/int64(wordsCount))
	}

	outPath := collection + ".idx"
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating output file %s: %v\n", outPath, err)
		os.Exit(1)
	}
	defer out.Close()

	if err := builder.SerializePack(out); err != nil {
		fmt.Fprintf(os.Stderr, "serializing index: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Indexed+serialized to %s in %.1f milliseconds\n", outPath, float64(time.Since(start).Microseconds())/1000.0)

	fmt.Fprintln(os.Stderr, "Done.")
}
