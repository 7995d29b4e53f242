// Command disjunctive runs a file of ranked OR queries against a
// block index and reports per-query latency statistics.
//
// Usage:
//
//	disjunctive <index> <queries> <k> <N> [-v]
//
// k bounds the number of results kept per query; N is the total
// document count the TF-IDF ranker scores against.
package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/rank"
	"github.com/arjunv/blockdex/internal/textutil"
)

func main() {
	if len(os.Args) != 5 && len(os.Args) != 6 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index> <query_file> <k> <num_docs_in_index> [-v]\n", os.Args[0])
		os.Exit(1)
	}

	verbose := false
	if len(os.Args) == 6 {
		if os.Args[5] == "-v" {
			verbose = true
		} else {
			fmt.Fprintf(os.Stderr, "Ignoring unknown argument: %s\n", os.Args[5])
		}
	}

	fmt.Fprintf(os.Stderr, "Index File: %s\n", os.Args[1])
	fmt.Fprintf(os.Stderr, "Query File: %s\n", os.Args[2])
	k, err := strconv.Atoi(os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid k: %v\n", err)
		os.Exit(1)
	}
	numDocs, err := strconv.Atoi(os.Args[4])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid num_docs_in_index: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "k = %d\n", k)
	fmt.Fprintf(os.Stderr, "N = %d\n", numDocs)

	fmt.Fprintln(os.Stderr, "Reading the index...")
	idxFile, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening index: %v\n", err)
		os.Exit(1)
	}
	defer idxFile.Close()
	builder, err := blockindex.Load(idxFile, blockindex.SlabTriangle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading index: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Reading the query file...")
	qFile, err := os.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening query file: %v\n", err)
		os.Exit(1)
	}
	defer qFile.Close()
	queries, err := textutil.ReadQueries(qFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
		os.Exit(1)
	}

	scorer := rank.TFIDF{NumDocs: uint32(numDocs)}
	var queryTimes []time.Duration

	for _, q := range queries {
		cursors := make([]*blockindex.Cursor, 0, len(q.Terms))
		for _, term := range q.Terms {
			cursors = append(cursors, builder.Cursor(term))
		}

		queue := rank.NewTopKQueue(k)
		start := time.Now()
		resultCount := blockindex.RankedDisjunction(cursors, scorer, func(score float64, docID uint32) {
			queue.Insert(score, docID)
		})
		queue.Finalize()
		elapsed := time.Since(start)

		if resultCount > 0 {
			queryTimes = append(queryTimes, elapsed)
			if verbose {
				fmt.Printf("%s latency=%s matches=%d\n", q.ID, elapsed, resultCount)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Statistics computed over %d queries with at least one match.\n", len(queryTimes))

	if len(queryTimes) > 0 {
		sort.Slice(queryTimes, func(i, j int) bool { return queryTimes[i] < queryTimes[j] })
		fmt.Fprintf(os.Stderr, "Latency -> Mean: %s Median: %s p90: %s p95: %s p99: %s\n",
			meanDuration(queryTimes), percentileDuration(queryTimes, 50),
			percentileDuration(queryTimes, 90), percentileDuration(queryTimes, 95), percentileDuration(queryTimes, 99))
	}
}

func meanDuration(ds []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

func percentileDuration(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
