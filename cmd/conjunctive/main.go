// Command conjunctive runs a file of AND queries against a block
// index and reports per-query latency and match-count statistics.
//
// Usage:
//
//	conjunctive <index> <queries> [-v|-vv]
//
// -v prints each matching query's latency and match count. -vv prints,
// for every query, its match count, each cursor's NextGeq call count
// (comma-separated, in query-term order) and its latency. The latency
// summary is printed only when neither flag is given.
package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/textutil"
)

func main() {
	if len(os.Args) != 3 && len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index> <query_file> [-v(v)]\n", os.Args[0])
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Index File: %s\n", os.Args[1])
	fmt.Fprintf(os.Stderr, "Query File: %s\n", os.Args[2])

	var verbose, veryVerbose bool
	if len(os.Args) == 4 {
		switch os.Args[3] {
		case "-v":
			verbose = true
		case "-vv":
			veryVerbose = true
		default:
			fmt.Fprintf(os.Stderr, "Ignoring unknown argument: %s\n", os.Args[3])
		}
	}

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

	var queryTimes []time.Duration
	var matchCounts []int

	for _, q := range queries {
		cursors := make([]*blockindex.Cursor, 0, len(q.Terms))
		for _, term := range q.Terms {
			cursors = append(cursors, builder.Cursor(term))
		}

		if veryVerbose {
			start := time.Now()
			results := blockindex.Conjunction(cursors)
			elapsed := time.Since(start)
			if len(results) > 0 {
				matchCounts = append(matchCounts, len(results))
			}
			fmt.Printf("%s matches=%d next_geq_calls=", q.ID, len(results))
			for i, c := range cursors {
				if i > 0 {
					fmt.Print(",")
				}
				fmt.Printf("%d", c.NextGeqCalls())
			}
			fmt.Printf(" latency=%s\n", elapsed)
			continue
		}

		start := time.Now()
		results := blockindex.Conjunction(cursors)
		elapsed := time.Since(start)
		if len(results) > 0 {
			if verbose {
				fmt.Printf("%s latency=%s matches=%d\n", q.ID, elapsed, len(results))
			}
			queryTimes = append(queryTimes, elapsed)
			matchCounts = append(matchCounts, len(results))
		}
	}

	fmt.Fprintf(os.Stderr, "Statistics computed over %d queries with at least one match.\n", len(matchCounts))

	if !verbose && !veryVerbose && len(queryTimes) > 0 {
		sort.Slice(queryTimes, func(i, j int) bool { return queryTimes[i] < queryTimes[j] })
		fmt.Fprintf(os.Stderr, "Latency -> Mean: %s Median: %s p90: %s p95: %s p99: %s\n",
			meanDuration(queryTimes), percentileDuration(queryTimes, 50),
			percentileDuration(queryTimes, 90), percentileDuration(queryTimes, 95), percentileDuration(queryTimes, 99))
	}

	if len(matchCounts) > 0 {
		sort.Ints(matchCounts)
		fmt.Fprintf(os.Stderr, "Matches -> Mean: %.2f min: %d p50: %d max: %d\n",
			meanInt(matchCounts), matchCounts[0], matchCounts[len(matchCounts)/2], matchCounts[len(matchCounts)-1])
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

func meanInt(vals []int) float64 {
	var sum int
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
