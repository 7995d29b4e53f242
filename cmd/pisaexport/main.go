// Command pisaexport converts a block index to the PISA search
// engine's on-disk format.
//
// Usage:
//
//	pisaexport <index> <terms_file> <basename> [-interleaved]
//
// terms_file is the same "<text_id> <term…>" document file the index
// was originally built from, read in the same docid order, supplying
// the text identifiers and document lengths the block index itself
// doesn't retain. -interleaved writes the single-file (dgap, freq)
// layout instead of PISA's three-file .docs/.freqs/.sizes layout.
package main

import (
	"fmt"
	"os"

	"github.com/arjunv/blockdex/internal/blockindex"
	"github.com/arjunv/blockdex/internal/blockindex/pisa"
	"github.com/arjunv/blockdex/internal/textutil"
)

func main() {
	if len(os.Args) != 4 && len(os.Args) != 5 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index> <terms_file> <basename> [-interleaved]\n", os.Args[0])
		os.Exit(1)
	}

	interleaved := false
	if len(os.Args) == 5 {
		if os.Args[4] == "-interleaved" {
			interleaved = true
		} else {
			fmt.Fprintf(os.Stderr, "Ignoring unknown argument: %s\n", os.Args[4])
		}
	}

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

	basename := os.Args[3]

	if interleaved {
		if err := pisa.ExportInterleaved(builder, basename); err != nil {
			fmt.Fprintf(os.Stderr, "exporting interleaved postings: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s.interleaved\n", basename)
		return
	}

	termsFile, err := os.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening terms file: %v\n", err)
		os.Exit(1)
	}
	defer termsFile.Close()

	var docIDs []string
	var docLengths []uint32
	if err := textutil.ReadDocuments(termsFile, func(textID string, terms []string) error {
		docIDs = append(docIDs, textID)
		docLengths = append(docLengths, uint32(len(terms)))
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "reading terms file: %v\n", err)
		os.Exit(1)
	}

	if err := pisa.Export(builder, docIDs, docLengths, basename); err != nil {
		fmt.Fprintf(os.Stderr, "exporting PISA index: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s.{docs,freqs,sizes,terms,documents}\n", basename)
}
