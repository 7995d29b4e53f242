package blockindex

import (
	"bytes"
	"io"
	"testing"
)

// memWriteSeeker is an in-memory io.WriteSeeker, standing in for the
// *os.File a real caller would pass to SerializePack.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = int(offset)
	case io.SeekCurrent:
		m.pos += int(offset)
	case io.SeekEnd:
		m.pos = len(m.buf) + int(offset)
	}
	return int64(m.pos), nil
}

func buildSampleIndex(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder(4096, 32, SlabFixed)
	terms := map[string][]uint32{
		"alpha": {1, 2, 50, 51, 52, 200},
		"beta":  {3, 4, 5},
		"gamma": {10},
	}
	for term, docids := range terms {
		for _, id := range docids {
			if err := b.Insert(id, term, 1); err != nil {
				t.Fatalf("Insert(%d, %q): %v", id, term, err)
			}
		}
	}
	return b
}

func TestSerializeLoadRoundTrip(t *testing.T) {
	b := buildSampleIndex(t)
	var buf bytes.Buffer
	if err := b.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	loaded, err := Load(bytes.NewReader(buf.Bytes()), SlabFixed)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, term := range []string{"alpha", "beta", "gamma"} {
		wantDF, _ := b.DocFreq(term)
		gotDF, ok := loaded.DocFreq(term)
		if !ok || gotDF != wantDF {
			t.Fatalf("term %q: DocFreq after load = %d, want %d", term, gotDF, wantDF)
		}
		want := b.Cursor(term)
		got := loaded.Cursor(term)
		for want.DocID() != EndChain {
			if got.DocID() != want.DocID() || got.Freq() != want.Freq() {
				t.Fatalf("term %q: cursor mismatch after load: got (%d,%d) want (%d,%d)",
					term, got.DocID(), got.Freq(), want.DocID(), want.Freq())
			}
			want.Next()
			got.Next()
		}
		if got.DocID() != EndChain {
			t.Fatalf("term %q: loaded cursor not exhausted when original was", term)
		}
	}
}

func TestSerializePackLoadRoundTrip(t *testing.T) {
	b := buildSampleIndex(t)

	wantPostings := map[string][]uint32{}
	for term := range map[string][]uint32{"alpha": nil, "beta": nil, "gamma": nil} {
		cur := b.Cursor(term)
		for cur.DocID() != EndChain {
			wantPostings[term] = append(wantPostings[term], cur.DocID())
			cur.Next()
		}
	}

	mw := &memWriteSeeker{}
	if err := b.SerializePack(mw); err != nil {
		t.Fatalf("SerializePack: %v", err)
	}

	loaded, err := Load(bytes.NewReader(mw.buf), SlabFixed)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for term, want := range wantPostings {
		cur := loaded.Cursor(term)
		if !cur.Valid() {
			t.Fatalf("term %q missing after pack+load", term)
		}
		var got []uint32
		for cur.DocID() != EndChain {
			got = append(got, cur.DocID())
			cur.Next()
		}
		if len(got) != len(want) {
			t.Fatalf("term %q: got %d postings, want %d", term, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("term %q posting %d: got %d, want %d", term, i, got[i], want[i])
			}
		}
	}
}
