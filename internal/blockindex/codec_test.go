package blockindex

import "testing"

func TestEncodeVByteSmall(t *testing.T) {
	cases := []struct {
		value uint32
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, c := range cases {
		buf := make([]byte, 8)
		n := EncodeVByte(c.value, buf)
		got := buf[:n]
		if string(got) != string(c.want) {
			t.Errorf("EncodeVByte(%d) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestVByteRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 126, 127, 128, 129, 16383, 16384, 1 << 20, 1 << 27, 1<<28 - 1, 1 << 28, 0xffffffff}
	for _, v := range values {
		buf := make([]byte, 8)
		n := EncodeVByte(v, buf)
		if n != BytesRequired(v) {
			t.Errorf("BytesRequired(%d) = %d, EncodeVByte wrote %d", v, BytesRequired(v), n)
		}
		got, stride := DecodeVByte(buf)
		if got != v || stride != n {
			t.Errorf("round trip %d: got value=%d stride=%d, want value=%d stride=%d", v, got, stride, v, n)
		}
	}
}

func TestEncodeMagicCompactForm(t *testing.T) {
	cases := []struct {
		docgap, freq uint32
		want         []byte
	}{
		{1, 0, []byte{0x00}},
		{1, 3, []byte{0x03}},
		{2, 0, []byte{0x04}},
	}
	for _, c := range cases {
		buf := make([]byte, 8)
		n := EncodeMagic(c.docgap, c.freq, buf)
		got := buf[:n]
		if string(got) != string(c.want) {
			t.Errorf("EncodeMagic(%d,%d) = %v, want %v", c.docgap, c.freq, got, c.want)
		}
	}
}

func TestEncodeMagicWideForm(t *testing.T) {
	buf := make([]byte, 8)
	n := EncodeMagic(1, 4, buf)
	want := []byte{0x04, 0x01}
	if string(buf[:n]) != string(want) {
		t.Errorf("EncodeMagic(1,4) = %v, want %v", buf[:n], want)
	}
}

func TestMagicRoundTrip(t *testing.T) {
	type pair struct{ docgap, freq uint32 }
	cases := []pair{
		{1, 0}, {1, 1}, {1, 3}, {2, 0}, {2, 3}, {1, 4}, {1, 5}, {10, 4},
		{100, 1000}, {1, 1000000}, {5000, 0}, {1, 0xffff},
	}
	for _, c := range cases {
		buf := make([]byte, 16)
		n := EncodeMagic(c.docgap, c.freq, buf)
		if n != MagicBytesRequired(c.docgap, c.freq) {
			t.Errorf("MagicBytesRequired(%d,%d) = %d, EncodeMagic wrote %d", c.docgap, c.freq, MagicBytesRequired(c.docgap, c.freq), n)
		}
		docgap, freq, stride := DecodeMagic(buf)
		if docgap != c.docgap || freq != c.freq || stride != n {
			t.Errorf("round trip (%d,%d): got docgap=%d freq=%d stride=%d", c.docgap, c.freq, docgap, freq, stride)
		}
	}
}

func TestMagicBytesRequiredMatchesEncodedLength(t *testing.T) {
	for docgap := uint32(1); docgap <= 20; docgap++ {
		for freq := uint32(0); freq <= 20; freq++ {
			buf := make([]byte, 16)
			n := EncodeMagic(docgap, freq, buf)
			want := MagicBytesRequired(docgap, freq)
			if n != want {
				t.Fatalf("docgap=%d freq=%d: encoded %d bytes, MagicBytesRequired said %d", docgap, freq, n, want)
			}
		}
	}
}
