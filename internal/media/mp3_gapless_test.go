package media

import (
	"bytes"
	"io"
	"testing"
)

// lameFile builds an ID3v2 tag, one MPEG-1 layer III frame header and an
// Info tag carrying the given delay/padding bytes.
func lameFile(dp [3]byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 10})
	b.Write(make([]byte, 10))
	b.Write([]byte{0xff, 0xfb, 0x90, 0x64}) // no CRC, joint stereo
	b.Write(make([]byte, 32))               // side information
	b.WriteString("Info")
	b.Write([]byte{0, 0, 0, 0x0f})
	b.Write(make([]byte, 4+4+100+4))
	lame := make([]byte, 24)
	copy(lame[21:], dp[:])
	b.Write(lame)
	return b.Bytes()
}

func TestReadMP3GaplessTrim(t *testing.T) {
	// delay 576, padding 1600
	r := bytes.NewReader(lameFile([3]byte{0x24, 0x06, 0x40}))

	start, end, err := readMP3GaplessTrim(r)
	if err != nil {
		t.Fatalf("readMP3GaplessTrim() error = %v", err)
	}
	if start != 1105 {
		t.Fatalf("start trim = %d, want 1105", start)
	}
	if end != 1071 {
		t.Fatalf("end trim = %d, want 1071", end)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Fatalf("expected read position restored, got %d", pos)
	}
}

func TestReadMP3GaplessTrimAbsent(t *testing.T) {
	cases := map[string][]byte{
		"zero delay": lameFile([3]byte{}),
		"no frame":   bytes.Repeat([]byte{0}, 64),
		"short":      {'I', 'D'},
	}
	for name, data := range cases {
		start, end, err := readMP3GaplessTrim(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: readMP3GaplessTrim() error = %v", name, err)
		}
		if start != 0 || end != 0 {
			t.Fatalf("%s: trim = (%d, %d), want (0, 0)", name, start, end)
		}
	}
}

func TestLayer3SideInfoLen(t *testing.T) {
	cases := []struct {
		header uint32
		want   int
	}{
		{0xfffb9064, 32}, // MPEG-1 stereo
		{0xfffb90c4, 17}, // MPEG-1 mono
		{0xfffa9064, 34}, // MPEG-1 stereo with CRC
		{0xfff39064, 17}, // MPEG-2 stereo
		{0xfff390c4, 9},  // MPEG-2 mono
	}
	for _, c := range cases {
		got, err := layer3SideInfoLen(c.header)
		if err != nil {
			t.Fatalf("%08x: unexpected error %v", c.header, err)
		}
		if got != c.want {
			t.Fatalf("%08x: side info = %d, want %d", c.header, got, c.want)
		}
	}
	if _, err := layer3SideInfoLen(0xfffd9064); err == nil {
		t.Fatal("expected layer II header to be rejected")
	}
}
