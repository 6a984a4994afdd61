package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// layer III synthesis filter delay, added to the encoder delay LAME stores.
const mp3DecoderDelay = 529

// gaplessTrim is the number of frames to drop from each end of a decoded
// MP3 so a looped clip has no silent seam.
type gaplessTrim struct {
	start, end int64
}

var (
	errNotLayer3  = errors.New("not an MPEG layer III frame")
	errNoLAMEInfo = errors.New("no LAME gapless info")
)

// readMP3GaplessTrim looks for a Xing/Info frame with LAME delay and padding
// at the start of f. Files without one yield zero trims. The read position
// of f is restored.
func readMP3GaplessTrim(f io.ReadSeeker) (start, end int64, err error) {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_, _ = f.Seek(pos, io.SeekStart)
	}()

	trim, err := scanGaplessTrim(f)
	switch {
	case err == nil:
		return trim.start, trim.end, nil
	case errors.Is(err, errNotLayer3), errors.Is(err, errNoLAMEInfo),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return 0, 0, nil
	default:
		return 0, 0, err
	}
}

func scanGaplessTrim(f io.ReadSeeker) (gaplessTrim, error) {
	offset, err := skipID3v2(f)
	if err != nil {
		return gaplessTrim{}, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return gaplessTrim{}, err
	}

	var hdr [4]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return gaplessTrim{}, err
	}
	side, err := layer3SideInfoLen(binary.BigEndian.Uint32(hdr[:]))
	if err != nil {
		return gaplessTrim{}, err
	}

	// The Xing tag follows the side information of the first frame.
	if _, err := f.Seek(offset+4+int64(side), io.SeekStart); err != nil {
		return gaplessTrim{}, err
	}
	tag := make([]byte, 256)
	n, err := io.ReadFull(f, tag)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return gaplessTrim{}, err
	}
	return parseLAMETrim(tag[:n])
}

// skipID3v2 returns the offset of the first byte after a leading ID3v2 tag.
func skipID3v2(f io.ReadSeeker) (int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var hdr [10]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return 0, err
	}
	if !bytes.Equal(hdr[:3], []byte("ID3")) {
		return 0, nil
	}
	size := int64(synchsafe(hdr[6:10])) + 10
	if hdr[5]&0x10 != 0 { // footer present
		size += 10
	}
	return size, nil
}

func synchsafe(b []byte) uint32 {
	var v uint32
	for _, c := range b[:4] {
		v = v<<7 | uint32(c&0x7f)
	}
	return v
}

// layer3SideInfoLen returns the bytes between the start of the frame
// payload and the end of its side information, CRC included.
func layer3SideInfoLen(h uint32) (int, error) {
	if h>>21 != 0x7ff {
		return 0, errNotLayer3
	}
	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	if layer != 0x1 || version == 0x1 {
		return 0, errNotLayer3
	}

	mpeg1 := version == 0x3
	mono := (h>>6)&0x3 == 0x3
	n := 17
	switch {
	case mpeg1 && !mono:
		n = 32
	case !mpeg1 && mono:
		n = 9
	}
	if (h>>16)&0x1 == 0 {
		n += 2
	}
	return n, nil
}

// parseLAMETrim reads encoder delay and padding from a Xing or Info tag.
func parseLAMETrim(b []byte) (gaplessTrim, error) {
	if len(b) < 8 {
		return gaplessTrim{}, errNoLAMEInfo
	}
	if id := string(b[:4]); id != "Xing" && id != "Info" {
		return gaplessTrim{}, errNoLAMEInfo
	}

	flags := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for _, field := range []struct {
		bit  uint32
		size int
	}{
		{0x1, 4},   // frames
		{0x2, 4},   // bytes
		{0x4, 100}, // TOC
		{0x8, 4},   // quality
	} {
		if flags&field.bit != 0 {
			off += field.size
		}
	}
	if len(b) < off+24 {
		return gaplessTrim{}, errNoLAMEInfo
	}

	// 12 bits of delay then 12 bits of padding, 21 bytes into the LAME tag.
	dp := b[off+21 : off+24]
	delay := int64(dp[0])<<4 | int64(dp[1]>>4)
	padding := int64(dp[1]&0x0f)<<8 | int64(dp[2])
	if delay == 0 && padding == 0 {
		return gaplessTrim{}, errNoLAMEInfo
	}
	return gaplessTrim{
		start: delay + mp3DecoderDelay,
		end:   max(padding-mp3DecoderDelay, 0),
	}, nil
}
