package mpegaudio

import (
	"io"
	"testing"
)

func TestParseHeaderMPEG1Layer3(t *testing.T) {
	// 0xFFFB9064: sync=11, version=MPEG1(11), layer=LayerIII(01), no CRC,
	// bitrate index 9 (128kbps), sample rate index 0 (44100), no padding.
	word := uint32(0xFFFB9064)
	hdr, ok := parseHeader(word)
	if !ok {
		t.Fatalf("expected valid header")
	}
	if hdr.Layer != 3 {
		t.Errorf("Layer = %d, want 3", hdr.Layer)
	}
	if hdr.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", hdr.SampleRate)
	}
	if hdr.BitrateKbps <= 0 {
		t.Errorf("BitrateKbps = %d, want > 0", hdr.BitrateKbps)
	}
}

func TestParseHeaderRejectsNonSync(t *testing.T) {
	if _, ok := parseHeader(0x00000000); ok {
		t.Errorf("expected non-sync word to be rejected")
	}
}

func TestParseHeaderRejectsReservedBitrate(t *testing.T) {
	// Bitrate index all-ones (15) is reserved/invalid.
	word := uint32(0xFFFBF064)
	if _, ok := parseHeader(word); ok {
		t.Errorf("expected reserved bitrate index to be rejected")
	}
}

func TestReadFirstFrameNoSync(t *testing.T) {
	r := byteReaderAt([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05})
	if _, _, err := ReadFirstFrame(r, 0, 64); err != ErrNoSync {
		t.Errorf("err = %v, want ErrNoSync", err)
	}
}

type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
