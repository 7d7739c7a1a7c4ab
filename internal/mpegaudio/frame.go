// Package mpegaudio parses MPEG audio frame headers directly from bytes,
// with no cgo and no external decoder, to recover duration and bitrate for
// MP3 files that tag libraries leave blank.
package mpegaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoSync means no valid frame sync was found before the search gave up.
var ErrNoSync = errors.New("mpegaudio: no frame sync found")

// bitrate tables in kbit/s, indexed [versionIndex][layerIndex][bitrateIndex].
// versionIndex: 0 = MPEG2/2.5, 1 = MPEG1. layerIndex: 0 = Layer I, 1 = Layer II, 2 = Layer III.
var bitrateTable = [2][3][16]int{
	// MPEG2 / MPEG2.5
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, -1}, // Layer I
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},      // Layer II
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},      // Layer III
	},
	// MPEG1
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, -1}, // Layer I
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, -1},    // Layer II
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1},     // Layer III
	},
}

var sampleRateTable = [4][3]int{
	{44100, 22050, 11025}, // MPEG1, MPEG2, MPEG2.5 share this column layout below
	{48000, 24000, 12000},
	{32000, 16000, 8000},
	{-1, -1, -1}, // reserved
}

var samplesPerFrameTable = [2][3]int{
	// [versionIndex][layerIndex]: versionIndex 1 = MPEG1, 0 = MPEG2/2.5
	{384, 1152, 576}, // MPEG2/2.5: Layer I, II, III
	{384, 1152, 1152}, // MPEG1: Layer I, II, III
}

// FrameHeader holds the decoded fields of a single MPEG audio frame header.
type FrameHeader struct {
	VersionID    int // 0=MPEG2.5, 2=MPEG2, 3=MPEG1
	Layer        int // 1, 2, or 3
	BitrateKbps  int
	SampleRate   int
	Padding      bool
	ChannelMode  int // 0=stereo,1=joint stereo,2=dual channel,3=mono
	HasCRC       bool
}

// Size returns the on-disk size in bytes of a frame with this header,
// including the 4-byte header itself.
func (h FrameHeader) Size() int {
	if h.BitrateKbps <= 0 || h.SampleRate <= 0 {
		return 0
	}
	samplesPerFrame := samplesPerFrameFor(h.VersionID, h.Layer)
	pad := 0
	if h.Padding {
		pad = 1
		if h.Layer != 1 {
			// Layer II/III padding slot is 1 byte; Layer I is 4 bytes.
		} else {
			pad = 4
		}
	}
	if h.Layer == 3 {
		// Same formula for every layer: samples/8 bytes per bit/s of
		// bitrate, plus the padding slot chosen above.
		return (samplesPerFrame/8)*(h.BitrateKbps*1000)/h.SampleRate + pad
	}
	return (samplesPerFrame/8)*(h.BitrateKbps*1000)/h.SampleRate + pad
}

func samplesPerFrameFor(versionID, layer int) int {
	vIdx := 0
	if versionID == 3 { // MPEG1
		vIdx = 1
	}
	lIdx := layer - 1 // decoded layer number: 1=Layer I, 2=Layer II, 3=Layer III
	if lIdx < 0 || lIdx > 2 {
		return 1152
	}
	return samplesPerFrameTable[vIdx][lIdx]
}

// parseHeader decodes a 4-byte big-endian MPEG audio frame header. It
// returns (header, true) on a structurally valid header, (zero, false) if
// the bytes don't look like a frame header at all.
func parseHeader(word uint32) (FrameHeader, bool) {
	if word&0xFFE00000 != 0xFFE00000 {
		return FrameHeader{}, false
	}
	versionID := int((word >> 19) & 0x3) // 0=2.5,1=reserved,2=MPEG2,3=MPEG1
	layerID := int((word >> 17) & 0x3)   // 0=reserved,1=LayerIII,2=LayerII,3=LayerI
	hasCRC := (word>>16)&0x1 == 0
	bitrateIdx := int((word >> 12) & 0xF)
	sampleRateIdx := int((word >> 10) & 0x3)
	padding := (word>>9)&0x1 == 1
	channelMode := int((word >> 6) & 0x3)

	if versionID == 1 || layerID == 0 || bitrateIdx == 15 || sampleRateIdx == 3 {
		return FrameHeader{}, false
	}

	vRow := 1
	if versionID != 3 {
		vRow = 0
	}
	lRow := 3 - layerID // layerID 3(LayerI)->0, 2(LayerII)->1, 1(LayerIII)->2
	kbps := bitrateTable[vRow][lRow][bitrateIdx]
	if kbps <= 0 {
		return FrameHeader{}, false
	}

	srCol := 0
	switch versionID {
	case 3: // MPEG1
		srCol = 0
	case 2: // MPEG2
		srCol = 1
	case 0: // MPEG2.5
		srCol = 2
	}
	rate := sampleRateTable[sampleRateIdx][srCol]
	if rate <= 0 {
		return FrameHeader{}, false
	}

	// layerID: 1=Layer III, 2=Layer II, 3=Layer I
	layerNum := map[int]int{1: 3, 2: 2, 3: 1}[layerID]

	return FrameHeader{
		VersionID:   versionID,
		Layer:       layerNum,
		BitrateKbps: kbps,
		SampleRate:  rate,
		Padding:     padding,
		ChannelMode: channelMode,
		HasCRC:      hasCRC,
	}, true
}

// ReadFirstFrame scans r for the first valid frame sync and returns its
// header along with the byte offset it was found at.
func ReadFirstFrame(r io.ReaderAt, startOffset int64, maxScan int64) (FrameHeader, int64, error) {
	buf := make([]byte, 4096)
	var offset int64 = startOffset
	var carry []byte

	for offset-startOffset < maxScan {
		n, err := r.ReadAt(buf, offset)
		if n == 0 {
			if err != nil {
				return FrameHeader{}, 0, fmt.Errorf("mpegaudio: read at %d: %w", offset, err)
			}
			break
		}
		window := append(carry, buf[:n]...)
		for i := 0; i+4 <= len(window); i++ {
			word := binary.BigEndian.Uint32(window[i : i+4])
			if hdr, ok := parseHeader(word); ok {
				return hdr, offset + int64(i) - int64(len(carry)), nil
			}
		}
		if len(window) >= 3 {
			carry = window[len(window)-3:]
		}
		offset += int64(n)
		if err == io.EOF {
			break
		}
	}
	return FrameHeader{}, 0, ErrNoSync
}

// Info is the duration/bitrate summary this package exists to produce.
type Info struct {
	DurationMs  int
	BitrateKbps int
	SampleRate  int
	VBR         bool
}

// AnalyzeFile opens path and computes duration/bitrate using the Xing/Info
// VBR header when present, falling back to a CBR estimate from the file
// size and the first frame's bitrate.
func AnalyzeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Info{}, err
	}

	id3v2Len := readID3v2Size(f)
	hdr, frameOff, err := ReadFirstFrame(f, id3v2Len, 256*1024)
	if err != nil {
		return Info{}, err
	}

	footerLen := int64(0)
	if hasID3v1Tag(f, stat.Size()) {
		footerLen = 128
	}

	// Xing/Info VBR header lives in the data portion of the first frame,
	// offset depends on version+channel mode per the format spec.
	if vbrFrames, ok := readXingFrameCount(f, hdr, frameOff); ok {
		samplesPerFrame := samplesPerFrameFor(hdr.VersionID, hdr.Layer)
		totalSamples := int64(vbrFrames) * int64(samplesPerFrame)
		durMs := int(totalSamples * 1000 / int64(hdr.SampleRate))
		avgBitrate := 0
		audioBytes := stat.Size() - frameOff - footerLen
		if durMs > 0 {
			avgBitrate = int(audioBytes * 8 / int64(durMs))
		}
		return Info{DurationMs: durMs, BitrateKbps: avgBitrate, SampleRate: hdr.SampleRate, VBR: true}, nil
	}

	audioBytes := stat.Size() - frameOff - footerLen
	if audioBytes <= 0 || hdr.BitrateKbps <= 0 {
		return Info{}, fmt.Errorf("mpegaudio: cannot estimate duration for %s", path)
	}
	durMs := int(audioBytes * 8 / int64(hdr.BitrateKbps))
	return Info{DurationMs: durMs, BitrateKbps: hdr.BitrateKbps, SampleRate: hdr.SampleRate, VBR: false}, nil
}

func readID3v2Size(f *os.File) int64 {
	header := make([]byte, 10)
	if n, err := f.ReadAt(header, 0); err != nil || n < 10 {
		return 0
	}
	if string(header[0:3]) != "ID3" {
		return 0
	}
	size := int64(header[6]&0x7f)<<21 | int64(header[7]&0x7f)<<14 | int64(header[8]&0x7f)<<7 | int64(header[9]&0x7f)
	return size + 10
}

func hasID3v1Tag(f *os.File, fileSize int64) bool {
	if fileSize < 128 {
		return false
	}
	buf := make([]byte, 3)
	if _, err := f.ReadAt(buf, fileSize-128); err != nil {
		return false
	}
	return string(buf) == "TAG"
}

// readXingFrameCount looks for a "Xing"/"Info" (CBR-tagged VBR header from
// LAME) or "VBRI" header in the first frame's data region and returns the
// total frame count it advertises.
func readXingFrameCount(f *os.File, hdr FrameHeader, frameOffset int64) (int, bool) {
	// Xing/Info offset: 4 (header) + side-info size, which depends on
	// MPEG version and channel mode.
	sideInfoLen := 32
	if hdr.VersionID == 3 { // MPEG1
		if hdr.ChannelMode == 3 { // mono
			sideInfoLen = 17
		} else {
			sideInfoLen = 32
		}
	} else { // MPEG2/2.5
		if hdr.ChannelMode == 3 {
			sideInfoLen = 9
		} else {
			sideInfoLen = 17
		}
	}
	xingOff := frameOffset + 4 + int64(sideInfoLen)
	buf := make([]byte, 16)
	if _, err := f.ReadAt(buf, xingOff); err == nil {
		tag := string(buf[0:4])
		if tag == "Xing" || tag == "Info" {
			flags := binary.BigEndian.Uint32(buf[4:8])
			if flags&0x1 != 0 {
				frames := binary.BigEndian.Uint32(buf[8:12])
				return int(frames), true
			}
		}
	}

	// VBRI header sits at a fixed offset of 4+32 from the frame start,
	// regardless of channel mode (it's MPEG1/Layer III specific, written
	// by the Fraunhofer encoder).
	vbriOff := frameOffset + 4 + 32
	vbuf := make([]byte, 26)
	if _, err := f.ReadAt(vbuf, vbriOff); err == nil {
		if string(vbuf[0:4]) == "VBRI" {
			frames := binary.BigEndian.Uint32(vbuf[14:18])
			return int(frames), true
		}
	}

	return 0, false
}
