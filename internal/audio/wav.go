package audio

import (
	"bytes"
	"encoding/binary"
)

const formatPCM = 1

var (
	riffMarker = []byte("RIFF")
	fmtMarker  = []byte("fmt ")
	dataMarker = []byte("data")
)

// Stream is decoded PCM of the first channel of a WAV file.
type Stream struct {
	Samples    []float64
	SampleRate int
	Channels   int
	BitDepth   int
}

// Header describes the layout of a WAV buffer. DataStart and DataEnd are byte
// offsets of the sample region, with DataEnd clipped to the buffer length.
type Header struct {
	AudioFormat int
	Channels    int
	SampleRate  int
	BitDepth    int
	DataStart   int
	DataEnd     int
}

// ParseOptions selects the per-caller behavior of ParseWAV.
type ParseOptions struct {
	// RequirePCM rejects any fmt audio-format code other than 1.
	RequirePCM bool
	// Rectify stores absolute sample values.
	Rectify bool
}

// ParseHeader locates the RIFF, fmt and data markers and reads the format fields.
// The markers are searched anywhere in the buffer rather than walked chunk by chunk.
func ParseHeader(buf []byte, requirePCM bool) (Header, error) {
	var h Header
	if len(buf) < 4 || !bytes.Equal(buf[:4], riffMarker) {
		return h, formatErrorf("missing RIFF header")
	}

	fmtPos := bytes.Index(buf, fmtMarker)
	if fmtPos == -1 {
		return h, formatErrorf("missing fmt chunk")
	}
	fmtData := fmtPos + 8
	if fmtData+16 > len(buf) {
		return h, formatErrorf("truncated fmt chunk")
	}
	h.AudioFormat = int(binary.LittleEndian.Uint16(buf[fmtData:]))
	h.Channels = int(binary.LittleEndian.Uint16(buf[fmtData+2:]))
	h.SampleRate = int(binary.LittleEndian.Uint32(buf[fmtData+4:]))
	// byte rate and block align are skipped
	h.BitDepth = int(binary.LittleEndian.Uint16(buf[fmtData+14:]))

	if requirePCM && h.AudioFormat != formatPCM {
		return h, formatErrorf("unsupported format: %d (only PCM is supported)", h.AudioFormat)
	}
	if h.Channels == 0 {
		return h, formatErrorf("invalid channel count: 0")
	}
	if h.SampleRate == 0 {
		return h, formatErrorf("invalid sample rate: 0")
	}
	switch h.BitDepth {
	case 16, 24, 32:
	default:
		return h, formatErrorf("unsupported bit depth: %d", h.BitDepth)
	}

	dataPos := bytes.Index(buf, dataMarker)
	if dataPos == -1 {
		return h, formatErrorf("missing data chunk")
	}
	if dataPos+8 > len(buf) {
		return h, formatErrorf("truncated data chunk")
	}
	dataSize := int64(binary.LittleEndian.Uint32(buf[dataPos+4:]))
	h.DataStart = dataPos + 8
	end := int64(h.DataStart) + dataSize
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}
	h.DataEnd = int(end)
	return h, nil
}

// BytesPerSample is the width of a single channel sample.
func (h Header) BytesPerSample() int { return h.BitDepth / 8 }

// Stride is the width of one interleaved frame across all channels.
func (h Header) Stride() int { return h.BytesPerSample() * h.Channels }

// Frames counts the frames whose first-channel sample lies fully inside the data region.
func (h Header) Frames() int {
	n := h.DataEnd - h.DataStart
	if n < h.BytesPerSample() {
		return 0
	}
	return (n-h.BytesPerSample())/h.Stride() + 1
}

// Sample decodes the first-channel value of frame i as a fraction of full scale.
func (h Header) Sample(buf []byte, i int) float64 {
	off := h.DataStart + i*h.Stride()
	switch h.BitDepth {
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(buf[off:]))) / 32768
	case 24:
		v := int32(int8(buf[off+2]))<<16 | int32(buf[off+1])<<8 | int32(buf[off])
		return float64(v) / 8388608
	default:
		return float64(int32(binary.LittleEndian.Uint32(buf[off:]))) / 2147483648
	}
}

// ParseWAV decodes the first channel of a WAV buffer.
func ParseWAV(buf []byte, opts ParseOptions) (*Stream, error) {
	h, err := ParseHeader(buf, opts.RequirePCM)
	if err != nil {
		return nil, err
	}
	n := h.Frames()
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := h.Sample(buf, i)
		if opts.Rectify && v < 0 {
			v = -v
		}
		samples[i] = v
	}
	return &Stream{
		Samples:    samples,
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		BitDepth:   h.BitDepth,
	}, nil
}

// EachWindow decodes consecutive windows of up to size frames and hands each to fn.
// The slice passed to fn is reused between calls.
func (h Header) EachWindow(buf []byte, size int, fn func(window []float64) error) error {
	if size < 1 {
		size = 1
	}
	total := h.Frames()
	window := make([]float64, 0, min(size, total))
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		window = window[:0]
		for i := start; i < end; i++ {
			window = append(window, h.Sample(buf, i))
		}
		if err := fn(window); err != nil {
			return err
		}
	}
	return nil
}
