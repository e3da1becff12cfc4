package audio

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SamplesPerFrame is the PCM frame count of one MPEG-1 Layer III frame.
const SamplesPerFrame = 1152

const (
	minFrameSize = 21
	maxFrameSize = 2880

	// versionReserved is the MPEG version ID 01.
	versionReserved = 1
	// layerIII is the layer description 01.
	layerIII = 1

	channelModeMono = 3

	sideInfoMono   = 17
	sideInfoStereo = 32
)

// MPEG-1 Layer III tables, applied to every accepted version.
var (
	bitratesKbps = [...]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}
	sampleRates  = [...]int{44100, 48000, 32000}
)

// Frame is an MPEG audio frame located by the sync scan.
type Frame struct {
	Position    int
	Size        int
	Bitrate     int // kbps
	SampleRate  int
	Channels    int
	ChannelMode int
}

// ScanFrames walks buf looking for frame sync words. A valid header advances the
// scan by its frame size, anything else by one byte.
func ScanFrames(buf []byte) []Frame {
	var frames []Frame
	pos := 0
	for pos < len(buf)-4 {
		f, ok := parseFrameHeader(buf[pos : pos+4])
		if !ok {
			pos++
			continue
		}
		f.Position = pos
		frames = append(frames, f)
		pos += f.Size
	}
	return frames
}

func parseFrameHeader(h []byte) (Frame, bool) {
	if h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
		return Frame{}, false
	}
	version := int(h[1]>>3) & 0x03
	layer := int(h[1]>>1) & 0x03
	bitrateIdx := int(h[2]>>4) & 0x0F
	sampleRateIdx := int(h[2]>>2) & 0x03
	padding := int(h[2]>>1) & 0x01
	channelMode := int(h[3]>>6) & 0x03

	// Only the reserved ID 01 is rejected, so MPEG-1 frames are accepted. Reading this
	// check as "rejects MPEG-1" is wrong; changing it would drop every MPEG-1 file.
	// TODO: the version check only rejects the reserved ID; validate against an MPEG-2/2.5
	// corpus whether those frames should be rejected or sized with their own tables.
	if version == versionReserved || layer != layerIII ||
		bitrateIdx == 0 || bitrateIdx == 15 || sampleRateIdx == 3 {
		return Frame{}, false
	}

	bitrate := bitratesKbps[bitrateIdx]
	sampleRate := sampleRates[sampleRateIdx]
	size := 144000*bitrate/sampleRate + padding
	if size < minFrameSize || size > maxFrameSize {
		return Frame{}, false
	}

	channels := 2
	if channelMode == channelModeMono {
		channels = 1
	}
	return Frame{
		Size:        size,
		Bitrate:     bitrate,
		SampleRate:  sampleRate,
		Channels:    channels,
		ChannelMode: channelMode,
	}, true
}

// SideInfo returns the side-information bytes following the 4-byte header,
// clipped to the buffer.
func (f Frame) SideInfo(buf []byte) []byte {
	size := sideInfoStereo
	if f.ChannelMode == channelModeMono {
		size = sideInfoMono
	}
	start := min(f.Position+4, len(buf))
	end := min(start+size, len(buf))
	return buf[start:end]
}

// Loudness is a rough per-frame loudness proxy: the standard deviation of the
// side-information bytes scaled by 1/50, clamped to [0.05, 1].
func (f Frame) Loudness(buf []byte) float64 {
	side := f.SideInfo(buf)
	if len(side) == 0 {
		return 0.05
	}
	vals := make([]float64, len(side))
	for i, b := range side {
		vals[i] = float64(b)
	}
	_, sd := stat.PopMeanStdDev(vals, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return math.Max(0.05, math.Min(1, sd/50))
}
