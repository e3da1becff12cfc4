package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

// buildWAV assembles a canonical 44-byte-header WAV around raw sample data.
func buildWAV(format, channels, sampleRate, bits int, data []byte) []byte {
	var buf bytes.Buffer
	le := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(format))
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate * channels * bits / 8))
	le(uint16(channels * bits / 8))
	le(uint16(bits))
	buf.WriteString("data")
	le(uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func pcm16(vals ...int16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestParseWAVBitDepths(t *testing.T) {
	tests := []struct {
		name string
		bits int
		data []byte
		want []float64
	}{
		{"16-bit", 16, pcm16(16384, -32768, 0), []float64{0.5, -1, 0}},
		{"24-bit", 24, []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}, []float64{0.5, -0.5}},
		{"32-bit", 32, []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x80}, []float64{0.5, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseWAV(buildWAV(1, 1, 8000, tt.bits, tt.data), ParseOptions{RequirePCM: true})
			if err != nil {
				t.Fatalf("ParseWAV: %v", err)
			}
			if s.SampleRate != 8000 || s.Channels != 1 || s.BitDepth != tt.bits {
				t.Errorf("metadata = %+v", s)
			}
			if len(s.Samples) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(s.Samples), len(tt.want))
			}
			for i, want := range tt.want {
				if math.Abs(s.Samples[i]-want) > 1e-9 {
					t.Errorf("sample %d = %v, want %v", i, s.Samples[i], want)
				}
			}
		})
	}
}

func TestParseWAVFirstChannelOnly(t *testing.T) {
	// left, right interleaved; right is loud, left is quiet
	data := pcm16(1000, 30000, -1000, -30000, 2000, 30000)
	s, err := ParseWAV(buildWAV(1, 2, 44100, 16, data), ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1000.0 / 32768, -1000.0 / 32768, 2000.0 / 32768}
	if len(s.Samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(s.Samples), len(want))
	}
	for i := range want {
		if s.Samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, s.Samples[i], want[i])
		}
	}
}

func TestParseWAVRectify(t *testing.T) {
	s, err := ParseWAV(buildWAV(1, 1, 8000, 16, pcm16(-16384, 16384)), ParseOptions{Rectify: true})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range s.Samples {
		if v != 0.5 {
			t.Errorf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestParseWAVDeterministic(t *testing.T) {
	buf := buildWAV(1, 1, 8000, 16, pcm16(1, 2, 3, -4, 5))
	a, _ := ParseWAV(buf, ParseOptions{})
	b, _ := ParseWAV(buf, ParseOptions{})
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs between runs", i)
		}
	}
}

func TestParseWAVDataSizeClipped(t *testing.T) {
	buf := buildWAV(1, 1, 8000, 16, pcm16(100, 200, 300, 400))
	// claim far more data than is present, and drop the last odd byte
	binary.LittleEndian.PutUint32(buf[40:], 1<<20)
	buf = buf[:len(buf)-1]

	s, err := ParseWAV(buf, ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Samples) != 3 {
		t.Errorf("got %d samples, want 3", len(s.Samples))
	}
}

func TestParseWAVEmptyData(t *testing.T) {
	s, err := ParseWAV(buildWAV(1, 1, 8000, 16, nil), ParseOptions{RequirePCM: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Samples) != 0 {
		t.Errorf("got %d samples", len(s.Samples))
	}
}

func TestParseHeaderErrors(t *testing.T) {
	valid := buildWAV(1, 1, 8000, 16, pcm16(1, 2))
	patch := func(off int, v uint16) []byte {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint16(b[off:], v)
		return b
	}
	noData := append([]byte(nil), valid[:36]...)
	noData = append(noData, []byte("junk\x04\x00\x00\x00\x01\x00\x02\x00")...)

	tests := []struct {
		name string
		buf  []byte
		want string
	}{
		{"empty", nil, "missing RIFF header"},
		{"not riff", append([]byte("RIFX"), valid[4:]...), "missing RIFF header"},
		{"no fmt", []byte("RIFF\x00\x00\x00\x00WAVEdata\x00\x00\x00\x00"), "missing fmt chunk"},
		{"short fmt", valid[:24], "truncated fmt chunk"},
		{"float", patch(20, 3), "unsupported format: 3"},
		{"no channels", patch(22, 0), "invalid channel count: 0"},
		{"no rate", append(append([]byte(nil), valid[:24]...), append([]byte{0, 0, 0, 0}, valid[28:]...)...), "invalid sample rate: 0"},
		{"8-bit", patch(34, 8), "unsupported bit depth: 8"},
		{"no data", noData, "missing data chunk"},
		{"short data", valid[:42], "truncated data chunk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWAV(tt.buf, ParseOptions{RequirePCM: true})
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got %v, want *FormatError", err)
			}
			if !strings.Contains(fe.Reason, tt.want) {
				t.Errorf("reason %q does not contain %q", fe.Reason, tt.want)
			}
		})
	}
}

func TestParseHeaderNonPCMAllowed(t *testing.T) {
	buf := buildWAV(3, 1, 8000, 32, make([]byte, 8))
	h, err := ParseHeader(buf, false)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.AudioFormat != 3 || h.Frames() != 2 {
		t.Errorf("header = %+v, frames %d", h, h.Frames())
	}
}

func TestEachWindow(t *testing.T) {
	buf := buildWAV(1, 1, 8000, 16, pcm16(1, 2, 3, 4, 5, 6, 7))
	h, err := ParseHeader(buf, true)
	if err != nil {
		t.Fatal(err)
	}
	var sizes []int
	var firsts []float64
	err = h.EachWindow(buf, 3, func(w []float64) error {
		sizes = append(sizes, len(w))
		firsts = append(firsts, w[0]*32768)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Errorf("window sizes = %v", sizes)
	}
	if firsts[0] != 1 || firsts[1] != 4 || firsts[2] != 7 {
		t.Errorf("window starts = %v", firsts)
	}

	stop := errors.New("stop")
	calls := 0
	err = h.EachWindow(buf, 2, func([]float64) error {
		calls++
		return stop
	})
	if err != stop || calls != 1 {
		t.Errorf("callback error not propagated: err=%v calls=%d", err, calls)
	}
}
