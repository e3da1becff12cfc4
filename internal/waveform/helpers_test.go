package waveform

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeSine writes a 440 Hz mono 16-bit tone with the go-audio encoder and returns
// the file bytes.
func encodeSine(t *testing.T, sampleRate int, seconds, amp float64) []byte {
	t.Helper()
	n := int(float64(sampleRate) * seconds)
	data := make([]int, n)
	for i := range data {
		data[i] = int(amp * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// rawWAV wraps 16-bit mono sample bytes in a canonical header.
func rawWAV(sampleRate int, data []byte) []byte {
	var buf bytes.Buffer
	le := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	le(uint32(36 + len(data)))
	buf.WriteString("WAVEfmt ")
	le(uint32(16))
	le(uint16(1))
	le(uint16(1))
	le(uint32(sampleRate))
	le(uint32(sampleRate * 2))
	le(uint16(2))
	le(uint16(16))
	buf.WriteString("data")
	le(uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// mp3Frames builds n 128 kbps 44.1 kHz stereo frames. Frame i carries side
// information alternating between 0 and level(i).
func mp3Frames(n int, level func(i int) byte) []byte {
	const size = 417
	var out []byte
	for i := 0; i < n; i++ {
		f := make([]byte, size)
		copy(f, []byte{0xFF, 0xFB, 0x90, 0x00})
		for j := 0; j < 32; j += 2 {
			f[4+j+1] = level(i)
		}
		out = append(out, f...)
	}
	return out
}

type fakeTranscoder struct {
	wav   []byte
	err   error
	calls int
}

func (f *fakeTranscoder) ToWAV(_ context.Context, _ []byte) ([]byte, error) {
	f.calls++
	return f.wav, f.err
}

func assertBounded(t *testing.T, samples []float64) {
	t.Helper()
	for i, v := range samples {
		if v < 0.05 || v > 1 || math.IsNaN(v) {
			t.Errorf("sample %d = %v out of [0.05, 1]", i, v)
		}
	}
}
