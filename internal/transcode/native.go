package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"amply-waveform/internal/audio"
)

const nativeTool = "go-mp3"

// Native decodes MP3 in-process. It keeps the stream's own sample rate; the output
// is always 16-bit stereo because that is what the decoder produces.
type Native struct{}

// ToWAV decodes an MP3 buffer and re-encodes the PCM as a WAV buffer.
func (Native) ToWAV(ctx context.Context, data []byte) ([]byte, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, nativeFail(fmt.Errorf("create decoder: %w", err))
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, nativeFail(fmt.Errorf("decode: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, nativeFail(err)
	}
	if len(pcm) == 0 {
		return nil, nativeFail(errors.New("decoder produced no audio"))
	}

	// signed 16-bit little endian, interleaved stereo
	ints := make([]int, len(pcm)/2)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: dec.SampleRate()},
		Data:           ints,
		SourceBitDepth: 16,
	}
	return encodeWAV(buf)
}

// encodeWAV writes buf as a PCM WAV through a scratch file, since the encoder
// needs to seek back to patch chunk sizes.
func encodeWAV(buf *goaudio.IntBuffer) ([]byte, error) {
	f, err := os.CreateTemp("", "amply-native-*.wav")
	if err != nil {
		return nil, nativeFail(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, buf.Format.SampleRate, buf.SourceBitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, nativeFail(fmt.Errorf("encode: %w", err))
	}
	if err := enc.Close(); err != nil {
		return nil, nativeFail(fmt.Errorf("encode: %w", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nativeFail(err)
	}
	return io.ReadAll(f)
}

func nativeFail(err error) error {
	return &audio.DecodeToolError{Tool: nativeTool, Err: err}
}
