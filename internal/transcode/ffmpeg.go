// Package transcode converts compressed audio into 16-bit PCM WAV buffers.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"amply-waveform/internal/audio"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultTimeout    = 5 * time.Minute
)

// FFmpeg runs an external ffmpeg binary.
type FFmpeg struct {
	Bin        string
	SampleRate int
	Channels   int
	Timeout    time.Duration
}

// NewFFmpeg returns an FFmpeg transcoder producing 44.1 kHz stereo.
func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{
		Bin:        bin,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Timeout:    DefaultTimeout,
	}
}

func (f *FFmpeg) args(in, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", in,
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", f.SampleRate),
		"-ac", fmt.Sprintf("%d", f.Channels),
		"-f", "wav",
		"-y", out,
	}
}

// ToWAV writes data to a scratch directory, decodes it with ffmpeg and returns the
// resulting WAV bytes. Any failure, including a missing output file, is reported
// as an *audio.DecodeToolError.
func (f *FFmpeg) ToWAV(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "amply-transcode-")
	if err != nil {
		return nil, f.fail(fmt.Errorf("create scratch dir: %w", err), "")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input")
	out := filepath.Join(dir, "decoded.wav")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		return nil, f.fail(fmt.Errorf("write input: %w", err), "")
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Bin, f.args(in, out)...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, f.fail(err, strings.TrimSpace(stderr.String()))
	}

	wav, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, f.fail(errors.New("no output file produced"), strings.TrimSpace(stderr.String()))
		}
		return nil, f.fail(err, "")
	}
	return wav, nil
}

func (f *FFmpeg) fail(err error, output string) error {
	return &audio.DecodeToolError{Tool: f.Bin, Output: output, Err: err}
}
