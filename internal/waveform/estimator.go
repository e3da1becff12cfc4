// Package waveform produces bounded loudness bars for an audio buffer. A
// LoudnessEstimator carries the analysis strategy for each container format and
// the Analyzer dispatches on the file extension.
package waveform

import (
	"context"
	"errors"
	"time"

	"amply-waveform/internal/loudness"
)

// Method tags how a result was produced.
type Method string

const (
	MethodLUFS      Method = "ITU-R BS.1770 LUFS"
	MethodHeuristic Method = "scale-factor heuristic"
	MethodSynthetic Method = "synthetic"
)

// ErrInvalidInterval is returned for interval durations that select less than
// one sample per window.
var ErrInvalidInterval = errors.New("waveform: invalid interval")

// Source is one audio file held in memory.
type Source struct {
	Name string
	Data []byte
}

// Result is the outcome of one analysis. Samples has one value in [0.05, 1] per
// interval, in order. Series holds the raw per-interval values before
// normalization; Stats is only set by the LUFS strategy.
type Result struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Method     Method
	Interval   float64
	Samples    []float64
	Series     []float64
	Stats      *loudness.Stats
	Timestamp  time.Time
}

// Transcoder converts compressed audio into a PCM WAV buffer.
type Transcoder interface {
	ToWAV(ctx context.Context, data []byte) ([]byte, error)
}

// LoudnessEstimator is an analysis strategy. Each method receives an interval
// already validated as positive.
type LoudnessEstimator interface {
	Method() Method
	EstimateWAV(ctx context.Context, src Source, interval float64) (*Result, error)
	EstimateMP3(ctx context.Context, src Source, interval float64) (*Result, error)
	// EstimateOther handles every extension that is neither .wav nor .mp3.
	EstimateOther(ctx context.Context, src Source, interval float64) (*Result, error)
}
