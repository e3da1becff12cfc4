package waveform

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// DefaultInterval is the window duration in seconds.
const DefaultInterval = 0.5

// Format is the container format selected by file extension.
type Format int

const (
	FormatOther Format = iota
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "other"
	}
}

// DetectFormat looks only at the extension of name, case-insensitively.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return FormatOther
	}
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".m4a": true, ".aac": true, ".ogg": true,
}

// IsAudioFile reports whether name carries one of the accepted upload extensions.
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// Analyzer routes a buffer to its estimator by extension. It holds no mutable
// state and may be shared between goroutines.
type Analyzer struct {
	Estimator LoudnessEstimator
	Interval  float64
	Now       func() time.Time
}

// NewAnalyzer returns an Analyzer using interval seconds per window.
func NewAnalyzer(est LoudnessEstimator, interval float64) *Analyzer {
	return &Analyzer{Estimator: est, Interval: interval, Now: time.Now}
}

// Analyze runs the estimator with the analyzer's interval.
func (a *Analyzer) Analyze(ctx context.Context, name string, data []byte) (*Result, error) {
	return a.AnalyzeInterval(ctx, name, data, a.Interval)
}

// AnalyzeInterval runs the estimator with an explicit interval.
func (a *Analyzer) AnalyzeInterval(ctx context.Context, name string, data []byte, interval float64) (*Result, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidInterval, interval)
	}
	src := Source{Name: name, Data: data}

	var (
		res *Result
		err error
	)
	switch DetectFormat(name) {
	case FormatWAV:
		res, err = a.Estimator.EstimateWAV(ctx, src, interval)
	case FormatMP3:
		res, err = a.Estimator.EstimateMP3(ctx, src, interval)
	default:
		res, err = a.Estimator.EstimateOther(ctx, src, interval)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	res.Timestamp = now().UTC()
	return res, nil
}
