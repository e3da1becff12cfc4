package waveform

import (
	"context"
	"fmt"
	"math"

	"amply-waveform/internal/audio"
	"amply-waveform/internal/loudness"
)

// Metadata reported for synthetic waveforms.
const (
	syntheticSampleRate = 44100
	syntheticChannels   = 2
	syntheticBitDepth   = 16
)

// HeuristicEstimator works directly on the container bytes without any decoder.
// WAV intervals are scored by the spread of perceptually boosted magnitudes,
// MP3 frames by their side-information bytes. MP3 buffers without a single
// frame and unknown extensions get a synthetic waveform instead of an error.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Method() Method { return MethodHeuristic }

func (HeuristicEstimator) EstimateWAV(_ context.Context, src Source, interval float64) (*Result, error) {
	h, err := audio.ParseHeader(src.Data, false)
	if err != nil {
		return nil, err
	}
	if h.Frames() == 0 {
		return nil, &audio.EmptySampleError{Source: src.Name}
	}
	per := loudness.SamplesPerInterval(h.SampleRate, interval)
	if per < 1 {
		return nil, fmt.Errorf("%w: %gs at %d Hz", ErrInvalidInterval, interval, h.SampleRate)
	}

	var series []float64
	err = h.EachWindow(src.Data, per, func(window []float64) error {
		series = append(series, loudness.Energy(window))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		BitDepth:   h.BitDepth,
		Method:     MethodHeuristic,
		Interval:   interval,
		Samples:    loudness.NormalizeMinMax(series, false),
		Series:     series,
	}, nil
}

func (HeuristicEstimator) EstimateMP3(_ context.Context, src Source, interval float64) (*Result, error) {
	frames := audio.ScanFrames(src.Data)
	if len(frames) == 0 {
		return synthetic(src, interval), nil
	}

	first := frames[0]
	per := loudness.SamplesPerInterval(first.SampleRate, interval)
	if per < 1 {
		return nil, fmt.Errorf("%w: %gs at %d Hz", ErrInvalidInterval, interval, first.SampleRate)
	}
	duration := float64(len(frames)*audio.SamplesPerFrame) / float64(first.SampleRate)
	bars := make([]float64, int(math.Ceil(duration/interval)))

	for i, f := range frames {
		idx := i * audio.SamplesPerFrame / per
		if idx < len(bars) {
			bars[idx] = math.Max(bars[idx], f.Loudness(src.Data))
		}
	}
	return &Result{
		SampleRate: first.SampleRate,
		Channels:   first.Channels,
		BitDepth:   16,
		Method:     MethodHeuristic,
		Interval:   interval,
		Samples:    loudness.NormalizeMinMax(bars, true),
		Series:     bars,
	}, nil
}

func (HeuristicEstimator) EstimateOther(_ context.Context, src Source, interval float64) (*Result, error) {
	return synthetic(src, interval), nil
}

func synthetic(src Source, interval float64) *Result {
	raw := loudness.Fallback(src.Name, loudness.FallbackBars(len(src.Data), interval))
	return &Result{
		SampleRate: syntheticSampleRate,
		Channels:   syntheticChannels,
		BitDepth:   syntheticBitDepth,
		Method:     MethodSynthetic,
		Interval:   interval,
		Samples:    loudness.Clamp(raw),
		Series:     raw,
	}
}
