package waveform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"amply-waveform/internal/audio"
	"amply-waveform/internal/loudness"
)

// LUFSEstimator measures approximate K-weighted loudness per interval. It fails
// on anything it cannot measure: empty streams, transcoding errors and unknown
// extensions are all returned to the caller.
type LUFSEstimator struct {
	Transcoder Transcoder
}

func (e *LUFSEstimator) Method() Method { return MethodLUFS }

func (e *LUFSEstimator) EstimateWAV(_ context.Context, src Source, interval float64) (*Result, error) {
	stream, err := audio.ParseWAV(src.Data, audio.ParseOptions{RequirePCM: true, Rectify: true})
	if err != nil {
		return nil, err
	}
	return e.measure(src.Name, stream, interval)
}

func (e *LUFSEstimator) measure(name string, stream *audio.Stream, interval float64) (*Result, error) {
	if len(stream.Samples) == 0 {
		return nil, &audio.EmptySampleError{Source: name}
	}
	per := loudness.SamplesPerInterval(stream.SampleRate, interval)
	if per < 1 {
		return nil, fmt.Errorf("%w: %gs at %d Hz", ErrInvalidInterval, interval, stream.SampleRate)
	}

	series := loudness.Series(stream.Samples, per)
	stats := loudness.Summarize(series)
	return &Result{
		SampleRate: stream.SampleRate,
		Channels:   stream.Channels,
		BitDepth:   stream.BitDepth,
		Method:     MethodLUFS,
		Interval:   interval,
		Samples:    loudness.NormalizeLUFS(series),
		Series:     series,
		Stats:      &stats,
	}, nil
}

// EstimateMP3 decodes through the transcoder and measures the decoded WAV.
func (e *LUFSEstimator) EstimateMP3(ctx context.Context, src Source, interval float64) (*Result, error) {
	if e.Transcoder == nil {
		return nil, &audio.DecodeToolError{Tool: "transcoder", Err: errors.New("no transcoder configured")}
	}
	wav, err := e.Transcoder.ToWAV(ctx, src.Data)
	if err != nil {
		var toolErr *audio.DecodeToolError
		if errors.As(err, &toolErr) {
			return nil, err
		}
		return nil, &audio.DecodeToolError{Tool: "transcoder", Err: err}
	}
	stream, err := audio.ParseWAV(wav, audio.ParseOptions{RequirePCM: true, Rectify: true})
	if err != nil {
		return nil, fmt.Errorf("decoded %s: %w", src.Name, err)
	}
	return e.measure(src.Name, stream, interval)
}

func (e *LUFSEstimator) EstimateOther(_ context.Context, src Source, _ float64) (*Result, error) {
	return nil, &audio.FormatError{Reason: "unsupported audio format: " + filepath.Ext(src.Name)}
}
