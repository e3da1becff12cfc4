// Package loudness turns sample windows into per-interval loudness values and
// maps loudness series into the bounded range used for waveform bars.
//
// The weighting is a coarse perceptual approximation: a first-order high-pass
// difference filter followed by a flat shelf gain. It is not the BS.1770 biquad
// cascade and the measurement is ungated.
package loudness

import "math"

const (
	// SilenceFloor is the loudness reported for an empty window.
	SilenceFloor = -60.0

	hpAlpha       = 0.85
	shelfBoost    = 1.3
	lufsOffset    = -0.691
	minMeanSquare = 0.0001
)

// KWeight applies the approximate K-weighting to samples. Inputs shorter than two
// samples are returned unchanged.
func KWeight(samples []float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) < 2 {
		copy(out, samples)
		return out
	}
	var prevX, prevHP float64
	for i, x := range samples {
		hp := hpAlpha * (prevHP + (x - prevX))
		prevHP, prevX = hp, x
		out[i] = math.Abs(hp) * shelfBoost
	}
	return out
}

// LUFS computes -0.691 + 10*log10(meanSquare) over an already weighted window,
// with the mean square floored at 1e-4. An empty window yields SilenceFloor.
func LUFS(weighted []float64) float64 {
	if len(weighted) == 0 {
		return SilenceFloor
	}
	var sum float64
	for _, v := range weighted {
		sum += v * v
	}
	ms := sum / float64(len(weighted))
	return lufsOffset + 10*math.Log10(math.Max(minMeanSquare, ms))
}

// Measure weights a window and returns its loudness.
func Measure(window []float64) float64 {
	return LUFS(KWeight(window))
}
