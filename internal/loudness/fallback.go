package loudness

import (
	"math"
	"unicode/utf16"
)

// estimatedBitrate is the bitrate assumed when sizing a synthetic waveform.
const estimatedBitrate = 192000

// Seed sums the UTF-16 code units of s.
func Seed(s string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int(u)
	}
	return sum
}

// FallbackBars estimates the bar count of a file of size bytes at 192 kbps.
func FallbackBars(size int, intervalSeconds float64) int {
	duration := float64(size) * 8 / estimatedBitrate
	return int(math.Ceil(duration / intervalSeconds))
}

// Fallback synthesizes a cosmetic waveform of n bars seeded by path. The output
// depends only on its arguments and lies in [0, 1].
func Fallback(path string, n int) []float64 {
	seed := float64(Seed(path))
	rng := func(i int) float64 {
		x := math.Sin(seed+float64(i)*12.9898) * 43758.5453
		return x - math.Floor(x)
	}

	out := make([]float64, n)
	for i := range out {
		progress := float64(i) / float64(n)

		low := math.Sin(progress*math.Pi*2) * 0.3
		mid := math.Sin(progress*math.Pi*4+seed*0.1) * 0.25
		high := math.Sin(progress*math.Pi*8+seed*0.01) * 0.15
		noise := (rng(i) - 0.5) * 0.1
		v := math.Abs(low + mid + high + noise)

		// loud middle, quiet ends
		centerBoost := math.Max(0, 1-math.Abs(progress-0.5)*1.5)
		v *= 0.7 + centerBoost*0.3

		out[i] = clamp(v, 0, 1)
	}
	return out
}
