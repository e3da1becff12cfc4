package loudness

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SamplesPerInterval is floor(sampleRate * seconds).
func SamplesPerInterval(sampleRate int, seconds float64) int {
	return int(math.Floor(float64(sampleRate) * seconds))
}

// Windows splits samples into consecutive non-overlapping windows of size
// perInterval; the final window may be shorter. The windows alias samples.
func Windows(samples []float64, perInterval int) [][]float64 {
	if perInterval < 1 {
		perInterval = 1
	}
	out := make([][]float64, 0, (len(samples)+perInterval-1)/perInterval)
	for i := 0; i < len(samples); i += perInterval {
		out = append(out, samples[i:min(i+perInterval, len(samples))])
	}
	return out
}

// Series measures every window of samples, in order.
func Series(samples []float64, perInterval int) []float64 {
	windows := Windows(samples, perInterval)
	series := make([]float64, len(windows))
	for i, w := range windows {
		series[i] = Measure(w)
	}
	return series
}

// perceptualBoost lifts small magnitudes logarithmically and adds a mild
// level-dependent gain.
func perceptualBoost(v float64) float64 {
	logEnergy := math.Log(1+v*10) / math.Log(11)
	return clamp(logEnergy*(1.5+v*0.5), MinBar, 1)
}

// Energy is the heuristic loudness of a window of signed samples: the population
// standard deviation of the boosted magnitudes, times 1.5, clamped to [0.05, 1].
func Energy(window []float64) float64 {
	if len(window) == 0 {
		return MinBar
	}
	boosted := make([]float64, len(window))
	for i, s := range window {
		boosted[i] = perceptualBoost(math.Abs(s))
	}
	_, sd := stat.PopMeanStdDev(boosted, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return clamp(sd*1.5, MinBar, 1)
}
