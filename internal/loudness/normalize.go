package loudness

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// MinBar and MaxBar bound every normalized value.
	MinBar = 0.05
	MaxBar = 1.0

	mapFloor = -60.0
	mapCeil  = -5.0
	curve    = 0.4
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// NormalizeLUFS maps [-60, -5] LUFS onto [0, 1], applies the 0.4 power curve and
// clamps the result to [MinBar, MaxBar].
func NormalizeLUFS(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		norm := (clamp(v, mapFloor, mapCeil) - mapFloor) / (mapCeil - mapFloor)
		out[i] = clamp(math.Pow(norm, curve), MinBar, MaxBar)
	}
	return out
}

// NormalizeMinMax rescales series linearly between its own minimum and maximum,
// optionally applies the 0.4 contrast curve, and clamps to [MinBar, MaxBar].
// A flat series maps to 0.5 everywhere.
func NormalizeMinMax(series []float64, contrast bool) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	lo, hi := floats.Min(series), floats.Max(series)
	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range series {
		norm := (v - lo) / (hi - lo)
		if contrast {
			norm = math.Pow(norm, curve)
		}
		out[i] = clamp(norm, MinBar, MaxBar)
	}
	return out
}

// Clamp bounds every value of series to [MinBar, MaxBar].
func Clamp(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = clamp(v, MinBar, MaxBar)
	}
	return out
}
