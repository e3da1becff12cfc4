package loudness

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a LUFS series. Min, Avg and Max cover only the intervals
// above SilenceFloor and are zero when there are none.
type Stats struct {
	Intervals int     `json:"intervals"`
	Silent    int     `json:"silent"`
	Min       float64 `json:"minLufs"`
	Avg       float64 `json:"avgLufs"`
	Max       float64 `json:"maxLufs"`
}

// Summarize computes Stats over series.
func Summarize(series []float64) Stats {
	s := Stats{Intervals: len(series)}
	audible := make([]float64, 0, len(series))
	for _, v := range series {
		if v > SilenceFloor {
			audible = append(audible, v)
		} else {
			s.Silent++
		}
	}
	if len(audible) == 0 {
		return s
	}
	s.Min = floats.Min(audible)
	s.Max = floats.Max(audible)
	s.Avg = stat.Mean(audible, nil)
	return s
}
