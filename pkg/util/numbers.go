package util

import "math"

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// RoundAll rounds every element in place and returns the slice.
func RoundAll(vs []float64, places int) []float64 {
	for i := range vs {
		vs[i] = Round(vs[i], places)
	}
	return vs
}
