package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanStd returns the population mean and standard deviation.
func MeanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(x, nil)
}

// Pearson returns the population correlation of the tail-aligned common part of a
// and b. It is 0 when either side has zero variance and exactly 1 for identical input.
func Pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	a, b = a[len(a)-n:], b[len(b)-n:]

	ma, mb := 0.0, 0.0
	for i := 0; i < n; i++ {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(n)
	mb /= float64(n)

	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}

// CorrelationMatrix computes pairwise Pearson correlation in labels order with a
// unit diagonal.
func CorrelationMatrix(labels []string, series map[string][]float64) [][]float64 {
	out := make([][]float64, len(labels))
	for i := range labels {
		out[i] = make([]float64, len(labels))
	}
	for i, li := range labels {
		out[i][i] = 1.0
		for j := i + 1; j < len(labels); j++ {
			c := Pearson(series[li], series[labels[j]])
			out[i][j] = c
			out[j][i] = c
		}
	}
	return out
}
