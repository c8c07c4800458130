package evaluation

import (
	"fmt"
	"math"

	"SpillNet/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// DefaultHorizons are the forecast steps reported after training.
var DefaultHorizons = []int{1, 5, 10, 22}

// Shift aligns an h-step-ahead comparison: predicted[t] is scored against actual[t+h].
// Both outputs have length min(len(predicted), len(actual)-h), never negative.
func Shift(actual, predicted []float64, h int) ([]float64, []float64) {
	if h < 0 {
		h = 0
	}
	n := len(actual) - h
	if len(predicted) < n {
		n = len(predicted)
	}
	if n <= 0 {
		return nil, nil
	}
	return actual[h : h+n], predicted[:n]
}

// Evaluate scores predicted against actual at horizon h. Zero actuals are excluded
// from MAPE only.
func Evaluate(actual, predicted []float64, h int) models.Metrics {
	a, p := Shift(actual, predicted, h)
	m := models.Metrics{Horizon: h, Points: len(a)}
	if len(a) == 0 {
		return m
	}

	var absSum, sqSum, pctSum float64
	for i := range a {
		diff := a[i] - p[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		if a[i] != 0 {
			pctSum += math.Abs(diff / a[i])
			m.MAPEPoints++
		}
	}
	n := float64(len(a))
	m.MAFE = absSum / n
	m.MSE = sqSum / n
	m.RMSE = math.Sqrt(m.MSE)
	if m.MAPEPoints > 0 {
		m.MAPE = pctSum / float64(m.MAPEPoints) * 100
	}
	return m
}

// EvaluateMatrix scores each column of predicted against the same column of actual.
func EvaluateMatrix(labels []string, actual, predicted *mat.Dense, h int) ([]models.Metrics, error) {
	_, ca := actual.Dims()
	_, cp := predicted.Dims()
	if ca != len(labels) || cp != len(labels) {
		return nil, fmt.Errorf("evaluate: %d labels for %d actual and %d predicted columns", len(labels), ca, cp)
	}
	out := make([]models.Metrics, len(labels))
	for j, label := range labels {
		m := Evaluate(mat.Col(nil, j, actual), mat.Col(nil, j, predicted), h)
		m.Market = label
		out[j] = m
	}
	return out, nil
}

// EvaluateHorizons runs EvaluateMatrix for every horizon, DefaultHorizons when empty.
func EvaluateHorizons(labels []string, actual, predicted *mat.Dense, horizons []int) ([]models.HorizonMetrics, error) {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	out := make([]models.HorizonMetrics, 0, len(horizons))
	for _, h := range horizons {
		ms, err := EvaluateMatrix(labels, actual, predicted, h)
		if err != nil {
			return nil, fmt.Errorf("horizon %d: %w", h, err)
		}
		out = append(out, models.HorizonMetrics{Horizon: h, Markets: ms})
	}
	return out, nil
}
