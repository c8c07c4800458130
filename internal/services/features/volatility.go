package features

import (
	"math"
	"time"

	"SpillNet/internal/domain/models"
)

// DefaultWindow is the realized volatility window in trading days.
const DefaultWindow = 21

// SimpleReturns computes r_i = (p_i - p_{i-1}) / p_{i-1}.
// It returns a slice of length len(prices)-1, or nil if insufficient data.
// A non-positive previous price yields a zero return.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 {
			continue
		}
		out[i-1] = (prices[i] - prev) / prev
	}
	return out
}

// RealizedVolatility returns sqrt(sum r^2) over each window of returns starting at
// i = 0 .. len(returns)-window-1. Output length is max(0, len(prices)-1-window).
func RealizedVolatility(prices []float64, window int) []float64 {
	if window <= 0 {
		return nil
	}
	returns := SimpleReturns(prices)
	n := len(returns) - window
	if n <= 0 {
		return nil
	}

	sq := make([]float64, len(returns))
	for i, r := range returns {
		sq[i] = r * r
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, v := range sq[i : i+window] {
			sum += v
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// VolatilityFromSeries computes realized volatility and dates each value at the
// close of the last return inside its window.
func VolatilityFromSeries(s models.PriceSeries, window int) models.VolatilitySeries {
	vals := RealizedVolatility(s.Closes(), window)
	out := models.VolatilitySeries{Ticker: s.Ticker, Window: window, Values: vals}
	if len(vals) == 0 {
		return out
	}
	dates := s.Dates()
	out.Dates = make([]time.Time, len(vals))
	for i := range vals {
		// return k spans bars k and k+1, window i covers returns i..i+window-1
		out.Dates[i] = dates[i+window]
	}
	return out
}
