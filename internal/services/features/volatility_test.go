package features

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"SpillNet/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleReturns(t *testing.T) {
	got := SimpleReturns([]float64{100, 110, 99, 0, 5})
	require.Len(t, got, 4)
	assert.InDelta(t, 0.1, got[0], 1e-12)
	assert.InDelta(t, -0.1, got[1], 1e-12)
	assert.InDelta(t, -1.0, got[2], 1e-12)
	assert.Equal(t, 0.0, got[3], "zero previous price gives zero return")

	assert.Nil(t, SimpleReturns([]float64{1}))
}

func TestRealizedVolatilityLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for _, window := range []int{1, 5, 21} {
		for n := 0; n < 60; n++ {
			prices := make([]float64, n)
			for i := range prices {
				prices[i] = 50 + rng.Float64()*10
			}
			got := RealizedVolatility(prices, window)
			want := n - 1 - window
			if want < 0 {
				want = 0
			}
			require.Lenf(t, got, want, "n=%d window=%d", n, window)
			for _, v := range got {
				require.GreaterOrEqual(t, v, 0.0)
			}
		}
	}
}

func TestRealizedVolatilityValues(t *testing.T) {
	// returns: 0.1, -0.1, 0.1, -0.1
	prices := []float64{100, 110, 99, 108.9, 98.01}
	got := RealizedVolatility(prices, 2)
	require.Len(t, got, 2)
	for _, v := range got {
		assert.InDelta(t, math.Sqrt(0.02), v, 1e-9)
	}
	assert.Nil(t, RealizedVolatility(prices, 0))
}

func TestVolatilityFromSeriesDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var s models.PriceSeries
	s.Ticker = "^T"
	for i := 0; i < 10; i++ {
		s.Bars = append(s.Bars, models.PriceBar{Date: start.AddDate(0, 0, i), Close: float64(100 + i)})
	}
	v := VolatilityFromSeries(s, 3)
	require.Equal(t, 6, v.Len())
	require.Len(t, v.Dates, 6)
	assert.True(t, v.Dates[0].Equal(start.AddDate(0, 0, 3)))
	assert.True(t, v.Dates[5].Equal(start.AddDate(0, 0, 8)))
}
