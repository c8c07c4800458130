package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	xutil "SpillNet/pkg/util"
)

const (
	DefaultSyntheticPoints = 3700

	syntheticStart = 100.0
	syntheticStep  = 2.0
	syntheticFloor = 10.0
	minVolume      = 1_000_000
	maxVolume      = 10_000_000
)

// SyntheticSource generates reproducible random-walk bars. Ticker k of the configured
// set is seeded with seed+k, so output does not depend on fetch order.
type SyntheticSource struct {
	seed    int64
	points  int
	tickers map[string]int
}

var _ domrepo.MarketDataSource = (*SyntheticSource)(nil)

func NewSyntheticSource(seed int64, points int, tickers []string) *SyntheticSource {
	if points < 1 {
		points = DefaultSyntheticPoints
	}
	idx := make(map[string]int, len(tickers))
	for i, t := range tickers {
		idx[t] = i
	}
	return &SyntheticSource{seed: seed, points: points, tickers: idx}
}

func (s *SyntheticSource) Name() string { return "synthetic" }

// End is the last business day generated for a range starting at from.
func (s *SyntheticSource) End(from time.Time) time.Time {
	start := xutil.Day(from)
	for !xutil.IsWeekday(start) {
		start = start.AddDate(0, 0, 1)
	}
	return xutil.AddBusinessDays(start, s.points-1)
}

// Fetch returns up to points business days starting at from, cut at to.
func (s *SyntheticSource) Fetch(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := s.End(from)
	if to.Before(end) {
		end = to
	}
	days := xutil.BusinessDays(from, end)
	if len(days) == 0 {
		return nil, domrepo.ErrNoData
	}

	seed := uint64(s.seed + s.offset(ticker))
	rng := rand.New(rand.NewPCG(seed, seed))
	bars := make([]models.PriceBar, len(days))
	p := syntheticStart
	for i, d := range days {
		if i > 0 {
			p = math.Max(p+rng.NormFloat64()*syntheticStep, syntheticFloor)
		}
		bars[i] = models.PriceBar{
			Date:   d,
			Open:   p,
			High:   p * 1.02,
			Low:    p * 0.98,
			Close:  p,
			Volume: float64(minVolume + rng.IntN(maxVolume-minVolume+1)),
		}
	}
	return bars, nil
}

func (s *SyntheticSource) offset(ticker string) int64 {
	if i, ok := s.tickers[ticker]; ok {
		return int64(i)
	}
	h := fnv.New32a()
	h.Write([]byte(ticker))
	return int64(h.Sum32())
}
