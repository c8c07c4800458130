package spillover

import (
	"fmt"

	"SpillNet/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLags    = 2
	DefaultHorizon = 10
)

// Option configures Estimate.
type Option func(*Config)

// Config holds VAR lag order and FEVD horizon.
type Config struct {
	Lags    int
	Horizon int
}

// WithLags sets the VAR lag order.
func WithLags(p int) Option {
	return func(c *Config) { c.Lags = p }
}

// WithHorizon sets the FEVD horizon.
func WithHorizon(h int) Option {
	return func(c *Config) { c.Horizon = h }
}

// Estimate fits a VAR on the tail-aligned series in labels order and converts its
// FEVD into a spillover matrix. Entry (i, j), i != j, is the horizon-averaged share
// of market j's forecast error variance caused by market i, in percent.
func Estimate(labels []string, series map[string][]float64, opts ...Option) (*models.SpilloverMatrix, error) {
	cfg := Config{Lags: DefaultLags, Horizon: DefaultHorizon}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("estimate spillover: %w: no markets", ErrInsufficientObservations)
	}

	n := -1
	for _, l := range labels {
		s, ok := series[l]
		if !ok {
			return nil, fmt.Errorf("estimate spillover: %q: %w", l, ErrSeriesMissing)
		}
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n <= cfg.Lags {
		return nil, fmt.Errorf("estimate spillover: %w: %d rows for lag %d", ErrInsufficientObservations, n, cfg.Lags)
	}

	K := len(labels)
	y := mat.NewDense(n, K, nil)
	for k, l := range labels {
		s := series[l]
		y.SetCol(k, s[len(s)-n:])
	}

	model, err := FitVAR(y, cfg.Lags)
	if err != nil {
		return nil, fmt.Errorf("estimate spillover: %w", err)
	}
	fevd, err := model.FEVD(cfg.Horizon)
	if err != nil {
		return nil, fmt.Errorf("estimate spillover: %w", err)
	}
	return FromFEVD(labels, fevd, cfg.Lags), nil
}

// FromFEVD builds the percentage matrix from a decomposition.
func FromFEVD(labels []string, f *FEVD, lags int) *models.SpilloverMatrix {
	K := len(labels)
	values := make([][]float64, K)
	for i := range values {
		values[i] = make([]float64, K)
	}
	for target := 0; target < K; target++ {
		total := 0.0
		bySource := make([]float64, K)
		for _, row := range f.Decomp[target] {
			for src, share := range row {
				bySource[src] += share
				total += share
			}
		}
		if total == 0 {
			continue
		}
		for src := 0; src < K; src++ {
			if src == target {
				continue
			}
			values[src][target] = bySource[src] / total * 100
		}
	}
	return &models.SpilloverMatrix{
		Labels:  append([]string(nil), labels...),
		Values:  values,
		Lags:    lags,
		Horizon: f.Steps,
	}
}

// TotalIndex is the mean off-diagonal entry, sum / (n^2 - n).
func TotalIndex(m *models.SpilloverMatrix) float64 {
	n := m.Size()
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				sum += m.Values[i][j]
			}
		}
	}
	return sum / float64(n*n-n)
}

// Directional returns, per market, the mean spillover transmitted to and received
// from the other markets and their difference.
func Directional(m *models.SpilloverMatrix) []models.DirectionalSpillover {
	n := m.Size()
	out := make([]models.DirectionalSpillover, n)
	if n < 2 {
		for i, l := range m.Labels {
			out[i].Market = l
		}
		return out
	}
	for i, l := range m.Labels {
		var to, from float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			to += m.Values[i][j]
			from += m.Values[j][i]
		}
		to /= float64(n - 1)
		from /= float64(n - 1)
		out[i] = models.DirectionalSpillover{Market: l, To: to, From: from, Net: to - from}
	}
	return out
}

// Summarize bundles matrix, index and directional measures for a partition.
func Summarize(p models.Partition, m *models.SpilloverMatrix) *models.SpilloverSummary {
	return &models.SpilloverSummary{
		Partition:   p,
		Matrix:      m,
		TotalIndex:  TotalIndex(m),
		Directional: Directional(m),
	}
}
