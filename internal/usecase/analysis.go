package usecase

import (
	"fmt"
	"time"

	"SpillNet/internal/domain/models"
	"SpillNet/internal/services/features"
	"SpillNet/internal/services/graph"
	"SpillNet/internal/services/spillover"

	"gonum.org/v1/gonum/mat"
)

// AnalysisConfig holds the volatility, split and spillover settings shared by the
// pipeline and the dashboard.
type AnalysisConfig struct {
	Window             int
	TrainFraction      float64
	ValidationFraction float64
	Lags               int
	Horizon            int
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Window:             features.DefaultWindow,
		TrainFraction:      features.DefaultTrainFraction,
		ValidationFraction: features.DefaultValidationFraction,
		Lags:               spillover.DefaultLags,
		Horizon:            spillover.DefaultHorizon,
	}
}

// panel is the tail-aligned volatility of every market with its partition split.
type panel struct {
	Labels     []string
	Volatility map[string]models.VolatilitySeries
	Aligned    map[string][]float64
	Dates      []time.Time
	Split      models.Split
}

func buildPanel(labels []string, series map[string]models.PriceSeries, cfg AnalysisConfig) (*panel, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("build panel: no markets")
	}
	p := &panel{
		Labels:     labels,
		Volatility: make(map[string]models.VolatilitySeries, len(labels)),
	}
	raw := make(map[string][]float64, len(labels))
	for _, l := range labels {
		v := features.VolatilityFromSeries(series[l], cfg.Window)
		p.Volatility[l] = v
		raw[l] = v.Values
	}
	aligned, n := features.AlignTail(labels, raw)
	if n == 0 {
		return nil, fmt.Errorf("build panel: volatility is empty for window %d", cfg.Window)
	}
	p.Aligned = aligned
	first := p.Volatility[labels[0]].Dates
	p.Dates = first[len(first)-n:]
	p.Split = features.Partition(n, cfg.TrainFraction, cfg.ValidationFraction)
	return p, nil
}

// summary estimates the spillover matrix of one partition and its market graph.
func (p *panel) summary(part models.Partition, cfg AnalysisConfig) (*models.SpilloverSummary, error) {
	rows := features.SliceRows(p.Aligned, p.Split, part)
	m, err := spillover.Estimate(p.Labels, rows, spillover.WithLags(cfg.Lags), spillover.WithHorizon(cfg.Horizon))
	if err != nil {
		return nil, fmt.Errorf("%s partition: %w", part, err)
	}
	s := spillover.Summarize(part, m)
	s.Graph = graph.Build(m)
	return s, nil
}

// features returns the T x N matrix of one partition in label order.
func (p *panel) features(part models.Partition) *mat.Dense {
	lo, hi := p.Split.Bounds(part)
	if hi <= lo {
		return nil
	}
	x := mat.NewDense(hi-lo, len(p.Labels), nil)
	for j, l := range p.Labels {
		x.SetCol(j, p.Aligned[l][lo:hi])
	}
	return x
}
