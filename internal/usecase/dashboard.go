package usecase

import (
	"context"
	"fmt"
	"sync"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	"SpillNet/internal/services/features"
	"SpillNet/pkg/cache"
	applogger "SpillNet/pkg/logger"
	xutil "SpillNet/pkg/util"
)

// MaxSeriesPoints caps the points returned by the series endpoints.
const MaxSeriesPoints = 500

// DashboardUseCase serves read views of the analysis, memoized by content.
type DashboardUseCase struct {
	ingest *IngestUseCase
	memo   *cache.Memo
	cfg    AnalysisConfig
	l      *applogger.Logger

	mu     sync.RWMutex
	latest *models.RunReport
}

func NewDashboardUseCase(ingest *IngestUseCase, memo *cache.Memo, cfg AnalysisConfig, l *applogger.Logger) *DashboardUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &DashboardUseCase{ingest: ingest, memo: memo, cfg: cfg, l: l}
}

func (uc *DashboardUseCase) Markets() []string {
	return uc.ingest.Markets()
}

type seriesParams struct {
	Ticker string `json:"ticker"`
	Window int    `json:"window,omitempty"`
}

// Volatility returns the first limit volatility points of ticker with mean and
// population std over the full series.
func (uc *DashboardUseCase) Volatility(ctx context.Context, ticker string, limit int) (*models.VolatilityResponse, error) {
	full, err := cache.Do(ctx, uc.memo, "dashboard.volatility", seriesParams{Ticker: ticker, Window: uc.cfg.Window},
		func(ctx context.Context) (*models.VolatilityResponse, error) {
			series, err := uc.ingest.Series(ctx, ticker)
			if err != nil {
				return nil, err
			}
			v := features.VolatilityFromSeries(series, uc.cfg.Window)
			mean, std := features.MeanStd(v.Values)
			dates := make([]string, len(v.Dates))
			for i, d := range v.Dates {
				dates[i] = d.Format(xutil.DateLayout)
			}
			return &models.VolatilityResponse{
				Ticker:     ticker,
				Data:       v.Values,
				Dates:      dates,
				Mean:       mean,
				Std:        std,
				DataPoints: len(v.Values),
			}, nil
		})
	if err != nil {
		return nil, err
	}
	n := clampLimit(limit, len(full.Data))
	out := *full
	out.Data, out.Dates = full.Data[:n], full.Dates[:n]
	return &out, nil
}

// Prices returns the first limit close prices of ticker; min, max and latest
// describe the returned window.
func (uc *DashboardUseCase) Prices(ctx context.Context, ticker string, limit int) (*models.PricesResponse, error) {
	full, err := cache.Do(ctx, uc.memo, "dashboard.prices", seriesParams{Ticker: ticker},
		func(ctx context.Context) (*models.PricesResponse, error) {
			series, err := uc.ingest.Series(ctx, ticker)
			if err != nil {
				return nil, err
			}
			dates := make([]string, series.Len())
			for i, b := range series.Bars {
				dates[i] = b.Date.Format(xutil.DateLayout)
			}
			return &models.PricesResponse{Ticker: ticker, Data: series.Closes(), Dates: dates}, nil
		})
	if err != nil {
		return nil, err
	}
	n := clampLimit(limit, len(full.Data))
	if n == 0 {
		return nil, fmt.Errorf("prices %s: %w", ticker, domrepo.ErrNoData)
	}
	out := models.PricesResponse{Ticker: ticker, Data: full.Data[:n], Dates: full.Dates[:n]}
	out.Min, out.Max = out.Data[0], out.Data[0]
	for _, p := range out.Data {
		out.Min = min(out.Min, p)
		out.Max = max(out.Max, p)
	}
	out.Latest = out.Data[n-1]
	return &out, nil
}

// Statistics summarises the volatility of every available market, rounded to 6 places.
func (uc *DashboardUseCase) Statistics(ctx context.Context) ([]models.SummaryStatistics, error) {
	return cache.Do(ctx, uc.memo, "dashboard.statistics", uc.key(),
		func(ctx context.Context) ([]models.SummaryStatistics, error) {
			p, err := uc.panel(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]models.SummaryStatistics, 0, len(p.Labels))
			for _, l := range p.Labels {
				vals := p.Volatility[l].Values
				mean, std := features.MeanStd(vals)
				lo, hi := vals[0], vals[0]
				for _, v := range vals {
					lo = min(lo, v)
					hi = max(hi, v)
				}
				out = append(out, models.SummaryStatistics{
					Ticker:     l,
					Mean:       xutil.Round(mean, 6),
					Std:        xutil.Round(std, 6),
					Min:        xutil.Round(lo, 6),
					Max:        xutil.Round(hi, 6),
					DataPoints: len(vals),
				})
			}
			return out, nil
		})
}

// Correlations returns the pairwise volatility correlation rounded to 4 places.
func (uc *DashboardUseCase) Correlations(ctx context.Context) (*models.CorrelationResponse, error) {
	return cache.Do(ctx, uc.memo, "dashboard.correlations", uc.key(),
		func(ctx context.Context) (*models.CorrelationResponse, error) {
			p, err := uc.panel(ctx)
			if err != nil {
				return nil, err
			}
			m := features.CorrelationMatrix(p.Labels, p.Aligned)
			for i := range m {
				m[i] = xutil.RoundAll(m[i], 4)
			}
			return &models.CorrelationResponse{Tickers: p.Labels, Matrix: m}, nil
		})
}

type partitionParams struct {
	analysisKey
	Partition models.Partition `json:"partition"`
}

// Spillover returns the spillover summary of one partition.
func (uc *DashboardUseCase) Spillover(ctx context.Context, part models.Partition) (*models.SpilloverSummary, error) {
	return cache.Do(ctx, uc.memo, "dashboard.spillover", partitionParams{analysisKey: uc.key(), Partition: part},
		func(ctx context.Context) (*models.SpilloverSummary, error) {
			p, err := uc.panel(ctx)
			if err != nil {
				return nil, err
			}
			return p.summary(part, uc.cfg)
		})
}

// Graph returns the market graph of one partition.
func (uc *DashboardUseCase) Graph(ctx context.Context, part models.Partition) (*models.MarketGraph, error) {
	s, err := uc.Spillover(ctx, part)
	if err != nil {
		return nil, err
	}
	return s.Graph, nil
}

type analysisKey struct {
	Markets []string       `json:"markets"`
	Config  AnalysisConfig `json:"config"`
}

// RecordReport keeps r as the latest run unless a later-finished run is
// already held. It reports whether r was kept.
func (uc *DashboardUseCase) RecordReport(r *models.RunReport) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.latest != nil && r.FinishedAt.Before(uc.latest.FinishedAt) {
		return false
	}
	uc.latest = r
	return true
}

// LatestReport returns the most recent run report seen by this process.
func (uc *DashboardUseCase) LatestReport() (*models.RunReport, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.latest == nil {
		return nil, domrepo.ErrNoData
	}
	return uc.latest, nil
}

func (uc *DashboardUseCase) key() analysisKey {
	return analysisKey{Markets: uc.ingest.Markets(), Config: uc.cfg}
}

// panel loads every configured market. A market that cannot be fetched or
// filled is left out, as in Ingest.
func (uc *DashboardUseCase) panel(ctx context.Context) (*panel, error) {
	markets := uc.ingest.Markets()
	series := make(map[string]models.PriceSeries, len(markets))
	labels := make([]string, 0, len(markets))
	for _, m := range markets {
		s, err := uc.ingest.Series(ctx, m)
		if err != nil {
			if ferr := abortErr(ctx, err); ferr != nil {
				return nil, ferr
			}
			uc.l.Warn("market unavailable", applogger.String("ticker", m), applogger.Error(err))
			continue
		}
		series[m] = s
		labels = append(labels, m)
	}
	if len(labels) == 0 {
		return nil, ErrNoMarkets
	}
	return buildPanel(labels, series, uc.cfg)
}

func clampLimit(limit, n int) int {
	if limit <= 0 || limit > MaxSeriesPoints {
		limit = MaxSeriesPoints
	}
	return min(limit, n)
}
