package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	"SpillNet/internal/services/marketdata"
	applogger "SpillNet/pkg/logger"
	pkgmetrics "SpillNet/pkg/metrics"
)

// ErrUnknownMarket is returned for tickers outside the configured market set.
var ErrUnknownMarket = errors.New("unknown market")

type IngestConfig struct {
	Markets []string
	From    time.Time
	To      time.Time
}

// IngestUseCase fetches raw bars, fills them onto the business-day grid and
// persists the resulting artifacts.
type IngestUseCase struct {
	source  domrepo.MarketDataSource
	store   domrepo.PriceStore
	metrics domrepo.Metrics
	l       *applogger.Logger
	cfg     IngestConfig
	known   map[string]struct{}
}

func NewIngestUseCase(source domrepo.MarketDataSource, store domrepo.PriceStore, metrics domrepo.Metrics, l *applogger.Logger, cfg IngestConfig) *IngestUseCase {
	known := make(map[string]struct{}, len(cfg.Markets))
	for _, m := range cfg.Markets {
		known[m] = struct{}{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &IngestUseCase{source: source, store: store, metrics: metrics, l: l, cfg: cfg, known: known}
}

type IngestResult struct {
	// Markets lists the ingested tickers in configured order.
	Markets []string
	Skipped []string
	Series  map[string]models.PriceSeries
	Fill    map[string]models.FillReport
}

// Markets returns the configured tickers.
func (uc *IngestUseCase) Markets() []string {
	return append([]string(nil), uc.cfg.Markets...)
}

func (uc *IngestUseCase) Known(ticker string) bool {
	_, ok := uc.known[ticker]
	return ok
}

// Ingest processes every configured market. A market whose fetch or fill fails is
// skipped; cancellation and store failures abort the whole ingest.
func (uc *IngestUseCase) Ingest(ctx context.Context) (*IngestResult, error) {
	res := &IngestResult{
		Series: make(map[string]models.PriceSeries, len(uc.cfg.Markets)),
		Fill:   make(map[string]models.FillReport, len(uc.cfg.Markets)),
	}
	for _, ticker := range uc.cfg.Markets {
		series, report, err := uc.IngestMarket(ctx, ticker)
		if err != nil {
			if ferr := abortErr(ctx, err); ferr != nil {
				return nil, ferr
			}
			uc.l.Warn("market skipped", applogger.String("ticker", ticker), applogger.Error(err))
			res.Skipped = append(res.Skipped, ticker)
			continue
		}
		res.Markets = append(res.Markets, ticker)
		res.Series[ticker] = series
		res.Fill[ticker] = report
	}
	uc.l.Info("ingest complete",
		applogger.String("source", uc.source.Name()),
		applogger.Int("markets", len(res.Markets)),
		applogger.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// IngestMarket fetches, fills and saves one ticker.
func (uc *IngestUseCase) IngestMarket(ctx context.Context, ticker string) (models.PriceSeries, models.FillReport, error) {
	from, to := uc.window()
	bars, err := uc.source.Fetch(ctx, ticker, from, to)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("fetch %s: %w", ticker, domrepo.ErrNoData)
	}
	if err != nil {
		uc.metrics.RecordFetch(ticker, false)
		uc.metrics.RecordError("fetch")
		return models.PriceSeries{}, models.FillReport{}, err
	}
	uc.metrics.RecordFetch(ticker, true)

	series, report, err := marketdata.Fill(ticker, bars, from, to, marketdata.CalendarFor(ticker))
	if err != nil {
		uc.metrics.RecordError("fill")
		return models.PriceSeries{}, report, err
	}
	uc.metrics.RecordFilledCells(ticker, filledCells(report))
	uc.l.Debug("market filled",
		applogger.String("ticker", ticker),
		applogger.String("exchange", report.Exchange),
		applogger.Int("rows", series.Len()),
		applogger.Int("filled_days", report.FilledDays),
		applogger.Int("holiday_fills", report.HolidayFills),
	)

	if err := uc.store.Save(ctx, series); err != nil {
		uc.metrics.RecordError("store")
		return models.PriceSeries{}, report, &storeError{err: err}
	}
	return series, report, nil
}

// Series returns the stored artifact of ticker, ingesting it on first use.
func (uc *IngestUseCase) Series(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if !uc.Known(ticker) {
		return models.PriceSeries{}, fmt.Errorf("%q: %w", ticker, ErrUnknownMarket)
	}
	series, err := uc.store.Load(ctx, ticker)
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, domrepo.ErrNotFound) {
		return models.PriceSeries{}, &storeError{err: err}
	}
	series, _, err = uc.IngestMarket(ctx, ticker)
	return series, err
}

// window clamps the configured range to what a bounded source can produce.
func (uc *IngestUseCase) window() (time.Time, time.Time) {
	from, to := uc.cfg.From, uc.cfg.To
	if b, ok := uc.source.(interface{ End(time.Time) time.Time }); ok {
		if end := b.End(from); end.Before(to) {
			to = end
		}
	}
	return from, to
}

func filledCells(r models.FillReport) int {
	n := 0
	for _, c := range r.FilledCells {
		n += c
	}
	return n
}

// abortErr returns the error that must stop a multi-market operation, or nil
// when the failing market can be skipped: only cancellation and store
// failures abort.
func abortErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var se *storeError
	if errors.As(err, &se) {
		return err
	}
	return nil
}

type storeError struct{ err error }

func (e *storeError) Error() string { return "store: " + e.err.Error() }

func (e *storeError) Unwrap() error { return e.err }
