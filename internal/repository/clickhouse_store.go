package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	pkgch "SpillNet/pkg/clickhouse"
	applogger "SpillNet/pkg/logger"
	xutil "SpillNet/pkg/util"
)

// Re-saving a ticker appends a newer version; FINAL collapses to the latest one.
var chSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_bars (
		ticker   LowCardinality(String),
		date     Date,
		open     Float64,
		high     Float64,
		low      Float64,
		close    Float64,
		volume   Float64,
		saved_at DateTime64(3)
	) ENGINE = ReplacingMergeTree(saved_at)
	ORDER BY (ticker, date)`,
}

// CHPriceStore implements PriceStore backed by ClickHouse.
type CHPriceStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)

func NewCHPriceStore(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHPriceStore, error) {
	if err := ch.InitSchema(ctx, chSchema); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{ch: ch, db: ch.DB(), l: l}, nil
}

func (s *CHPriceStore) Save(ctx context.Context, series models.PriceSeries) error {
	start := time.Now()
	savedAt := start.UTC()
	rows := make([][]any, len(series.Bars))
	for i, b := range series.Bars {
		rows[i] = []any{series.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, savedAt}
	}
	err := s.ch.InsertBatch(ctx,
		`INSERT INTO price_bars (ticker, date, open, high, low, close, volume, saved_at)`, rows)
	if err != nil {
		s.l.Error("clickhouse save error", applogger.String("ticker", series.Ticker), applogger.Error(err))
		return fmt.Errorf("clickhouse save %s: %w", series.Ticker, err)
	}
	s.l.Info("clickhouse save ok",
		applogger.String("ticker", series.Ticker),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHPriceStore) Load(ctx context.Context, ticker string) (models.PriceSeries, error) {
	const q = `
        SELECT date, open, high, low, close, volume
        FROM price_bars FINAL
        WHERE ticker = ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, ticker)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("clickhouse load %s: %w", ticker, err)
	}
	defer rows.Close()

	out := models.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return models.PriceSeries{}, fmt.Errorf("clickhouse scan %s: %w", ticker, err)
		}
		b.Date = xutil.Day(b.Date)
		out.Bars = append(out.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("clickhouse rows %s: %w", ticker, err)
	}
	if len(out.Bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("clickhouse load %s: %w", ticker, domrepo.ErrNotFound)
	}
	return out, nil
}

// Close is a no-op; the client is owned by the caller.
func (s *CHPriceStore) Close() error { return nil }
