package repository

import (
	"context"
	"errors"
	"time"

	"SpillNet/internal/domain/models"
)

// ErrNoData marks an empty fetch result; the market is skipped.
var ErrNoData = errors.New("no data returned")

// ErrNotFound is returned by stores for unknown tickers.
var ErrNotFound = errors.New("not found")

// MarketDataSource returns raw daily bars for [from, to]. Bars may have gaps.
type MarketDataSource interface {
	Name() string
	Fetch(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error)
}

// PriceStore persists filled OHLCV artifacts, one per ticker.
type PriceStore interface {
	Save(ctx context.Context, series models.PriceSeries) error
	Load(ctx context.Context, ticker string) (models.PriceSeries, error)
	Close() error
}

// ReportPublisher ships finished run reports downstream.
type ReportPublisher interface {
	Publish(ctx context.Context, report *models.RunReport) error
	Close() error
}

type Metrics interface {
	RecordStage(stage string, seconds float64)
	RecordFetch(ticker string, ok bool)
	RecordFilledCells(ticker string, n int)
	RecordTrial(model string, finalValidation float64)
	RecordBestLoss(model string, loss float64)
	RecordTotalSpillover(partition string, index float64)
	RecordError(kind string)
}
