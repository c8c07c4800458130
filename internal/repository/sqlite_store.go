package repository

import (
	"context"
	"database/sql"
	"fmt"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	applogger "SpillNet/pkg/logger"
	"SpillNet/pkg/sqlite"
	xutil "SpillNet/pkg/util"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_bars (
		ticker TEXT NOT NULL,
		date   TEXT NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (ticker, date)
	)`,
}

// SQLiteStore keeps artifacts in the price_bars table of an embedded database.
type SQLiteStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.PriceStore = (*SQLiteStore)(nil)

// NewSQLiteStore takes ownership of db and creates the schema.
func NewSQLiteStore(ctx context.Context, db *sql.DB, l *applogger.Logger) (*SQLiteStore, error) {
	if err := sqlite.InitSchema(ctx, db, sqliteSchema); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SQLiteStore{db: db, l: l}, nil
}

// Save replaces every row of the ticker in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, series models.PriceSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite save %s: %w", series.Ticker, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_bars WHERE ticker = ?`, series.Ticker); err != nil {
		return fmt.Errorf("sqlite save %s: %w", series.Ticker, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO price_bars (ticker, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite save %s: %w", series.Ticker, err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.ExecContext(ctx, series.Ticker, b.Date.Format(xutil.DateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("sqlite save %s: %w", series.Ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite save %s: %w", series.Ticker, err)
	}
	s.l.Debug("sqlite saved series", applogger.String("ticker", series.Ticker), applogger.Int("rows", series.Len()))
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, ticker string) (models.PriceSeries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, open, high, low, close, volume FROM price_bars WHERE ticker = ? ORDER BY date ASC`, ticker)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("sqlite load %s: %w", ticker, err)
	}
	defer rows.Close()

	out := models.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var (
			date string
			b    models.PriceBar
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return models.PriceSeries{}, fmt.Errorf("sqlite scan %s: %w", ticker, err)
		}
		if b.Date, err = xutil.ParseDate(date); err != nil {
			return models.PriceSeries{}, fmt.Errorf("sqlite scan %s: %w", ticker, err)
		}
		out.Bars = append(out.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("sqlite rows %s: %w", ticker, err)
	}
	if len(out.Bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("sqlite load %s: %w", ticker, domrepo.ErrNotFound)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
