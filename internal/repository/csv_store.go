package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	xutil "SpillNet/pkg/util"
)

var csvHeader = append([]string{"Date"}, models.Columns...)

// CSVStore keeps one {ticker}_stock_data.csv file per market under dir.
type CSVStore struct {
	dir string
}

var _ domrepo.PriceStore = (*CSVStore)(nil)

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv store: create dir: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

// Path returns the artifact file of ticker.
func (s *CSVStore) Path(ticker string) string {
	return filepath.Join(s.dir, xutil.SafeFileName(ticker)+"_stock_data.csv")
}

// Save replaces the artifact atomically (write to temp, then rename).
func (s *CSVStore) Save(ctx context.Context, series models.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*.csv")
	if err != nil {
		return fmt.Errorf("csv save %s: %w", series.Ticker, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv save %s: %w", series.Ticker, err)
	}
	for _, b := range series.Bars {
		rec := []string{
			b.Date.Format(xutil.DateLayout),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := w.Write(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("csv save %s: %w", series.Ticker, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv save %s: %w", series.Ticker, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv save %s: %w", series.Ticker, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(series.Ticker)); err != nil {
		return fmt.Errorf("csv save %s: %w", series.Ticker, err)
	}
	return nil
}

func (s *CSVStore) Load(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	f, err := os.Open(s.Path(ticker))
	if errors.Is(err, fs.ErrNotExist) {
		return models.PriceSeries{}, fmt.Errorf("csv load %s: %w", ticker, domrepo.ErrNotFound)
	}
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("csv load %s: %w", ticker, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("csv load %s: %w", ticker, err)
	}
	if len(records) == 0 {
		return models.PriceSeries{}, fmt.Errorf("csv load %s: missing header", ticker)
	}

	out := models.PriceSeries{Ticker: ticker, Bars: make([]models.PriceBar, 0, len(records)-1)}
	for i, rec := range records[1:] {
		bar, err := parseRecord(rec)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("csv load %s line %d: %w", ticker, i+2, err)
		}
		out.Bars = append(out.Bars, bar)
	}
	return out, nil
}

func (s *CSVStore) Close() error { return nil }

func parseRecord(rec []string) (models.PriceBar, error) {
	d, err := xutil.ParseDate(rec[0])
	if err != nil {
		return models.PriceBar{}, err
	}
	var v [5]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return models.PriceBar{}, fmt.Errorf("column %s: %w", csvHeader[i+1], err)
		}
	}
	return models.PriceBar{Date: d, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
