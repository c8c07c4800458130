package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	applogger "SpillNet/pkg/logger"
	"SpillNet/pkg/sqlite"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries(ticker string) models.PriceSeries {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return models.PriceSeries{
		Ticker: ticker,
		Bars: []models.PriceBar{
			{Date: day(2), Open: 100, High: 102, Low: 98, Close: 100.5, Volume: 1_500_000},
			{Date: day(3), Open: 100.5, High: 103.25, Low: 99, Close: 101.125, Volume: 2_000_000},
			{Date: day(4), Open: 101.125, High: 101.5, Low: 97.75, Close: 98, Volume: 1_250_000},
		},
	}
}

func storeContract(t *testing.T, store domrepo.PriceStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "^GSPC")
	require.ErrorIs(t, err, domrepo.ErrNotFound)

	want := sampleSeries("^GSPC")
	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx, "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// saving again replaces instead of appending
	shorter := want
	shorter.Bars = want.Bars[:2]
	require.NoError(t, store.Save(ctx, shorter))
	got, err = store.Load(ctx, "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	_, err = store.Load(ctx, "^N225")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestCSVStore(t *testing.T) {
	store, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	storeContract(t, store)
}

func TestCSVStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleSeries("^FTSE")))

	path := filepath.Join(dir, "^FTSE_stock_data.csv")
	assert.Equal(t, path, store.Path("^FTSE"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Open,High,Low,Close,Volume", lines[0])
	assert.Equal(t, "2024-01-02,100,102,98,100.5,1500000", lines[1])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestCSVStore_BadRow(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	require.NoError(t, err)
	content := "Date,Open,High,Low,Close,Volume\n2024-01-02,1,2,3,abc,5\n"
	require.NoError(t, os.WriteFile(store.Path("X"), []byte(content), 0o644))

	_, err = store.Load(context.Background(), "X")
	assert.ErrorContains(t, err, "line 2")
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	store, err := NewSQLiteStore(ctx, db, nil)
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	storeContract(t, store)

	s := sampleSeries("A")
	require.NoError(t, store.Save(context.Background(), s))
	s.Bars[0].Close = -1
	got, err := store.Load(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 100.5, got.Bars[0].Close, "store keeps its own copy")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(applogger.NewWriter(&buf, zerolog.InfoLevel))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &models.RunReport{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Markets:    []string{"A", "B"},
		Skipped:    []string{"C"},
		Split:      models.Split{Train: 5, Validation: 2, Test: 3},
		Spillover: map[models.Partition]*models.SpilloverSummary{
			models.PartitionTrain: {Partition: models.PartitionTrain, TotalIndex: 12.5},
		},
		Models: []models.ModelReport{{Model: "mlp", Search: models.SearchResult{Best: models.TrialResult{FinalValidation: 0.25}}}},
	}
	require.NoError(t, p.Publish(context.Background(), report))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run report", line["message"])
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "A, B", line["markets"])
	assert.Equal(t, "C", line["skipped"])
	assert.Equal(t, 12.5, line["spillover_train"])
	assert.Equal(t, 0.25, line["best_loss_mlp"])
	assert.Equal(t, float64(1500), line["duration_ms"])
	assert.NoError(t, p.Close())
}
