package usecase

import (
	"context"
	"testing"
	"time"

	"SpillNet/internal/domain/models"
	"SpillNet/internal/repository"
	"SpillNet/internal/services/marketdata"
	"SpillNet/internal/services/spillover"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultMarkets = []string{"^GSPC", "^GDAXI", "^FCHI", "^FTSE", "^NSEI", "^N225", "^KS11", "^HSI"}

// Eight synthetic markets over 3700 business days: spillover is strictly
// between 0 and 100 on the full panel and on every partition.
func TestPanel_DefaultMarketsSpilloverInRange(t *testing.T) {
	if testing.Short() {
		t.Skip("full synthetic history")
	}
	src := marketdata.NewSyntheticSource(42, 3700, defaultMarkets)
	ingest := NewIngestUseCase(src, repository.NewMemoryStore(), nil, nil, IngestConfig{
		Markets: defaultMarkets,
		From:    time.Date(2007, 11, 6, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC),
	})
	res, err := ingest.Ingest(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaultMarkets, res.Markets)

	cfg := DefaultAnalysisConfig()
	require.Equal(t, 21, cfg.Window)
	require.Equal(t, 2, cfg.Lags)
	require.Equal(t, 10, cfg.Horizon)

	p, err := buildPanel(res.Markets, res.Series, cfg)
	require.NoError(t, err)
	require.Len(t, p.Dates, 3700-1-21)

	full, err := spillover.Estimate(p.Labels, p.Aligned, spillover.WithLags(cfg.Lags), spillover.WithHorizon(cfg.Horizon))
	require.NoError(t, err)
	total := spillover.TotalIndex(full)
	assert.Greater(t, total, 0.0)
	assert.Less(t, total, 100.0)

	for _, part := range models.Partitions {
		s, err := p.summary(part, cfg)
		require.NoError(t, err, part)
		assert.Greater(t, s.TotalIndex, 0.0, part)
		assert.Less(t, s.TotalIndex, 100.0, part)
		assert.Len(t, s.Graph.Nodes, len(defaultMarkets), part)
		for _, e := range s.Graph.Edges {
			assert.NotEqual(t, e.Source, e.Target)
			assert.Greater(t, e.Weight, 0.0)
		}
	}
}
