package usecase

import (
	"context"
	"testing"

	domrepo "SpillNet/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportListener_KeepsNewestReport(t *testing.T) {
	ctx := context.Background()
	d := newDashboard(t, newFlakySource(50), testMarkets)
	l := NewReportListener("spillnet.reports", d, nil)
	assert.Equal(t, "spillnet.reports", l.Topic())

	_, err := d.LatestReport()
	assert.ErrorIs(t, err, domrepo.ErrNoData)

	require.NoError(t, l.Handle(ctx, []byte(`{"runId":"r-2","finishedAt":"2024-03-02T00:00:00Z","markets":["^GSPC"]}`)))
	require.NoError(t, l.Handle(ctx, []byte(`{"runId":"r-1","finishedAt":"2024-03-01T00:00:00Z"}`)))

	r, err := d.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, "r-2", r.RunID)
	assert.Equal(t, []string{"^GSPC"}, r.Markets)

	require.NoError(t, l.Handle(ctx, []byte(`{"runId":"r-3","finishedAt":"2024-03-03T00:00:00Z"}`)))
	r, err = d.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, "r-3", r.RunID)
}

func TestReportListener_RejectsGarbage(t *testing.T) {
	l := NewReportListener("t", newDashboard(t, newFlakySource(50), testMarkets), nil)
	assert.Error(t, l.Handle(context.Background(), []byte("not json")))
	assert.ErrorContains(t, l.Handle(context.Background(), []byte(`{"markets":[]}`)), "missing run id")
}
