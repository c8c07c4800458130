package metrics_test

import (
	"testing"

	domrepo "SpillNet/internal/domain/repository"
	"SpillNet/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ domrepo.Metrics = (*metrics.Recorder)(nil)
	_ domrepo.Metrics = metrics.Nop{}
)

func TestRecorder_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.RecordFilledCells("^GSPC", 12)
	r.RecordBestLoss("gcn_gat", 0.25)
	r.RecordTotalSpillover("train", 41.5)
	r.RecordTotalSpillover("train", 42.5)

	n, err := testutil.GatherAndCount(reg, "spillnet_filled_cells", "spillnet_best_validation_loss", "spillnet_total_spillover_index")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "spillnet_total_spillover_index" {
			assert.Equal(t, 42.5, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestRecorder_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.RecordFetch("^N225", true)
	r.RecordFetch("^N225", false)
	r.RecordFetch("^N225", false)
	r.RecordError("fetch")
	r.RecordTrial("mlp", 0.1)
	r.RecordTrial("mlp", 0.2)
	r.RecordStage("spillover", 1.5)

	n, err := testutil.GatherAndCount(reg, "spillnet_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "spillnet_trials_total", "spillnet_errors_total":
				values[mf.GetName()] = m.GetCounter().GetValue()
			case "spillnet_trial_validation_loss", "spillnet_stage_duration_seconds":
				values[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, values["spillnet_trials_total"])
	assert.Equal(t, 1.0, values["spillnet_errors_total"])
	assert.Equal(t, 2.0, values["spillnet_trial_validation_loss"])
	assert.Equal(t, 1.0, values["spillnet_stage_duration_seconds"])
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
