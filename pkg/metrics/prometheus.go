package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration  *prometheus.HistogramVec
	fetchesTotal   *prometheus.CounterVec
	filledCells    *prometheus.GaugeVec
	trialLoss      *prometheus.HistogramVec
	trialsTotal    *prometheus.CounterVec
	bestLoss       *prometheus.GaugeVec
	totalSpillover *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
}

// New registers the pipeline collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spillnet_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"stage"},
		),
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spillnet_fetches_total",
				Help: "Market data fetches by ticker and outcome",
			},
			[]string{"ticker", "outcome"},
		),
		filledCells: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spillnet_filled_cells",
				Help: "Cells synthesised by forward/backward fill in the last run",
			},
			[]string{"ticker"},
		),
		trialLoss: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spillnet_trial_validation_loss",
				Help:    "Final validation loss of each search trial",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 10),
			},
			[]string{"model"},
		),
		trialsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spillnet_trials_total",
				Help: "Hyperparameter search trials completed",
			},
			[]string{"model"},
		),
		bestLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spillnet_best_validation_loss",
				Help: "Best final validation loss found by the last search",
			},
			[]string{"model"},
		),
		totalSpillover: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spillnet_total_spillover_index",
				Help: "Total spillover index of the last run per partition",
			},
			[]string{"partition"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spillnet_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordStage records a pipeline stage duration in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordFetch(ticker string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.fetchesTotal.WithLabelValues(ticker, outcome).Inc()
}

func (r *Recorder) RecordFilledCells(ticker string, n int) {
	r.filledCells.WithLabelValues(ticker).Set(float64(n))
}

// RecordTrial counts a finished trial and observes its final validation loss.
func (r *Recorder) RecordTrial(model string, finalValidation float64) {
	r.trialsTotal.WithLabelValues(model).Inc()
	r.trialLoss.WithLabelValues(model).Observe(finalValidation)
}

func (r *Recorder) RecordBestLoss(model string, loss float64) {
	r.bestLoss.WithLabelValues(model).Set(loss)
}

func (r *Recorder) RecordTotalSpillover(partition string, index float64) {
	r.totalSpillover.WithLabelValues(partition).Set(index)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordStage(string, float64)          {}
func (Nop) RecordFetch(string, bool)             {}
func (Nop) RecordFilledCells(string, int)        {}
func (Nop) RecordTrial(string, float64)          {}
func (Nop) RecordBestLoss(string, float64)       {}
func (Nop) RecordTotalSpillover(string, float64) {}
func (Nop) RecordError(string)                   {}
