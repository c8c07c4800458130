package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	domsvc "SpillNet/internal/domain/service"
	"SpillNet/internal/services/evaluation"
	"SpillNet/internal/services/features"
	"SpillNet/internal/services/forecast"
	applogger "SpillNet/pkg/logger"
	pkgmetrics "SpillNet/pkg/metrics"

	"github.com/google/uuid"
)

// ErrNoMarkets is returned when every configured market was skipped.
var ErrNoMarkets = errors.New("no market data available")

type ForecastConfig struct {
	Enabled      bool
	Epochs       int
	Horizons     []int
	GraphGrid    forecast.Grid
	BaselineGrid forecast.Grid
}

type PipelineConfig struct {
	Analysis AnalysisConfig
	Forecast ForecastConfig
}

// PipelineUseCase runs ingest, volatility, spillover, forecasting and evaluation
// end to end and publishes the run report.
type PipelineUseCase struct {
	ingest    *IngestUseCase
	searcher  *forecast.Searcher
	publisher domrepo.ReportPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	cfg       PipelineConfig
}

func NewPipelineUseCase(
	ingest *IngestUseCase,
	searcher *forecast.Searcher,
	publisher domrepo.ReportPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg PipelineConfig,
) *PipelineUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &PipelineUseCase{
		ingest:    ingest,
		searcher:  searcher,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
		cfg:       cfg,
	}
}

// Run executes one full analysis. The report is returned even when publishing fails.
func (uc *PipelineUseCase) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	l := uc.l.With(applogger.String("run_id", report.RunID))
	l.Info("pipeline started")

	var ing *IngestResult
	err := uc.stage("ingest", func() (err error) {
		ing, err = uc.ingest.Ingest(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	if len(ing.Markets) == 0 {
		return nil, ErrNoMarkets
	}
	report.Markets = ing.Markets
	report.Skipped = ing.Skipped
	report.Fill = ing.Fill

	var p *panel
	err = uc.stage("volatility", func() (err error) {
		p, err = buildPanel(ing.Markets, ing.Series, uc.cfg.Analysis)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("volatility: %w", err)
	}
	report.Split = p.Split
	report.Stats = make(map[string]models.DescriptiveStats, len(p.Labels))
	for _, m := range p.Labels {
		report.Stats[m] = features.Describe(p.Volatility[m].Values)
	}
	l.Info("volatility ready",
		applogger.Int("rows", p.Split.Total()),
		applogger.Int("train", p.Split.Train),
		applogger.Int("validation", p.Split.Validation),
		applogger.Int("test", p.Split.Test),
	)

	report.Spillover = make(map[models.Partition]*models.SpilloverSummary, len(models.Partitions))
	err = uc.stage("spillover", func() error {
		for _, part := range models.Partitions {
			s, err := p.summary(part, uc.cfg.Analysis)
			if err != nil {
				return err
			}
			report.Spillover[part] = s
			uc.metrics.RecordTotalSpillover(string(part), s.TotalIndex)
			l.Info("spillover estimated",
				applogger.String("partition", string(part)),
				applogger.Float64("total_index", s.TotalIndex),
				applogger.Int("edges", len(s.Graph.Edges)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("spillover: %w", err)
	}

	if uc.cfg.Forecast.Enabled {
		err = uc.stage("forecast", func() (err error) {
			report.Models, err = uc.forecast(ctx, l, p, report.Spillover)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("forecast: %w", err)
		}
	}

	report.FinishedAt = time.Now().UTC()
	err = uc.stage("publish", func() error {
		return uc.publisher.Publish(ctx, report)
	})
	if err != nil {
		return report, fmt.Errorf("publish: %w", err)
	}
	l.Info("pipeline finished", applogger.Duration("duration_ms", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

type modelSpec struct {
	name    string
	factory domsvc.ModelFactory
	grid    forecast.Grid
}

// forecast searches each model family, re-trains the winner and evaluates it on
// the test partition. Every partition sample carries that partition's own graph.
func (uc *PipelineUseCase) forecast(ctx context.Context, l *applogger.Logger, p *panel, summaries map[models.Partition]*models.SpilloverSummary) ([]models.ModelReport, error) {
	sample := func(part models.Partition) models.Sample {
		return models.Sample{Labels: p.Labels, Features: p.features(part), Graph: summaries[part].Graph}
	}
	train, validation, test := sample(models.PartitionTrain), sample(models.PartitionValidation), sample(models.PartitionTest)

	fc := uc.cfg.Forecast
	specs := []modelSpec{
		{name: forecast.GraphModelName, factory: forecast.GraphFactory(fc.Epochs), grid: fc.GraphGrid},
		{name: forecast.BaselineModelName, factory: forecast.BaselineFactory(fc.Epochs), grid: fc.BaselineGrid},
	}

	out := make([]models.ModelReport, 0, len(specs))
	for _, spec := range specs {
		res, err := uc.searcher.Search(ctx, spec.name, spec.factory, spec.grid.Expand(), train, validation)
		if err != nil {
			return nil, err
		}

		model := spec.factory(res.Best.Params, uc.searcher.TrialSeed(res.Best.Index))
		final, err := model.Train(ctx, train, validation)
		if err != nil {
			return nil, fmt.Errorf("retrain %s: %w", spec.name, err)
		}
		pred, err := model.Predict(test)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", spec.name, err)
		}
		eval, err := evaluation.EvaluateHorizons(p.Labels, test.Features, pred, fc.Horizons)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", spec.name, err)
		}

		l.Info("model evaluated",
			applogger.String("model", spec.name),
			applogger.Any("params", res.Best.Params),
			applogger.Float64("val_loss", final.FinalValidation()),
			applogger.Int("horizons", len(eval)),
		)
		out = append(out, models.ModelReport{Model: spec.name, Search: res, Final: final, Evaluation: eval})
	}
	return out, nil
}

// stage times fn and counts its failure under the stage name.
func (uc *PipelineUseCase) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	uc.metrics.RecordStage(name, time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordError(name)
	}
	return err
}
