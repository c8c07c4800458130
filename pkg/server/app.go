package server

import (
	"context"
	"fmt"
	"time"

	"SpillNet/internal/domain/models"
	"SpillNet/internal/service/ratelimit"
	"SpillNet/internal/usecase"
	"SpillNet/pkg/config"
	xhttp "SpillNet/pkg/http"
	pkgkafka "SpillNet/pkg/kafka"
	applogger "SpillNet/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// App encapsulates the application lifecycle for every command.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	registry *prometheus.Registry
	pipeline *usecase.PipelineUseCase
	ingest   *usecase.IngestUseCase
	handler  xhttp.Handler
	limiter  *ratelimit.Limiter
	consumer *pkgkafka.Consumer
	listener *usecase.ReportListener
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	registry *prometheus.Registry,
	pipeline *usecase.PipelineUseCase,
	ingest *usecase.IngestUseCase,
	handler xhttp.Handler,
	limiter *ratelimit.Limiter,
	consumer *pkgkafka.Consumer,
	listener *usecase.ReportListener,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		registry: registry,
		pipeline: pipeline,
		ingest:   ingest,
		handler:  handler,
		limiter:  limiter,
		consumer: consumer,
		listener: listener,
	}
}

// Logger returns the root logger.
func (a *App) Logger() *applogger.Logger { return a.l }

// RunPipeline executes one full analysis run.
func (a *App) RunPipeline(ctx context.Context) (*models.RunReport, error) {
	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline: %w", err)
	}
	a.l.Info("run complete",
		applogger.String("run_id", report.RunID),
		applogger.Strings("markets", report.Markets),
		applogger.Duration("duration_ms", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// Fetch downloads, fills and stores every configured market.
func (a *App) Fetch(ctx context.Context) (*usecase.IngestResult, error) {
	start := time.Now()
	res, err := a.ingest.Ingest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	a.l.Info("fetch complete",
		applogger.Strings("markets", res.Markets),
		applogger.Strings("skipped", res.Skipped),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

// Serve runs the dashboard API until ctx is cancelled or the listener fails.
// With a report consumer configured, run reports published by other
// processes are served at /api/runs/latest.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if a.consumer != nil {
		g.Go(func() error {
			// The API keeps serving if the subscription fails.
			if err := a.consumer.Run(ctx, a.listener); err != nil {
				a.l.Error("report consumer stopped", applogger.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error { return a.serveHTTP(ctx) })
	return g.Wait()
}

func (a *App) serveHTTP(ctx context.Context) error {
	var mw []echo.MiddlewareFunc
	if a.limiter != nil {
		mw = append(mw, a.limiter.Middleware("/healthz", "/metrics"))
	}

	srv := xhttp.NewServer(a.handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
		xhttp.WithLogger(a.l),
		xhttp.WithRegistry(a.registry),
		xhttp.WithMiddleware(mw...),
	)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case serveErr = <-srv.Err():
	}

	// ctx may already be cancelled; Stop applies its own shutdown timeout.
	if err := srv.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.l.Info("shutdown complete")
	return serveErr
}
