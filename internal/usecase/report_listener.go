package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"SpillNet/internal/domain/models"
	applogger "SpillNet/pkg/logger"
)

// ReportListener feeds run reports published by `run` processes into the
// dashboard, which serves the newest one.
type ReportListener struct {
	topic     string
	dashboard *DashboardUseCase
	l         *applogger.Logger
}

func NewReportListener(topic string, dashboard *DashboardUseCase, l *applogger.Logger) *ReportListener {
	if l == nil {
		l = applogger.Nop()
	}
	return &ReportListener{topic: topic, dashboard: dashboard, l: l}
}

func (r *ReportListener) Topic() string { return r.topic }

func (r *ReportListener) Handle(_ context.Context, data []byte) error {
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("decode run report: %w", err)
	}
	if report.RunID == "" {
		return fmt.Errorf("decode run report: missing run id")
	}
	if !r.dashboard.RecordReport(&report) {
		r.l.Debug("stale run report ignored", applogger.String("run_id", report.RunID))
		return nil
	}
	r.l.Info("run report received",
		applogger.String("run_id", report.RunID),
		applogger.Strings("markets", report.Markets),
	)
	return nil
}
