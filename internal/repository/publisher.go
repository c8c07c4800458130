package repository

import (
	"context"
	"fmt"

	"SpillNet/internal/domain/models"
	domrepo "SpillNet/internal/domain/repository"
	pkgkafka "SpillNet/pkg/kafka"
	applogger "SpillNet/pkg/logger"
)

// KafkaPublisher writes each run report as one JSON message keyed by run id.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
}

var _ domrepo.ReportPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *pkgkafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, report *models.RunReport) error {
	err := p.producer.Publish(ctx, pkgkafka.Message{
		Key:   []byte(report.RunID),
		Value: report,
		Headers: map[string]string{
			"content-type": "application/json",
			"run-id":       report.RunID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish report %s: %w", report.RunID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogPublisher logs a run summary instead of shipping the report.
type LogPublisher struct {
	l *applogger.Logger
}

var _ domrepo.ReportPublisher = (*LogPublisher)(nil)

func NewLogPublisher(l *applogger.Logger) *LogPublisher {
	return &LogPublisher{l: l}
}

func (p *LogPublisher) Publish(_ context.Context, report *models.RunReport) error {
	fields := []applogger.Field{
		applogger.String("run_id", report.RunID),
		applogger.Strings("markets", report.Markets),
		applogger.Int("train", report.Split.Train),
		applogger.Int("validation", report.Split.Validation),
		applogger.Int("test", report.Split.Test),
		applogger.Duration("duration_ms", report.FinishedAt.Sub(report.StartedAt)),
	}
	if len(report.Skipped) > 0 {
		fields = append(fields, applogger.Strings("skipped", report.Skipped))
	}
	for _, part := range models.Partitions {
		if s, ok := report.Spillover[part]; ok && s != nil {
			fields = append(fields, applogger.Float64("spillover_"+string(part), s.TotalIndex))
		}
	}
	for _, m := range report.Models {
		fields = append(fields, applogger.Float64("best_loss_"+m.Model, m.Search.Best.FinalValidation))
	}
	p.l.Info("run report", fields...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
