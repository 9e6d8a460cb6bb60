package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

const defaultDLQSampleSize = 50

type dlqLister interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

type dlqNotifier interface {
	NotifyDLQ(ctx context.Context, entry models.OutboxDLQ) error
}

// DLQMonitorJobParams configure the dead letter monitor.
type DLQMonitorJobParams struct {
	Logger     *logger.Logger
	Repository dlqLister
	Notifier   dlqNotifier
	SampleSize int
}

// NewDLQMonitorJob builds the cron job that surfaces dead-lettered outbox
// events so operators notice them before customers do.
func NewDLQMonitorJob(params DLQMonitorJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	sample := params.SampleSize
	if sample <= 0 {
		sample = defaultDLQSampleSize
	}
	return &dlqMonitorJob{
		logg:     params.Logger,
		repo:     params.Repository,
		notifier: params.Notifier,
		sample:   sample,
	}, nil
}

type dlqMonitorJob struct {
	logg     *logger.Logger
	repo     dlqLister
	notifier dlqNotifier
	sample   int
}

func (j *dlqMonitorJob) Name() string { return "outbox-dlq-monitor" }

// Run logs every sampled dead letter and forwards it to the notifier when one
// is configured. Notifier failures do not stop the sweep.
func (j *dlqMonitorJob) Run(ctx context.Context) error {
	entries, err := j.repo.List(ctx, j.sample)
	if err != nil {
		return fmt.Errorf("list dead letters: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	var errs error
	for _, entry := range entries {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"event_id":     entry.EventID.String(),
			"event_type":   entry.EventType,
			"aggregate_id": entry.AggregateID.String(),
			"error_reason": entry.ErrorReason,
			"attempts":     entry.AttemptCount,
		})
		j.logg.Warn(logCtx, "outbox event dead lettered")

		if j.notifier == nil {
			continue
		}
		if err := j.notifier.NotifyDLQ(ctx, entry); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify dlq event %s: %w", entry.EventID, err))
		}
	}
	return errs
}
