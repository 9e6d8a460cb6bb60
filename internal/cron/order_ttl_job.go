package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

const (
	defaultPendingTTL  = 30 * time.Minute
	defaultExpiryBatch = 100
)

type pendingExpirer interface {
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OrderTTLJobParams configure the stale order expiry job.
type OrderTTLJobParams struct {
	Logger     *logger.Logger
	Expirer    pendingExpirer
	PendingTTL time.Duration
	BatchSize  int
}

// NewOrderTTLJob builds the cron job that cancels orders left pending past
// the acceptance window.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &orderTTLJob{
		logg:    params.Logger,
		expirer: params.Expirer,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type orderTTLJob struct {
	logg    *logger.Logger
	expirer pendingExpirer
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-expiry" }

// Run drains stale pending orders in batches until a batch comes back short.
func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)

	total := 0
	for {
		expired, err := j.expirer.ExpireStalePending(ctx, cutoff, j.batch)
		total += expired
		if err != nil {
			return fmt.Errorf("expire stale pending orders: %w", err)
		}
		if expired < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
	})
	j.logg.Info(logCtx, "order expiry loop complete")
	return nil
}
