package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/metrics"
)

const defaultPendingOrderMaxAge = 24 * time.Hour

type pendingOrderCounter interface {
	CountPendingWithoutSessionBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PendingOrderWatchJobParams configure the pending-order watch job.
type PendingOrderWatchJobParams struct {
	Logger     *logger.Logger
	Repository pendingOrderCounter
	Metrics    *metrics.WebhookMetrics
	MaxAge     time.Duration
}

// NewPendingOrderWatchJob builds a job that counts orders stuck in pending
// without a payment session past the configured age. Those orphans are benign
// (a session creation failed after the order was written and nothing will
// ever pay them), so the job only surfaces the backlog through a gauge and a
// log line; it never mutates orders.
func NewPendingOrderWatchJob(params PendingOrderWatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultPendingOrderMaxAge
	}
	return &pendingOrderWatchJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		maxAge:  maxAge,
		now:     time.Now,
	}, nil
}

type pendingOrderWatchJob struct {
	logg    *logger.Logger
	repo    pendingOrderCounter
	metrics *metrics.WebhookMetrics
	maxAge  time.Duration
	now     func() time.Time
}

func (j *pendingOrderWatchJob) Name() string { return "pending-order-watch" }

func (j *pendingOrderWatchJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)

	count, err := j.repo.CountPendingWithoutSessionBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("count pending orders: %w", err)
	}

	j.metrics.SetPendingOrders(float64(count))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"max_age":       j.maxAge.String(),
		"orphaned_rows": count,
	})
	if count > 0 {
		j.logg.Warn(logCtx, "pending orders without payment session detected")
	} else {
		j.logg.Info(logCtx, "no orphaned pending orders")
	}
	return nil
}
