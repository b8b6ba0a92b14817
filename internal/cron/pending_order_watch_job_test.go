package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/logger"
)

type stubPendingCounter struct {
	count      int64
	err        error
	lastCutoff time.Time
}

func (s *stubPendingCounter) CountPendingWithoutSessionBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.lastCutoff = cutoff
	return s.count, s.err
}

func TestPendingOrderWatchJobUsesConfiguredAge(t *testing.T) {
	counter := &stubPendingCounter{count: 3}
	job, err := NewPendingOrderWatchJob(PendingOrderWatchJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: counter,
		MaxAge:     6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	before := time.Now().UTC().Add(-6 * time.Hour)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	after := time.Now().UTC().Add(-6 * time.Hour)

	if counter.lastCutoff.Before(before) || counter.lastCutoff.After(after) {
		t.Fatalf("cutoff %v not within expected window", counter.lastCutoff)
	}
}

func TestPendingOrderWatchJobPropagatesErrors(t *testing.T) {
	counter := &stubPendingCounter{err: errors.New("db down")}
	job, err := NewPendingOrderWatchJob(PendingOrderWatchJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: counter,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to surface for metrics/alerting")
	}
}

func TestRegistryKeepsInsertionOrderAndSkipsNil(t *testing.T) {
	counter := &stubPendingCounter{}
	job, err := NewPendingOrderWatchJob(PendingOrderWatchJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: counter,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	registry := NewRegistry(nil, job)
	jobs := registry.Jobs()
	if len(jobs) != 1 || jobs[0].Name() != "pending-order-watch" {
		t.Fatalf("unexpected registry contents: %v", jobs)
	}
}
