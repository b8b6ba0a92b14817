package cron

import (
	"context"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/logger"
)

type stubLock struct {
	locked   bool
	acquires int
	releases int
}

func (s *stubLock) Acquire(ctx context.Context) (bool, error) {
	s.acquires++
	return !s.locked, nil
}

func (s *stubLock) Release(ctx context.Context) error {
	s.releases++
	return nil
}

type countingJob struct {
	runs int
}

func (c *countingJob) Name() string { return "counting" }

func (c *countingJob) Run(ctx context.Context) error {
	c.runs++
	return nil
}

func TestRunCycleExecutesJobsAndReleasesLock(t *testing.T) {
	lock := &stubLock{}
	job := &countingJob{}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected one run, got %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatal("lock must be released after the cycle")
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &stubLock{locked: true}
	job := &countingJob{}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run when another instance holds the lock")
	}
}
