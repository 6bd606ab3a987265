package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type cleanerFunc func(ctx context.Context) error

func (f cleanerFunc) CleanupExpired(ctx context.Context) error { return f(ctx) }

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("not a schedule", cleanerFunc(func(context.Context) error { return nil }))
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	var calls atomic.Int32
	s, err := NewScheduler("@hourly", cleanerFunc(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the job context")
		}
		calls.Add(1)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.runOnce()
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestScheduler_RunOnce_ErrorIsLogged(t *testing.T) {
	s, err := NewScheduler("@every 1h", cleanerFunc(func(context.Context) error {
		return errors.New("db down")
	}))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.runOnce()
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	s, err := NewScheduler("@every 1s", cleanerFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(1500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if calls.Load() < 1 {
		t.Error("expected the job to run at least once")
	}
}
