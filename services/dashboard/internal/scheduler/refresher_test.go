package scheduler

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"aijobsdash/services/dashboard/internal/models"

	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Table(ctx context.Context) (*models.Table, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return models.NewTable("test", nil), nil
}

func waitForCalls(t *testing.T, src *countingSource, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("calls = %d, want at least %d", src.calls.Load(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefresherPolls(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(src, zaptest.NewLogger(t), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	waitForCalls(t, src, 2)
	cancel()

	if err := <-done; !stderrors.Is(err, context.Canceled) {
		t.Errorf("Start = %v, want context.Canceled", err)
	}
}

func TestRefresherKeepsPollingAfterErrors(t *testing.T) {
	src := &countingSource{err: stderrors.New("file gone")}
	r := NewRefresher(src, zaptest.NewLogger(t), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	waitForCalls(t, src, 3)
}

func TestRefresherDisabled(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(src, zaptest.NewLogger(t), 0)

	if err := r.Start(context.Background()); err != nil {
		t.Errorf("Start = %v, want nil when disabled", err)
	}
	if src.calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", src.calls.Load())
	}
}

func TestRefresherLifecycle(t *testing.T) {
	src := &countingSource{}
	r := NewRefresher(src, zaptest.NewLogger(t), 10*time.Millisecond)

	lc := fxtest.NewLifecycle(t)
	r.Register(lc)
	lc.RequireStart()
	waitForCalls(t, src, 1)
	lc.RequireStop()
}
