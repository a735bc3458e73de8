package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/models"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("aijobsdash/dashboard/scheduler")

// TableSource returns the current normalized table, reloading it when the
// underlying dataset changed.
type TableSource interface {
	Table(ctx context.Context) (*models.Table, error)
}

// Refresher polls the dataset on an interval so a replaced file is parsed,
// announced and mirrored without waiting for a request.
type Refresher struct {
	source   TableSource
	logger   *zap.Logger
	interval time.Duration

	mutex    sync.Mutex
	isActive bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewRefresher(source TableSource, logger *zap.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		source:   source,
		logger:   logger,
		interval: interval,
	}
}

// Start blocks until ctx is done. A non-positive interval disables polling.
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info("dataset refresh disabled")
		return nil
	}

	r.mutex.Lock()
	if r.isActive {
		r.mutex.Unlock()
		return nil
	}
	r.isActive = true
	r.mutex.Unlock()

	defer func() {
		r.mutex.Lock()
		r.isActive = false
		r.mutex.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Refresher.refresh")
	defer span.End()

	table, err := r.source.Table(ctx)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("periodic dataset refresh failed", zap.Error(err))
		return
	}
	span.SetAttributes(telemetry.Int("dataset.rows", table.Len()))
}

// Register runs the refresher for the lifetime of the fx application.
func (r *Refresher) Register(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			r.cancel = cancel
			r.done = make(chan struct{})
			go func() {
				defer close(r.done)
				if err := r.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					r.logger.Error("dataset refresher stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			r.cancel()
			select {
			case <-r.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
