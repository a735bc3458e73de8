package events

import (
	"context"
	"fmt"

	"aijobsdash/common/telemetry"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ReloadSubject = "dashboard.dataset.reload"
	queueGroup    = "dashboard-service"
)

// Invalidator drops the cached normalized table.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Handler struct {
	logger *zap.Logger
	nc     *nats.Conn
	tracer trace.Tracer
	store  Invalidator
	sub    *nats.Subscription
}

// NewHandler builds the reload handler. nc may be nil when NATS is disabled,
// in which case RegisterSubscriptions does nothing.
func NewHandler(logger *zap.Logger, nc *nats.Conn, store Invalidator) *Handler {
	return &Handler{
		logger: logger,
		nc:     nc,
		tracer: telemetry.GetTracer("aijobsdash/dashboard/events"),
		store:  store,
	}
}

func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	if h.nc == nil {
		h.logger.Info("nats disabled, reload requests will not be received")
		return nil
	}

	sub, err := h.nc.QueueSubscribe(ReloadSubject, queueGroup, h.handleReload)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", ReloadSubject, err)
	}

	h.sub = sub
	h.logger.Info("Registered NATS subscriptions", zap.String("subject", ReloadSubject))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return h.sub.Unsubscribe()
		},
	})

	return nil
}

func (h *Handler) handleReload(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "handleReload")
	defer span.End()

	h.store.Invalidate(ctx)

	h.logger.Info("dataset invalidated by reload request",
		zap.String("subject", msg.Subject),
	)

	if msg.Reply != "" {
		if err := msg.Respond([]byte(`{"status":"invalidated"}`)); err != nil {
			h.logger.Warn("failed to answer reload request", zap.Error(err))
		}
	}
}
