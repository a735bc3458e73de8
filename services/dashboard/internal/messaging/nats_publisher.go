package messaging

import (
	"context"
	"encoding/json"
	"time"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/config"
	"aijobsdash/services/dashboard/internal/errors"
	"aijobsdash/services/dashboard/internal/loader"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("aijobsdash/dashboard/messaging")

const (
	DatasetLoadedSubject = "dashboard.dataset.loaded"
)

// Publisher announces dataset loads to other services.
type Publisher interface {
	PublishDatasetLoaded(ctx context.Context, report *loader.Report) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect opens the shared NATS connection. It returns a nil connection
// when no NATS URL is configured.
func Connect(config *config.Config) (*nats.Conn, error) {
	if config.NATSURL == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.Name("dashboard-service"),
		nats.Timeout(config.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}
	return conn, nil
}

// NewPublisher publishes over conn, or only logs when conn is nil.
func NewPublisher(logger *zap.Logger, conn *nats.Conn) Publisher {
	if conn == nil {
		logger.Info("nats disabled, dataset events will not be published")
		return noopPublisher{logger: logger}
	}
	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}
}

func (p *natsPublisher) PublishDatasetLoaded(ctx context.Context, report *loader.Report) error {
	_, span := tracer.Start(ctx, "PublishDatasetLoaded")
	defer span.End()

	data, err := json.Marshal(report)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling load report", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", DatasetLoadedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(DatasetLoadedSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish dataset loaded event",
			zap.String("source", report.Source),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published dataset loaded event",
		zap.String("source", report.Source),
		zap.String("subject", DatasetLoadedSubject))
	return nil
}

// Close flushes pending events. The connection itself belongs to whoever
// opened it.
func (p *natsPublisher) Close() {
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("failed to flush nats connection", zap.Error(err))
	}
}

type noopPublisher struct {
	logger *zap.Logger
}

func (p noopPublisher) PublishDatasetLoaded(ctx context.Context, report *loader.Report) error {
	p.logger.Debug("dataset loaded", zap.String("source", report.Source), zap.Int("rows_kept", report.RowsKept))
	return nil
}

func (noopPublisher) Close() {}
