package dataset

import (
	"context"
	stderrors "errors"
	"sync"

	"aijobsdash/common/cache"
	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/messaging"
	"aijobsdash/services/dashboard/internal/models"
	"aijobsdash/services/dashboard/internal/warehouse"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Source is a dataset whose identity changes whenever its content may have.
type Source interface {
	loader.Source
	Identity() (string, error)
}

// Store holds the normalized table built from one source. The table is
// rebuilt only when the source identity changes or Invalidate is called;
// callers share the immutable table without further locking.
type Store struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	source    Source
	loader    *loader.Loader
	cache     cache.Cache
	publisher messaging.Publisher
	sink      warehouse.Sink

	mu       sync.Mutex
	identity string
	table    *models.Table
	report   *loader.Report

	// sideMu serializes the cache write, event and mirror of each load.
	sideMu sync.Mutex
}

func NewStore(
	logger *zap.Logger,
	source Source,
	ld *loader.Loader,
	c cache.Cache,
	publisher messaging.Publisher,
	sink warehouse.Sink,
) *Store {
	return &Store{
		logger:    logger,
		tracer:    telemetry.GetTracer("aijobsdash/dashboard/dataset"),
		source:    source,
		loader:    ld,
		cache:     c,
		publisher: publisher,
		sink:      sink,
	}
}

func tableKey(identity string) string {
	return cache.HashKey("table", identity)
}

// Table returns the normalized table for the current state of the source.
// A fresh parse is cached, announced and mirrored after the store lock is
// released, so readers of the new table never wait on the warehouse.
func (s *Store) Table(ctx context.Context) (*models.Table, error) {
	ctx, span := s.tracer.Start(ctx, "Store.Table")
	defer span.End()

	identity, err := s.source.Identity()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	table, report, err := s.resolve(ctx, span, identity)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if report != nil {
		s.afterLoad(ctx, identity, table, report)
	}
	return table, nil
}

// resolve returns the table for identity, parsing the source only when
// neither tier holds it. report is non-nil only for a fresh parse.
func (s *Store) resolve(ctx context.Context, span trace.Span, identity string) (*models.Table, *loader.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil && s.identity == identity {
		span.SetAttributes(telemetry.String("cache.result", "memory"))
		return s.table, nil, nil
	}

	cached := &models.Table{}
	err := s.cache.Get(ctx, tableKey(identity), cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		s.logger.Debug("cache hit for normalized table", zap.String("source", s.source.Name()))
		s.identity, s.table = identity, cached
		return cached, nil, nil
	} else if !stderrors.Is(err, cache.ErrNotFound) {
		span.RecordError(err)
		s.logger.Warn("cache error for normalized table", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	table, report, err := s.loader.Load(ctx, s.source)
	if err != nil {
		return nil, nil, err
	}
	s.identity, s.table, s.report = identity, table, report
	return table, report, nil
}

// afterLoad shares, announces and mirrors a freshly parsed table. Loads are
// handled one at a time so mirrors land in parse order.
func (s *Store) afterLoad(ctx context.Context, identity string, table *models.Table, report *loader.Report) {
	s.sideMu.Lock()
	defer s.sideMu.Unlock()

	if err := s.cache.Set(ctx, tableKey(identity), table, 0); err != nil {
		s.logger.Warn("failed to cache normalized table", zap.Error(err))
	}
	if err := s.publisher.PublishDatasetLoaded(ctx, report); err != nil {
		s.logger.Warn("failed to publish dataset loaded event", zap.Error(err))
	}
	if err := s.sink.Mirror(ctx, table, report); err != nil {
		s.logger.Warn("failed to mirror dataset to warehouse", zap.Error(err))
	}
}

// Invalidate forgets the cached table so the next read parses the source
// again.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities := []string{s.identity}
	if current, err := s.source.Identity(); err == nil && current != s.identity {
		identities = append(identities, current)
	}
	for _, id := range identities {
		if id == "" {
			continue
		}
		if err := s.cache.Delete(ctx, tableKey(id)); err != nil {
			s.logger.Warn("failed to delete cached table", zap.Error(err))
		}
	}

	s.identity, s.table = "", nil
}

// Reload invalidates and parses the source again, returning the new report.
func (s *Store) Reload(ctx context.Context) (*loader.Report, error) {
	s.Invalidate(ctx)
	if _, err := s.Table(ctx); err != nil {
		return nil, err
	}
	return s.LastReport(), nil
}

// LastReport is the report of the most recent parse by this process, nil if
// the table so far only came from the shared cache.
func (s *Store) LastReport() *loader.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}
