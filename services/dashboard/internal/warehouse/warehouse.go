package warehouse

import (
	"context"

	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/models"
)

// Sink mirrors a freshly loaded normalized table into a database. Filtered
// tables are never written.
type Sink interface {
	Mirror(ctx context.Context, table *models.Table, report *loader.Report) error
	Close() error
}

type noopSink struct{}

// Disabled is the Sink used when no warehouse is configured.
func Disabled() Sink {
	return noopSink{}
}

func (noopSink) Mirror(context.Context, *models.Table, *loader.Report) error { return nil }

func (noopSink) Close() error { return nil }
