package dataset

import (
	"context"
	"fmt"

	"aijobsdash/services/dashboard/internal/errors"
	"aijobsdash/services/dashboard/internal/filter"
	"aijobsdash/services/dashboard/internal/models"
	"aijobsdash/services/dashboard/internal/views"
)

// DashboardResponse is the full dashboard for one selection.
type DashboardResponse struct {
	views.Dashboard
	Selection filter.Selection `json:"selection"`
	TotalRows int              `json:"totalRows"`
}

// ViewResponse is a single view for one selection.
type ViewResponse struct {
	views.View
	Selection filter.Selection `json:"selection"`
	Rows      int              `json:"rows"`
}

func (s *Store) Options(ctx context.Context) (filter.Choices, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return filter.Choices{}, err
	}
	return filter.Options(table), nil
}

// Filtered returns a fresh table with the rows matching sel.
func (s *Store) Filtered(ctx context.Context, sel filter.Selection) (*models.Table, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(ctx, table, sel, s.logger), nil
}

func (s *Store) Dashboard(ctx context.Context, sel filter.Selection) (*DashboardResponse, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	filtered := filter.Apply(ctx, table, sel, s.logger)
	return &DashboardResponse{
		Dashboard: views.Build(ctx, filtered),
		Selection: sel,
		TotalRows: table.Len(),
	}, nil
}

func (s *Store) View(ctx context.Context, id string, sel filter.Selection) (*ViewResponse, error) {
	def, ok := views.Lookup(id)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("view %q does not exist", id), nil)
	}
	filtered, err := s.Filtered(ctx, sel)
	if err != nil {
		return nil, err
	}
	return &ViewResponse{
		View:      views.Compute(ctx, def, filtered),
		Selection: sel,
		Rows:      filtered.Len(),
	}, nil
}
