package filter

import (
	"context"
	stderrors "errors"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/errors"
	"aijobsdash/services/dashboard/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("aijobsdash/dashboard/filter")

// Selection holds the user's choices. An empty dimension is not applied.
// Values within a dimension are OR-combined, dimensions are AND-combined.
type Selection struct {
	Locations        []string `json:"locations,omitempty"`
	ExperienceLabels []string `json:"experience_levels,omitempty"`
}

func (s Selection) IsEmpty() bool {
	return len(s.Locations) == 0 && len(s.ExperienceLabels) == 0
}

// Choices are the selectable values offered for a table.
type Choices struct {
	Locations        []string `json:"locations"`
	ExperienceLevels []string `json:"experienceLevels"`
}

// Options returns the sorted distinct company locations of table and the
// fixed experience labels in code order.
func Options(table *models.Table) Choices {
	return Choices{
		Locations: table.Distinct(func(p models.JobPosting) string {
			return p.CompanyLocation
		}),
		ExperienceLevels: models.ExperienceLabels(),
	}
}

// ExperienceCodes translates labels back to codes. Every label without a
// code yields an UnknownLabel error; the codes of the known labels are
// still returned.
func ExperienceCodes(labels []string) ([]string, error) {
	codes := make([]string, 0, len(labels))
	var errs []error
	for _, label := range labels {
		code, ok := models.ExperienceCode(label)
		if !ok {
			errs = append(errs, errors.UnknownLabel(label))
			continue
		}
		codes = append(codes, code)
	}
	return codes, stderrors.Join(errs...)
}

// ByLocation keeps rows whose company location is one of locations.
func ByLocation(table *models.Table, locations []string) *models.Table {
	if len(locations) == 0 {
		return table
	}
	set := toSet(locations)
	return table.Where(func(p models.JobPosting) bool {
		return set[p.CompanyLocation]
	})
}

// ByExperienceCode keeps rows whose experience code is one of codes. A nil
// codes slice means the dimension is not selected; an empty non-nil slice
// matches nothing.
func ByExperienceCode(table *models.Table, codes []string) *models.Table {
	if codes == nil {
		return table
	}
	set := toSet(codes)
	return table.Where(func(p models.JobPosting) bool {
		return set[p.ExperienceLevel]
	})
}

// Apply narrows table to the rows matching every selected dimension. The
// input table is never modified; an empty selection returns it unchanged.
// Unknown experience labels are logged and ignored.
func Apply(ctx context.Context, table *models.Table, sel Selection, logger *zap.Logger) *models.Table {
	_, span := tracer.Start(ctx, "filter.Apply")
	defer span.End()

	result := ByLocation(table, sel.Locations)

	if len(sel.ExperienceLabels) > 0 {
		codes, err := ExperienceCodes(sel.ExperienceLabels)
		if err != nil {
			span.RecordError(err)
			logger.Warn("ignoring unknown experience labels",
				zap.Strings("labels", sel.ExperienceLabels),
				zap.Error(err))
		}
		result = ByExperienceCode(result, codes)
	}

	span.SetAttributes(
		telemetry.Int("filter.rows_in", table.Len()),
		telemetry.Int("filter.rows_out", result.Len()),
	)
	return result
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
