package loader

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/errors"
	"aijobsdash/services/dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	colCompanyLocation     = "company_location"
	colExperienceLevel     = "experience_level"
	colRemoteRatio         = "remote_ratio"
	colPostingDate         = "posting_date"
	colApplicationDeadline = "application_deadline"
	colSalaryUSD           = "salary_usd"
	colRequiredSkills      = "required_skills"
	colIndustry            = "industry"
	colCompanyName         = "company_name"
	colEmployeeResidence   = "employee_residence"
	colEducationRequired   = "education_required"
	colBenefitsScore       = "benefits_score"
	colJobTitle            = "job_title"

	// optional; seeds the posting ID when present
	colJobID = "job_id"
)

// RequiredColumns lists the columns every dataset must carry after header
// normalization.
var RequiredColumns = []string{
	colCompanyLocation,
	colExperienceLevel,
	colRemoteRatio,
	colPostingDate,
	colApplicationDeadline,
	colSalaryUSD,
	colRequiredSkills,
	colIndustry,
	colCompanyName,
	colEmployeeResidence,
	colEducationRequired,
	colBenefitsScore,
	colJobTitle,
}

// missingTokens are the cell values read as null, matching the default NA
// set of the pandas CSV reader the dataset was published for.
var missingTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Report summarizes one load.
type Report struct {
	Source             string    `json:"source"`
	RowsRead           int       `json:"rows_read"`
	RowsKept           int       `json:"rows_kept"`
	DroppedIncomplete  int       `json:"dropped_incomplete"`
	DroppedUnparseable int       `json:"dropped_unparseable"`
	LoadedAt           time.Time `json:"loaded_at"`
}

type Loader struct {
	logger *zap.Logger
	tracer trace.Tracer
}

func New(logger *zap.Logger) *Loader {
	return &Loader{
		logger: logger,
		tracer: telemetry.GetTracer("aijobsdash/dashboard/loader"),
	}
}

// Load reads every row of src and returns the normalized table.
//
// Opening or reading the source and missing required columns are fatal.
// Rows with a missing cell in any column, or with an unparseable date or
// number, are dropped and counted in the report.
func (l *Loader) Load(ctx context.Context, src Source) (*models.Table, *Report, error) {
	_, span := l.tracer.Start(ctx, "Loader.Load")
	defer span.End()
	span.SetAttributes(telemetry.String("dataset.source", src.Name()))

	rc, err := src.Open()
	if err != nil {
		span.RecordError(err)
		if errors.IsType(err, errors.ErrTypeSourceUnavailable) {
			return nil, nil, err
		}
		return nil, nil, errors.SourceUnavailable(src.Name(), err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			l.logger.Warn("failed to close dataset source", zap.String("source", src.Name()), zap.Error(cerr))
		}
	}()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	// a quote inside an unquoted cell is literal text
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.Schema(src.Name(), RequiredColumns)
	}
	if err != nil {
		span.RecordError(err)
		return nil, nil, errors.SourceUnavailable(src.Name(), fmt.Errorf("read header: %w", err))
	}

	index := indexHeaders(headers)
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		err := errors.Schema(src.Name(), missing)
		span.RecordError(err)
		return nil, nil, err
	}

	report := &Report{Source: src.Name()}
	var rows []models.JobPosting

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				report.RowsRead++
				report.DroppedUnparseable++
				l.logger.Debug("dropping malformed csv record",
					zap.String("source", src.Name()),
					zap.Int("line", parseErr.StartLine),
					zap.Error(err))
				continue
			}
			span.RecordError(err)
			return nil, nil, errors.SourceUnavailable(src.Name(), err)
		}
		report.RowsRead++
		line, _ := reader.FieldPos(0)

		if len(record) != len(headers) {
			report.DroppedIncomplete++
			l.logger.Debug("dropping row with wrong field count",
				zap.String("source", src.Name()),
				zap.Int("line", line),
				zap.Int("fields", len(record)),
				zap.Int("expected", len(headers)))
			continue
		}

		if !trimComplete(record) {
			report.DroppedIncomplete++
			l.logger.Debug("dropping incomplete row",
				zap.String("source", src.Name()),
				zap.Int("line", line))
			continue
		}

		posting, err := parseRow(src.Name(), line, record, index)
		if err != nil {
			report.DroppedUnparseable++
			l.logger.Debug("dropping unparseable row",
				zap.String("source", src.Name()),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		rows = append(rows, posting)
	}

	report.RowsKept = len(rows)
	report.LoadedAt = time.Now().UTC()

	span.SetAttributes(
		telemetry.Int("dataset.rows_read", report.RowsRead),
		telemetry.Int("dataset.rows_kept", report.RowsKept),
	)
	l.logger.Info("loaded dataset",
		zap.String("source", report.Source),
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_kept", report.RowsKept),
		zap.Int("dropped_incomplete", report.DroppedIncomplete),
		zap.Int("dropped_unparseable", report.DroppedUnparseable))

	return models.NewTable(src.Name(), rows), report, nil
}

// NormalizeHeader lowercases and trims a column name.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func indexHeaders(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

// trimComplete trims every cell in place and reports whether none is missing.
func trimComplete(record []string) bool {
	complete := true
	for i, v := range record {
		record[i] = strings.TrimSpace(v)
		if missingTokens[record[i]] {
			complete = false
		}
	}
	return complete
}

func parseRow(source string, line int, record []string, index map[string]int) (models.JobPosting, error) {
	get := func(col string) string {
		return record[index[col]]
	}

	remote, err := parseNumber(line, colRemoteRatio, get(colRemoteRatio))
	if err != nil {
		return models.JobPosting{}, err
	}
	salary, err := parseNumber(line, colSalaryUSD, get(colSalaryUSD))
	if err != nil {
		return models.JobPosting{}, err
	}
	benefits, err := parseNumber(line, colBenefitsScore, get(colBenefitsScore))
	if err != nil {
		return models.JobPosting{}, err
	}
	posted, err := ParseDate(get(colPostingDate))
	if err != nil {
		return models.JobPosting{}, errors.RowParse(line, colPostingDate, err)
	}
	deadline, err := ParseDate(get(colApplicationDeadline))
	if err != nil {
		return models.JobPosting{}, errors.RowParse(line, colApplicationDeadline, err)
	}

	seed := fmt.Sprintf("%s:%d", source, line)
	if i, ok := index[colJobID]; ok {
		seed = record[i]
	}

	return models.JobPosting{
		ID:                  uuid.NewSHA1(idNamespace, []byte(seed)).String(),
		Line:                line,
		JobTitle:            get(colJobTitle),
		CompanyName:         get(colCompanyName),
		CompanyLocation:     get(colCompanyLocation),
		EmployeeResidence:   get(colEmployeeResidence),
		ExperienceLevel:     get(colExperienceLevel),
		RemoteRatio:         remote,
		SalaryUSD:           salary,
		RequiredSkills:      get(colRequiredSkills),
		Industry:            get(colIndustry),
		EducationRequired:   get(colEducationRequired),
		BenefitsScore:       benefits,
		PostingDate:         posted,
		ApplicationDeadline: deadline,
	}, nil
}

func parseNumber(line int, column, value string) (float64, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, errors.RowParse(line, column, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.RowParse(line, column, fmt.Errorf("non-finite number %q", value))
	}
	return f, nil
}

// ParseDate is the single date parser for every date column. The result is
// truncated to a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	t, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
