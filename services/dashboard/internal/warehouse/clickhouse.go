package warehouse

import (
	"context"
	"fmt"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ClickHouseSink struct {
	logger *zap.Logger
	db     clickhouse.Conn
	tracer trace.Tracer
}

func NewClickHouseSink(logger *zap.Logger, db clickhouse.Conn) *ClickHouseSink {
	return &ClickHouseSink{
		logger: logger,
		db:     db,
		tracer: telemetry.GetTracer("aijobsdash/dashboard/warehouse"),
	}
}

func (s *ClickHouseSink) Mirror(ctx context.Context, table *models.Table, report *loader.Report) error {
	ctx, span := s.tracer.Start(ctx, "ClickHouseSink.Mirror")
	defer span.End()
	span.SetAttributes(telemetry.Int("warehouse.rows", table.Len()))

	if err := s.storePostings(ctx, table, report); err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to store job postings", zap.Error(err))
		return fmt.Errorf("store job postings: %w", err)
	}

	if err := s.storeReport(ctx, report); err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to store load report", zap.Error(err))
		return fmt.Errorf("store load report: %w", err)
	}

	return nil
}

func (s *ClickHouseSink) storePostings(ctx context.Context, table *models.Table, report *loader.Report) error {
	batch, err := s.db.PrepareBatch(ctx, `
		INSERT INTO ai_job_postings (
			id, source, line, job_title, company_name, company_location,
			employee_residence, experience_level, experience_level_full,
			remote_ratio, work_type, salary_usd, required_skills, industry,
			education_required, benefits_score, posting_date,
			application_deadline, loaded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := 0; i < table.Len(); i++ {
		posting := table.At(i)
		id, err := uuid.Parse(posting.ID)
		if err != nil {
			return fmt.Errorf("posting at line %d: %w", posting.Line, err)
		}
		if err := batch.Append(
			id,
			report.Source,
			uint32(posting.Line),
			posting.JobTitle,
			posting.CompanyName,
			posting.CompanyLocation,
			posting.EmployeeResidence,
			posting.ExperienceLevel,
			posting.ExperienceLevelFull(),
			posting.RemoteRatio,
			posting.WorkType(),
			posting.SalaryUSD,
			posting.Skills(),
			posting.Industry,
			posting.EducationRequired,
			posting.BenefitsScore,
			posting.PostingDate,
			posting.ApplicationDeadline,
			report.LoadedAt,
		); err != nil {
			return fmt.Errorf("append posting at line %d: %w", posting.Line, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (s *ClickHouseSink) storeReport(ctx context.Context, report *loader.Report) error {
	query := `
		INSERT INTO dataset_loads (
			source, rows_read, rows_kept, dropped_incomplete,
			dropped_unparseable, loaded_at
		) VALUES (
			?, ?, ?, ?, ?, ?
		)
	`

	if err := s.db.Exec(ctx, query,
		report.Source,
		uint32(report.RowsRead),
		uint32(report.RowsKept),
		uint32(report.DroppedIncomplete),
		uint32(report.DroppedUnparseable),
		report.LoadedAt,
	); err != nil {
		return fmt.Errorf("insert load report: %w", err)
	}

	return nil
}

func (s *ClickHouseSink) Close() error {
	return s.db.Close()
}
