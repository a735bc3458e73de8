package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ai_job_postings (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	line INTEGER NOT NULL,
	job_title TEXT NOT NULL,
	company_name TEXT NOT NULL,
	company_location TEXT NOT NULL,
	employee_residence TEXT NOT NULL,
	experience_level TEXT NOT NULL,
	experience_level_full TEXT NOT NULL,
	remote_ratio REAL NOT NULL,
	work_type TEXT NOT NULL,
	salary_usd REAL NOT NULL,
	required_skills TEXT NOT NULL,
	industry TEXT NOT NULL,
	education_required TEXT NOT NULL,
	benefits_score REAL NOT NULL,
	posting_date TEXT NOT NULL,
	application_deadline TEXT NOT NULL,
	loaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS dataset_loads (
	source TEXT NOT NULL,
	rows_read INTEGER NOT NULL,
	rows_kept INTEGER NOT NULL,
	dropped_incomplete INTEGER NOT NULL,
	dropped_unparseable INTEGER NOT NULL,
	loaded_at TEXT NOT NULL
);
`

const timestampLayout = "2006-01-02T15:04:05Z07:00"

type SQLiteSink struct {
	logger *zap.Logger
	db     *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath and ensures
// the mirror tables exist.
func OpenSQLite(ctx context.Context, dbPath string, logger *zap.Logger) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteSink{logger: logger, db: db}, nil
}

func (s *SQLiteSink) Mirror(ctx context.Context, table *models.Table, report *loader.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO ai_job_postings (
			id, source, line, job_title, company_name, company_location,
			employee_residence, experience_level, experience_level_full,
			remote_ratio, work_type, salary_usd, required_skills, industry,
			education_required, benefits_score, posting_date,
			application_deadline, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	loadedAt := report.LoadedAt.Format(timestampLayout)
	for i := 0; i < table.Len(); i++ {
		p := table.At(i)
		if _, err := stmt.ExecContext(ctx,
			p.ID, report.Source, p.Line, p.JobTitle, p.CompanyName, p.CompanyLocation,
			p.EmployeeResidence, p.ExperienceLevel, p.ExperienceLevelFull(),
			p.RemoteRatio, p.WorkType(), p.SalaryUSD, p.RequiredSkills, p.Industry,
			p.EducationRequired, p.BenefitsScore, p.PostingDate.Format(models.DateLayout),
			p.ApplicationDeadline.Format(models.DateLayout), loadedAt,
		); err != nil {
			return fmt.Errorf("insert posting at line %d: %w", p.Line, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dataset_loads (
			source, rows_read, rows_kept, dropped_incomplete, dropped_unparseable, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`, report.Source, report.RowsRead, report.RowsKept, report.DroppedIncomplete, report.DroppedUnparseable, loadedAt); err != nil {
		return fmt.Errorf("insert load report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("mirrored dataset to sqlite",
		zap.String("source", report.Source),
		zap.Int("rows", table.Len()))
	return nil
}

// DB exposes the underlying handle for inspection.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
