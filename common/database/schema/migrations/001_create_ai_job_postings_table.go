package migrations

import "aijobsdash/common/database/schema"

var CreateAIJobPostingsTable = schema.Migration{
	Version:     1,
	Description: "Create ai_job_postings table",
	Up: `
		CREATE TABLE IF NOT EXISTS ai_job_postings (
			id UUID,
			source String,
			line UInt32,
			job_title String,
			company_name String,
			company_location LowCardinality(String),
			employee_residence LowCardinality(String),
			experience_level LowCardinality(String),
			experience_level_full LowCardinality(String),
			remote_ratio Float64,
			work_type LowCardinality(String),
			salary_usd Float64,
			required_skills Array(String),
			industry LowCardinality(String),
			education_required LowCardinality(String),
			benefits_score Float64,
			posting_date Date,
			application_deadline Date,
			loaded_at DateTime
		) ENGINE = ReplacingMergeTree(loaded_at)
		PARTITION BY toYYYYMM(posting_date)
		ORDER BY (id)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS ai_job_postings`,
}
