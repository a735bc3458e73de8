package migrations

import "aijobsdash/common/database/schema"

var CreateDatasetLoadsTable = schema.Migration{
	Version:     2,
	Description: "Create dataset_loads table",
	Up: `
		CREATE TABLE IF NOT EXISTS dataset_loads (
			source String,
			rows_read UInt32,
			rows_kept UInt32,
			dropped_incomplete UInt32,
			dropped_unparseable UInt32,
			loaded_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (source, loaded_at)
	`,
	Down: `DROP TABLE IF EXISTS dataset_loads`,
}

// All lists every migration in version order.
var All = []schema.Migration{
	CreateAIJobPostingsTable,
	CreateDatasetLoadsTable,
}
