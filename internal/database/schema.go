package database

import "database/sql"

// Schema version for migrations
const currentSchemaVersion = 2

// SQL migration scripts
var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			// One row per scan, watch batch or CLI invocation
			`CREATE TABLE parse_runs (
				id TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				started_at DATETIME NOT NULL,
				finished_at DATETIME,
				files INTEGER NOT NULL DEFAULT 0,
				failures INTEGER NOT NULL DEFAULT 0
			)`,

			`CREATE TABLE parses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT REFERENCES parse_runs(id) ON DELETE SET NULL,
				path TEXT NOT NULL,
				filename TEXT NOT NULL,
				success BOOLEAN NOT NULL,
				parsed_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_parses_path ON parses(path)`,
			`CREATE INDEX idx_parses_run ON parses(run_id)`,

			// position keeps discovery order
			`CREATE TABLE elements (
				parse_id INTEGER NOT NULL REFERENCES parses(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				category TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (parse_id, position)
			)`,
			`CREATE INDEX idx_elements_category ON elements(category)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
	{
		version: 2,
		up: []string{
			// Normalized anime titles for search
			`ALTER TABLE parses ADD COLUMN title_normalized TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX idx_parses_title_normalized ON parses(title_normalized)`,
			`INSERT INTO schema_version (version) VALUES (2)`,
		},
	},
}

type migration struct {
	version int
	up      []string
}

// applyMigrations applies any pending schema migrations
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// schema_version doesn't exist yet - this is a fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		// each migration inserts its own schema_version row
		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
