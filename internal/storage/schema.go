// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines analysis_history and its three secondary indexes.
package storage

import (
	"database/sql"
	"fmt"
)

// initSchema creates the schema on first use and checks the recorded version.
func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: found %d, support %d", ErrUnsupportedSchema, version, SchemaVersion)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exercise_type TEXT NOT NULL,
		fitness_level TEXT NOT NULL,
		goals TEXT,
		specific_concerns TEXT,
		form_score INTEGER NOT NULL,
		analysis TEXT NOT NULL,
		recommendations TEXT,
		key_points TEXT,
		improvements TEXT,
		media_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_exercise_type ON analysis_history(exercise_type);
	CREATE INDEX IF NOT EXISTS idx_analysis_created_at ON analysis_history(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_analysis_fitness_level ON analysis_history(fitness_level);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if version < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}
