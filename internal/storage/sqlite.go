// ABOUTME: SQLite-backed record store using modernc.org/sqlite (pure Go, no CGO).
// ABOUTME: AUTOINCREMENT ids; list columns are stored as JSON text.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/harperreed/formlog/internal/models"
	_ "modernc.org/sqlite"
)

const recordColumns = `id, exercise_type, fitness_level, goals, specific_concerns, form_score,
	analysis, recommendations, key_points, improvements, media_type, created_at`

// SQLiteBackend stores analysis records in a SQLite database file.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

var _ Backend = (*SQLiteBackend)(nil)

// SQLiteOpener returns an Opener for a SQLite database at dbPath.
func SQLiteOpener(dbPath string) Opener {
	return func(ctx context.Context) (Backend, error) {
		if dbPath == "" {
			return nil, fmt.Errorf("%w: no database path", ErrStorageUnavailable)
		}
		return OpenSQLite(dbPath)
	}
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %w", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	if err := configurePragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db, dbPath: dbPath}, nil
}

// configurePragmas sets WAL mode and full fsync on commit.
func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert stores a record and sets rec.ID.
func (s *SQLiteBackend) Insert(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	recs, err := encodeList(rec.Recommendations)
	if err != nil {
		return 0, err
	}
	points, err := encodeList(rec.KeyPoints)
	if err != nil {
		return 0, err
	}
	improvements, err := encodeList(rec.Improvements)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (exercise_type, fitness_level, goals, specific_concerns,
			form_score, analysis, recommendations, key_points, improvements, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ExerciseType,
		rec.FitnessLevel,
		rec.Goals,
		rec.SpecificConcerns,
		rec.FormScore,
		rec.Analysis,
		recs,
		points,
		improvements,
		rec.MediaType,
		rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Get retrieves a record by id.
func (s *SQLiteBackend) Get(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM analysis_history WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %d", ErrNotFound, id)
	}
	return rec, err
}

// ScanByCreatedAt returns all records ordered by created_at descending.
func (s *SQLiteBackend) ScanByCreatedAt(ctx context.Context) ([]*models.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM analysis_history
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("scan analyses: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Lookup returns records whose indexed column equals value.
func (s *SQLiteBackend) Lookup(ctx context.Context, idx Index, value string) ([]*models.AnalysisRecord, error) {
	var column string
	switch idx {
	case IndexExerciseType, IndexCreatedAt, IndexFitnessLevel:
		column = string(idx)
	default:
		return nil, fmt.Errorf("unknown index: %s", idx)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM analysis_history
		WHERE `+column+` = ?
		ORDER BY id`, value)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", idx, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into an AnalysisRecord.
func scanRecord(row rowScanner) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	var goals, concerns, recs, points, improvements sql.NullString

	err := row.Scan(&rec.ID, &rec.ExerciseType, &rec.FitnessLevel, &goals, &concerns,
		&rec.FormScore, &rec.Analysis, &recs, &points, &improvements, &rec.MediaType, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan analysis: %w", err)
	}

	if goals.Valid {
		rec.Goals = &goals.String
	}
	if concerns.Valid {
		rec.SpecificConcerns = &concerns.String
	}
	if rec.Recommendations, err = decodeList(recs); err != nil {
		return nil, err
	}
	if rec.KeyPoints, err = decodeList(points); err != nil {
		return nil, err
	}
	if rec.Improvements, err = decodeList(improvements); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanRecords scans multiple rows.
func scanRecords(rows *sql.Rows) ([]*models.AnalysisRecord, error) {
	records := []*models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func encodeList(items []string) (sql.NullString, error) {
	if items == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeList(ns sql.NullString) ([]string, error) {
	if !ns.Valid {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(ns.String), &items); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return items, nil
}
