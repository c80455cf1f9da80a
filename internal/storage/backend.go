// ABOUTME: Backend interface implemented by the badger, sqlite and memory engines.
// ABOUTME: Defines the analysis_history logical schema shared by all of them.
package storage

import (
	"context"

	"github.com/harperreed/formlog/internal/models"
)

// SchemaVersion is the current analysis_history schema version.
const SchemaVersion = 1

// TableName is the logical table holding analysis records.
const TableName = "analysis_history"

// Index names a non-unique secondary index on analysis_history.
type Index string

const (
	IndexExerciseType Index = "exercise_type"
	IndexCreatedAt    Index = "created_at"
	IndexFitnessLevel Index = "fitness_level"
)

// Indexes lists every secondary index in the schema.
var Indexes = []Index{IndexExerciseType, IndexCreatedAt, IndexFitnessLevel}

// indexValue extracts the indexed field from a record.
func indexValue(idx Index, rec *models.AnalysisRecord) string {
	switch idx {
	case IndexExerciseType:
		return rec.ExerciseType
	case IndexCreatedAt:
		return rec.CreatedAt
	case IndexFitnessLevel:
		return rec.FitnessLevel
	default:
		return ""
	}
}

// Backend is a storage engine for analysis records. Each call runs in its own
// atomic transaction; the engine is responsible for serializing writers and
// assigning strictly increasing ids.
type Backend interface {
	// Insert stores rec (CreatedAt already populated) and returns its new id.
	Insert(ctx context.Context, rec *models.AnalysisRecord) (int64, error)

	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*models.AnalysisRecord, error)

	// ScanByCreatedAt returns every record ordered by created_at descending,
	// ties broken by id descending.
	ScanByCreatedAt(ctx context.Context) ([]*models.AnalysisRecord, error)

	// Lookup returns every record whose indexed field equals value, in no
	// particular time order.
	Lookup(ctx context.Context, idx Index, value string) ([]*models.AnalysisRecord, error)

	// Close releases the engine.
	Close() error
}

// Opener creates a Backend. It runs at most once per Store.
type Opener func(ctx context.Context) (Backend, error)
