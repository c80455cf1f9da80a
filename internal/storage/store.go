// ABOUTME: Store is the append-only analysis record store facade.
// ABOUTME: Opens its backend once, assigns created_at, and applies the fault policy.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/models"
	"github.com/rs/zerolog"
)

// Store is the record store. Construct one per process in the composition root
// and pass it to whatever needs persistence.
//
// Store adds no locking of its own: every call is a single backend
// transaction and the backend serializes concurrent writers.
type Store struct {
	opener Opener
	now    func() time.Time
	log    zerolog.Logger

	once    sync.Once
	backend Backend
	openErr error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at defaults and fallback ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the logger used for swallowed faults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an unopened Store. The backend is opened by Open or by the first
// operation, whichever comes first.
func New(opener Opener, opts ...Option) *Store {
	s := &Store{
		opener: opener,
		now:    time.Now,
		log:    logging.Component("storage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open initializes the backend. It is idempotent: the opener runs once and
// later calls return the same result. Failures always match ErrStorageUnavailable.
func (s *Store) Open(ctx context.Context) error {
	s.once.Do(func() {
		if s.opener == nil {
			s.openErr = fmt.Errorf("%w: no storage backend configured", ErrStorageUnavailable)
			return
		}
		b, err := s.opener(ctx)
		if err != nil {
			if !errors.Is(err, ErrStorageUnavailable) {
				err = fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
			}
			s.openErr = err
			s.log.Error().Err(err).Msg("open store")
			return
		}
		s.backend = b
		s.log.Debug().Msg("store opened")
	})
	return s.openErr
}

// Close closes the backend if it was opened.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) ready(ctx context.Context) (Backend, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s.backend, nil
}

// SaveResult reports the outcome of an insert.
//
// On a write fault ID holds a fallback (current Unix milliseconds) and Saved is
// false, so callers that only look at ID keep working while callers that care
// can tell persisted entries from unsaved ones.
type SaveResult struct {
	ID    int64
	Saved bool
	Err   error
}

// Insert appends a record. The caller's record is not modified: the stored
// copy gets a new id and, if CreatedAt is empty, the current time.
//
// The returned error is non-nil only when storage is unavailable. Per-write
// faults are logged and reported through SaveResult.
func (s *Store) Insert(ctx context.Context, rec *models.AnalysisRecord) (SaveResult, error) {
	now := s.now()
	fallback := SaveResult{ID: now.UnixMilli()}

	b, err := s.ready(ctx)
	if err != nil {
		fallback.Err = err
		return fallback, err
	}

	if rec == nil {
		fallback.Err = fmt.Errorf("%w: nil record", ErrInsertFailed)
		return fallback, nil
	}

	stored := rec.Clone()
	stored.ID = 0
	if stored.CreatedAt == "" {
		stored.CreatedAt = models.FormatTimestamp(now)
	}

	id, err := b.Insert(ctx, stored)
	if err != nil {
		fallback.Err = fmt.Errorf("%w: %w", ErrInsertFailed, err)
		s.log.Error().Err(err).
			Str("op", "insert").
			Str("exercise_type", rec.ExerciseType).
			Int64("fallback_id", fallback.ID).
			Msg("insert failed, returning fallback id")
		return fallback, nil
	}

	return SaveResult{ID: id, Saved: true}, nil
}

// GetAll returns every record, most recent created_at first.
//
// On a read fault it returns an empty slice and an error wrapping ErrReadFailed.
func (s *Store) GetAll(ctx context.Context) ([]*models.AnalysisRecord, error) {
	b, err := s.ready(ctx)
	if err != nil {
		return []*models.AnalysisRecord{}, err
	}

	records, err := b.ScanByCreatedAt(ctx)
	if err != nil {
		return s.readFailed("get_all", err)
	}
	return records, nil
}

// GetPage returns GetAll()[offset:offset+limit]. A negative offset is treated
// as 0 and a non-positive limit yields an empty page.
func (s *Store) GetPage(ctx context.Context, limit, offset int) ([]*models.AnalysisRecord, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return []*models.AnalysisRecord{}, err
	}
	return Paginate(all, limit, offset), nil
}

// GetByCategory returns records with the given exercise type, most recent first.
// Matching is exact and case-sensitive.
func (s *Store) GetByCategory(ctx context.Context, exerciseType string) ([]*models.AnalysisRecord, error) {
	return s.lookupSorted(ctx, "get_by_category", IndexExerciseType, exerciseType)
}

// GetByFitnessLevel returns records with the given fitness level, most recent first.
func (s *Store) GetByFitnessLevel(ctx context.Context, level string) ([]*models.AnalysisRecord, error) {
	return s.lookupSorted(ctx, "get_by_fitness_level", IndexFitnessLevel, level)
}

// Get returns a single record by id. A missing id yields ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	b, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := b.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.log.Error().Err(err).Str("op", "get").Int64("id", id).Msg("read failed")
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	all, err := s.GetAll(ctx)
	return len(all), err
}

func (s *Store) lookupSorted(ctx context.Context, op string, idx Index, value string) ([]*models.AnalysisRecord, error) {
	b, err := s.ready(ctx)
	if err != nil {
		return []*models.AnalysisRecord{}, err
	}

	records, err := b.Lookup(ctx, idx, value)
	if err != nil {
		return s.readFailed(op, err)
	}
	sortByCreatedDesc(records)
	return records, nil
}

func (s *Store) readFailed(op string, err error) ([]*models.AnalysisRecord, error) {
	s.log.Error().Err(err).Str("op", op).Msg("read failed, returning empty result")
	return []*models.AnalysisRecord{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
}

// sortByCreatedDesc orders records by parsed created_at, newest first.
// Unparseable timestamps sort last; ties keep their index order.
func sortByCreatedDesc(records []*models.AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].CreatedTime()
		tj, okJ := records[j].CreatedTime()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

// Paginate returns records[offset:offset+limit]. A negative offset is treated
// as 0; a non-positive limit or an offset past the end yields an empty,
// non-nil slice.
func Paginate(records []*models.AnalysisRecord, limit, offset int) []*models.AnalysisRecord {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(records) {
		return []*models.AnalysisRecord{}
	}
	if limit > len(records)-offset {
		limit = len(records) - offset
	}
	return records[offset : offset+limit]
}
