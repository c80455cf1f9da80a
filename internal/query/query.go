// ABOUTME: Query layer: paginated and filtered views over the record store.
// ABOUTME: Read faults degrade to empty results; unavailable storage propagates.
package query

import (
	"context"
	"errors"

	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultRecentLimit is the page size used by Recent when limit is not positive.
const DefaultRecentLimit = 10

// Reader is the subset of the record store the query layer reads from.
type Reader interface {
	GetPage(ctx context.Context, limit, offset int) ([]*models.AnalysisRecord, error)
	GetByCategory(ctx context.Context, exerciseType string) ([]*models.AnalysisRecord, error)
	GetByFitnessLevel(ctx context.Context, level string) ([]*models.AnalysisRecord, error)
}

// Service answers list queries.
type Service struct {
	store Reader
	log   zerolog.Logger
}

// New creates a query service over store.
func New(store Reader) *Service {
	return &Service{store: store, log: logging.Component("query")}
}

// Recent returns the newest limit records. A non-positive limit uses
// DefaultRecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.Page(ctx, limit, 0)
}

// Page returns records [offset, offset+limit) in most-recent-first order.
func (s *Service) Page(ctx context.Context, limit, offset int) ([]*models.AnalysisRecord, error) {
	records, err := s.store.GetPage(ctx, limit, offset)
	return s.tolerate("page", records, err)
}

// ByCategory returns every record for one exercise type, newest first.
func (s *Service) ByCategory(ctx context.Context, exerciseType string) ([]*models.AnalysisRecord, error) {
	records, err := s.store.GetByCategory(ctx, exerciseType)
	return s.tolerate("by_category", records, err)
}

// ByFitnessLevel returns every record for one fitness level, newest first.
func (s *Service) ByFitnessLevel(ctx context.Context, level string) ([]*models.AnalysisRecord, error) {
	records, err := s.store.GetByFitnessLevel(ctx, level)
	return s.tolerate("by_fitness_level", records, err)
}

func (s *Service) tolerate(op string, records []*models.AnalysisRecord, err error) ([]*models.AnalysisRecord, error) {
	if err == nil {
		if records == nil {
			records = []*models.AnalysisRecord{}
		}
		return records, nil
	}
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return []*models.AnalysisRecord{}, err
	}
	s.log.Error().Err(err).Str("op", op).Msg("query degraded to empty result")
	return []*models.AnalysisRecord{}, nil
}
