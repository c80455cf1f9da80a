// ABOUTME: In-memory record store for tests and isolated fakes.
// ABOUTME: Not durable; mirrors the ordering rules of the persistent backends.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/formlog/internal/models"
)

// MemoryBackend keeps records in a slice guarded by a mutex.
type MemoryBackend struct {
	mu      sync.RWMutex
	records []*models.AnalysisRecord
	nextID  int64
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{nextID: 1}
}

// MemoryOpener returns an Opener that always yields b.
func MemoryOpener(b *MemoryBackend) Opener {
	return func(ctx context.Context) (Backend, error) {
		return b, nil
	}
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}

// Insert stores a copy of rec and sets rec.ID.
func (m *MemoryBackend) Insert(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec.Clone())
	return rec.ID, nil
}

// Get returns a copy of the record with the given id.
func (m *MemoryBackend) Get(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: analysis %d", ErrNotFound, id)
}

// ScanByCreatedAt returns copies ordered by created_at then id, both descending.
func (m *MemoryBackend) ScanByCreatedAt(ctx context.Context) ([]*models.AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]*models.AnalysisRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Lookup returns copies of matching records in id order.
func (m *MemoryBackend) Lookup(ctx context.Context, idx Index, value string) ([]*models.AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.AnalysisRecord{}
	for _, r := range m.records {
		if indexValue(idx, r) == value {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}
