// ABOUTME: Data migration between record store backends.
// ABOUTME: Copies every analysis from source to destination, oldest first.
package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Analyses int
}

// MigrateData copies all records from src to dst. Read faults on the source
// abort the migration instead of copying an empty set. New ids are assigned
// by dst; created_at values carry over verbatim. The destination should be
// empty before calling this function.
func MigrateData(ctx context.Context, src, dst *Store) (*MigrateSummary, error) {
	data, err := src.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	n, err := dst.ImportData(ctx, data)
	if err != nil {
		return &MigrateSummary{Analyses: n}, fmt.Errorf("write destination: %w", err)
	}
	return &MigrateSummary{Analyses: n}, nil
}
