// ABOUTME: Error taxonomy for the analysis record store.
// ABOUTME: Only ErrStorageUnavailable is meant to reach the UI layer.
package storage

import "errors"

var (
	// ErrStorageUnavailable means no durable storage could be opened. Fatal for the store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInsertFailed means a single write transaction did not commit.
	ErrInsertFailed = errors.New("insert failed")

	// ErrReadFailed means a single scan or index lookup did not complete.
	ErrReadFailed = errors.New("read failed")

	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedSchema means the on-disk schema is newer than this binary.
	ErrUnsupportedSchema = errors.New("unsupported schema version")
)
