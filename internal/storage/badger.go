// ABOUTME: Badger-backed record store: embedded, versioned key-value engine.
// ABOUTME: Maintains primary rec: keys plus idx: secondary index keys in one txn.
package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/models"
	"github.com/rs/zerolog"
)

// Key layout:
//
//	rec:<id be64>                       -> JSON record
//	idx:<index>:<value>\x00<id be64>    -> empty
//	meta:schema_version                 -> decimal version
//	seq:analysis_history                -> badger sequence
const (
	recordPrefix = "rec:"
	indexPrefix  = "idx:"
	schemaKey    = "meta:schema_version"
	sequenceKey  = "seq:" + TableName

	sequenceBandwidth = 100
)

// BadgerBackend stores analysis records in BadgerDB.
type BadgerBackend struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ Backend = (*BadgerBackend)(nil)

// BadgerOpener returns an Opener for a durable badger store in dir.
func BadgerOpener(dir string) Opener {
	return func(ctx context.Context) (Backend, error) {
		if dir == "" {
			return nil, fmt.Errorf("%w: no data directory", ErrStorageUnavailable)
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %w", ErrStorageUnavailable, err)
		}
		opts := badger.DefaultOptions(dir).
			WithSyncWrites(true).
			WithLogger(newBadgerLogger())
		return OpenBadger(opts)
	}
}

// OpenBadger opens badger with the given options and prepares the schema.
func OpenBadger(opts badger.Options) (*BadgerBackend, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	if err := initBadgerSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	return &BadgerBackend{db: db, seq: seq}, nil
}

// initBadgerSchema records the schema version on first use and rejects newer ones.
func initBadgerSchema(db *badger.DB) error {
	return db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(schemaKey), []byte(strconv.Itoa(SchemaVersion)))
		}
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		version, err := strconv.Atoi(string(raw))
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", raw, err)
		}
		if version > SchemaVersion {
			return fmt.Errorf("%w: found %d, support %d", ErrUnsupportedSchema, version, SchemaVersion)
		}
		return nil
	})
}

// Close releases the id sequence and closes the database.
func (b *BadgerBackend) Close() error {
	var errs []error
	if b.seq != nil {
		errs = append(errs, b.seq.Release())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}

// Insert writes the record and its index entries in a single transaction.
// It sets rec.ID.
func (b *BadgerBackend) Insert(ctx context.Context, rec *models.AnalysisRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	next, err := b.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	id := int64(next) + 1
	rec.ID = id

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(id), data); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		for _, idx := range Indexes {
			if err := txn.Set(indexKey(idx, indexValue(idx, rec), id), []byte{}); err != nil {
				return fmt.Errorf("set %s index: %w", idx, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a record by id.
func (b *BadgerBackend) Get(ctx context.Context, id int64) (*models.AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *models.AnalysisRecord
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ScanByCreatedAt walks the created_at index backwards.
func (b *BadgerBackend) ScanByCreatedAt(ctx context.Context) ([]*models.AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(indexPrefix + string(IndexCreatedAt) + ":")
	records := []*models.AnalysisRecord{}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			id, ok := indexKeyID(it.Item().Key())
			if !ok {
				continue
			}
			rec, err := getRecord(txn, id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Lookup scans one index for an exact value.
func (b *BadgerBackend) Lookup(ctx context.Context, idx Index, value string) ([]*models.AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := indexKey(idx, value, 0)
	prefix = prefix[:len(prefix)-8]
	records := []*models.AnalysisRecord{}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			// A longer value sharing this prefix is a different index entry.
			if len(key) != len(prefix)+8 {
				continue
			}
			id := int64(binary.BigEndian.Uint64(key[len(prefix):]))
			rec, err := getRecord(txn, id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func getRecord(txn *badger.Txn, id int64) (*models.AnalysisRecord, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: analysis %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}

	var rec models.AnalysisRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal record %d: %w", id, err)
	}
	return &rec, nil
}

func recordKey(id int64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], uint64(id))
	return key
}

func indexKey(idx Index, value string, id int64) []byte {
	prefix := indexPrefix + string(idx) + ":" + value + "\x00"
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(id))
	return key
}

// indexKeyID extracts the trailing id from an index key.
func indexKeyID(key []byte) (int64, bool) {
	if len(key) < 9 || key[len(key)-9] != 0 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(key[len(key)-8:])), true
}

// badgerLogger routes badger's internal logging into zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func newBadgerLogger() badgerLogger {
	return badgerLogger{log: logging.Component("badger")}
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}
