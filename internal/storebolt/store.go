/*
Package storebolt is the reference store.Client implementation, backed by
go.etcd.io/bbolt. It exists so the mapper's own test suite and
cmd/tablemapper have something real to run against; it is not meant to be
a production wide-column store.

Layout: one bbolt bucket per table, created on first use. Each item is
keyed by a deterministic, length-prefixed encoding of its primary-key
attributes (see keyenc.go) and stored as its JSON-encoded attribute map.
Bucket iteration order is therefore bbolt's own byte-lexicographic key
order, which Query/Scan rely on for a stable, resumable cursor.
*/
package storebolt

import (
	"fmt"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/tablemapper/pkg/store"
)

// Store implements store.Client over a single bbolt database file.
type Store struct {
	db *bolt.DB

	mu        sync.Mutex
	userAgent string

	// failNextUnprocessed maps a table to a remaining-failure count: each
	// BatchGetItem/BatchWriteItem call touching that table reports every
	// key/request for that table as unprocessed instead of serving it and
	// decrements the count, clearing the entry once it reaches zero. A test hook for the batch
	// engine's throttling path (§4.F), since this reference backend has no
	// real capacity limits to exceed organically.
	failNextUnprocessed map[string]int

	// declaredKeys holds each table's primary-key attribute names, the
	// analog of DynamoDB's CreateTable KeySchema. PutItem needs it to
	// derive a bucket key that stays stable when a non-key attribute
	// changes; GetItem/DeleteItem/UpdateItem don't need it since their
	// requests already carry just the key attributes.
	declaredKeys map[string][]string
}

// Open creates or opens a bbolt database at <dataDir>/tablemapper.db.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "tablemapper.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storebolt: open %s: %w", dbPath, err)
	}
	return &Store{
		db:                  db,
		userAgent:           "tablemapper-storebolt",
		failNextUnprocessed: make(map[string]int),
		declaredKeys:        make(map[string][]string),
	}, nil
}

// DeclareTable registers table's primary-key attribute names, mirroring
// DynamoDB's CreateTable KeySchema. Safe to call more than once with the
// same key names. cmd/tablemapper and the tests call it before the first
// PutItem against a table; PutItem fails for a table with no declared keys.
func (s *Store) DeclareTable(table string, keyAttributeNames []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declaredKeys[table] = keyAttributeNames
}

// keyItemOf projects item down to table's declared key attributes.
func (s *Store) keyItemOf(table string, item store.Item) (store.Item, error) {
	s.mu.Lock()
	names, ok := s.declaredKeys[table]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("storebolt: table %q has no declared key schema; call DeclareTable first", table)
	}
	key := make(store.Item, len(names))
	for _, name := range names {
		v, ok := item[name]
		if !ok {
			return nil, fmt.Errorf("storebolt: item missing declared key attribute %q for table %q", name, table)
		}
		key[name] = v
	}
	return key, nil
}

// keyOf is keyItemOf encoded as a bbolt key.
func (s *Store) keyOf(table string, item store.Item) ([]byte, error) {
	key, err := s.keyItemOf(table, item)
	if err != nil {
		return nil, err
	}
	return encodeKey(key), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UserAgent implements store.Client.
func (s *Store) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}

// AppendUserAgent implements store.Client.
func (s *Store) AppendUserAgent(component string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAgent = s.userAgent + " " + component
}

// FailNextUnprocessed arranges for the next n batch requests touching
// table to report their keys/write-requests as unprocessed rather than
// served, exercising the batch engine's throttling and backoff path
// against a backend that otherwise never throttles.
func (s *Store) FailNextUnprocessed(table string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextUnprocessed[table] = n
}

func (s *Store) consumeFailure(table string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining, ok := s.failNextUnprocessed[table]
	if !ok || remaining <= 0 {
		return false
	}
	remaining--
	if remaining <= 0 {
		delete(s.failNextUnprocessed, table)
	} else {
		s.failNextUnprocessed[table] = remaining
	}
	return true
}

func bucketName(table string) []byte { return []byte("table/" + table) }

func (s *Store) bucket(tx *bolt.Tx, table string, create bool) (*bolt.Bucket, error) {
	name := bucketName(table)
	if create {
		return tx.CreateBucketIfNotExists(name)
	}
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("storebolt: unknown table %q", table)
	}
	return b, nil
}

var _ store.Client = (*Store)(nil)
