package gridcache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryStore is a process-local Store for tests and one-shot renders.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore allocates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(fingerprint string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.entries[fingerprint]
	return raw, ok, nil
}

func (s *MemoryStore) Put(fingerprint string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fingerprint] = payload
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// SQLiteStore persists documents across runs in a single-file database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() // nolint:errcheck
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS grids (
		fingerprint TEXT PRIMARY KEY,
		payload     BLOB NOT NULL,
		created_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(fingerprint string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM grids WHERE fingerprint = ?", fingerprint).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) Put(fingerprint string, payload []byte) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO grids (fingerprint, payload, created_at) VALUES (?, ?, ?)",
		fingerprint, payload, time.Now().Unix(),
	)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
