// Package patchstore persists named patches. Each record is a name, an
// optional section for grouping, and the patch in its StateCodec
// string form — the same versioned format share links use, so a stored
// record and a pasted link decode through one path.
package patchstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested patch doesn't exist
var ErrNotFound = errors.New("patch not found")

// Record is one stored patch.
type Record struct {
	Name    string
	Section string
	State   string
}

// Store handles SQLite storage for named patches
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the patch database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS patches (
		name TEXT PRIMARY KEY,
		section TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save inserts or replaces the record keyed by name.
func (s *Store) Save(rec Record) error {
	if rec.Name == "" {
		return fmt.Errorf("patch name must not be empty")
	}
	if rec.State == "" {
		return fmt.Errorf("patch state must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO patches (name, section, state) VALUES (?, ?, ?)`,
		rec.Name, rec.Section, rec.State,
	)
	if err != nil {
		return fmt.Errorf("saving patch %q: %w", rec.Name, err)
	}
	return nil
}

// Load returns the record for name, or ErrNotFound.
func (s *Store) Load(name string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{Name: name}
	err := s.db.QueryRow(
		`SELECT section, state FROM patches WHERE name = ?`, name,
	).Scan(&rec.Section, &rec.State)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading patch %q: %w", name, err)
	}
	return rec, nil
}

// List returns all records ordered by section then name.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT name, section, state FROM patches ORDER BY section, name`)
	if err != nil {
		return nil, fmt.Errorf("listing patches: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.Section, &rec.State); err != nil {
			return nil, fmt.Errorf("scanning patch row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the record for name. Deleting a missing record
// returns ErrNotFound.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM patches WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting patch %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
