package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store handles persistence of assembled payloads using SQLite
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new SQLite-backed persistence store at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS assemblies (
			id            TEXT PRIMARY KEY,
			created_at    TEXT NOT NULL,
			preset        TEXT NOT NULL DEFAULT '',
			request_json  TEXT NOT NULL,
			payload_json  TEXT NOT NULL,
			item_count    INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_assemblies_created ON assemblies(created_at);
	`)
	return err
}

// SaveAssembly records an assembly. CreatedAt defaults to now.
func (s *Store) SaveAssembly(a *Assembly) error {
	if a == nil || strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("assembly id is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO assemblies (id, created_at, preset, request_json, payload_json, item_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, formatTime(a.CreatedAt), a.Preset, a.RequestJSON, a.PayloadJSON, a.ItemCount)
	if err != nil {
		return fmt.Errorf("insert assembly %s: %w", a.ID, err)
	}
	return nil
}

// GetAssembly loads one assembly by ID.
func (s *Store) GetAssembly(id string) (*Assembly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, preset, request_json, payload_json, item_count
		FROM assemblies
		WHERE id = ?
	`, id)

	a, err := scanAssembly(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("assembly %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return a, nil
}

// ListAssemblies returns the most recent assemblies, newest first.
func (s *Store) ListAssemblies(limit int) ([]*Assembly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, preset, request_json, payload_json, item_count
		FROM assemblies
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Assembly
	for rows.Next() {
		a, err := scanAssembly(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assemblies: %w", err)
	}
	return list, nil
}

// PruneBefore deletes assemblies created before t and returns how many
// were removed.
func (s *Store) PruneBefore(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM assemblies WHERE created_at < ?`, formatTime(t))
	if err != nil {
		return 0, fmt.Errorf("prune assemblies: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssembly(row scanner) (*Assembly, error) {
	var a Assembly
	var createdAt string
	if err := row.Scan(&a.ID, &createdAt, &a.Preset, &a.RequestJSON, &a.PayloadJSON, &a.ItemCount); err != nil {
		return nil, err
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
