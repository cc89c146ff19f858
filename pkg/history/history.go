// Package history persists the per-profile list of previously browsed key
// prefixes. Entries are kept most-recent-first, deduplicated on insert
// (recording an existing prefix moves it to the front) and capped. The store
// backs the prefix suggestion dropdown and nothing else.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Evanescentum/etcd-gui/pkg/config"
)

// MaxEntries is the retained history length per profile.
const MaxEntries = 20

// Store is a SQLite-backed path history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the history database in the XDG state
// directory.
func Open() (*Store, error) {
	dir := config.StateDir()
	if dir == "" {
		return nil, fmt.Errorf("cannot determine state directory")
	}
	return OpenAt(filepath.Join(dir, "path_history.db"))
}

// OpenAt opens a history database at a specific path.
func OpenAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	// modernc.org/sqlite takes pragmas as _pragma=name(value) pairs; the
	// mattn-style _busy_timeout/_journal_mode params are silently ignored.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open history database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS path_history (
			profile    TEXT NOT NULL,
			prefix     TEXT NOT NULL,
			visited_at INTEGER NOT NULL,
			PRIMARY KEY (profile, prefix)
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record moves prefix to the front of the profile's history, inserting it if
// new, and trims the history to MaxEntries. Returns the updated list.
func (s *Store) Record(profile, prefix string) ([]string, error) {
	if profile == "" || prefix == "" {
		return s.Get(profile)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}
	defer tx.Rollback()

	// The upsert refreshes visited_at, which is the recency order; an
	// existing row therefore moves to the front instead of duplicating.
	_, err = tx.Exec(`
		INSERT INTO path_history (profile, prefix, visited_at)
		VALUES (?, ?, ?)
		ON CONFLICT (profile, prefix) DO UPDATE SET visited_at = excluded.visited_at
	`, profile, prefix, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM path_history
		WHERE profile = ? AND prefix NOT IN (
			SELECT prefix FROM path_history
			WHERE profile = ?
			ORDER BY visited_at DESC
			LIMIT ?
		)
	`, profile, profile, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("trimming history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}

	return s.Get(profile)
}

// Get returns the profile's history, most recent first.
func (s *Store) Get(profile string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT prefix FROM path_history
		WHERE profile = ?
		ORDER BY visited_at DESC
		LIMIT ?
	`, profile, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			continue
		}
		prefixes = append(prefixes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return prefixes, nil
}

// DeleteProfile removes all history for a profile, used when the profile
// itself is deleted.
func (s *Store) DeleteProfile(profile string) error {
	_, err := s.db.Exec(`DELETE FROM path_history WHERE profile = ?`, profile)
	if err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}
