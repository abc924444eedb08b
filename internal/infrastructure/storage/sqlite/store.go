package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/infrastructure/storage/sqlite/migrations"
)

// Store is a SQLite-backed tracker repository
type Store struct {
	db   *sql.DB
	path string
}

var _ domain.TrackerRepository = (*Store)(nil)

// NewStore opens (creating if needed) the database file at path and runs migrations
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL mode for concurrent readers while a request writes
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_tracker_entries.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Insert stores a new entry.
func (s *Store) Insert(ctx context.Context, entry *domain.TrackerEntry) error {
	if entry == nil || entry.ID == "" || entry.Owner == "" {
		return domain.ErrInvalidRequest
	}

	nutrientsJSON, err := json.Marshal(entry.Nutrients)
	if err != nil {
		return fmt.Errorf("marshalling nutrients: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracker_entries
			(id, owner, food_item, quantity, calories, nutrients, date, meal_type, image_ref, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Owner, string(entry.FoodItem), entry.Quantity, entry.Calories,
		string(nutrientsJSON), entry.Date, entry.MealType, entry.ImageRef, entry.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("saving tracker entry: %w", err)
	}
	return nil
}

// Find returns owner's entries matching filter, newest first.
func (s *Store) Find(ctx context.Context, owner string, filter domain.EntryFilter) ([]domain.TrackerEntry, error) {
	query := `
		SELECT id, owner, food_item, quantity, calories, nutrients, date, meal_type, image_ref, timestamp_ns
		FROM tracker_entries WHERE owner = ?`
	args := []any{owner}

	if filter.DateFrom != "" {
		query += " AND date >= ?"
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		query += " AND date <= ?"
		args = append(args, filter.DateTo)
	}
	query += " ORDER BY timestamp_ns DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tracker entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.TrackerEntry, 0)
	for rows.Next() {
		var (
			entry         domain.TrackerEntry
			foodItem      string
			nutrientsJSON string
			timestampNs   int64
		)
		if err := rows.Scan(&entry.ID, &entry.Owner, &foodItem, &entry.Quantity, &entry.Calories,
			&nutrientsJSON, &entry.Date, &entry.MealType, &entry.ImageRef, &timestampNs); err != nil {
			return nil, fmt.Errorf("scanning tracker entry: %w", err)
		}
		if err := json.Unmarshal([]byte(nutrientsJSON), &entry.Nutrients); err != nil {
			return nil, fmt.Errorf("unmarshaling nutrients: %w", err)
		}
		entry.FoodItem = domain.FoodLabel(foodItem)
		entry.Timestamp = time.Unix(0, timestampNs).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracker entries: %w", err)
	}

	return entries, nil
}

// Delete removes one of owner's entries.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tracker_entries WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("deleting tracker entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}
