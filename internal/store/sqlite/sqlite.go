// Package sqlite stores form submissions in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements store.SubmissionStore on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure interface compliance.
var _ store.SubmissionStore = (*Store)(nil)

// Open connects to the database at path and applies pending migrations.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("scan migration: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		if applied[version] {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// Save implements store.SubmissionStore.
func (s *Store) Save(ctx context.Context, sub store.Submission) (store.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now().UTC()
	}
	if sub.Payload == nil {
		sub.Payload = schema.Values{}
	}

	raw, err := json.Marshal(sub.Payload)
	if err != nil {
		return store.Submission{}, fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO submissions (id, schema_title, payload, created_at) VALUES (?, ?, ?, ?)",
		sub.ID, sub.SchemaTitle, string(raw), sub.CreatedAt.UTC(),
	)
	if err != nil {
		return store.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

// Get implements store.SubmissionStore.
func (s *Store) Get(ctx context.Context, id string) (store.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, schema_title, payload, created_at FROM submissions WHERE id = ?", id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Submission{}, store.ErrNotFound
	}
	return sub, err
}

// List implements store.SubmissionStore.
func (s *Store) List(ctx context.Context, limit int) ([]store.Submission, error) {
	query := "SELECT id, schema_title, payload, created_at FROM submissions ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []store.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (store.Submission, error) {
	var (
		sub     store.Submission
		payload string
	)
	if err := row.Scan(&sub.ID, &sub.SchemaTitle, &payload, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Submission{}, err
		}
		return store.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	sub.Payload = schema.Values{}
	if err := json.Unmarshal([]byte(payload), &sub.Payload); err != nil {
		return store.Submission{}, fmt.Errorf("decode payload %s: %w", sub.ID, err)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}
