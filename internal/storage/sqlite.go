package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"feed_notifier/internal/model"
	"feed_notifier/migrations"
)

// SQLite implements Storage backed by a SQLite database.
// Seen-sets are keyed by the raw feed URL, so keys never collide.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: writers are serialized anyway and ":memory:" stays shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns all identifiers recorded for url.
func (s *SQLite) Load(ctx context.Context, url string) (model.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid FROM seen_items WHERE feed_url = ?`, url,
	)
	if err != nil {
		return nil, fmt.Errorf("query seen items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := model.NewSeenSet()
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("scan seen item: %w", err)
		}
		seen.Add(guid)
	}
	return seen, rows.Err()
}

// Save replaces the identifiers recorded for url in a single transaction.
// Rows for identifiers still present keep their original seen_at.
func (s *SQLite) Save(ctx context.Context, url string, seen model.SeenSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT guid FROM seen_items WHERE feed_url = ?`, url)
	if err != nil {
		return fmt.Errorf("query seen items: %w", err)
	}
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan seen item: %w", err)
		}
		current[guid] = true
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close rows: %w", err)
	}

	for guid := range current {
		if seen.Has(guid) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM seen_items WHERE feed_url = ? AND guid = ?`, url, guid,
		); err != nil {
			return fmt.Errorf("delete seen item: %w", err)
		}
	}

	for _, guid := range seen.IDs() {
		if current[guid] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seen_items (feed_url, guid) VALUES (?, ?)`, url, guid,
		); err != nil {
			return fmt.Errorf("insert seen item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
