// Package sqlite implements the connection log on SQLite.
//
// Records live in an append-only table ordered by an autoincrement sequence,
// so replay returns them in the order they were accepted.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"netwatch/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed connection log
type Repository struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at dbPath and migrates the schema
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", domain.ErrStoreIO, err)
	}
	// A single connection keeps ":memory:" databases and sequence order stable
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db, path: dbPath}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to migrate database: %w", domain.ErrStoreIO, err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connection_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		address_a TEXT NOT NULL,
		address_b TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_connection_log_pair ON connection_log(address_a, address_b);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Location returns the database path
func (r *Repository) Location() string {
	return r.path
}

// Append inserts one record
func (r *Repository) Append(ctx context.Context, a, b string) error {
	if a == "" || b == "" {
		return fmt.Errorf("%w: %q,%q", domain.ErrMalformedRecord, a, b)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO connection_log (address_a, address_b) VALUES (?, ?)
	`, a, b)
	if err != nil {
		return fmt.Errorf("%w: failed to insert record: %w", domain.ErrStoreIO, err)
	}
	return nil
}

// Records returns every record in append order. Rows with an empty
// address are skipped.
func (r *Repository) Records(ctx context.Context) ([]domain.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address_a, address_b FROM connection_log ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query records: %w", domain.ErrStoreIO, err)
	}
	defer rows.Close()

	var records []domain.Edge
	for rows.Next() {
		var a, b sql.NullString
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("%w: failed to scan record: %w", domain.ErrStoreIO, err)
		}
		if nullToString(a) == "" || nullToString(b) == "" {
			log.Printf("sqlite: skipping malformed record in %s", r.path)
			continue
		}
		records = append(records, domain.NewEdge(a.String, b.String))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating records: %w", domain.ErrStoreIO, err)
	}
	return records, nil
}

// Replay feeds every record to sink in append order. Rows are read fully
// before the sink runs so the sink may use the database itself.
func (r *Repository) Replay(ctx context.Context, sink func(a, b string)) (int, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		sink(rec.A, rec.B)
	}
	return len(records), nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
