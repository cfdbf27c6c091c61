package docdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// Store implements capability.DocumentDBPort over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens the configured database and ensures the documents table
// exists. For SQLite, only one connection is ever opened — SQLite allows
// a single writer at a time, and serializing access through one
// connection avoids "database is locked" errors under concurrent tool
// calls.
func New(cfg Config) (*Store, error) {
	driverName := cfg.DriverName()
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "docdb: open database", err)
	}

	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		}
		if cfg.MaxIdle > 0 {
			db.SetMaxIdleConns(cfg.MaxIdle)
		}
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.KindTransient, "docdb: connect", err)
	}

	if driverName == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			slog.Warn("docdb: enable WAL mode failed", "error", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
			slog.Warn("docdb: set busy_timeout failed", "error", err)
		}
	}

	return newFromDB(ctx, db, driverName)
}

// NewFromDSN opens driver/dsn directly, bypassing Config's structured
// host/port/database fields — used by the composition root, which
// models database connectivity as a single flat driver+DSN pair
// (spec §6) shared between the DocumentDBPort and the Search Index
// Manager's SQLLibrary fallback.
func NewFromDSN(driver, dsn string) (*Store, error) {
	driverName := driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "docdb: open database", err)
	}
	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.KindTransient, "docdb: connect", err)
	}
	return newFromDB(ctx, db, driverName)
}

func newFromDB(ctx context.Context, db *sql.DB, driverName string) (*Store, error) {
	if driverName == "sqlite3" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			slog.Warn("docdb: enable WAL mode failed", "error", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=10000"); err != nil {
			slog.Warn("docdb: set busy_timeout failed", "error", err)
		}
	}

	s := &Store{db: db, driver: driverName}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	textType := "TEXT"
	if s.driver == "mysql" {
		textType = "LONGTEXT"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS brand_documents (
		brand_id   VARCHAR(255) NOT NULL,
		id         VARCHAR(255) NOT NULL,
		content    %s NOT NULL,
		metadata   %s NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (brand_id, id)
	)`, textType, textType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return apperr.Wrap(apperr.KindInternal, "docdb: create schema", err)
	}
	return nil
}

func (s *Store) placeholder(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// InsertDocument stores or replaces one row of a brand's document corpus.
func (s *Store) InsertDocument(ctx context.Context, brandID string, doc capability.DocumentRow) error {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "docdb: marshal metadata", err)
	}

	var query string
	switch s.driver {
	case "postgres":
		query = `INSERT INTO brand_documents (brand_id, id, content, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (brand_id, id) DO UPDATE SET content = $3, metadata = $4`
	case "mysql":
		query = `INSERT INTO brand_documents (brand_id, id, content, metadata, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE content = VALUES(content), metadata = VALUES(metadata)`
	default: // sqlite3
		query = `INSERT INTO brand_documents (brand_id, id, content, metadata, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (brand_id, id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata`
	}

	if _, err := s.db.ExecContext(ctx, query, brandID, doc.ID, doc.Content, string(metaJSON), time.Now().UTC()); err != nil {
		return apperr.Wrap(apperr.KindTransient, "docdb: insert document", err)
	}
	return nil
}

// QueryDocuments returns up to limit rows for brandID whose metadata is a
// superset of filter. Filtering happens in-process rather than via
// dialect-specific JSON operators, keeping one query path portable across
// all three drivers; corpora are small enough per brand (spec's document
// corpus is brand-scoped, not global) for this to stay cheap.
func (s *Store) QueryDocuments(ctx context.Context, brandID string, filter map[string]any, limit int) ([]capability.DocumentRow, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, content, metadata FROM brand_documents WHERE brand_id = %s", s.placeholder(1)),
		brandID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "docdb: query documents", err)
	}
	defer rows.Close()

	var out []capability.DocumentRow
	for rows.Next() {
		var row capability.DocumentRow
		var metaJSON string
		if err := rows.Scan(&row.ID, &row.Content, &metaJSON); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "docdb: scan row", err)
		}
		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "docdb: unmarshal metadata", err)
		}
		row.Metadata = meta

		if !matchesFilter(meta, filter) {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// DeleteDocument removes a single row.
func (s *Store) DeleteDocument(ctx context.Context, brandID string, id string) error {
	query := fmt.Sprintf("DELETE FROM brand_documents WHERE brand_id = %s AND id = %s", s.placeholder(1), s.placeholder(2))
	if _, err := s.db.ExecContext(ctx, query, brandID, id); err != nil {
		return apperr.Wrap(apperr.KindTransient, "docdb: delete document", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection so other per-brand tables
// (e.g. the Search Index Manager's SQLLibrary fallback) can share it
// instead of opening a second pool against the same database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the configured driver name ("postgres", "mysql", or
// "sqlite3").
func (s *Store) Driver() string {
	return s.driver
}

var _ capability.DocumentDBPort = (*Store)(nil)
