// Package store is the structured-store boundary the rehydration
// engine talks to: project, work-item, and agent documents keyed by a
// stable UUID, backed by SQLite.
//
// The engine only needs create and read operations; there is no update
// or delete surface. The files remain the source of truth — this store
// is the external system records are rehydrated into and out of.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// busyTimeoutMs is how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
const busyTimeoutMs = 10000

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Open opens (creating if needed) a store database at path and ensures
// the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path, busyTimeoutMs)

	db, openErr := sql.Open("sqlite", dsn)
	if openErr != nil {
		return nil, fmt.Errorf("opening store: %w", openErr)
	}

	pingErr := db.PingContext(ctx)
	if pingErr != nil {
		_ = db.Close()

		return nil, fmt.Errorf("opening store: %w", pingErr)
	}

	schemaErr := ensureSchema(ctx, db)
	if schemaErr != nil {
		_ = db.Close()

		return nil, schemaErr
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, execErr := db.ExecContext(ctx, schemaSQL)
	if execErr != nil {
		return fmt.Errorf("creating schema: %w", execErr)
	}

	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS work_items (
    id               TEXT PRIMARY KEY,
    project_id       TEXT NOT NULL REFERENCES projects(id),
    record_id        TEXT NOT NULL,
    title            TEXT NOT NULL,
    item_type        TEXT NOT NULL,
    status           TEXT NOT NULL,
    priority         TEXT NOT NULL,
    functional_area  TEXT NOT NULL,
    parent_record_id TEXT NOT NULL DEFAULT '',
    depth            INTEGER NOT NULL DEFAULT 0,
    order_index      INTEGER NOT NULL DEFAULT 0,
    estimated_effort TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL,
    body             TEXT NOT NULL,
    snippets         TEXT NOT NULL DEFAULT '[]',
    UNIQUE (project_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_work_items_project ON work_items(project_id);
CREATE INDEX IF NOT EXISTS idx_work_items_parent  ON work_items(project_id, parent_record_id);

CREATE TABLE IF NOT EXISTS agents (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL REFERENCES projects(id),
    record_id   TEXT NOT NULL,
    name        TEXT NOT NULL,
    order_index INTEGER NOT NULL DEFAULT 0,
    body        TEXT NOT NULL,
    snippets    TEXT NOT NULL DEFAULT '[]',
    UNIQUE (project_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_agents_project ON agents(project_id);
`

// Project is a project document.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// WorkItem is a work-item document. RecordID is the file-level id; ID
// is the store's stable UUID key.
type WorkItem struct {
	ID              string
	ProjectID       string
	RecordID        string
	Title           string
	Type            string
	Status          string
	Priority        string
	FunctionalArea  string
	ParentRecordID  string
	Depth           int
	OrderIndex      int
	EstimatedEffort string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Body is the rendered body text with snippet placeholders;
	// Snippets is the JSON-encoded snippet list whose ids the
	// placeholders reference.
	Body     string
	Snippets string
}

// Agent is an agent document. Agents carry an order-index sentinel so
// they sort after ordinary work items.
type Agent struct {
	ID         string
	ProjectID  string
	RecordID   string
	Name       string
	OrderIndex int
	Body       string
	Snippets   string
}
