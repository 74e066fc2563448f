package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite index of exported documentation trees.
type Store struct {
	db   *sql.DB
	path string

	roOnce sync.Once
	ro     *sql.DB
	roErr  error
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.ro != nil {
		s.ro.Close()
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS exports (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL UNIQUE,
  root            TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
  id              INTEGER PRIMARY KEY,
  export_id       INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
  parent_id       INTEGER REFERENCES modules(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  path            TEXT NOT NULL,
  url             TEXT NOT NULL,
  docstring       TEXT
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  export_id       INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
  module_id       INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  path            TEXT NOT NULL,
  full_path       TEXT,
  name            TEXT NOT NULL,
  url             TEXT NOT NULL,
  docstring       TEXT,
  UNIQUE (export_id, path)
);

CREATE TABLE IF NOT EXISTS entities (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  parent_id       INTEGER REFERENCES entities(id) ON DELETE CASCADE,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  qualname        TEXT NOT NULL,
  visibility      TEXT NOT NULL,
  code            TEXT NOT NULL,
  docstring       TEXT,
  annotation      TEXT,
  value           TEXT,
  returns         TEXT,
  async           BOOLEAN DEFAULT FALSE,
  signature_hash  TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS arguments (
  id              INTEGER PRIMARY KEY,
  entity_id       INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  annotation      TEXT,
  has_default     BOOLEAN DEFAULT FALSE,
  default_value   TEXT
);

CREATE TABLE IF NOT EXISTS imports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  module          TEXT,
  names           TEXT NOT NULL,
  level           INTEGER NOT NULL,
  code            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_modules_export ON modules(export_id);
CREATE INDEX IF NOT EXISTS idx_files_export ON files(export_id);
CREATE INDEX IF NOT EXISTS idx_files_module ON files(module_id);
CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(file_id);
CREATE INDEX IF NOT EXISTS idx_entities_parent ON entities(parent_id);
CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);
CREATE INDEX IF NOT EXISTS idx_arguments_entity ON arguments(entity_id);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_module ON imports(module);
`

// DeleteExport removes an export and every row that belongs to it.
func (s *Store) DeleteExport(exportID int64) error {
	res, err := s.db.Exec("DELETE FROM exports WHERE id = ?", exportID)
	if err != nil {
		return fmt.Errorf("store: delete export %d: %w", exportID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: delete export %d: %w", exportID, ErrNotFound)
	}
	return nil
}
