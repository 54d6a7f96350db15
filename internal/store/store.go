// Package store persists validated lorry-receipt records in SQLite. Rows
// are keyed by the generated identifier but carry a UNIQUE constraint on the
// configured natural key; flushing the same natural key twice updates the
// existing row in place.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/record"
)

const (
	idColumn        = "lr_id"
	createdAtColumn = "created_at"
)

// Field is one canonical record field persisted as a table column.
type Field struct {
	Name string
	Kind record.Kind
}

// execer starts the transactions batch flushes run inside. *sql.DB satisfies
// it; tests substitute an implementation that injects failures.
type execer interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store manages record persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	exec   execer
	path   string
	table  string
	key    string
	fields []Field

	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open initializes or connects to the record database described by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	fields, err := fieldsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !identifierPattern.MatchString(cfg.Database.TableName) {
		return nil, fmt.Errorf("database.table_name %q is not a valid identifier", cfg.Database.TableName)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:            db,
		exec:          db,
		path:          dbPath,
		table:         cfg.Database.TableName,
		key:           cfg.Mapping.NaturalKey,
		fields:        fields,
		retryAttempts: cfg.Database.RetryAttempts,
		retryDelay:    time.Duration(cfg.Database.RetryDelaySeconds) * time.Second,
		logger:        logger.With(logging.String("component", "store")),
	}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func fieldsFromConfig(cfg *config.Config) ([]Field, error) {
	fields := make([]Field, 0, len(cfg.Mapping.Columns))
	for _, col := range cfg.Mapping.Columns {
		if !identifierPattern.MatchString(col.Field) {
			return nil, fmt.Errorf("mapping field %q is not a valid column identifier", col.Field)
		}
		if col.Field == idColumn || col.Field == createdAtColumn {
			return nil, fmt.Errorf("mapping field %q collides with a reserved column", col.Field)
		}
		kind, err := record.ParseKind(col.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: col.Field, Kind: kind})
	}
	return fields, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
