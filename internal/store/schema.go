package store

import (
	"context"
	"fmt"
	"strings"

	"lorry/internal/record"
)

// schemaVersion is bumped when the generated table layout changes shape.
const schemaVersion = 1

func sqlType(kind record.Kind) string {
	switch kind {
	case record.KindInteger:
		return "INTEGER"
	case record.KindFloat:
		return "REAL"
	default:
		// Dates and times serialize as ISO strings.
		return "TEXT"
	}
}

func (s *Store) schemaSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	fmt.Fprintf(&b, "    %s TEXT PRIMARY KEY,\n", idColumn)
	for _, f := range s.fields {
		constraint := ""
		if f.Name == s.key {
			constraint = " NOT NULL UNIQUE"
		}
		fmt.Fprintf(&b, "    %s %s%s,\n", f.Name, sqlType(f.Kind), constraint)
	}
	fmt.Fprintf(&b, "    %s TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now'))\n", createdAtColumn)
	b.WriteString(");\n")
	return b.String()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("schema version mismatch: database has version %d, expected %d (delete %s to rebuild)",
			version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.schemaSQL()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
