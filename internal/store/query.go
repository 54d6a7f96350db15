package store

import (
	"context"
	"fmt"
)

// Row is a compact view of a persisted record used by the status surface.
type Row struct {
	ID         string
	NaturalKey string
	CreatedAt  string
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s", s.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Recent returns the most recently created records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s ORDER BY %s DESC, %s DESC LIMIT ?",
		idColumn, s.key, createdAtColumn, s.table, createdAtColumn, idColumn,
	)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.NaturalKey, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return result, nil
}

// Lookup returns the persisted row for a natural key, or nil when absent.
func (s *Store) Lookup(ctx context.Context, naturalKey string) (*Row, error) {
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE %s = ?",
		idColumn, s.key, createdAtColumn, s.table, s.key,
	)
	rows, err := s.db.QueryContext(ctx, query, naturalKey)
	if err != nil {
		return nil, fmt.Errorf("lookup record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var r Row
	if err := rows.Scan(&r.ID, &r.NaturalKey, &r.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &r, nil
}
