package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lorry/internal/logging"
	"lorry/internal/record"
)

const sqliteBusyCode = 5

// isTransient reports whether a flush failure is worth retrying: lock
// contention and busy-database conditions, not constraint or schema errors.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "disk I/O error")
}

// Insert buffers records and flushes them in groups of batchSize using
// idempotent upserts on the natural key. Each batch commits atomically; a
// failed batch is retried in full with a fixed delay between attempts, and
// exhausting the attempt budget returns the last error.
func (s *Store) Insert(ctx context.Context, records []*record.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(records)
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.flushWithRetry(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) flushWithRetry(ctx context.Context, batch []*record.Record) error {
	var lastErr error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		lastErr = s.flush(ctx, batch)
		if lastErr == nil {
			if attempt > 1 {
				s.logger.Info("batch flush recovered after retry",
					logging.Int("attempt", attempt),
					logging.Int("batch_size", len(batch)),
				)
			}
			return nil
		}
		if !isTransient(lastErr) || attempt == s.retryAttempts {
			break
		}
		s.logger.Warn("batch flush failed, retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", s.retryAttempts),
			logging.Int("batch_size", len(batch)),
			logging.Error(lastErr),
		)
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("flush batch of %d: %w", len(batch), lastErr)
}

// flush writes one batch inside a single transaction. Either every record in
// the batch commits or none do.
func (s *Store) flush(ctx context.Context, batch []*record.Record) error {
	tx, err := s.exec.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.upsertSQL())
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		args := make([]any, 0, len(s.fields)+1)
		args = append(args, rec.ID)
		for _, f := range s.fields {
			value, _ := rec.Get(f.Name)
			args = append(args, value.Interface())
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert row %d: %w", rec.Row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *Store) upsertSQL() string {
	columns := make([]string, 0, len(s.fields)+1)
	columns = append(columns, idColumn)
	for _, f := range s.fields {
		columns = append(columns, f.Name)
	}

	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == s.key {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		s.table,
		strings.Join(columns, ", "),
		strings.TrimRight(strings.Repeat("?, ", len(columns)), ", "),
		s.key,
		strings.Join(updates, ", "),
	)
}
