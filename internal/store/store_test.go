package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/record"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = base
	cfg.Paths.OutputDir = base
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = base
	cfg.Database.RetryAttempts = 2
	cfg.Database.RetryDelaySeconds = 0
	return &cfg
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(testConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeRecord(row int, id, invoice string, weight float64) *record.Record {
	rec := record.New(row, 7)
	rec.ID = id
	rec.Set("invoice_number", record.StringValue(invoice))
	rec.Set("date", record.DateValue(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	rec.Set("consignor_name", record.StringValue("Acme"))
	rec.Set("consignee_name", record.StringValue("Globex"))
	rec.Set("weight", record.FloatValue(weight))
	rec.Set("packages", record.IntValue(3))
	rec.Set("destination", record.StringValue("Pune"))
	return rec
}

func TestInsertAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []*record.Record{
		makeRecord(0, "LR-0001", "INV-1", 10),
		makeRecord(1, "LR-0002", "INV-2", 20),
		makeRecord(2, "LR-0003", "INV-3", 30),
	}
	if err := s.Insert(ctx, records, 2); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("Count = %d, want 3", count)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []*record.Record{makeRecord(0, "LR-0001", "INV-1", 10)}
	if err := s.Insert(ctx, first, 10); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	// Same natural key, new identifier and values.
	second := []*record.Record{makeRecord(0, "LR-0099", "INV-1", 42)}
	if err := s.Insert(ctx, second, 10); err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count after re-ingest = %d, want 1", count)
	}

	row, err := s.Lookup(ctx, "INV-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row == nil || row.ID != "LR-0099" {
		t.Fatalf("Lookup = %+v, want updated identifier LR-0099", row)
	}
}

func TestInsertRejectsNullNaturalKey(t *testing.T) {
	s := openTestStore(t)
	rec := makeRecord(0, "LR-0001", "INV-1", 10)
	rec.Set("invoice_number", record.NullValue(record.KindString))

	err := s.Insert(context.Background(), []*record.Record{rec}, 10)
	if err == nil {
		t.Fatal("expected constraint error for null natural key")
	}
	if isTransient(err) {
		t.Fatal("constraint violation must not be classified transient")
	}
}

func TestRecentOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []*record.Record{
		makeRecord(0, "LR-0001", "INV-1", 10),
		makeRecord(1, "LR-0002", "INV-2", 20),
	}
	if err := s.Insert(ctx, records, 10); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent = %d rows, want 2", len(recent))
	}
	if recent[0].ID != "LR-0002" {
		t.Fatalf("newest first: got %q", recent[0].ID)
	}
}

// faultyExecer fails BeginTx a fixed number of times with a lock error, then
// delegates to the real database.
type faultyExecer struct {
	db       *sql.DB
	failures int
	calls    int
}

func (f *faultyExecer) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("database is locked (5) (SQLITE_BUSY)")
	}
	return f.db.BeginTx(ctx, opts)
}

func TestInsertRecoversFromTransientFailure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	faulty := &faultyExecer{db: s.db, failures: 1}
	s.exec = faulty

	records := []*record.Record{
		makeRecord(0, "LR-0001", "INV-1", 10),
		makeRecord(1, "LR-0002", "INV-2", 20),
	}
	if err := s.Insert(ctx, records, 10); err != nil {
		t.Fatalf("Insert should recover within the retry budget: %v", err)
	}
	if faulty.calls != 2 {
		t.Fatalf("BeginTx called %d times, want 2", faulty.calls)
	}

	// The failed attempt never opened a transaction, so the retry persists
	// each record exactly once.
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}
}

func TestInsertExhaustsRetryBudget(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	faulty := &faultyExecer{db: s.db, failures: 10}
	s.exec = faulty

	records := []*record.Record{makeRecord(0, "LR-0001", "INV-1", 10)}
	err := s.Insert(ctx, records, 10)
	if err == nil {
		t.Fatal("expected error once every attempt fails")
	}
	if !strings.Contains(err.Error(), "flush batch of 1") {
		t.Fatalf("error = %v, want batch flush failure", err)
	}
	if faulty.calls != s.retryAttempts {
		t.Fatalf("BeginTx called %d times, want %d", faulty.calls, s.retryAttempts)
	}

	count, countErr := s.Count(ctx)
	if countErr != nil {
		t.Fatalf("Count: %v", countErr)
	}
	if count != 0 {
		t.Fatalf("Count = %d after exhausted retries, want 0", count)
	}
}

func TestOpenRejectsReservedFieldName(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mapping.Columns = append(cfg.Mapping.Columns, config.Column{Source: "Created", Field: "created_at", Type: "string"})
	if _, err := Open(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for reserved column name")
	}
}

func TestOpenRejectsBadIdentifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.TableName = "lr records; drop table"
	if _, err := Open(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for invalid table identifier")
	}
}

func TestIsTransient(t *testing.T) {
	if !isTransient(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("busy error should be transient")
	}
	if isTransient(fmt.Errorf("upsert row 3: %w", errors.New("NOT NULL constraint failed"))) {
		t.Error("constraint error should not be transient")
	}
	if isTransient(nil) {
		t.Error("nil is not transient")
	}
}

func TestUpsertSQLShape(t *testing.T) {
	s := openTestStore(t)
	query := s.upsertSQL()
	if !strings.Contains(query, "ON CONFLICT(invoice_number) DO UPDATE SET") {
		t.Fatalf("upsert SQL missing conflict clause: %s", query)
	}
	if strings.Contains(query, "invoice_number = excluded.invoice_number") {
		t.Fatalf("natural key must not be updated: %s", query)
	}
	if !strings.Contains(query, "lr_id = excluded.lr_id") {
		t.Fatalf("identifier should be overwritten on conflict: %s", query)
	}
}
