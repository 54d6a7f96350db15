package validate

import (
	"testing"
	"time"

	"lorry/internal/record"
)

func TestCheckValidRecord(t *testing.T) {
	v := New([]string{"invoice_number", "date"})
	rec := record.New(0, 2)
	rec.Set("invoice_number", record.StringValue("INV-1"))
	rec.Set("date", record.DateValue(time.Now()))

	if violations := v.Check(rec); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestCheckReportsEachMissingField(t *testing.T) {
	v := New([]string{"invoice_number", "date", "destination"})
	rec := record.New(0, 3)
	rec.Set("invoice_number", record.StringValue("  ")) // blank counts as missing
	rec.Set("date", record.NullValue(record.KindDate))

	violations := v.Check(rec)
	if len(violations) != 3 {
		t.Fatalf("got %d violations, want 3: %v", len(violations), violations)
	}
}

func TestCheckIgnoresOptionalFields(t *testing.T) {
	v := New([]string{"invoice_number"})
	rec := record.New(0, 2)
	rec.Set("invoice_number", record.StringValue("INV-1"))
	rec.Set("weight", record.NullValue(record.KindFloat))

	if violations := v.Check(rec); len(violations) != 0 {
		t.Fatalf("optional null field should not violate, got %v", violations)
	}
}
