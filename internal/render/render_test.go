package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lorry/internal/record"
)

func sampleRecord(row int, id string) *record.Record {
	rec := record.New(row, 4)
	rec.ID = id
	rec.Set("invoice_number", record.StringValue("INV-1"))
	rec.Set("date", record.DateValue(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	rec.Set("consignor_name", record.StringValue("Acme"))
	rec.Set("weight", record.FloatValue(12.5))
	return rec
}

func TestCreateDocumentWritesPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "batch.pdf")
	pdf := NewPDF("Acme Logistics", 2)

	records := []*record.Record{sampleRecord(0, "LR-0001"), sampleRecord(1, "LR-0002"), sampleRecord(2, "LR-0003")}
	if err := pdf.CreateDocument(records, out); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty pdf written")
	}
}

func TestAppendGrowsDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "batch.pdf")
	pdf := NewPDF("Acme Logistics", 2)

	if err := pdf.CreateDocument([]*record.Record{sampleRecord(0, "LR-0001")}, out); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	first, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	more := []*record.Record{sampleRecord(1, "LR-0002"), sampleRecord(2, "LR-0003"), sampleRecord(3, "LR-0004")}
	if err := pdf.AppendToDocument(more, out); err != nil {
		t.Fatalf("AppendToDocument: %v", err)
	}
	second, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if second.Size() <= first.Size() {
		t.Fatalf("append did not grow document: %d -> %d", first.Size(), second.Size())
	}
}

func TestAppendWithoutCreateFails(t *testing.T) {
	pdf := NewPDF("Acme", 2)
	err := pdf.AppendToDocument([]*record.Record{sampleRecord(0, "LR-0001")}, filepath.Join(t.TempDir(), "x.pdf"))
	if err == nil {
		t.Fatal("append before create should fail")
	}
}

func TestCreateDocumentRejectsEmptyBatch(t *testing.T) {
	pdf := NewPDF("Acme", 2)
	if err := pdf.CreateDocument(nil, "out.pdf"); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestFieldLabel(t *testing.T) {
	cases := map[string]string{
		"invoice_number": "Invoice Number",
		"consignor_name": "Consignor Name",
		"weight":         "Weight",
	}
	for in, want := range cases {
		if got := fieldLabel(in); got != want {
			t.Errorf("fieldLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
