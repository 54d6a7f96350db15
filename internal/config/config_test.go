package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
watch_dir = "` + filepath.Join(dir, "in") + `"
output_dir = "` + filepath.Join(dir, "out") + `"
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[watch]
stabilization_seconds = 1

[database]
retry_attempts = 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Database.RetryAttempts != 7 {
		t.Fatalf("RetryAttempts = %d, want 7", cfg.Database.RetryAttempts)
	}
	if cfg.Watch.StabilizationSeconds != 1 {
		t.Fatalf("StabilizationSeconds = %d, want 1", cfg.Watch.StabilizationSeconds)
	}
	// Defaults fill sections the file omits.
	if cfg.Processing.ChunkSize != defaultChunkSize {
		t.Fatalf("ChunkSize = %d, want default %d", cfg.Processing.ChunkSize, defaultChunkSize)
	}
	if len(cfg.Mapping.Columns) == 0 {
		t.Fatal("expected default column mapping")
	}
}

func TestValidateRejectsUnmappedNaturalKey(t *testing.T) {
	cfg := Default()
	cfg.Mapping.NaturalKey = "shipment_id"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for unmapped natural key")
	}
	if !strings.Contains(err.Error(), "natural_key") {
		t.Fatalf("error should mention natural_key, got %v", err)
	}
}

func TestValidateRejectsUnknownColumnType(t *testing.T) {
	cfg := Default()
	cfg.Mapping.Columns[0].Type = "decimal"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown column type")
	}
}

func TestValidateRejectsDuplicateFields(t *testing.T) {
	cfg := Default()
	cfg.Mapping.Columns = append(cfg.Mapping.Columns, Column{Source: "Other", Field: "invoice_number", Type: "string"})
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for duplicate field")
	}
}

func TestValidatePrintRequiresPrinterName(t *testing.T) {
	cfg := Default()
	cfg.Print.Enabled = true
	cfg.Print.PrinterName = " "
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when printing enabled without printer name")
	}
}

func TestRequiredFields(t *testing.T) {
	cfg := Default()
	fields := cfg.RequiredFields()
	want := map[string]bool{
		"invoice_number": true,
		"date":           true,
		"consignor_name": true,
		"consignee_name": true,
		"destination":    true,
	}
	if len(fields) != len(want) {
		t.Fatalf("RequiredFields = %v, want %d entries", fields, len(want))
	}
	for _, f := range fields {
		if !want[f] {
			t.Fatalf("unexpected required field %q", f)
		}
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
