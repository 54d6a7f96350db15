package testsupport

import (
	"path/filepath"
	"testing"

	"lorry/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The mapping is trimmed to a compact manifest so fixtures stay short.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "inbox")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Mapping = config.Mapping{
		NaturalKey: "invoice_number",
		Columns: []config.Column{
			{Source: "Invoice No", Field: "invoice_number", Type: "string", Required: true},
			{Source: "Consignor", Field: "consignor_name", Type: "string", Required: true},
			{Source: "Weight", Field: "weight", Type: "float"},
		},
	}
	cfg.LRID.BranchCode = "BLR"
	cfg.Database.RetryDelaySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMapping replaces the column mapping on the test config.
func WithMapping(m config.Mapping) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Mapping = m
	}
}

// WithStabilization sets the watcher stabilization interval in seconds.
func WithStabilization(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watch.StabilizationSeconds = seconds
	}
}

// WithDeleteAfterProcessing enables source deletion after successful runs.
func WithDeleteAfterProcessing() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watch.DeleteAfterProcessing = true
	}
}
