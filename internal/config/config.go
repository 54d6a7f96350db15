package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchDir  string `toml:"watch_dir"`
	OutputDir string `toml:"output_dir"`
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
}

// Watch contains configuration for the directory watcher.
type Watch struct {
	Patterns              []string `toml:"patterns"`
	IgnorePatterns        []string `toml:"ignore_patterns"`
	StabilizationSeconds  int      `toml:"stabilization_seconds"`
	DeleteAfterProcessing bool     `toml:"delete_after_processing"`
}

// Processing contains pipeline sizing and checkpoint cadence.
type Processing struct {
	ChunkSize          int `toml:"chunk_size"`
	CheckpointInterval int `toml:"checkpoint_interval"`
	RenderBatchSize    int `toml:"render_batch_size"`
}

// Database contains configuration for the record store.
type Database struct {
	TableName         string `toml:"table_name"`
	BatchSize         int    `toml:"batch_size"`
	RetryAttempts     int    `toml:"retry_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// Column maps one source spreadsheet column to a canonical record field.
type Column struct {
	Source   string `toml:"source"`
	Field    string `toml:"field"`
	Type     string `toml:"type"`
	Required bool   `toml:"required"`
}

// Mapping describes the configured column mapping and the natural key that
// the store upserts on.
type Mapping struct {
	NaturalKey string   `toml:"natural_key"`
	Columns    []Column `toml:"columns"`
}

// LRID contains configuration for lorry-receipt identifier generation.
type LRID struct {
	Pattern       string `toml:"pattern"`
	BranchCode    string `toml:"branch_code"`
	SequenceWidth int    `toml:"sequence_width"`
}

// Render contains configuration for the printable document.
type Render struct {
	CompanyName  string `toml:"company_name"`
	ItemsPerPage int    `toml:"items_per_page"`
}

// Print contains configuration for sending finished documents to a printer.
type Print struct {
	Enabled        bool   `toml:"enabled"`
	PrinterName    string `toml:"printer_name"`
	Copies         int    `toml:"copies"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lorry.
//
// Configuration sections by subsystem:
//   - Paths: watch, output, data, and log directories
//   - Watch: file patterns and stabilization behavior
//   - Processing: chunk size, checkpoint cadence, render batching
//   - Database: record store batching and retry policy
//   - Mapping: source column to canonical field mapping + natural key
//   - LRID: identifier pattern and branch code
//   - Render: printable document layout
//   - Print: printer dispatch
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Watch      Watch      `toml:"watch"`
	Processing Processing `toml:"processing"`
	Database   Database   `toml:"database"`
	Mapping    Mapping    `toml:"mapping"`
	LRID       LRID       `toml:"lrid"`
	Render     Render     `toml:"render"`
	Print      Print      `toml:"print"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lorry/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, statErr := os.Stat(expanded)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return expanded, false, fmt.Errorf("config file not found: %s", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", statErr)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path is a directory: %s", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, statErr := os.Stat(defaultPath); statErr == nil {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists: %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories lorry writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WatchDir, c.Paths.OutputDir, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "lorry.db")
}

// CheckpointPath returns the checkpoint document location.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.Paths.DataDir, "checkpoint.json")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "lorry.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "lorry.log")
}

// RequiredFields returns the canonical names of fields marked required.
func (c *Config) RequiredFields() []string {
	fields := make([]string, 0, len(c.Mapping.Columns))
	for _, col := range c.Mapping.Columns {
		if col.Required {
			fields = append(fields, col.Field)
		}
	}
	return fields
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
