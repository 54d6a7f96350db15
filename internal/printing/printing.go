// Package printing sends finished documents to a CUPS printer via lp.
// Printing is best-effort: the pipeline logs failures but does not fail a
// run over them.
package printing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"lorry/internal/config"
	"lorry/internal/logging"
)

// dryRunPrinter skips the actual lp invocation; useful on hosts without a
// configured print queue.
const dryRunPrinter = "dry-run"

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Manager submits print jobs.
type Manager struct {
	printer string
	copies  int
	timeout time.Duration
	runner  commandRunner
	logger  *slog.Logger
}

// NewManager constructs a Manager from configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		printer: strings.TrimSpace(cfg.Print.PrinterName),
		copies:  cfg.Print.Copies,
		timeout: time.Duration(cfg.Print.TimeoutSeconds) * time.Second,
		runner:  execCommandRunner{},
		logger:  logger.With(logging.String("component", "printing")),
	}
}

// PrintPDF submits path to the configured printer.
func (m *Manager) PrintPDF(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("document not found: %w", err)
	}
	if strings.EqualFold(m.printer, dryRunPrinter) {
		m.logger.Info("dry-run printer configured, skipping print", logging.String("file", path))
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	args := []string{"-d", m.printer, "-n", strconv.Itoa(m.copies), path}
	output, err := m.runner.Run(runCtx, "lp", args...)
	if err != nil {
		return fmt.Errorf("lp: %w: %s", err, strings.TrimSpace(string(output)))
	}
	m.logger.Info("document sent to printer",
		logging.String("file", path),
		logging.String("printer", m.printer),
		logging.Int("copies", m.copies),
	)
	return nil
}
