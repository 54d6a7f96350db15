package printing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lorry/internal/logging"
)

type fakeRunner struct {
	calls [][]string
	err   error
	out   string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return []byte(f.out), f.err
}

func testManager(runner commandRunner, printer string) *Manager {
	return &Manager{
		printer: printer,
		copies:  2,
		timeout: time.Second,
		runner:  runner,
		logger:  logging.NewNop(),
	}
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestPrintPDFInvokesLP(t *testing.T) {
	runner := &fakeRunner{}
	m := testManager(runner, "office-laser")
	path := writeDoc(t)

	if err := m.PrintPDF(context.Background(), path); err != nil {
		t.Fatalf("PrintPDF: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("lp invoked %d times, want 1", len(runner.calls))
	}
	call := runner.calls[0]
	want := []string{"lp", "-d", "office-laser", "-n", "2", path}
	for i, arg := range want {
		if call[i] != arg {
			t.Fatalf("lp args = %v, want %v", call, want)
		}
	}
}

func TestPrintPDFDryRun(t *testing.T) {
	runner := &fakeRunner{}
	m := testManager(runner, "dry-run")

	if err := m.PrintPDF(context.Background(), writeDoc(t)); err != nil {
		t.Fatalf("PrintPDF: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("dry-run printer must not invoke lp")
	}
}

func TestPrintPDFMissingDocument(t *testing.T) {
	m := testManager(&fakeRunner{}, "office-laser")
	if err := m.PrintPDF(context.Background(), filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestPrintPDFSurfacesLPFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), out: "lp: no default destination"}
	m := testManager(runner, "office-laser")

	err := m.PrintPDF(context.Background(), writeDoc(t))
	if err == nil {
		t.Fatal("expected lp failure to surface")
	}
}
