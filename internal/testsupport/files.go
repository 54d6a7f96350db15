package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// GrowFile writes path as a series of appends with a pause between them,
// simulating a spreadsheet still being copied into the watch directory. It
// blocks until the last append lands and returns the total size written.
func GrowFile(t testing.TB, path string, chunk []byte, appends int, pause time.Duration) int64 {
	t.Helper()

	if appends <= 0 {
		appends = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	var written int64
	for i := 0; i < appends; i++ {
		if i > 0 {
			time.Sleep(pause)
		}
		n, err := f.Write(chunk)
		if err != nil {
			t.Fatalf("append to %s: %v", path, err)
		}
		written += int64(n)
	}
	return written
}
