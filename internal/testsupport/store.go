package testsupport

import (
	"testing"

	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/store"
)

// MustOpenStore opens a record store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
