// Package checkpoint persists ingestion progress so an interrupted run can
// resume without reprocessing rows. Progress is keyed by source path inside
// a single JSON document; every write replaces the whole document atomically
// (temp file + rename), so a cancelled run never leaves a torn checkpoint.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Progress records how far ingestion got through one source file.
type Progress struct {
	Path         string            `json:"path"`
	LastRow      int               `json:"last_row"`
	ValidCount   int               `json:"valid_count"`
	ErrorCount   int               `json:"error_count"`
	LastSequence uint64            `json:"last_sequence"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type document struct {
	Version int                 `json:"version"`
	Files   map[string]Progress `json:"files"`
}

const documentVersion = 1

// Store reads and writes the checkpoint document.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore constructs a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save overwrites the progress entry for p.Path.
func (s *Store) Save(p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	doc.Files[p.Path] = p
	return s.write(doc)
}

// Load returns the progress entry for sourcePath, or nil when none exists.
// Entries for other paths are ignored, never resumed from.
func (s *Store) Load(sourcePath string) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	p, ok := doc.Files[sourcePath]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Clear removes the progress entry for sourcePath. Clearing a path with no
// entry is not an error.
func (s *Store) Clear(sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Files[sourcePath]; !ok {
		return nil
	}
	delete(doc.Files, sourcePath)
	return s.write(doc)
}

func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{Version: documentVersion, Files: map[string]Progress{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if doc.Files == nil {
		doc.Files = map[string]Progress{}
	}
	return &doc, nil
}

func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
