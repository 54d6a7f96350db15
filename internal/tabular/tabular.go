// Package tabular streams normalized, typed records out of spreadsheet-style
// sources. Column headers are normalized before matching the configured
// mapping, reads happen in fixed-size chunks, and records are yielded one at
// a time in source row order. A source missing any mapped column fails fast
// before a single record is produced.
package tabular

import (
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/record"
)

// Column is one entry of the column mapping.
type Column struct {
	Source   string
	Field    string
	Kind     record.Kind
	Required bool
}

// Mapping is the ordered, immutable column mapping for a run. Lookup keys
// are normalized source header names.
type Mapping struct {
	columns []Column
	byKey   map[string]int
}

// NewMapping builds a Mapping from configured columns.
func NewMapping(cols []config.Column) (Mapping, error) {
	m := Mapping{
		columns: make([]Column, 0, len(cols)),
		byKey:   make(map[string]int, len(cols)),
	}
	for _, col := range cols {
		kind, err := record.ParseKind(col.Type)
		if err != nil {
			return Mapping{}, fmt.Errorf("column %q: %w", col.Source, err)
		}
		key := NormalizeHeader(col.Source)
		if key == "" {
			return Mapping{}, fmt.Errorf("column mapping has empty source name for field %q", col.Field)
		}
		if _, dup := m.byKey[key]; dup {
			return Mapping{}, fmt.Errorf("column mapping has duplicate source %q", col.Source)
		}
		m.byKey[key] = len(m.columns)
		m.columns = append(m.columns, Column{
			Source:   col.Source,
			Field:    col.Field,
			Kind:     kind,
			Required: col.Required,
		})
	}
	return m, nil
}

// Columns returns the mapped columns in configuration order.
func (m Mapping) Columns() []Column { return m.columns }

// MissingColumnsError reports mapped source columns absent from a file's
// header row. The whole read is refused; no partial records are yielded.
type MissingColumnsError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	cols := append([]string(nil), e.Columns...)
	sort.Strings(cols)
	return fmt.Sprintf("source %s is missing mapped columns: %s", e.Path, strings.Join(cols, ", "))
}

// Reader streams records from tabular sources.
type Reader struct {
	mapping   Mapping
	chunkSize int
	logger    *slog.Logger
}

// NewReader constructs a Reader. chunkSize bounds how many raw rows are
// pulled from the source per I/O pass.
func NewReader(mapping Mapping, chunkSize int, logger *slog.Logger) *Reader {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reader{mapping: mapping, chunkSize: chunkSize, logger: logger}
}

// Stream opens path and yields one record per data row, starting at the
// zero-based data row startRow. Record.Row carries the source row index so
// callers can checkpoint progress. The sequence stops early if the caller
// breaks out; the source is closed either way.
func (r *Reader) Stream(path string, startRow int) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		src, err := Open(path)
		if err != nil {
			yield(nil, fmt.Errorf("open source: %w", err))
			return
		}
		defer src.Close()

		headers, err := src.Headers()
		if err != nil {
			yield(nil, fmt.Errorf("read header row: %w", err))
			return
		}

		positions, missing := r.resolveColumns(headers)
		if len(missing) > 0 {
			yield(nil, &MissingColumnsError{Path: path, Columns: missing})
			return
		}

		row := 0
		for {
			chunk, err := readChunk(src, r.chunkSize)
			if err != nil {
				yield(nil, fmt.Errorf("read rows: %w", err))
				return
			}
			if len(chunk) == 0 {
				return
			}
			for _, raw := range chunk {
				if row < startRow {
					row++
					continue
				}
				rec := r.buildRecord(path, row, raw, positions)
				if !yield(rec, nil) {
					return
				}
				row++
			}
		}
	}
}

// resolveColumns maps every configured column to its index in the header
// row, returning the source names of columns that could not be found.
func (r *Reader) resolveColumns(headers []string) ([]int, []string) {
	byKey := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := byKey[key]; !ok {
			byKey[key] = i
		}
	}

	positions := make([]int, len(r.mapping.columns))
	var missing []string
	for i, col := range r.mapping.columns {
		pos, ok := byKey[NormalizeHeader(col.Source)]
		if !ok {
			missing = append(missing, col.Source)
			positions[i] = -1
			continue
		}
		positions[i] = pos
	}
	return positions, missing
}

func (r *Reader) buildRecord(path string, row int, raw []string, positions []int) *record.Record {
	rec := record.New(row, len(r.mapping.columns))
	for i, col := range r.mapping.columns {
		var cell string
		if pos := positions[i]; pos >= 0 && pos < len(raw) {
			cell = raw[pos]
		}
		value, err := Coerce(cell, col.Kind)
		if err != nil {
			r.logger.Warn("field coercion failed, using default",
				logging.String("file", path),
				logging.Int("row", row),
				logging.String("field", col.Field),
				logging.String("type", col.Kind.String()),
				logging.Error(err),
			)
		}
		rec.Set(col.Field, value)
	}
	return rec
}

func readChunk(src Source, size int) ([][]string, error) {
	chunk := make([][]string, 0, size)
	for len(chunk) < size {
		row, err := src.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		chunk = append(chunk, row)
	}
	return chunk, nil
}
