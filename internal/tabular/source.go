package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source is a raw tabular file: one header row followed by data rows.
type Source interface {
	// Headers returns the header row. Must be called before Next.
	Headers() ([]string, error)
	// Next returns the next data row, or nil once the source is exhausted.
	Next() ([]string, error)
	Close() error
}

// Open selects a source implementation by file extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".xlsx", ".xls", ".xlsm":
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported source format %q", filepath.Ext(path))
	}
}
