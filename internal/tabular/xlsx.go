package tabular

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxSource struct {
	file *excelize.File
	rows *excelize.Rows
}

func openXLSX(path string) (Source, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheets[0], err)
	}
	return &xlsxSource{file: file, rows: rows}, nil
}

func (s *xlsxSource) Headers() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, errors.New("source has no header row")
	}
	return s.rows.Columns()
}

func (s *xlsxSource) Next() ([]string, error) {
	if !s.rows.Next() {
		return nil, s.rows.Error()
	}
	return s.rows.Columns()
}

func (s *xlsxSource) Close() error {
	closeErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return closeErr
}
