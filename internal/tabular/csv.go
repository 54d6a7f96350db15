package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

type csvSource struct {
	file   *os.File
	reader *csv.Reader
}

func openCSV(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(file)
	// Exports are frequently ragged; column resolution handles short rows.
	reader.FieldsPerRecord = -1
	return &csvSource{file: file, reader: reader}, nil
}

func (s *csvSource) Headers() ([]string, error) {
	row, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("source has no header row")
	}
	return row, err
}

func (s *csvSource) Next() ([]string, error) {
	row, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return row, err
}

func (s *csvSource) Close() error {
	return s.file.Close()
}
