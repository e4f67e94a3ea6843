// Package csvsource reads observation tables from CSV files.
//
// The first row is a header. Column names are matched case-insensitively;
// utm_easting and utm_northing must be present, date, sex, and age are
// optional. Missing or unparsable coordinate cells become NaN so the
// validation stage can drop them uniformly.
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tarandus/obsmap/internal/domain"
)

const (
	columnEasting  = "utm_easting"
	columnNorthing = "utm_northing"
	columnDate     = "date"
	columnSex      = "sex"
	columnAge      = "age"
)

// FileReader loads a whole observation CSV from disk.
type FileReader struct {
	path   string
	logger *slog.Logger
}

// NewFileReader creates a reader for the table at path.
func NewFileReader(path string, logger *slog.Logger) *FileReader {
	return &FileReader{path: path, logger: logger}
}

// ReadAll opens the file and parses every row.
func (r *FileReader) ReadAll(_ context.Context) ([]domain.ObservationRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open observation table: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	r.logger.Info("loaded observation table", "path", r.path, "rows", len(records))
	return records, nil
}

// Parse reads a headered observation CSV into records.
func Parse(r io.Reader) ([]domain.ObservationRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{columnEasting, columnNorthing} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var records []domain.ObservationRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		records = append(records, domain.ObservationRecord{
			Easting:  cell(row, columns, columnEasting),
			Northing: cell(row, columns, columnNorthing),
			Date:     text(row, columns, columnDate),
			Sex:      text(row, columns, columnSex),
			Age:      text(row, columns, columnAge),
		})
	}
}

func cell(row []string, columns map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(text(row, columns, name), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func text(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
