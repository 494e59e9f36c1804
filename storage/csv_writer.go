package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cian-scraper/models"
)

// csvHeader mirrors the ListingRecord attributes.
var csvHeader = []string{"price", "title", "rooms", "area", "address", "underground", "url"}

// CSVWriter writes listing records to a CSV file, replacing any previous
// contents. Absent values are written as empty cells.
type CSVWriter struct {
	path string
}

// NewCSVWriter prepares a writer for path. Nothing touches the disk until
// Write, so a failed run leaves the previous file in place.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the output file location.
func (c *CSVWriter) Path() string { return c.path }

// Write creates intermediate directories, truncates the file and writes the
// header followed by one row per record.
func (c *CSVWriter) Write(_ context.Context, records []*models.ListingRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// Close is a no-op; the file is closed at the end of every Write.
func (c *CSVWriter) Close() error { return nil }

func recordRow(r *models.ListingRecord) []string {
	row := []string{"", r.Title, "", "", r.Address, r.Underground, r.URL}
	if r.Price != nil {
		row[0] = strconv.FormatInt(*r.Price, 10)
	}
	if r.Rooms != nil {
		row[2] = strconv.Itoa(*r.Rooms)
	}
	if r.Area != nil {
		row[3] = strconv.FormatFloat(*r.Area, 'f', -1, 64)
	}
	return row
}
