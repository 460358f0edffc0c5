package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"boshamlan-scraper/models"
)

// CSVWriter appends raw (uncleaned) records to one flat CSV file, before any
// normalization touches them. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"category", "subcategory", "title", "price", "relative_date", "date_published",
		"description", "image_url", "link", "mobile_number", "views_number",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one feed's records. Absent fields render as empty cells.
func (c *CSVWriter) Write(category, subcategory string, records []*models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		row := []string{
			category,
			subcategory,
			deref(r.Title),
			deref(r.Price),
			deref(r.RelativeAge),
			deref(r.DatePublished),
			deref(r.Description),
			deref(r.ImageURL),
			deref(r.Permalink),
			deref(r.Contact),
			deref(r.ViewCount),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
