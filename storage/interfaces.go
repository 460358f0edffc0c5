package storage

import "boshamlan-scraper/models"

// RecordWriter is the interface any flat record sink must satisfy. Records
// arrive grouped by the feed they were harvested from.
type RecordWriter interface {
	Write(category, subcategory string, records []*models.Record) error
	Close() error
}

// SubcategoryRecords pairs a subcategory name with its records, one workbook
// sheet's worth of data.
type SubcategoryRecords struct {
	Subcategory string
	Records     []*models.Record
}

// deref renders an optional field for sinks that have no null representation.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
