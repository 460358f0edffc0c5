package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"boshamlan-scraper/models"
)

// PostgresWriter persists cleaned records to PostgreSQL. Writes append:
// successive daily harvests accumulate, with permalink collisions ignored so
// a listing seen on two runs is stored once.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id             SERIAL PRIMARY KEY,
			category       VARCHAR(50) NOT NULL,
			subcategory    TEXT        NOT NULL DEFAULT '',
			title          TEXT,
			price          TEXT,
			relative_date  TEXT,
			date_published TEXT,
			description    TEXT,
			image_url      TEXT,
			link           TEXT UNIQUE,
			mobile_number  TEXT,
			views_number   TEXT,
			harvested_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_records_category     ON records(category);
		CREATE INDEX IF NOT EXISTS idx_records_harvested_at ON records(harvested_at);
	`)
	return err
}

// Write batch-inserts one feed's records. Already-stored permalinks are
// skipped silently.
func (pw *PostgresWriter) Write(category, subcategory string, records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(category, subcategory, records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(category, subcategory string, batch []*models.Record) error {
	const cols = 11
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			category, subcategory,
			r.Title, r.Price, r.RelativeAge, r.DatePublished,
			r.Description, r.ImageURL, r.Permalink, r.Contact, r.ViewCount)
	}

	query := fmt.Sprintf(`
		INSERT INTO records (category, subcategory, title, price, relative_date,
		                     date_published, description, image_url, link,
		                     mobile_number, views_number)
		VALUES %s
		ON CONFLICT (link) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Count returns the total number of stored records.
func (pw *PostgresWriter) Count() (int64, error) {
	var n int64
	if err := pw.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
