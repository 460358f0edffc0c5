package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// priceRegexp captures numeric price values
var priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// Cleaner normalizes harvested records before they reach the writers. A
// record is never dropped for missing fields; only exact permalink
// duplicates are removed. Input records are copied, not mutated.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns records with text fields normalized and permalink duplicates
// removed, preserving input order.
func (c *Cleaner) Clean(records []*models.Record) []*models.Record {
	seen := utils.NewSeenSet()
	result := make([]*models.Record, 0, len(records))

	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Permalink != nil {
			link := strings.TrimSpace(*r.Permalink)
			if link != "" && !seen.Add(link) {
				c.logger.Debug("[cleaner] Duplicate permalink skipped: %s", link)
				continue
			}
		}
		result = append(result, normalizeRecord(r))
	}

	c.logger.Info("[cleaner] Cleaned %d → %d records (dropped %d duplicates)",
		len(records), len(result), len(records)-len(result))
	return result
}

func normalizeRecord(r *models.Record) *models.Record {
	clean := *r
	clean.Title = normalizeText(r.Title)
	clean.Price = normalizeText(r.Price)
	clean.RelativeAge = normalizeText(r.RelativeAge)
	clean.Description = normalizeText(r.Description)
	clean.Contact = normalizeText(r.Contact)
	clean.ViewCount = normalizeText(r.ViewCount)
	return &clean
}

// normalizeText collapses internal whitespace. Nil stays nil, and a value
// that normalizes to empty becomes nil.
func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	fields := strings.FieldsFunc(*s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	joined := strings.Join(fields, " ")
	if joined == "" {
		return nil
	}
	return &joined
}

// PriceValue extracts a numeric price from a record for analytics. Returns 0
// when no number parses.
func PriceValue(r *models.Record) float64 {
	if r.Price == nil {
		return 0
	}
	cleaned := strings.ReplaceAll(*r.Price, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

// ViewsValue extracts the numeric view count from a record. Returns -1 when
// the count is absent or unreadable.
func ViewsValue(r *models.Record) int {
	if r.ViewCount == nil {
		return -1
	}
	digits := strings.Map(func(ru rune) rune {
		if ru >= '0' && ru <= '9' {
			return ru
		}
		return -1
	}, *r.ViewCount)
	if digits == "" {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}
