package boshamlan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// SubcategoryResult pairs one subcategory with its harvested records. Err is
// set when every attempt at the feed failed; Records is empty then.
type SubcategoryResult struct {
	Subcategory string
	Records     []*models.Record
	Err         error
}

// CategoryResult groups one category's subcategory harvests in tree order.
type CategoryResult struct {
	Category      string
	Subcategories []SubcategoryResult
}

// Records returns all of the category's records in subcategory order.
func (r CategoryResult) Records() []*models.Record {
	var out []*models.Record
	for _, sub := range r.Subcategories {
		out = append(out, sub.Records...)
	}
	return out
}

// CategoryScraper walks the configured category tree, one harvest session
// per subcategory feed, sequentially and politely: fixed delays between
// feeds and a retry around each one.
type CategoryScraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	session *Session
	retry   *utils.RetryConfig

	subcatDelay time.Duration
	catDelay    time.Duration
}

// NewCategoryScraper assembles the full harvest stack over browser.
func NewCategoryScraper(browser Browser, cfg *config.Config, logger *utils.Logger) *CategoryScraper {
	driver := NewScrollDriver(cfg, logger)
	api := NewListingClient(cfg)
	resolver := NewResolver(browser, cfg, logger)
	extractor := NewCardExtractor(api, resolver, logger)
	session := NewSession(browser, driver, extractor, cfg, logger)

	return &CategoryScraper{
		cfg:     cfg,
		logger:  logger,
		session: session,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		subcatDelay: time.Duration(cfg.SubcategoryDelayMs) * time.Millisecond,
		catDelay:    time.Duration(cfg.CategoryDelayMs) * time.Millisecond,
	}
}

// FeedURL builds the search feed for one category/subcategory pair.
func (s *CategoryScraper) FeedURL(cat config.Category, sub config.Subcategory) string {
	return fmt.Sprintf("%s/search?c=%d&t=%d", strings.TrimRight(s.cfg.BaseURL, "/"), cat.C, sub.T)
}

// HarvestCategory harvests every subcategory feed of cat in order. A failed
// subcategory is recorded and the walk continues.
func (s *CategoryScraper) HarvestCategory(ctx context.Context, cat config.Category) CategoryResult {
	result := CategoryResult{Category: cat.Name}

	for i, sub := range cat.Subcategories {
		feedURL := s.FeedURL(cat, sub)
		s.logger.Info("[category] %s / %s: %s", cat.Name, sub.Name, feedURL)

		var records []*models.Record
		err := s.retry.Do(ctx, fmt.Sprintf("harvest-c%d-t%d", cat.C, sub.T), func() error {
			var herr error
			records, herr = s.session.Harvest(ctx, feedURL)
			return herr
		})
		if err != nil {
			s.logger.Error("[category] %s / %s failed: %v", cat.Name, sub.Name, err)
		} else {
			s.logger.Info("[category] %s / %s: %d fresh records", cat.Name, sub.Name, len(records))
		}

		result.Subcategories = append(result.Subcategories, SubcategoryResult{
			Subcategory: sub.Name,
			Records:     records,
			Err:         err,
		})

		if i < len(cat.Subcategories)-1 {
			if err := utils.Sleep(ctx, s.subcatDelay); err != nil {
				return result
			}
		}
	}
	return result
}

// HarvestAll harvests every configured category in order.
func (s *CategoryScraper) HarvestAll(ctx context.Context, cats []config.Category) []CategoryResult {
	results := make([]CategoryResult, 0, len(cats))

	for i, cat := range cats {
		s.logger.Info("[category] ===== %s (%d/%d) =====", cat.Name, i+1, len(cats))
		results = append(results, s.HarvestCategory(ctx, cat))

		if i < len(cats)-1 {
			if err := utils.Sleep(ctx, s.catDelay); err != nil {
				break
			}
		}
	}
	return results
}
