package offices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// PageFetcher renders a URL in a browsing context and returns the document
// HTML. Office pages embed their data as JSON-LD in the served markup, so
// one fetch per page is all the browsing this pipeline needs.
type PageFetcher interface {
	PageHTML(ctx context.Context, url string) (string, error)
}

// Scraper walks the agents directory and each office's profile page, keeping
// only listings published on or after the filter date.
type Scraper struct {
	fetcher PageFetcher
	cfg     *config.Config
	logger  *utils.Logger
	retry   *utils.RetryConfig

	officeDelay  time.Duration
	listingDelay time.Duration
}

// NewScraper builds the offices scraper over fetcher.
func NewScraper(fetcher PageFetcher, cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		officeDelay:  time.Second,
		listingDelay: 500 * time.Millisecond,
	}
}

// AgentsURL returns the agents directory URL.
func (s *Scraper) AgentsURL() string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/agents"
}

// ScrapeAll collects every office in the directory together with its
// listings published on or after filterDate. Per-office failures are logged
// and skipped; only an unreadable directory page fails the run.
func (s *Scraper) ScrapeAll(ctx context.Context, filterDate time.Time) ([]*models.Office, error) {
	var html string
	err := s.retry.Do(ctx, "agents-page", func() error {
		var ferr error
		html, ferr = s.fetcher.PageHTML(ctx, s.AgentsURL())
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("offices: agents page: %w", err)
	}

	all, err := ParseOffices(html)
	if err != nil {
		return nil, fmt.Errorf("offices: %w", err)
	}
	s.logger.Info("[offices] Found %d offices in the directory", len(all))

	for i, office := range all {
		s.logger.Info("[offices] [%d/%d] %s", i+1, len(all), office.Name)
		if err := s.scrapeOffice(ctx, office, filterDate); err != nil {
			s.logger.Warn("[offices] %s: %v", office.Name, err)
		}

		if i < len(all)-1 {
			if err := utils.Sleep(ctx, s.officeDelay); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// scrapeOffice fills in one office's recent listings and their view counts.
func (s *Scraper) scrapeOffice(ctx context.Context, office *models.Office, filterDate time.Time) error {
	if office.URL == "" {
		return fmt.Errorf("office has no url")
	}

	var html string
	err := s.retry.Do(ctx, "office-page", func() error {
		var ferr error
		html, ferr = s.fetcher.PageHTML(ctx, office.URL)
		return ferr
	})
	if err != nil {
		return err
	}

	listings, total, err := ParseListings(html, filterDate)
	if err != nil {
		return err
	}
	office.AdsCount = total
	office.Listings = listings

	if len(listings) == 0 {
		s.logger.Debug("[offices] %s: nothing published since %s", office.Name, filterDate.Format("2006-01-02"))
		return nil
	}
	s.logger.Info("[offices] %s: %d listings since %s", office.Name, len(listings), filterDate.Format("2006-01-02"))

	for j, listing := range listings {
		views, err := s.scrapeViews(ctx, listing.URL)
		if err != nil {
			s.logger.Debug("[offices] Views for %s: %v", listing.URL, err)
		} else {
			listing.Views = &views
		}

		if j < len(listings)-1 {
			if err := utils.Sleep(ctx, s.listingDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// scrapeViews pulls the numeric view badge off a listing detail page.
func (s *Scraper) scrapeViews(ctx context.Context, url string) (int, error) {
	if url == "" {
		return 0, fmt.Errorf("listing has no url")
	}
	html, err := s.fetcher.PageHTML(ctx, url)
	if err != nil {
		return 0, err
	}
	return ParseViews(html)
}
