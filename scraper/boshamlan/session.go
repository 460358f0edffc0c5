package boshamlan

import (
	"context"
	"fmt"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// Session harvests one feed end to end: open it, drive the scroll to a
// terminal state, extract every rendered card in order, and keep only the
// records still inside the freshness window.
type Session struct {
	browser   Browser
	driver    *ScrollDriver
	extractor *CardExtractor
	logger    *utils.Logger

	contentTimeout time.Duration
}

// NewSession assembles a harvest session over an open browser.
func NewSession(browser Browser, driver *ScrollDriver, extractor *CardExtractor, cfg *config.Config, logger *utils.Logger) *Session {
	return &Session{
		browser:        browser,
		driver:         driver,
		extractor:      extractor,
		logger:         logger,
		contentTimeout: time.Duration(cfg.ContentTimeoutMs) * time.Millisecond,
	}
}

// Harvest runs one full pass over feedURL. A nil error with an empty slice
// is a normal result: nothing on the feed is fresh. A non-nil error means
// the feed never became readable and no records were produced.
func (s *Session) Harvest(ctx context.Context, feedURL string) ([]*models.Record, error) {
	s.logger.Info("[session] Opening feed: %s", feedURL)

	feed, err := s.browser.OpenFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", feedURL, err)
	}
	defer feed.Close()

	// The one fatal deadline: a feed that never shows content cannot be
	// harvested at all.
	waitCtx, cancelWait := context.WithTimeout(ctx, s.contentTimeout)
	err = feed.WaitReady(waitCtx)
	cancelWait()
	if err != nil {
		return nil, fmt.Errorf("feed %s: content not visible within %s: %w", feedURL, s.contentTimeout, err)
	}

	term, err := s.driver.Run(ctx, feed)
	if err != nil {
		s.logger.Warn("[session] Scroll stopped early: %v, harvesting what is rendered", err)
	} else {
		s.logger.Info("[session] Scroll finished: %s", term)
	}

	cards, err := feed.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed %s: enumerate cards: %w", feedURL, err)
	}
	s.logger.Info("[session] %d cards rendered", len(cards))

	records := make([]*models.Record, 0, len(cards))
	for _, card := range cards {
		rec, err := s.extractor.Extract(ctx, feedURL, card)
		if err != nil {
			s.logger.Warn("[session] Skipping card: %v", err)
			continue
		}
		records = append(records, rec)
	}

	// Final pass: the feed orders newest-first, but the tail scrolled past
	// the boundary. Records whose age cannot be confirmed fresh are dropped.
	kept := make([]*models.Record, 0, len(records))
	for _, rec := range records {
		age := ""
		if rec.RelativeAge != nil {
			age = *rec.RelativeAge
		}
		if ClassifyAge(age) == Fresh {
			kept = append(kept, rec)
		}
	}

	s.logger.Info("[session] Retained %d of %d records inside the freshness window", len(kept), len(records))
	return kept, nil
}
