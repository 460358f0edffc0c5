package boshamlan

import (
	"context"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// Resolution carries the correlation outcome for one card. Every field is
// independently nullable; a fully-nil Resolution is a recoverable outcome,
// not an error.
type Resolution struct {
	Permalink *string
	Contact   *string
	ViewCount *string
}

// Resolver correlates a rendered card with its durable detail URL when the
// layout exposes no identifier. It opens an isolated context on the feed,
// clicks the card, and races a navigation watcher against the route
// interceptor for the resulting URL.
type Resolver struct {
	browser Browser
	logger  *utils.Logger

	locateTimeout time.Duration
	navBudget     time.Duration
	pollEvery     time.Duration
	detailTimeout time.Duration
}

// NewResolver builds a resolver from the configured budgets.
func NewResolver(browser Browser, cfg *config.Config, logger *utils.Logger) *Resolver {
	return &Resolver{
		browser:       browser,
		logger:        logger,
		locateTimeout: 10 * time.Second,
		navBudget:     time.Duration(cfg.NavBudgetMs) * time.Millisecond,
		pollEvery:     time.Duration(cfg.NavPollMs) * time.Millisecond,
		detailTimeout: time.Duration(cfg.DetailTimeoutMs) * time.Millisecond,
	}
}

// Resolve runs one correlation attempt for card against feedURL. All
// secondary contexts opened during the attempt are closed before returning,
// whatever the outcome.
func (r *Resolver) Resolve(ctx context.Context, feedURL string, card models.Card) Resolution {
	var res Resolution

	if card.Title == nil || *card.Title == "" {
		r.logger.Debug("[resolve] Card %d has no title to match on", card.Position)
		return res
	}

	permalink := r.resolvePermalink(ctx, feedURL, *card.Title)
	if permalink == "" {
		return res
	}
	res.Permalink = &permalink

	res.Contact, res.ViewCount = r.resolveDetails(ctx, permalink)
	return res
}

// resolvePermalink clicks the titled card in a fresh context and returns the
// first URL either observer reports, or "" when neither fires in budget.
func (r *Resolver) resolvePermalink(ctx context.Context, feedURL, title string) string {
	page, err := r.browser.OpenCorrelation(ctx, feedURL, title)
	if err != nil {
		r.logger.Warn("[resolve] Correlation context: %v", err)
		return ""
	}
	defer page.Close()

	if err := page.AwaitCard(ctx, title, r.locateTimeout); err != nil {
		r.logger.Debug("[resolve] %v", err)
		return ""
	}

	initial, err := page.Location(ctx)
	if err != nil {
		r.logger.Debug("[resolve] Initial location: %v", err)
		return ""
	}

	// Both observers are armed before the click: the route interceptor from
	// context creation, the navigation watcher here.
	navCh := make(chan string, 1)
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go r.watchNavigation(watchCtx, page, initial, navCh)

	if err := page.ClickCard(ctx, title); err != nil {
		r.logger.Debug("[resolve] Click: %v", err)
		return ""
	}

	budget := time.NewTimer(r.navBudget)
	defer budget.Stop()

	select {
	case u := <-navCh:
		r.logger.Debug("[resolve] Navigation watcher fired: %s", u)
		return u
	case u := <-page.Intercepted():
		r.logger.Debug("[resolve] Route interceptor fired: %s", u)
		return u
	case <-budget.C:
		r.logger.Debug("[resolve] No navigation signal within %s for %q", r.navBudget, title)
		return ""
	case <-ctx.Done():
		return ""
	}
}

// watchNavigation samples the page URL until it moves off initial.
func (r *Resolver) watchNavigation(ctx context.Context, page CorrelationPage, initial string, out chan<- string) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := page.Location(ctx)
			if err != nil {
				continue
			}
			if current != "" && current != initial {
				select {
				case out <- current:
				default:
				}
				return
			}
		}
	}
}

// resolveDetails opens the permalink and runs the two best-effort lookups.
// Each degrades to nil independently.
func (r *Resolver) resolveDetails(ctx context.Context, permalink string) (contact, views *string) {
	page, err := r.browser.OpenDetail(ctx, permalink)
	if err != nil {
		r.logger.Debug("[resolve] Detail context: %v", err)
		return nil, nil
	}
	defer page.Close()

	cctx, cancelContact := context.WithTimeout(ctx, r.detailTimeout)
	if c, err := page.Contact(cctx); err != nil {
		r.logger.Debug("[resolve] Contact: %v", err)
	} else {
		contact = &c
	}
	cancelContact()

	vctx, cancelViews := context.WithTimeout(ctx, r.detailTimeout)
	if v, err := page.ViewCount(vctx); err != nil {
		r.logger.Debug("[resolve] Views: %v", err)
	} else {
		views = &v
	}
	cancelViews()

	return contact, views
}
