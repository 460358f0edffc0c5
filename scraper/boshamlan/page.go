package boshamlan

import (
	"context"
	"time"

	"boshamlan-scraper/models"
)

// Browser opens browsing contexts on the site. A session owns exactly one
// primary feed context; correlation and detail contexts are secondary, scoped
// to a single card, and never shared across cards.
type Browser interface {
	// OpenFeed opens a primary context and navigates it to url.
	OpenFeed(ctx context.Context, url string) (FeedPage, error)
	// OpenCorrelation opens a fresh, isolated context on the feed for one
	// click-navigation attempt. matchText is the card text the route
	// interceptor watches outgoing request URLs for.
	OpenCorrelation(ctx context.Context, feedURL, matchText string) (CorrelationPage, error)
	// OpenDetail opens a secondary context on a listing's permalink for
	// best-effort contact and view lookups.
	OpenDetail(ctx context.Context, url string) (DetailPage, error)
}

// FeedPage is the rendered feed document the scroll driver and the session
// work against.
type FeedPage interface {
	// WaitReady blocks until the initial content selector is visible. The
	// caller bounds it with a deadline; expiry is the session's one fatal
	// condition.
	WaitReady(ctx context.Context) error
	// ExpandOnce activates the one-shot "load more" control when it is
	// present and enabled, reporting whether it was clicked.
	ExpandOnce(ctx context.Context) (bool, error)
	// ScrollBottom scrolls the viewport to the current document bottom.
	ScrollBottom(ctx context.Context) error
	// ContentHeight reports the document's total scroll height.
	ContentHeight(ctx context.Context) (int64, error)
	// AgeTexts returns the age text of every rendered card, in render order.
	AgeTexts(ctx context.Context) ([]string, error)
	// Cards snapshots every rendered card's visible fields, in render order.
	Cards(ctx context.Context) ([]models.Card, error)
	// Close releases the context. Safe to call more than once.
	Close()
}

// CorrelationPage is an isolated secondary context opened on the feed for one
// click-navigation attempt.
type CorrelationPage interface {
	// AwaitCard waits until a card whose title matches title is rendered.
	AwaitCard(ctx context.Context, title string, timeout time.Duration) error
	// ClickCard simulates a user click on the matched card.
	ClickCard(ctx context.Context, title string) error
	// Location samples the context's current URL.
	Location(ctx context.Context) (string, error)
	// Intercepted emits outgoing request URLs that referenced the match text
	// this page was opened with.
	Intercepted() <-chan string
	Close()
}

// DetailPage is a secondary context navigated to a listing's permalink.
type DetailPage interface {
	// Contact returns the tel: contact reference, without the scheme.
	Contact(ctx context.Context) (string, error)
	// ViewCount returns the numeric view badge text.
	ViewCount(ctx context.Context) (string, error)
	Close()
}
