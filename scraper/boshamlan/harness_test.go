package boshamlan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

func testLogger() *utils.Logger { return utils.NewLogger(false) }

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:          "https://www.boshamlan.com",
		APIBaseURL:       "https://api-v2.boshamlan.com",
		ContentTimeoutMs: 1000,
		MaxScrolls:       10,
		SettleMs:         1,
		ExpandSettleMs:   1,
		StableAfter:      3,
		TailWindow:       10,
		StaleLimit:       5,
		MinSample:        3,
		NavBudgetMs:      200,
		NavPollMs:        5,
		APITimeoutMs:     1000,
		APIRateMs:        0,
		DetailTimeoutMs:  200,
	}
}

func testDriver() *ScrollDriver {
	return NewScrollDriver(testConfig(), testLogger())
}

func strp(s string) *string { return &s }

// cardsWithAges builds numbered cards whose only varying field is the age
// text. Cards carry no identifier and no title, so extraction stays DOM-only
// without correlation attempts.
func cardsWithAges(ages ...string) []models.Card {
	cards := make([]models.Card, len(ages))
	for i, age := range ages {
		a := age
		cards[i] = models.Card{Position: i + 1, RelativeAge: &a}
	}
	return cards
}

// fakeFeed serves a scripted feed. visible cards grow by growBy per scroll
// until every card is exposed; content height is derived from visibility so
// a plateau in growth reads as a stable height.
type fakeFeed struct {
	mu          sync.Mutex
	cards       []models.Card
	visible     int
	growBy      int
	readyErr    error
	readyBlocks bool // WaitReady holds until the caller's deadline expires
	expandable  bool
	expanded    bool
	scrollErr   error
	scrolls     int
	closed      bool
}

func (f *fakeFeed) WaitReady(ctx context.Context) error {
	if f.readyBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.readyErr
}

func (f *fakeFeed) ExpandOnce(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expandable && !f.expanded {
		f.expanded = true
		return true, nil
	}
	return false, nil
}

func (f *fakeFeed) ScrollBottom(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	if f.visible < len(f.cards) {
		f.visible += f.growBy
		if f.visible > len(f.cards) {
			f.visible = len(f.cards)
		}
	}
	return nil
}

func (f *fakeFeed) ContentHeight(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(1000 * f.visible), nil
}

func (f *fakeFeed) AgeTexts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ages := make([]string, 0, f.visible)
	for _, c := range f.cards[:f.visible] {
		if c.RelativeAge != nil {
			ages = append(ages, *c.RelativeAge)
		} else {
			ages = append(ages, "")
		}
	}
	return ages, nil
}

func (f *fakeFeed) Cards(ctx context.Context) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Card(nil), f.cards[:f.visible]...), nil
}

func (f *fakeFeed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

type fakeBrowser struct {
	mu          sync.Mutex
	feed        *fakeFeed
	feedErr     error
	corr        *fakeCorrelation
	corrErr     error
	detail      *fakeDetail
	detailErr   error
	corrOpens   int
	detailOpens int
	detailURL   string
}

func (b *fakeBrowser) OpenFeed(ctx context.Context, url string) (FeedPage, error) {
	if b.feedErr != nil {
		return nil, b.feedErr
	}
	return b.feed, nil
}

func (b *fakeBrowser) OpenCorrelation(ctx context.Context, feedURL, matchText string) (CorrelationPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.corrOpens++
	if b.corrErr != nil {
		return nil, b.corrErr
	}
	return b.corr, nil
}

func (b *fakeBrowser) OpenDetail(ctx context.Context, url string) (DetailPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detailOpens++
	b.detailURL = url
	if b.detailErr != nil {
		return nil, b.detailErr
	}
	return b.detail, nil
}

// fakeCorrelation scripts the click-navigation race. Successive Location
// calls walk the locations sequence and hold at the last entry; the
// interceptor channel is preloaded by the test when that signal should win.
type fakeCorrelation struct {
	mu        sync.Mutex
	locations []string
	calls     int
	awaitErr  error
	clickErr  error
	intercept chan string
	closed    bool
}

func newFakeCorrelation(locations ...string) *fakeCorrelation {
	return &fakeCorrelation{locations: locations, intercept: make(chan string, 4)}
}

func (p *fakeCorrelation) AwaitCard(ctx context.Context, title string, timeout time.Duration) error {
	return p.awaitErr
}

func (p *fakeCorrelation) ClickCard(ctx context.Context, title string) error {
	return p.clickErr
}

func (p *fakeCorrelation) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.locations) == 0 {
		return "", fmt.Errorf("no scripted locations")
	}
	i := p.calls
	p.calls++
	if i >= len(p.locations) {
		i = len(p.locations) - 1
	}
	return p.locations[i], nil
}

func (p *fakeCorrelation) Intercepted() <-chan string { return p.intercept }

func (p *fakeCorrelation) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakeCorrelation) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeDetail struct {
	contact    string
	contactErr error
	views      string
	viewsErr   error
	closed     bool
}

func (p *fakeDetail) Contact(ctx context.Context) (string, error) {
	return p.contact, p.contactErr
}

func (p *fakeDetail) ViewCount(ctx context.Context) (string, error) {
	return p.views, p.viewsErr
}

func (p *fakeDetail) Close() { p.closed = true }
