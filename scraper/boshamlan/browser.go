package boshamlan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

const (
	navTimeout  = 30 * time.Second
	evalTimeout = 15 * time.Second

	cardSelector       = "article[data-post-id]"
	legacyCardSelector = ".relative.w-full.rounded-lg.card-shadow"
	titleSelector      = ".font-bold.text-lg.text-dark.line-clamp-2.break-words"
	priceSelector      = ".rounded.font-bold.text-primary-dark"
	legacyAgeSelector  = ".rounded.text-xs.flex.items-center.gap-1"

	// The escapes below are doubled so the JS string literal they are pasted
	// into carries \: and \. through to querySelector.
	loadMoreSelector = `button.text-base.shrink-0.select-none.whitespace-nowrap.transition-colors.` +
		`disabled\\:opacity-50.h-12.font-bold.bg-primary.text-on-primary.active\\:bg-active-primary.` +
		`w-full.cursor-pointer.z-20.max-w-2xl.py-3.md\\:py-4.px-8.rounded-full.flex.items-center.` +
		`justify-center.gap-2\\.5`
	contactSelector = ".flex.gap-3.justify-center a"
	viewsSelector   = `.flex.items-center.justify-center.gap-1.rounded.bg-whitish-transparent.` +
		`py-1.px-1\\.5.text-xs.min-w-\\[62px\\] div`
)

// Chrome drives a headless Chrome/Chromium behind the Browser interface. One
// Chrome owns one browser process; every page it opens is a tab on it.
type Chrome struct {
	cfg    *config.Config
	logger *utils.Logger

	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewChrome launches the browser process. Callers must Close it when done.
func NewChrome(cfg *config.Config, logger *utils.Logger) (*Chrome, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	if chromeBin != "" {
		logger.Info("[browser] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise; all tabs descend from this context.
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Chrome{
		cfg:           cfg,
		logger:        logger,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Close shuts down every open tab and the browser process.
func (c *Chrome) Close() {
	c.cancelBrowser()
	c.cancelAlloc()
}

// OpenFeed opens a tab on url. The content-readiness wait is left to
// FeedPage.WaitReady so the session owns the fatal deadline.
func (c *Chrome) OpenFeed(ctx context.Context, pageURL string) (FeedPage, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	if err := run(ctx, tabCtx, navTimeout, chromedp.Navigate(pageURL)); err != nil {
		cancel()
		return nil, fmt.Errorf("feed navigate %s: %w", pageURL, err)
	}
	return &feedPage{ctx: tabCtx, cancel: cancel, cfg: c.cfg, logger: c.logger}, nil
}

// OpenCorrelation opens an isolated tab on the feed with a request
// interceptor armed for matchText before navigation starts.
func (c *Chrome) OpenCorrelation(ctx context.Context, feedURL, matchText string) (CorrelationPage, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	p := &correlationPage{
		ctx:       tabCtx,
		cancel:    cancel,
		cfg:       c.cfg,
		logger:    c.logger,
		intercept: make(chan string, 4),
	}

	needle := collapseSpace(matchText)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || needle == "" {
			return
		}
		probe := req.Request.URL
		if decoded, err := url.QueryUnescape(probe); err == nil {
			probe = decoded
		}
		if strings.Contains(collapseSpace(probe), needle) {
			select {
			case p.intercept <- req.Request.URL:
			default:
			}
		}
	})

	err := run(ctx, tabCtx, navTimeout,
		network.Enable(),
		chromedp.Navigate(feedURL),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("correlation navigate %s: %w", feedURL, err)
	}
	return p, nil
}

// OpenDetail opens a tab on a listing's permalink.
func (c *Chrome) OpenDetail(ctx context.Context, pageURL string) (DetailPage, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	err := run(ctx, tabCtx, navTimeout,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("detail navigate %s: %w", pageURL, err)
	}
	return &detailPage{ctx: tabCtx, cancel: cancel, cfg: c.cfg}, nil
}

// PageHTML opens a short-lived tab on url and returns the rendered document.
// Office pages serve their data as JSON-LD in the markup, so one fetch per
// page is all the browsing that pipeline needs.
func (c *Chrome) PageHTML(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()

	var html string
	err := run(ctx, tabCtx, navTimeout,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("page html %s: %w", pageURL, err)
	}
	return html, nil
}

// run executes actions on a tab with a bounded timeout, canceling early when
// the caller's context ends first.
func run(ctx, tabCtx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

type feedPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *utils.Logger
}

func (p *feedPage) WaitReady(ctx context.Context) error {
	opCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, chromedp.WaitVisible(p.cfg.ContentSelector, chromedp.ByQuery))
}

func (p *feedPage) ExpandOnce(ctx context.Context) (bool, error) {
	var clicked bool
	js := `
		(function() {
			var btn = document.querySelector('` + loadMoreSelector + `');
			if (!btn) {
				var candidates = document.querySelectorAll('button.bg-primary');
				for (var i = 0; i < candidates.length; i++) {
					if (candidates[i].offsetParent !== null) { btn = candidates[i]; break; }
				}
			}
			if (!btn || btn.disabled) {
				return false;
			}
			btn.click();
			return true;
		})()
	`
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &clicked)); err != nil {
		return false, fmt.Errorf("load-more control: %w", err)
	}
	return clicked, nil
}

func (p *feedPage) ScrollBottom(ctx context.Context) error {
	err := run(ctx, p.ctx, evalTimeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

func (p *feedPage) ContentHeight(ctx context.Context) (int64, error) {
	var height int64
	err := run(ctx, p.ctx, evalTimeout,
		chromedp.Evaluate(`document.body.scrollHeight`, &height))
	if err != nil {
		return 0, fmt.Errorf("content height: %w", err)
	}
	return height, nil
}

func (p *feedPage) AgeTexts(ctx context.Context) ([]string, error) {
	var ages []string
	js := `
		(function() {
			var nodes = document.querySelectorAll('` + cardSelector + ` time span');
			if (nodes.length === 0) {
				nodes = document.querySelectorAll('` + legacyAgeSelector + `');
			}
			var out = [];
			for (var i = 0; i < nodes.length; i++) {
				var t = nodes[i].textContent;
				if (t) { out.push(t.trim()); }
			}
			return out;
		})()
	`
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &ages)); err != nil {
		return nil, fmt.Errorf("age texts: %w", err)
	}
	return ages, nil
}

// cardSnapshot mirrors the object shape built by the extraction script.
type cardSnapshot struct {
	Position    int     `json:"position"`
	Identifier  string  `json:"identifier"`
	Title       *string `json:"title"`
	Price       *string `json:"price"`
	RelativeAge *string `json:"relative_age"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

func (p *feedPage) Cards(ctx context.Context) ([]models.Card, error) {
	var snapshots []cardSnapshot

	js := `
		(function() {
			var out = [];

			// Strategy 1: current layout, cards expose their post id.
			var cards = document.querySelectorAll('` + cardSelector + `');
			if (cards.length > 0) {
				for (var i = 0; i < cards.length; i++) {
					var card = cards[i];
					var titleEl = card.querySelector('` + titleSelector + `') ||
					              card.querySelector('h2, h3');
					var priceEl = card.querySelector('` + priceSelector + `');
					var ageEl = card.querySelector('time span');
					var descEl = card.querySelector('p.text-sm.line-clamp-2') ||
					             card.querySelector('p');
					var imgEl = card.querySelector('img');
					out.push({
						position:     i,
						identifier:   card.getAttribute('data-post-id') || '',
						title:        titleEl ? titleEl.textContent.trim() : null,
						price:        priceEl ? priceEl.textContent.trim() : null,
						relative_age: ageEl ? ageEl.textContent.trim() : null,
						description:  descEl ? descEl.textContent.trim() : null,
						image_url:    imgEl ? (imgEl.getAttribute('src') || null) : null
					});
				}
				return out;
			}

			// Strategy 2: legacy layout, no post id anywhere.
			cards = document.querySelectorAll('` + legacyCardSelector + `');
			for (var j = 0; j < cards.length; j++) {
				var legacy = cards[j];
				var lt = legacy.querySelector('` + titleSelector + `');
				var lp = legacy.querySelector('` + priceSelector + `');
				var la = legacy.querySelector('` + legacyAgeSelector + `');
				var ld = legacy.querySelector('.line-clamp-2:not(.font-bold)');
				var li = legacy.querySelector('img[alt="Post"]') || legacy.querySelector('img');
				out.push({
					position:     j,
					identifier:   '',
					title:        lt ? lt.textContent.trim() : null,
					price:        lp ? lp.textContent.trim() : null,
					relative_age: la ? la.textContent.trim() : null,
					description:  ld ? ld.textContent.trim() : null,
					image_url:    li ? (li.getAttribute('src') || null) : null
				});
			}
			return out;
		})()
	`
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &snapshots)); err != nil {
		return nil, fmt.Errorf("card snapshot: %w", err)
	}

	cards := make([]models.Card, 0, len(snapshots))
	for _, s := range snapshots {
		cards = append(cards, models.Card{
			Position:    s.Position,
			Identifier:  s.Identifier,
			Title:       s.Title,
			Price:       s.Price,
			RelativeAge: s.RelativeAge,
			Description: s.Description,
			ImageURL:    s.ImageURL,
		})
	}
	return cards, nil
}

func (p *feedPage) Close() {
	p.cancel()
}

type correlationPage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.Config
	logger    *utils.Logger
	intercept chan string
}

func (p *correlationPage) AwaitCard(ctx context.Context, title string, timeout time.Duration) error {
	js := cardProbeScript(title, false)
	deadline := time.Now().Add(timeout)
	poll := time.Duration(p.cfg.NavPollMs) * time.Millisecond

	for {
		var found bool
		if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &found)); err != nil {
			return fmt.Errorf("probe card: %w", err)
		}
		if found {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("card %q not rendered within %s", title, timeout)
		}
		if err := utils.Sleep(ctx, poll); err != nil {
			return err
		}
	}
}

func (p *correlationPage) ClickCard(ctx context.Context, title string) error {
	var clicked bool
	js := cardProbeScript(title, true)
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &clicked)); err != nil {
		return fmt.Errorf("click card: %w", err)
	}
	if !clicked {
		return fmt.Errorf("card %q not found for click", title)
	}
	return nil
}

func (p *correlationPage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return loc, nil
}

func (p *correlationPage) Intercepted() <-chan string {
	return p.intercept
}

func (p *correlationPage) Close() {
	p.cancel()
}

// cardProbeScript builds a script that finds the card whose title text
// matches title after whitespace collapsing, optionally clicking it.
func cardProbeScript(title string, click bool) string {
	quoted, _ := json.Marshal(title)
	action := `return true;`
	if click {
		action = `cards[i].click(); return true;`
	}
	return `
		(function() {
			var want = ` + string(quoted) + `.replace(/\s+/g, ' ').trim();
			var sels = ['` + cardSelector + `', '` + legacyCardSelector + `'];
			for (var s = 0; s < sels.length; s++) {
				var cards = document.querySelectorAll(sels[s]);
				for (var i = 0; i < cards.length; i++) {
					var el = cards[i].querySelector('` + titleSelector + `') ||
					         cards[i].querySelector('h2, h3');
					var text = el ? el.textContent.replace(/\s+/g, ' ').trim() : '';
					if (text === want) { ` + action + ` }
				}
			}
			return false;
		})()
	`
}

type detailPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
}

func (p *detailPage) Contact(ctx context.Context) (string, error) {
	var href string
	js := `
		(function() {
			var a = document.querySelector('` + contactSelector + `');
			if (a) {
				var href = a.getAttribute('href') || '';
				if (href.indexOf('tel:') === 0) { return href; }
			}
			var tels = document.querySelectorAll('a[href^="tel:"]');
			return tels.length > 0 ? tels[0].getAttribute('href') : '';
		})()
	`
	if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &href)); err != nil {
		return "", fmt.Errorf("contact lookup: %w", err)
	}
	if !strings.HasPrefix(href, "tel:") {
		return "", fmt.Errorf("no tel: reference on detail page")
	}
	return strings.TrimPrefix(href, "tel:"), nil
}

func (p *detailPage) ViewCount(ctx context.Context) (string, error) {
	js := `
		(function() {
			var el = document.querySelector('` + viewsSelector + `');
			return el ? el.textContent.trim() : '';
		})()
	`
	timeout := time.Duration(p.cfg.DetailTimeoutMs) * time.Millisecond
	poll := time.Duration(p.cfg.NavPollMs) * time.Millisecond
	deadline := time.Now().Add(timeout)

	for {
		var text string
		if err := run(ctx, p.ctx, evalTimeout, chromedp.Evaluate(js, &text)); err != nil {
			return "", fmt.Errorf("view badge: %w", err)
		}
		if text != "" {
			return text, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("view badge not rendered within %s", timeout)
		}
		if err := utils.Sleep(ctx, poll); err != nil {
			return "", err
		}
	}
}

func (p *detailPage) Close() {
	p.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
