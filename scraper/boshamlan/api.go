package boshamlan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"boshamlan-scraper/config"
)

// ListingClient fetches the structured payload behind a card's identifier.
// One bounded GET per card; politeness is enforced by a shared rate limiter
// rather than per-call sleeps.
type ListingClient struct {
	base    string
	site    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewListingClient builds a client for the configured API endpoint.
func NewListingClient(cfg *config.Config) *ListingClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.APIRateMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.APIRateMs)*time.Millisecond), 1)
	}
	return &ListingClient{
		base:    strings.TrimRight(cfg.APIBaseURL, "/"),
		site:    strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.APITimeoutMs) * time.Millisecond},
		limiter: limiter,
	}
}

// Listing is the structured payload for one listing.
type Listing struct {
	Slug        string
	Title       *string
	Description *string
	Price       *string
	Views       *string
	Contact     *string
	ImageURL    *string
	CreatedAt   *string
}

type listingEnvelope struct {
	Data listingPayload `json:"data"`
}

type listingPayload struct {
	Slug          string         `json:"slug"`
	TitleAr       *string        `json:"title_ar"`
	DescriptionAr *string        `json:"description_ar"`
	Price         *float64       `json:"price"`
	Views         *int64         `json:"views"`
	Contact       *string        `json:"contact"`
	CreatedAt     *string        `json:"created_at"`
	Images        []listingImage `json:"images"`
}

type listingImage struct {
	Path string `json:"path"`
}

// Fetch retrieves one listing by identifier. Any transport error, non-200
// status, or malformed payload is returned as an error; the caller skips the
// card rather than mixing sources.
func (c *ListingClient) Fetch(ctx context.Context, identifier string) (*Listing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/listings/%s", c.base, identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: listing %s: %w", identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api: listing %s: status %d", identifier, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: listing %s: read body: %w", identifier, err)
	}

	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: listing %s: decode: %w", identifier, err)
	}
	return newListing(env.Data), nil
}

// Permalink builds the durable detail URL for identifier from the payload's
// slug. Nil when the slug is missing.
func (c *ListingClient) Permalink(l *Listing, identifier string) *string {
	if l == nil || l.Slug == "" {
		return nil
	}
	slug := l.Slug
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	u := fmt.Sprintf("%s%s/%s", c.site, slug, identifier)
	return &u
}

func newListing(p listingPayload) *Listing {
	l := &Listing{
		Slug:        p.Slug,
		Title:       p.TitleAr,
		Description: p.DescriptionAr,
		Contact:     p.Contact,
		CreatedAt:   p.CreatedAt,
	}
	// Zero prices and view counts render as absent on the site; mirror that.
	if p.Price != nil && *p.Price != 0 {
		s := strconv.FormatFloat(*p.Price, 'f', -1, 64)
		l.Price = &s
	}
	if p.Views != nil && *p.Views != 0 {
		s := strconv.FormatInt(*p.Views, 10)
		l.Views = &s
	}
	if len(p.Images) > 0 && p.Images[0].Path != "" {
		path := p.Images[0].Path
		l.ImageURL = &path
	}
	return l
}
