package boshamlan

import (
	"context"
	"fmt"
	"strings"

	"boshamlan-scraper/models"
	"boshamlan-scraper/utils"
)

// CardExtractor turns one rendered card into a Record. Field-level problems
// never fail extraction: each field degrades to nil independently. The one
// card-level failure is a hybrid payload fetch that comes back empty; those
// cards are skipped rather than assembled from two half-sources.
type CardExtractor struct {
	api      *ListingClient
	resolver *Resolver
	logger   *utils.Logger
}

// NewCardExtractor wires the two extraction strategies together.
func NewCardExtractor(api *ListingClient, resolver *Resolver, logger *utils.Logger) *CardExtractor {
	return &CardExtractor{api: api, resolver: resolver, logger: logger}
}

// Extract builds the Record for card. The strategy is chosen once per card:
// hybrid DOM+API when the layout exposes an identifier, DOM-only with
// click-navigation correlation otherwise.
func (e *CardExtractor) Extract(ctx context.Context, feedURL string, card models.Card) (*models.Record, error) {
	if card.Identifier != "" {
		return e.extractHybrid(ctx, card)
	}
	return e.extractDOM(ctx, feedURL, card), nil
}

// extractHybrid reads everything except the relative age from the structured
// payload keyed by the card's identifier. The age stays DOM-sourced: the API
// serves an absolute timestamp, not the feed's rendered text.
func (e *CardExtractor) extractHybrid(ctx context.Context, card models.Card) (*models.Record, error) {
	listing, err := e.api.Fetch(ctx, card.Identifier)
	if err != nil {
		return nil, fmt.Errorf("card %d (%s): %w", card.Position, card.Identifier, err)
	}
	return &models.Record{
		Title:         listing.Title,
		Price:         listing.Price,
		RelativeAge:   card.RelativeAge,
		DatePublished: listing.CreatedAt,
		Description:   listing.Description,
		ImageURL:      listing.ImageURL,
		Permalink:     e.api.Permalink(listing, card.Identifier),
		Contact:       listing.Contact,
		ViewCount:     listing.Views,
	}, nil
}

// extractDOM copies the card's visible fields and correlates the permalink
// and secondary attributes by simulated click.
func (e *CardExtractor) extractDOM(ctx context.Context, feedURL string, card models.Card) *models.Record {
	res := e.resolver.Resolve(ctx, feedURL, card)
	return &models.Record{
		Title:       card.Title,
		Price:       card.Price,
		RelativeAge: card.RelativeAge,
		Description: card.Description,
		ImageURL:    card.ImageURL,
		Permalink:   res.Permalink,
		Contact:     res.Contact,
		ViewCount:   res.ViewCount,
	}
}

// collapseSpace trims s and collapses internal whitespace runs to single
// spaces, the comparison form for title matching.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
