package models

// Card is one rendered summary element in the feed. Cards are transient:
// they exist only while the page that rendered them is open, and their
// position is not stable across page loads.
type Card struct {
	Position   int
	Identifier string // data-post-id attribute; empty in the legacy layout

	Title       *string
	Price       *string
	RelativeAge *string
	Description *string
	ImageURL    *string
}

// Record is the extraction result for one card. Every field is independently
// nullable: a missing value never invalidates the record. Once produced, a
// Record is never mutated by the harvest pipeline; the cleaner copies before
// normalizing.
type Record struct {
	Title         *string `json:"title"`
	Price         *string `json:"price"`
	RelativeAge   *string `json:"relative_date"`
	DatePublished *string `json:"date_published,omitempty"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	Permalink     *string `json:"link"`
	Contact       *string `json:"mobile_number"`
	ViewCount     *string `json:"views_number"`
}
