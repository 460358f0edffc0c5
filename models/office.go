package models

// Office is one real-estate agency from the agents directory, together with
// the recent listings scraped off its profile page.
type Office struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Telephone   string `json:"telephone"`
	Email       string `json:"email"`
	Instagram   string `json:"instagram"`
	Website     string `json:"website"`

	AdsCount int              `json:"ads_number"`
	Listings []*OfficeListing `json:"listings"`
}

// OfficeListing is one structured listing from an office page. Unlike feed
// cards these carry an absolute publication timestamp, served by the site
// itself.
type OfficeListing struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	Price           string `json:"price"`
	AddressRegion   string `json:"addressRegion"`
	AddressLocality string `json:"addressLocality"`
	DatePublished   string `json:"datePublished"`
	Views           *int   `json:"views"`
}
