package offices

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"boshamlan-scraper/models"
)

// The site serves agents and office pages with their data embedded as
// JSON-LD, either at the document top level or nested under @graph. Only the
// fields the pipeline consumes are declared.

type agentsDoc struct {
	Type            string          `json:"@type"`
	Graph           []agentsDoc     `json:"@graph"`
	NumberOfItems   int             `json:"numberOfItems"`
	ItemListElement []agentListItem `json:"itemListElement"`
}

type agentListItem struct {
	Type string    `json:"@type"`
	Item agentItem `json:"item"`
}

type agentItem struct {
	Type         string         `json:"@type"`
	URL          string         `json:"url"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Image        ldImage        `json:"image"`
	ContactPoint []contactPoint `json:"contactPoint"`
	SameAs       []string       `json:"sameAs"`
}

type contactPoint struct {
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

type listingsDoc struct {
	Type            string        `json:"@type"`
	Graph           []listingsDoc `json:"@graph"`
	NumberOfItems   int           `json:"numberOfItems"`
	ItemListElement []listingLD   `json:"itemListElement"`
}

type listingLD struct {
	Type          string   `json:"@type"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Description   string   `json:"description"`
	DatePublished string   `json:"datePublished"`
	Image         ldImage  `json:"image"`
	About         ldAbout  `json:"about"`
	Offers        ldOffers `json:"offers"`
}

type ldImage struct {
	URL string `json:"url"`
}

// UnmarshalJSON tolerates the two shapes the site uses for images: an
// ImageObject with a url, or a bare string.
func (im *ldImage) UnmarshalJSON(b []byte) error {
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		im.URL = obj.URL
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		im.URL = s
		return nil
	}
	im.URL = ""
	return nil
}

type ldAbout struct {
	Address ldAddress `json:"address"`
}

type ldAddress struct {
	AddressRegion   string `json:"addressRegion"`
	AddressLocality string `json:"addressLocality"`
}

type ldOffers struct {
	Price flexString `json:"price"`
}

// flexString decodes JSON strings or numbers into their text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// ParseOffices extracts every RealEstateAgent from the agents directory
// page. Script blocks that fail to decode are skipped.
func ParseOffices(html string) ([]*models.Office, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var offices []*models.Office
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var d agentsDoc
		if err := json.Unmarshal([]byte(sel.Text()), &d); err != nil {
			return
		}
		for _, list := range d.itemLists() {
			for _, el := range list.ItemListElement {
				if el.Type != "ListItem" || el.Item.Type != "RealEstateAgent" {
					continue
				}
				offices = append(offices, newOffice(el.Item))
			}
		}
	})
	return offices, nil
}

func (d agentsDoc) itemLists() []agentsDoc {
	if len(d.Graph) > 0 {
		var out []agentsDoc
		for _, g := range d.Graph {
			if g.Type == "ItemList" && len(g.ItemListElement) > 0 {
				out = append(out, g)
			}
		}
		return out
	}
	if d.Type == "ItemList" && len(d.ItemListElement) > 0 {
		return []agentsDoc{d}
	}
	return nil
}

func newOffice(item agentItem) *models.Office {
	office := &models.Office{
		URL:         item.URL,
		Name:        item.Name,
		Description: item.Description,
		Image:       item.Image.URL,
	}
	if len(item.ContactPoint) > 0 {
		office.Telephone = item.ContactPoint[0].Telephone
		office.Email = item.ContactPoint[0].Email
	}
	for _, link := range item.SameAs {
		switch {
		case strings.Contains(link, "instagram.com"):
			office.Instagram = link
		case link != "" && !strings.Contains(link, "boshamlan.com"):
			office.Website = link
		}
	}
	return office
}

// ParseListings extracts the RealEstateListing entries published on or after
// filterDate from an office page, plus the page's advertised total.
func ParseListings(html string, filterDate time.Time) ([]*models.OfficeListing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, err
	}

	cutoff := time.Date(filterDate.Year(), filterDate.Month(), filterDate.Day(), 0, 0, 0, 0, time.UTC)
	var listings []*models.OfficeListing
	total := 0

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var d listingsDoc
		if err := json.Unmarshal([]byte(sel.Text()), &d); err != nil {
			return
		}
		for _, list := range d.itemLists() {
			total = list.NumberOfItems
			for _, el := range list.ItemListElement {
				if l := newOfficeListing(el, cutoff); l != nil {
					listings = append(listings, l)
				}
			}
		}
	})
	return listings, total, nil
}

func (d listingsDoc) itemLists() []listingsDoc {
	if len(d.Graph) > 0 {
		var out []listingsDoc
		for _, g := range d.Graph {
			if g.Type == "ItemList" && len(g.ItemListElement) > 0 {
				out = append(out, g)
			}
		}
		return out
	}
	if d.Type == "ItemList" && len(d.ItemListElement) > 0 {
		return []listingsDoc{d}
	}
	return nil
}

func newOfficeListing(el listingLD, cutoff time.Time) *models.OfficeListing {
	if el.Type != "RealEstateListing" || el.DatePublished == "" {
		return nil
	}
	published, err := time.Parse(time.RFC3339, el.DatePublished)
	if err != nil {
		return nil
	}
	if published.Before(cutoff) {
		return nil
	}
	return &models.OfficeListing{
		Name:            el.Name,
		URL:             el.URL,
		Description:     el.Description,
		ImageURL:        el.Image.URL,
		Price:           string(el.Offers.Price),
		AddressRegion:   el.About.Address.AddressRegion,
		AddressLocality: el.About.Address.AddressLocality,
		DatePublished:   el.DatePublished,
	}
}
