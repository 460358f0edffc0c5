package offices

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// eyeIconViewBox identifies the view-counter badge among the detail items.
const eyeIconViewBox = "0 -960 960 960"

// ParseViews extracts the numeric view counter from a listing detail page.
// The badge is the advertising-details item carrying the eye icon; when the
// icon is not found, the first purely numeric item is taken instead.
func ParseViews(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}

	views := -1
	doc.Find("li.post-info-advertising-details").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		svg := item.Find("svg").First()
		if box, ok := svg.Attr("viewBox"); ok && strings.Contains(box, eyeIconViewBox) {
			if n, ok := digitsOf(item.Find("span").First().Text()); ok {
				views = n
				return false
			}
		}
		return true
	})
	if views >= 0 {
		return views, nil
	}

	doc.Find("li.post-info-advertising-details span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if text == "" {
			return true
		}
		if n, err := strconv.Atoi(text); err == nil {
			views = n
			return false
		}
		return true
	})
	if views >= 0 {
		return views, nil
	}

	return 0, fmt.Errorf("view badge not found")
}

// digitsOf strips non-digits and parses what remains.
func digitsOf(s string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}
