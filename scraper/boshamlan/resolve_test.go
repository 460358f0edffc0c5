package boshamlan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"boshamlan-scraper/models"
)

const (
	testFeedURL   = "https://www.boshamlan.com/search?c=1&t=2"
	testDetailURL = "https://www.boshamlan.com/شقق-للايجار/8412"
)

func titledCard() models.Card {
	return models.Card{Position: 1, Title: strp("شقة للايجار في السالمية"), RelativeAge: strp("3 ساعة")}
}

func TestResolveNavigationWatcherWins(t *testing.T) {
	browser := &fakeBrowser{
		corr:   newFakeCorrelation(testFeedURL, testFeedURL, testDetailURL),
		detail: &fakeDetail{contact: "+96550001234", views: "54"},
	}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink == nil || *res.Permalink != testDetailURL {
		t.Fatalf("Permalink = %v; want %q", res.Permalink, testDetailURL)
	}
	if res.Contact == nil || *res.Contact != "+96550001234" {
		t.Errorf("Contact = %v; want the detail page number", res.Contact)
	}
	if res.ViewCount == nil || *res.ViewCount != "54" {
		t.Errorf("ViewCount = %v; want %q", res.ViewCount, "54")
	}
	if !browser.corr.isClosed() {
		t.Errorf("correlation context left open")
	}
	if !browser.detail.closed {
		t.Errorf("detail context left open")
	}
}

func TestResolveInterceptorWins(t *testing.T) {
	// The page never navigates; only the route interceptor sees the URL.
	corr := newFakeCorrelation(testFeedURL)
	corr.intercept <- testDetailURL
	browser := &fakeBrowser{corr: corr, detail: &fakeDetail{contact: "+96550001234", views: "54"}}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink == nil || *res.Permalink != testDetailURL {
		t.Fatalf("Permalink = %v; want the intercepted URL", res.Permalink)
	}
}

func TestResolveBudgetExpires(t *testing.T) {
	corr := newFakeCorrelation(testFeedURL)
	browser := &fakeBrowser{corr: corr}
	r := NewResolver(browser, testConfig(), testLogger())
	r.navBudget = 50 * time.Millisecond

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink != nil || res.Contact != nil || res.ViewCount != nil {
		t.Errorf("expected an empty resolution, got %+v", res)
	}
	if browser.detailOpens != 0 {
		t.Errorf("no detail context should open without a permalink")
	}
	if !corr.isClosed() {
		t.Errorf("correlation context left open")
	}
}

func TestResolveAwaitCardFails(t *testing.T) {
	corr := newFakeCorrelation(testFeedURL)
	corr.awaitErr = fmt.Errorf("card not rendered")
	browser := &fakeBrowser{corr: corr}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink != nil {
		t.Errorf("Permalink = %v; want nil when the card never renders", res.Permalink)
	}
	if browser.detailOpens != 0 {
		t.Errorf("no detail context should open after a failed locate")
	}
	if !corr.isClosed() {
		t.Errorf("correlation context left open")
	}
}

func TestResolveDetailLookupsDegrade(t *testing.T) {
	browser := &fakeBrowser{
		corr: newFakeCorrelation(testFeedURL, testDetailURL),
		detail: &fakeDetail{
			contactErr: fmt.Errorf("no tel link"),
			viewsErr:   fmt.Errorf("badge missing"),
		},
	}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink == nil {
		t.Fatal("Permalink should survive failed detail lookups")
	}
	if res.Contact != nil || res.ViewCount != nil {
		t.Errorf("failed lookups should be nil, got contact=%v views=%v", res.Contact, res.ViewCount)
	}
	if !browser.detail.closed {
		t.Errorf("detail context left open")
	}
}

func TestResolveDetailOpenFails(t *testing.T) {
	browser := &fakeBrowser{
		corr:      newFakeCorrelation(testFeedURL, testDetailURL),
		detailErr: fmt.Errorf("tab crashed"),
	}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, titledCard())

	if res.Permalink == nil || *res.Permalink != testDetailURL {
		t.Fatalf("Permalink = %v; want %q", res.Permalink, testDetailURL)
	}
	if res.Contact != nil || res.ViewCount != nil {
		t.Errorf("contact and views should be nil when the detail context fails")
	}
}

func TestResolveSkipsUntitledCards(t *testing.T) {
	browser := &fakeBrowser{corr: newFakeCorrelation(testFeedURL, testDetailURL)}
	r := NewResolver(browser, testConfig(), testLogger())

	res := r.Resolve(context.Background(), testFeedURL, models.Card{Position: 3})

	if res.Permalink != nil {
		t.Errorf("untitled card resolved a permalink: %v", *res.Permalink)
	}
	if browser.corrOpens != 0 {
		t.Errorf("no correlation context should open for an untitled card")
	}
}
