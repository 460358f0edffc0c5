package storage

import (
	"strings"
	"testing"
	"time"

	"boshamlan-scraper/models"
)

func TestDatePartition(t *testing.T) {
	day := time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)
	if got := DatePartition(day); got != "year=2025/month=03/day=05" {
		t.Errorf("DatePartition = %q", got)
	}
}

func TestObjectKeys(t *testing.T) {
	u := &S3Uploader{basePath: "boshamlan-data/properties"}
	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	got := u.workbookKey(day, "للايجار")
	want := "boshamlan-data/properties/year=2025/month=03/day=15/excel files/للايجار.xlsx"
	if got != want {
		t.Errorf("workbookKey = %q; want %q", got, want)
	}

	got = u.imageKey(day, "", "photo.jpg")
	want = "boshamlan-data/properties/year=2025/month=03/day=15/images/photo.jpg"
	if got != want {
		t.Errorf("imageKey without category = %q; want %q", got, want)
	}

	got = u.imageKey(day, "للايجار", "photo.jpg")
	want = "boshamlan-data/properties/year=2025/month=03/day=15/images/للايجار/photo.jpg"
	if got != want {
		t.Errorf("imageKey with category = %q; want %q", got, want)
	}
}

func TestImageFilenameFromTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		index int
		want  string
	}{
		{"plain title", "شقة في السالمية", 2, "شقة_في_السالمية_2.jpg"},
		{"punctuation stripped", "شقة - غرفتين!", 0, "شقة__غرفتين_0.jpg"},
		{"latin mix", "Tower B2 sea view", 1, "Tower_B2_sea_view_1.jpg"},
	}

	for _, tt := range tests {
		rec := &models.Record{Title: &tt.title}
		if got := imageFilename(rec, tt.index); got != tt.want {
			t.Errorf("%s: imageFilename = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestImageFilenameTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("م", 45)
	rec := &models.Record{Title: &long}

	got := imageFilename(rec, 1)
	base := strings.TrimSuffix(got, "_1.jpg")
	if len([]rune(base)) != 30 {
		t.Errorf("title part has %d runes; want 30 (got %q)", len([]rune(base)), got)
	}
}

func TestImageFilenameFallback(t *testing.T) {
	for _, rec := range []*models.Record{
		{},
		{Title: strp("!?!")},
	} {
		got := imageFilename(rec, 7)
		if !strings.HasPrefix(got, "property_7_") || !strings.HasSuffix(got, ".jpg") {
			t.Errorf("fallback name = %q", got)
		}
		if len(got) != len("property_7_")+8+len(".jpg") {
			t.Errorf("fallback name %q should embed an 8-char run identifier", got)
		}
	}
}
