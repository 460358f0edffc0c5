package boshamlan

import (
	"testing"
	"time"
)

func TestClassifyAgeRelative(t *testing.T) {
	tests := []struct {
		text string
		want Freshness
	}{
		{"3 ساعة", Fresh},
		{"5 ساعات", Fresh},
		{"45 دقيقة", Fresh},
		{"10 دقائق", Fresh},
		{"1 يوم", Fresh},
		{"2 يوم", Stale},
		{"7 أيام", Stale},
		{"", Unknown},
		{"   ", Unknown},
		{"abc", Unknown},
		{"منذ ساعة", Unknown}, // no leading integer
		{"-1 ساعة", Unknown},
		{"3 أسابيع", Unknown}, // unit outside the vocabulary
	}

	for _, tt := range tests {
		if got := ClassifyAge(tt.text); got != tt.want {
			t.Errorf("ClassifyAge(%q) = %v; want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyAgeAbsoluteDates(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		text string
		want Freshness
	}{
		{"2025-03-15", Fresh},
		{"2025-03-14", Fresh}, // yesterday is inside the window
		{"2025-03-13", Stale},
		{"2024-12-31", Stale},
		{"2025-04-01", Fresh}, // future-dated stays fresh
	}

	for _, tt := range tests {
		if got := classifyAgeAt(tt.text, now); got != tt.want {
			t.Errorf("classifyAgeAt(%q) = %v; want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyAgeIdempotent(t *testing.T) {
	texts := []string{"3 ساعة", "1 يوم", "2 يوم", "", "abc", "2025-01-01"}

	for _, text := range texts {
		first := ClassifyAge(text)
		for i := 0; i < 3; i++ {
			if got := ClassifyAge(text); got != first {
				t.Errorf("ClassifyAge(%q) unstable: first %v, then %v", text, first, got)
			}
		}
	}
}
