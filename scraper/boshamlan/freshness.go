package boshamlan

import (
	"strconv"
	"strings"
	"time"
)

// Freshness classifies a card's age text against the trailing recency window.
type Freshness int

const (
	// Unknown means the text carries no recognizable age: empty, garbled, or
	// outside the site's vocabulary. Treated as "cannot confirm recency"
	// wherever freshness gates a decision.
	Unknown Freshness = iota
	// Fresh marks ages inside the window: minutes, hours, exactly one day,
	// or an absolute date no earlier than yesterday.
	Fresh
	// Stale marks ages beyond the window.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// ageMarkers holds the unit tokens the feed renders, singular and plural.
// Kept as data so a site copy change is a table edit, not a logic edit.
var ageMarkers = struct {
	hour, minute, day []string
}{
	hour:   []string{"ساعة", "ساعات"},
	minute: []string{"دقيقة", "دقائق"},
	day:    []string{"يوم", "أيام"},
}

// dateLayouts are the absolute-date forms that replace relative text once a
// listing ages past the relative window.
var dateLayouts = []string{"2006-01-02"}

// ClassifyAge maps one card's age text to a Freshness class. Unparseable
// input degrades to Unknown, never to an error.
func ClassifyAge(text string) Freshness {
	return classifyAgeAt(text, time.Now())
}

// classifyAgeAt is ClassifyAge with an injectable clock.
func classifyAgeAt(text string, now time.Time) Freshness {
	s := strings.TrimSpace(text)
	if s == "" {
		return Unknown
	}

	// Absolute dates are probed first: they would otherwise fail the
	// leading-integer gate below and never classify.
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y := now.AddDate(0, 0, -1)
		yesterday := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(yesterday) {
			return Stale
		}
		return Fresh
	}

	fields := strings.Fields(s)
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return Unknown
	}

	unit := strings.Join(fields[1:], " ")
	if containsAny(unit, ageMarkers.hour) || containsAny(unit, ageMarkers.minute) {
		return Fresh
	}
	if containsAny(unit, ageMarkers.day) {
		if n == 1 {
			return Fresh
		}
		return Stale
	}
	return Unknown
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
