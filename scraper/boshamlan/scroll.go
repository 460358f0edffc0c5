package boshamlan

import (
	"context"
	"fmt"
	"time"

	"boshamlan-scraper/config"
	"boshamlan-scraper/utils"
)

// Termination is the reason the scroll driver stopped. None of the reasons
// is an error: a feed that stabilizes, saturates, runs out the cap, or
// renders too few cards to judge has still been driven as far as it usefully
// goes.
type Termination int

const (
	// TermStable: content height unchanged across the configured number of
	// consecutive attempts. The feed has no more lazy content.
	TermStable Termination = iota
	// TermSaturated: enough of the trailing cards classify stale. The feed
	// has scrolled past the freshness boundary.
	TermSaturated
	// TermExhausted: the hard scroll cap was reached.
	TermExhausted
	// TermShortSample: too few cards rendered to judge staleness.
	TermShortSample
)

func (t Termination) String() string {
	switch t {
	case TermStable:
		return "stable (no new content)"
	case TermSaturated:
		return "saturated (trailing cards stale)"
	case TermExhausted:
		return "exhausted (scroll cap reached)"
	case TermShortSample:
		return "insufficient sample"
	default:
		return fmt.Sprintf("termination(%d)", int(t))
	}
}

// ScrollDriver reveals the feed's lazily-loaded cards: it activates the
// one-shot "load more" control, then scrolls to the bottom until a stop
// signal fires. Height stability and tail staleness run on separate counters;
// the thresholds are tunables, not protocol guarantees.
type ScrollDriver struct {
	logger *utils.Logger

	Settle       time.Duration // pause after each scroll for lazy content
	ExpandSettle time.Duration // pause after the "load more" click
	MaxScrolls   int           // hard safety cap on scroll attempts
	StableAfter  int           // consecutive unchanged heights that stop
	TailWindow   int           // rendered cards inspected from the tail
	StaleLimit   int           // stale cards in the tail that saturate
	MinSample    int           // fewer rendered ages than this stops the drive
}

// NewScrollDriver builds a driver from the configured tunables.
func NewScrollDriver(cfg *config.Config, logger *utils.Logger) *ScrollDriver {
	return &ScrollDriver{
		logger:       logger,
		Settle:       time.Duration(cfg.SettleMs) * time.Millisecond,
		ExpandSettle: time.Duration(cfg.ExpandSettleMs) * time.Millisecond,
		MaxScrolls:   cfg.MaxScrolls,
		StableAfter:  cfg.StableAfter,
		TailWindow:   cfg.TailWindow,
		StaleLimit:   cfg.StaleLimit,
		MinSample:    cfg.MinSample,
	}
}

// Run drives feed to a terminal state. The returned Termination is
// informational. An error means the page stopped answering mid-drive; the
// caller still owns whatever is rendered at that point.
func (d *ScrollDriver) Run(ctx context.Context, feed FeedPage) (Termination, error) {
	clicked, err := feed.ExpandOnce(ctx)
	if err != nil {
		d.logger.Warn("[scroll] Load-more control: %v", err)
	} else if clicked {
		d.logger.Debug("[scroll] Load-more clicked, settling %s", d.ExpandSettle)
		if err := utils.Sleep(ctx, d.ExpandSettle); err != nil {
			return TermExhausted, err
		}
	}

	var prevHeight int64 = -1
	unchanged := 0

	for attempt := 1; attempt <= d.MaxScrolls; attempt++ {
		if err := feed.ScrollBottom(ctx); err != nil {
			return TermExhausted, fmt.Errorf("scroll attempt %d: %w", attempt, err)
		}
		if err := utils.Sleep(ctx, d.Settle); err != nil {
			return TermExhausted, err
		}

		height, err := feed.ContentHeight(ctx)
		if err != nil {
			return TermExhausted, fmt.Errorf("scroll attempt %d: %w", attempt, err)
		}
		if height == prevHeight {
			unchanged++
			if unchanged >= d.StableAfter {
				d.logger.Info("[scroll] Height stable at %d after %d unchanged attempts", height, unchanged)
				return TermStable, nil
			}
		} else {
			unchanged = 0
		}
		prevHeight = height

		ages, err := feed.AgeTexts(ctx)
		if err != nil {
			return TermExhausted, fmt.Errorf("scroll attempt %d: %w", attempt, err)
		}
		if len(ages) < d.MinSample {
			d.logger.Info("[scroll] Only %d cards rendered, not enough to judge staleness", len(ages))
			return TermShortSample, nil
		}

		tail := ages
		if len(tail) > d.TailWindow {
			tail = tail[len(tail)-d.TailWindow:]
		}
		stale := 0
		for _, age := range tail {
			if ClassifyAge(age) == Stale {
				stale++
			}
		}
		d.logger.Debug("[scroll] Attempt %d: height=%d cards=%d stale=%d/%d",
			attempt, height, len(ages), stale, len(tail))

		if stale >= d.StaleLimit {
			d.logger.Info("[scroll] %d of the last %d cards are stale, feed saturated", stale, len(tail))
			return TermSaturated, nil
		}
	}

	d.logger.Warn("[scroll] Scroll cap (%d) reached", d.MaxScrolls)
	return TermExhausted, nil
}
