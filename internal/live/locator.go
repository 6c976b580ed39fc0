// internal/live/locator.go
package live

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// LocatorConfig carries the scan tuning parameters. Both values are tied to
// a platform's rendering latency and must be recalibrated per platform
// rather than assumed to generalize.
type LocatorConfig struct {
	// SettleDelay is how long the scan waits after a load-triggering
	// scroll for the page to materialize additional entries.
	SettleDelay time.Duration
	// StagnationTolerance is the band within which two scroll offsets are
	// considered unchanged, so sub-pixel jitter is not mistaken for real
	// movement.
	StagnationTolerance float64
}

// DefaultLocatorConfig returns the tuning used for the douyin control
// panel.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		SettleDelay:         time.Second,
		StagnationTolerance: 10,
	}
}

// Locator resolves a numeric goods identifier to a live ItemHandle by
// adaptively scanning the virtualized, lazily loaded goods list. The list
// is only partially materialized at any time and its endpoints move as the
// page scrolls and loads more entries.
type Locator struct {
	panel  Panel
	cfg    LocatorConfig
	logger *zap.Logger
}

// NewLocator creates a locator over the given panel.
func NewLocator(panel Panel, cfg LocatorConfig, logger *zap.Logger) *Locator {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultLocatorConfig().SettleDelay
	}
	if cfg.StagnationTolerance <= 0 {
		cfg.StagnationTolerance = DefaultLocatorConfig().StagnationTolerance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{panel: panel, cfg: cfg, logger: logger.Named("locator")}
}

// scrollDirection is the edge of the visible range a scan round moves
// toward.
type scrollDirection int

const (
	scrollUp scrollDirection = iota
	scrollDown
)

func (d scrollDirection) String() string {
	if d == scrollUp {
		return "up"
	}
	return "down"
}

// probeOutcome is the result of one identifier read during the concurrent
// probe phase.
type probeOutcome struct {
	index int
	id    int64
	err   error
}

// Locate produces a live handle whose extracted identifier equals target,
// or fails with ErrNotFound once the loadable range is exhausted in the
// required direction. Cancellation surfaces as ErrAborted at any
// suspension point.
func (l *Locator) Locate(ctx context.Context, target int64) (ItemHandle, error) {
	var lastDir scrollDirection
	haveLast := false
	for round := 1; ; round++ {
		if err := abortIfDone(ctx); err != nil {
			return nil, err
		}

		window, err := l.panel.VisibleItems(ctx)
		if err != nil {
			return nil, asAborted(ctx, fmt.Errorf("reading visible window: %w", err))
		}
		if len(window) == 0 {
			return nil, fmt.Errorf("%w: empty catalog", ErrNotFound)
		}

		match, ids, err := l.probe(ctx, window, target)
		if err != nil {
			return nil, err
		}
		if match != nil {
			l.logger.Debug("Target resolved in probe phase.",
				zap.Int64("target", target),
				zap.Int("round", round),
				zap.String("handle", match.Describe()))
			return match, nil
		}

		dir, err := l.chooseDirection(ids, target)
		if err != nil {
			return nil, err
		}
		// A direction reversal means the scan has swept past the slot the
		// target would occupy from both sides: the identifier is simply
		// absent from the catalog, and scrolling back and forth would
		// never terminate.
		if haveLast && dir != lastDir {
			l.logger.Debug("Scan direction reversed, target bracketed but absent.",
				zap.Int64("target", target), zap.Int("round", round))
			return nil, fmt.Errorf("%w: exhausted without match for id %d", ErrNotFound, target)
		}
		lastDir, haveLast = dir, true

		edge := window[0]
		if dir == scrollDown {
			edge = window[len(window)-1]
		}

		before, err := l.panel.ScrollOffset(ctx)
		if err != nil {
			return nil, asAborted(ctx, fmt.Errorf("reading scroll offset: %w", err))
		}

		l.logger.Debug("Target not visible, scrolling toward edge.",
			zap.Int64("target", target),
			zap.Int("round", round),
			zap.Int("window_size", len(window)),
			zap.String("direction", dir.String()),
			zap.Float64("offset", before))

		if err := l.panel.ScrollIntoView(ctx, edge); err != nil {
			return nil, asAborted(ctx, fmt.Errorf("scrolling to %s: %w", edge.Describe(), err))
		}
		if err := l.settle(ctx); err != nil {
			return nil, err
		}

		after, err := l.panel.ScrollOffset(ctx)
		if err != nil {
			return nil, asAborted(ctx, fmt.Errorf("reading scroll offset: %w", err))
		}
		if math.Abs(after-before) <= l.cfg.StagnationTolerance {
			l.logger.Debug("Scroll position stagnant, loadable range exhausted.",
				zap.Int64("target", target),
				zap.Float64("before", before),
				zap.Float64("after", after))
			return nil, fmt.Errorf("%w: exhausted without match for id %d", ErrNotFound, target)
		}
		// The view moved; the next round re-reads the window and uses its
		// own pre-scroll offset as the fresh stagnation baseline.
	}
}

// probe tests every handle in the window for identifier equality
// concurrently. All reads are fired at once; the first one to match wins
// and is returned immediately, and the in-flight losers are abandoned (the
// buffered channel lets them finish without being awaited). Reading one
// identifier is independent of the others, and identifiers are unique, so
// the first resolved match is always the unique correct answer.
//
// When no handle matches, probe returns the window's identifiers by index
// so the caller can derive orientation without further page reads.
func (l *Locator) probe(ctx context.Context, window []ItemHandle, target int64) (ItemHandle, []int64, error) {
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan probeOutcome, len(window))
	for i, h := range window {
		go func(i int, h ItemHandle) {
			id, err := l.panel.IdentifierOf(probeCtx, h)
			outcomes <- probeOutcome{index: i, id: id, err: err}
		}(i, h)
	}

	ids := make([]int64, len(window))
	for i := range ids {
		ids[i] = -1
	}

	for remaining := len(window); remaining > 0; remaining-- {
		select {
		case <-ctx.Done():
			return nil, nil, abortIfDone(ctx)
		case out := <-outcomes:
			if out.err != nil {
				// A single unreadable entry does not fail the scan; the
				// entry may have been re-rendered mid-read.
				l.logger.Debug("Identifier read failed during probe.",
					zap.Int("index", out.index), zap.Error(out.err))
				continue
			}
			if out.id == target {
				return window[out.index], nil, nil
			}
			ids[out.index] = out.id
		}
	}
	return nil, ids, nil
}

// chooseDirection decides which edge of the visible range to scroll
// toward. Orientation comes from the first and last readable identifiers:
// ascending when first < last, descending otherwise. A target outside the
// spanned range scrolls toward the boundary it lies beyond; a target
// inside the range but unmatched does not exist in the materialized
// window, so the scan loads more data from the nearer boundary.
func (l *Locator) chooseDirection(ids []int64, target int64) (scrollDirection, error) {
	first, last := int64(-1), int64(-1)
	for _, id := range ids {
		if id < 0 {
			continue
		}
		if first < 0 {
			first = id
		}
		last = id
	}
	if first < 0 {
		// Every identifier read failed; treat the window as unreadable
		// rather than guessing at a direction.
		return scrollUp, fmt.Errorf("%w: no readable identifiers in visible window", ErrNotFound)
	}

	ascending := first <= last
	lo, hi := first, last
	if lo > hi {
		lo, hi = hi, lo
	}

	switch {
	case target < lo:
		// Under ascending order smaller ids precede the window; under
		// descending order they trail it.
		if ascending {
			return scrollUp, nil
		}
		return scrollDown, nil
	case target > hi:
		if ascending {
			return scrollDown, nil
		}
		return scrollUp, nil
	default:
		// In range but unmatched: load from the nearer boundary. For the
		// degenerate single-item window both comparisons coincide and the
		// exhaustion check bounds the scan after one scroll attempt.
		nearFirst := target-lo <= hi-target
		if nearFirst == ascending {
			return scrollUp, nil
		}
		return scrollDown, nil
	}
}

// settle suspends for the configured delay so the page can materialize
// additional entries, aborting promptly on cancellation.
func (l *Locator) settle(ctx context.Context) error {
	timer := time.NewTimer(l.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return abortIfDone(ctx)
	case <-timer.C:
		return nil
	}
}
