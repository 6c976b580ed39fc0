// internal/live/fake_panel_test.go
package live

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeHandle references a catalog position held by the fake panel.
type fakeHandle struct{ pos int }

func (h fakeHandle) Describe() string { return fmt.Sprintf("item[%d]", h.pos) }

// fakeControl is a named control whose clicks the fake panel records.
type fakeControl struct{ name string }

func (c fakeControl) Describe() string { return c.name }

const fakeRowHeight = 100.0

// fakePanel simulates a virtualized goods list over a fixed server-backed
// catalog. Only windowSize entries are materialized at a time; scrolling an
// edge entry into view slides the window by scrollStep rows until the
// catalog boundary, at which point the scroll offset stops changing and
// the locator's stagnation check fires.
type fakePanel struct {
	mu sync.Mutex

	catalog    []int64 // identifiers in on-screen order, top to bottom
	windowSize int
	scrollStep int
	winStart   int

	// blockAllExcept, when non-zero, makes IdentifierOf block until ctx
	// cancellation for every entry except the one with this identifier.
	// Used to prove the probe phase abandons losers instead of awaiting
	// them.
	blockAllExcept int64

	hasInput       bool
	hasPin         bool
	submitOK       bool
	popupTriggers  bool
	overlays       map[string]bool
	scrollAbsent   bool

	filled      []string
	clicks      []string
	scrollCalls int
	idReads     int
}

func newFakePanel(catalog []int64, windowSize int) *fakePanel {
	return &fakePanel{
		catalog:       catalog,
		windowSize:    windowSize,
		scrollStep:    2,
		hasInput:      true,
		hasPin:        true,
		submitOK:      true,
		popupTriggers: true,
		overlays:      map[string]bool{},
	}
}

func (p *fakePanel) window() (start, end int) {
	end = p.winStart + p.windowSize
	if end > len(p.catalog) {
		end = len(p.catalog)
	}
	return p.winStart, end
}

func (p *fakePanel) CommentInput(ctx context.Context) (Control, bool, error) {
	if !p.hasInput {
		return nil, false, nil
	}
	return fakeControl{"comment-input"}, true, nil
}

func (p *fakePanel) VisibleItems(ctx context.Context) ([]ItemHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start, end := p.window()
	items := make([]ItemHandle, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, fakeHandle{pos: i})
	}
	return items, nil
}

func (p *fakePanel) IdentifierOf(ctx context.Context, h ItemHandle) (int64, error) {
	p.mu.Lock()
	p.idReads++
	id := p.catalog[h.(fakeHandle).pos]
	block := p.blockAllExcept != 0 && id != p.blockAllExcept
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return id, nil
}

func (p *fakePanel) PopupTriggerFor(ctx context.Context, h ItemHandle) (Control, bool, error) {
	if !p.popupTriggers {
		return nil, false, nil
	}
	return fakeControl{fmt.Sprintf("trigger[%d]", h.(fakeHandle).pos)}, true, nil
}

func (p *fakePanel) ScrollContainer(ctx context.Context) (Control, bool, error) {
	if p.scrollAbsent {
		return nil, false, nil
	}
	return fakeControl{"scroll-container"}, true, nil
}

func (p *fakePanel) PinToTopControl(ctx context.Context) (Control, bool, error) {
	if !p.hasPin {
		return nil, false, nil
	}
	return fakeControl{"pin-to-top"}, true, nil
}

func (p *fakePanel) SubmitCommentControl(ctx context.Context) (Control, bool, error) {
	if !p.submitOK {
		return nil, false, nil
	}
	return fakeControl{"submit"}, true, nil
}

func (p *fakePanel) QueryControl(ctx context.Context, selector string) (Control, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.overlays[selector] {
		return nil, false, nil
	}
	return fakeControl{selector}, true, nil
}

func (p *fakePanel) QueryControlIn(ctx context.Context, h ItemHandle, selector string) (Control, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := fmt.Sprintf("%s@%d", selector, h.(fakeHandle).pos)
	if !p.overlays[key] {
		return nil, false, nil
	}
	return fakeControl{key}, true, nil
}

func (p *fakePanel) ScrollOffset(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.winStart) * fakeRowHeight, nil
}

func (p *fakePanel) ScrollIntoView(ctx context.Context, h ItemHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollCalls++

	pos := h.(fakeHandle).pos
	start, end := p.window()
	switch {
	case pos <= start:
		p.winStart -= p.scrollStep
		if p.winStart < 0 {
			p.winStart = 0
		}
	case pos >= end-1:
		maxStart := len(p.catalog) - p.windowSize
		if maxStart < 0 {
			maxStart = 0
		}
		p.winStart += p.scrollStep
		if p.winStart > maxStart {
			p.winStart = maxStart
		}
	}
	return nil
}

func (p *fakePanel) Click(ctx context.Context, c Control) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := c.Describe()
	p.clicks = append(p.clicks, name)
	// Clicking an overlay dismisses it.
	if p.overlays[name] {
		p.overlays[name] = false
	}
	return nil
}

func (p *fakePanel) Fill(ctx context.Context, c Control, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filled = append(p.filled, text)
	return nil
}

func (p *fakePanel) scrolls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollCalls
}

var _ Panel = (*fakePanel)(nil)

// fastScan returns locator tuning that keeps the tests quick while still
// exercising the settle and stagnation paths.
func fastScan() LocatorConfig {
	return LocatorConfig{SettleDelay: time.Millisecond, StagnationTolerance: 10}
}
