// internal/platform/page.go
package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/live"
)

// RunFunc executes chromedp actions against the panel's tab. The browser
// manager supplies an implementation that combines the tab's lifecycle
// context with the per-operation context before running.
type RunFunc func(ctx context.Context, actions ...chromedp.Action) error

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Page implements live.Panel against a Chrome tab showing one platform's
// control panel. All DOM access goes through CDP evaluations; handles are
// positional within the window snapshot they came from and are stale after
// any scroll or re-render.
type Page struct {
	run    RunFunc
	sel    Selectors
	logger *zap.Logger
}

var _ live.Panel = (*Page)(nil)

// NewPage wires a panel implementation for one platform tab.
func NewPage(run RunFunc, sel Selectors, logger *zap.Logger) (*Page, error) {
	if run == nil {
		return nil, fmt.Errorf("page: run function is required")
	}
	if err := sel.validate(); err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{run: run, sel: sel, logger: logger.Named("page")}, nil
}

// itemHandle references the i-th entry of the visible window snapshot.
type itemHandle struct{ index int }

func (h itemHandle) Describe() string { return fmt.Sprintf("goods[%d]", h.index) }

// pageControl is a control bound to the click/fill steps that operate it.
type pageControl struct {
	desc  string
	click func(ctx context.Context) error
	fill  func(ctx context.Context, text string) error
}

func (c *pageControl) Describe() string { return c.desc }

// jsQuote encodes a value as a JS literal, escaping selector strings for
// safe embedding.
func jsQuote(v interface{}) string {
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// eval runs a script in the page and returns the raw result. Promises are
// awaited and JS exceptions are surfaced silently as evaluation errors.
func (p *Page) eval(ctx context.Context, script string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := p.run(ctx, chromedp.Evaluate(script, &raw, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// evalInto runs a script and decodes its result. A JS null result reports
// found=false, matching the contract that absence is not an error.
func (p *Page) evalInto(ctx context.Context, script string, out interface{}) (bool, error) {
	raw, err := p.eval(ctx, script)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := jsonAPI.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decoding evaluation result: %w (payload: %s)", err, string(raw))
	}
	return true, nil
}

// exists reports whether any element matches the selector.
func (p *Page) exists(ctx context.Context, selector string) (bool, error) {
	script := fmt.Sprintf(`!!document.querySelector(%s)`, jsQuote(selector))
	var ok bool
	if _, err := p.evalInto(ctx, script, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// selectorControl builds a control whose click targets the first element
// matching a CSS selector.
func (p *Page) selectorControl(desc, selector string) *pageControl {
	return &pageControl{
		desc: desc,
		click: func(ctx context.Context) error {
			return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
		},
	}
}

// -- live.Panel implementation --

// CommentInput returns the chat text entry, fillable through the React
// native value setter so the panel's framework observes the change.
func (p *Page) CommentInput(ctx context.Context) (live.Control, bool, error) {
	ok, err := p.exists(ctx, p.sel.CommentInput)
	if err != nil || !ok {
		return nil, false, err
	}
	ctl := p.selectorControl("comment-input", p.sel.CommentInput)
	ctl.fill = func(ctx context.Context, text string) error {
		// Assigning .value directly is invisible to React-style panels;
		// go through the prototype setter and fire an input event.
		script := fmt.Sprintf(`
			(function(sel, text) {
				const el = document.querySelector(sel);
				if (!el) return false;
				const proto = el.tagName === 'TEXTAREA'
					? window.HTMLTextAreaElement.prototype
					: window.HTMLInputElement.prototype;
				const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
				setter.call(el, text);
				el.dispatchEvent(new Event('input', { bubbles: true }));
				return true;
			})(%s, %s)`, jsQuote(p.sel.CommentInput), jsQuote(text))
		var filled bool
		if _, err := p.evalInto(ctx, script, &filled); err != nil {
			return err
		}
		if !filled {
			return fmt.Errorf("comment input vanished before fill")
		}
		return nil
	}
	return ctl, true, nil
}

// VisibleItems snapshots the materialized goods entries in on-screen
// order.
func (p *Page) VisibleItems(ctx context.Context) ([]live.ItemHandle, error) {
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsQuote(p.sel.GoodsItem))
	var count int
	if _, err := p.evalInto(ctx, script, &count); err != nil {
		return nil, fmt.Errorf("counting goods items: %w", err)
	}
	items := make([]live.ItemHandle, count)
	for i := range items {
		items[i] = itemHandle{index: i}
	}
	return items, nil
}

// IdentifierOf reads the numeric identifier rendered inside the entry,
// tolerating decorated text ("No.12", "12.") by keeping digits only.
func (p *Page) IdentifierOf(ctx context.Context, h live.ItemHandle) (int64, error) {
	ih, ok := h.(itemHandle)
	if !ok {
		return 0, fmt.Errorf("foreign item handle %s", h.Describe())
	}
	script := fmt.Sprintf(`
		(function(itemSel, idSel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			if (!item) return null;
			const el = idSel ? item.querySelector(idSel) : item;
			if (!el) return null;
			const digits = (el.textContent || '').replace(/[^0-9]/g, '');
			if (!digits) return null;
			return parseInt(digits, 10);
		})(%s, %s, %d)`, jsQuote(p.sel.GoodsItem), jsQuote(p.sel.GoodsIDIn), ih.index)
	var id int64
	found, err := p.evalInto(ctx, script, &id)
	if err != nil {
		return 0, fmt.Errorf("reading identifier of %s: %w", h.Describe(), err)
	}
	if !found {
		return 0, fmt.Errorf("%s carries no readable identifier", h.Describe())
	}
	return id, nil
}

// PopupTriggerFor resolves the entry's "explain" button.
func (p *Page) PopupTriggerFor(ctx context.Context, h live.ItemHandle) (live.Control, bool, error) {
	ih, ok := h.(itemHandle)
	if !ok {
		return nil, false, fmt.Errorf("foreign item handle %s", h.Describe())
	}
	script := fmt.Sprintf(`
		(function(itemSel, trgSel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			return !!(item && item.querySelector(trgSel));
		})(%s, %s, %d)`, jsQuote(p.sel.GoodsItem), jsQuote(p.sel.PopupTriggerIn), ih.index)
	var present bool
	if _, err := p.evalInto(ctx, script, &present); err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, nil
	}
	clickScript := fmt.Sprintf(`
		(function(itemSel, trgSel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			const btn = item && item.querySelector(trgSel);
			if (!btn) return false;
			btn.click();
			return true;
		})(%s, %s, %d)`, jsQuote(p.sel.GoodsItem), jsQuote(p.sel.PopupTriggerIn), ih.index)
	ctl := &pageControl{
		desc: fmt.Sprintf("popup-trigger[%d]", ih.index),
		click: func(ctx context.Context) error {
			var clicked bool
			if _, err := p.evalInto(ctx, clickScript, &clicked); err != nil {
				return err
			}
			if !clicked {
				return fmt.Errorf("popup trigger for goods[%d] vanished before click", ih.index)
			}
			return nil
		},
	}
	return ctl, true, nil
}

// ScrollContainer resolves the goods list's scrollable ancestor.
func (p *Page) ScrollContainer(ctx context.Context) (live.Control, bool, error) {
	if p.sel.ScrollContainer == "" {
		return nil, false, nil
	}
	ok, err := p.exists(ctx, p.sel.ScrollContainer)
	if err != nil || !ok {
		return nil, false, err
	}
	return p.selectorControl("scroll-container", p.sel.ScrollContainer), true, nil
}

// PinToTopControl resolves the pin checkbox; some platforms have none.
func (p *Page) PinToTopControl(ctx context.Context) (live.Control, bool, error) {
	if p.sel.PinToTop == "" {
		return nil, false, nil
	}
	ok, err := p.exists(ctx, p.sel.PinToTop)
	if err != nil || !ok {
		return nil, false, err
	}
	return p.selectorControl("pin-to-top", p.sel.PinToTop), true, nil
}

// SubmitCommentControl resolves the submit button only while it is
// actually clickable.
func (p *Page) SubmitCommentControl(ctx context.Context) (live.Control, bool, error) {
	script := fmt.Sprintf(`
		(function(sel, disabledMark) {
			const btn = document.querySelector(sel);
			if (!btn) return false;
			if (btn.disabled) return false;
			if (disabledMark && (btn.className || '').includes(disabledMark)) return false;
			return true;
		})(%s, %s)`, jsQuote(p.sel.SubmitComment), jsQuote(p.sel.SubmitDisabled))
	var clickable bool
	if _, err := p.evalInto(ctx, script, &clickable); err != nil {
		return nil, false, err
	}
	if !clickable {
		return nil, false, nil
	}
	return p.selectorControl("submit-comment", p.sel.SubmitComment), true, nil
}

// QueryControl resolves an arbitrary dismissal selector.
func (p *Page) QueryControl(ctx context.Context, selector string) (live.Control, bool, error) {
	ok, err := p.exists(ctx, selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return p.selectorControl(selector, selector), true, nil
}

// QueryControlIn resolves a selector inside one goods entry, so a match in
// a sibling entry never counts.
func (p *Page) QueryControlIn(ctx context.Context, h live.ItemHandle, selector string) (live.Control, bool, error) {
	ih, ok := h.(itemHandle)
	if !ok {
		return nil, false, fmt.Errorf("foreign item handle %s", h.Describe())
	}
	script := fmt.Sprintf(`
		(function(itemSel, sel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			return !!(item && item.querySelector(sel));
		})(%s, %s, %d)`, jsQuote(p.sel.GoodsItem), jsQuote(selector), ih.index)
	var present bool
	if _, err := p.evalInto(ctx, script, &present); err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, nil
	}
	clickScript := fmt.Sprintf(`
		(function(itemSel, sel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			const el = item && item.querySelector(sel);
			if (!el) return false;
			el.click();
			return true;
		})(%s, %s, %d)`, jsQuote(p.sel.GoodsItem), jsQuote(selector), ih.index)
	ctl := &pageControl{
		desc: fmt.Sprintf("%s in goods[%d]", selector, ih.index),
		click: func(ctx context.Context) error {
			var clicked bool
			if _, err := p.evalInto(ctx, clickScript, &clicked); err != nil {
				return err
			}
			if !clicked {
				return fmt.Errorf("%s in goods[%d] vanished before click", selector, ih.index)
			}
			return nil
		},
	}
	return ctl, true, nil
}

// ScrollOffset reads the goods container's scroll offset, falling back to
// the document scroller when the container is not materialized.
func (p *Page) ScrollOffset(ctx context.Context) (float64, error) {
	script := fmt.Sprintf(`
		(function(sel) {
			const c = sel ? document.querySelector(sel) : null;
			if (c) return c.scrollTop;
			return document.scrollingElement ? document.scrollingElement.scrollTop : 0;
		})(%s)`, jsQuote(p.sel.ScrollContainer))
	var offset float64
	if _, err := p.evalInto(ctx, script, &offset); err != nil {
		return 0, fmt.Errorf("reading scroll offset: %w", err)
	}
	return offset, nil
}

// ScrollIntoView centers the entry in the container, which is what nudges
// the virtualized list into materializing its neighbors.
func (p *Page) ScrollIntoView(ctx context.Context, h live.ItemHandle) error {
	ih, ok := h.(itemHandle)
	if !ok {
		return fmt.Errorf("foreign item handle %s", h.Describe())
	}
	script := fmt.Sprintf(`
		(function(itemSel, idx) {
			const item = document.querySelectorAll(itemSel)[idx];
			if (!item) return false;
			item.scrollIntoView({ block: 'center' });
			return true;
		})(%s, %d)`, jsQuote(p.sel.GoodsItem), ih.index)
	var moved bool
	if _, err := p.evalInto(ctx, script, &moved); err != nil {
		return fmt.Errorf("scrolling %s into view: %w", h.Describe(), err)
	}
	if !moved {
		return fmt.Errorf("%s vanished before scroll", h.Describe())
	}
	return nil
}

// Click dispatches the control's click step.
func (p *Page) Click(ctx context.Context, c live.Control) error {
	ctl, ok := c.(*pageControl)
	if !ok {
		return fmt.Errorf("foreign control %s", c.Describe())
	}
	if err := ctl.click(ctx); err != nil {
		return fmt.Errorf("clicking %s: %w", ctl.desc, err)
	}
	return nil
}

// Fill replaces a fillable control's text.
func (p *Page) Fill(ctx context.Context, c live.Control, text string) error {
	ctl, ok := c.(*pageControl)
	if !ok {
		return fmt.Errorf("foreign control %s", c.Describe())
	}
	if ctl.fill == nil {
		return fmt.Errorf("control %s is not fillable", ctl.desc)
	}
	if err := ctl.fill(ctx, text); err != nil {
		return fmt.Errorf("filling %s: %w", ctl.desc, err)
	}
	return nil
}
