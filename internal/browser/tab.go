// internal/browser/tab.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tab is one browser tab bound to a chromedp target. Its Run method is the
// bridge the platform layer drives the page through.
type Tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	navigationTimeout time.Duration

	onClose   func()
	closeOnce sync.Once
}

func newTab(browserCtx context.Context, navigationTimeout time.Duration, logger *zap.Logger) *Tab {
	id := uuid.New().String()
	ctx, cancel := chromedp.NewContext(browserCtx)
	if navigationTimeout <= 0 {
		navigationTimeout = 90 * time.Second
	}
	return &Tab{
		id:                id,
		ctx:               ctx,
		cancel:            cancel,
		logger:            logger.With(zap.String("tab_id", id)),
		navigationTimeout: navigationTimeout,
	}
}

// ID returns the tab's unique identifier.
func (t *Tab) ID() string { return t.id }

// Run executes chromedp actions against this tab. The tab context supplies
// the CDP target; the operation context supplies the caller's deadline and
// cancellation.
func (t *Tab) Run(ctx context.Context, actions ...chromedp.Action) error {
	combined, cancel := CombineContext(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(combined, actions...)
}

// Navigate loads the URL and waits for the load event, bounded by the
// navigation timeout.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.navigationTimeout)
	defer cancel()

	t.logger.Debug("Navigating.", zap.String("url", url))
	if err := t.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Close releases the tab's target. Safe to call more than once.
func (t *Tab) Close() {
	t.closeOnce.Do(func() {
		t.cancel()
		if t.onClose != nil {
			t.onClose()
		}
		t.logger.Debug("Tab closed.")
	})
}
