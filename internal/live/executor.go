// internal/live/executor.go
package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ExecutorConfig tunes the action-execution layer.
type ExecutorConfig struct {
	Locator LocatorConfig
	// OverlaySelectors is the platform's ordered overlay-dismissal list.
	OverlaySelectors []string
	// MessageRate bounds outbound chat messages; live platforms throttle
	// chat hard and silently drop the excess.
	MessageRate  rate.Limit
	MessageBurst int
}

// DefaultExecutorConfig returns conservative defaults: one message per two
// seconds with a burst of one.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Locator:      DefaultLocatorConfig(),
		MessageRate:  rate.Every(2 * time.Second),
		MessageBurst: 1,
	}
}

// Executor orchestrates the send-message and popup commands against one
// live-control panel session. Commands execute one at a time: an internal
// mutex serializes invocations so no two commands interleave mutation of
// the same page session.
type Executor struct {
	mu       sync.Mutex
	panel    Panel
	locator  *Locator
	recovery *Recovery
	strategy PopupStrategy
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewExecutor wires the executor for one panel session. The popup strategy
// is the platform's confirmation choreography, selected once at session
// construction.
func NewExecutor(panel Panel, strategy PopupStrategy, cfg ExecutorConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MessageRate <= 0 {
		cfg.MessageRate = DefaultExecutorConfig().MessageRate
	}
	if cfg.MessageBurst <= 0 {
		cfg.MessageBurst = 1
	}
	log := logger.Named("executor")
	return &Executor{
		panel:    panel,
		locator:  NewLocator(panel, cfg.Locator, log),
		recovery: NewRecovery(panel, cfg.OverlaySelectors, log),
		strategy: strategy,
		limiter:  rate.NewLimiter(cfg.MessageRate, cfg.MessageBurst),
		logger:   log,
	}
}

// SendMessage fills the comment input with text and submits it, optionally
// pinning the message to the top of the chat. Absence of the pin control
// is a soft condition: the message still goes out unpinned and the return
// value reports whether pinning actually happened.
func (e *Executor) SendMessage(ctx context.Context, text string, pinToTop bool) (pinned bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := abortIfDone(ctx); err != nil {
		return false, err
	}
	if err := e.recovery.Dismiss(ctx); err != nil {
		return false, err
	}

	input, ok, err := e.panel.CommentInput(ctx)
	if err != nil {
		return false, asAborted(ctx, fmt.Errorf("resolving comment input: %w", err))
	}
	if !ok {
		return false, fmt.Errorf("%w: panel has no comment input", ErrNoInputSurface)
	}

	if err := e.panel.Fill(ctx, input, text); err != nil {
		return false, asAborted(ctx, fmt.Errorf("filling comment input: %w", err))
	}

	if pinToTop {
		pinCtl, ok, err := e.panel.PinToTopControl(ctx)
		switch {
		case err != nil:
			return false, asAborted(ctx, fmt.Errorf("resolving pin control: %w", err))
		case !ok:
			e.logger.Warn("Pin-to-top requested but control is absent; sending unpinned.")
		default:
			if err := e.panel.Click(ctx, pinCtl); err != nil {
				return false, asAborted(ctx, fmt.Errorf("activating pin control: %w", err))
			}
			pinned = true
		}
	}

	submit, ok, err := e.panel.SubmitCommentControl(ctx)
	if err != nil {
		return false, asAborted(ctx, fmt.Errorf("resolving submit control: %w", err))
	}
	if !ok {
		return false, fmt.Errorf("%w: submit control absent or disabled", ErrNotSubmittable)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return false, asAborted(ctx, err)
	}
	if err := e.panel.Click(ctx, submit); err != nil {
		return false, asAborted(ctx, fmt.Errorf("submitting comment: %w", err))
	}

	e.logger.Info("Comment submitted.",
		zap.Int("length", len(text)), zap.Bool("pinned", pinned))
	return pinned, nil
}

// PopUp resolves the goods entry with the given identifier and opens its
// "now explaining" popup, delegating the confirmation choreography to the
// platform strategy. The strategy receives a re-locate callback so it can
// re-resolve the trigger if the list re-renders mid-sequence.
func (e *Executor) PopUp(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := abortIfDone(ctx); err != nil {
		return err
	}
	if err := e.recovery.Dismiss(ctx); err != nil {
		return err
	}

	handle, trigger, err := e.resolveTrigger(ctx, id)
	if err != nil {
		return err
	}

	relocate := func(ctx context.Context) (ItemHandle, Control, error) {
		return e.resolveTrigger(ctx, id)
	}
	if err := e.strategy.Confirm(ctx, handle, trigger, e.panel, relocate); err != nil {
		return asAborted(ctx, err)
	}

	e.logger.Info("Popup activated.", zap.Int64("goods_id", id))
	return nil
}

// resolveTrigger runs the locator for id and extracts the popup trigger
// from the resolved handle.
func (e *Executor) resolveTrigger(ctx context.Context, id int64) (ItemHandle, Control, error) {
	handle, err := e.locator.Locate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	trigger, ok, err := e.panel.PopupTriggerFor(ctx, handle)
	if err != nil {
		return nil, nil, asAborted(ctx, fmt.Errorf("resolving popup trigger for %s: %w", handle.Describe(), err))
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: entry %s has no trigger", ErrNoPopupTrigger, handle.Describe())
	}
	return handle, trigger, nil
}

// RecoverLive runs the overlay-dismissal pass on its own. It is best
// effort and never fails: even an observed cancellation only ends the
// pass early.
func (e *Executor) RecoverLive(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.recovery.Dismiss(ctx); err != nil {
		e.logger.Debug("Recovery pass ended early.", zap.Error(err))
	}
}
