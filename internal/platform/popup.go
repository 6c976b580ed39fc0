// internal/platform/popup.go
package platform

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/live"
)

// StrategyConfig bounds the popup confirmation choreography.
type StrategyConfig struct {
	// ConfirmWait caps how long the confirm dialog may take to appear on
	// platforms that raise one.
	ConfirmWait time.Duration
	// ActiveWait caps how long the "explaining" marker may take to appear
	// after the final click.
	ActiveWait time.Duration
	// Poll is the re-check interval while waiting.
	Poll time.Duration
}

// DefaultStrategyConfig matches observed panel latencies.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		ConfirmWait: 3 * time.Second,
		ActiveWait:  5 * time.Second,
		Poll:        200 * time.Millisecond,
	}
}

func (c *StrategyConfig) normalize() {
	if c.ConfirmWait <= 0 {
		c.ConfirmWait = 3 * time.Second
	}
	if c.ActiveWait <= 0 {
		c.ActiveWait = 5 * time.Second
	}
	if c.Poll <= 0 {
		c.Poll = 200 * time.Millisecond
	}
}

// confirmStrategy drives a trigger click, an optional confirm dialog, and
// a bounded wait for the active marker. Platform differences are carried
// entirely by the selector table: douyin and kuaishou raise a confirm
// dialog, buyin and wxchannel apply on the first click.
type confirmStrategy struct {
	confirmSel string
	activeSel  string
	cfg        StrategyConfig
	logger     *zap.Logger
}

// NewPopupStrategy returns the popup choreography for one platform.
func NewPopupStrategy(sel Selectors, cfg StrategyConfig, logger *zap.Logger) live.PopupStrategy {
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &confirmStrategy{
		confirmSel: sel.PopupConfirm,
		activeSel:  sel.PopupActiveIn,
		cfg:        cfg,
		logger:     logger.Named("popup"),
	}
}

func (s *confirmStrategy) Confirm(ctx context.Context, item live.ItemHandle, trigger live.Control, panel live.Panel, relocate live.RelocateFunc) error {
	if err := panel.Click(ctx, trigger); err != nil {
		// A re-render between resolution and click invalidates the
		// trigger. Relocate once and retry before giving up.
		s.logger.Debug("trigger click failed, relocating",
			zap.String("trigger", trigger.Describe()), zap.Error(err))
		freshItem, fresh, rerr := relocate(ctx)
		if rerr != nil {
			return rerr
		}
		if err := panel.Click(ctx, fresh); err != nil {
			return fmt.Errorf("clicking relocated trigger %s: %w", fresh.Describe(), err)
		}
		item, trigger = freshItem, fresh
	}

	if s.confirmSel != "" {
		ctl, err := s.awaitControl(ctx, s.confirmSel, s.cfg.ConfirmWait, func(ctx context.Context) (live.Control, bool, error) {
			return panel.QueryControl(ctx, s.confirmSel)
		})
		if err != nil {
			return err
		}
		if ctl == nil {
			// Dialog never appeared. Some flows skip it when the entry is
			// already staged, so fall through to the marker check.
			s.logger.Debug("confirm dialog did not appear", zap.String("selector", s.confirmSel))
		} else if err := panel.Click(ctx, ctl); err != nil {
			return fmt.Errorf("confirming popup: %w", err)
		}
	}

	// The marker is read within the clicked entry only; another entry
	// already in the explaining state must not pass for this one.
	ctl, err := s.awaitControl(ctx, s.activeSel, s.cfg.ActiveWait, func(ctx context.Context) (live.Control, bool, error) {
		return panel.QueryControlIn(ctx, item, s.activeSel)
	})
	if err != nil {
		return err
	}
	if ctl == nil {
		return fmt.Errorf("popup of %s: %w", trigger.Describe(), live.ErrPopupConfirmationTimeout)
	}
	return nil
}

// awaitControl polls the query until it resolves or the wait lapses. A
// lapsed wait returns (nil, nil); only abort and panel failures error.
func (s *confirmStrategy) awaitControl(ctx context.Context, selector string, wait time.Duration, query func(ctx context.Context) (live.Control, bool, error)) (live.Control, error) {
	deadline := time.Now().Add(wait)
	for {
		ctl, ok, err := query(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return ctl, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", selector, live.ErrAborted)
		case <-time.After(s.cfg.Poll):
		}
	}
}
