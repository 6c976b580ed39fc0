// internal/live/recovery.go
package live

import (
	"context"

	"go.uber.org/zap"
)

// Recovery dismisses the transient overlays a platform is known to throw
// over the control panel (activity dialogs, guide bubbles, update prompts).
// The ordered selector list is owned by platform configuration, not by
// this component.
//
// Dismissal is best effort and idempotent: absence of an overlay is a
// no-op, and a failed dismissal never fails the surrounding command.
type Recovery struct {
	panel     Panel
	selectors []string
	logger    *zap.Logger
}

// NewRecovery creates a recovery pass over the given dismissal selectors.
func NewRecovery(panel Panel, selectors []string, logger *zap.Logger) *Recovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recovery{panel: panel, selectors: selectors, logger: logger.Named("recovery")}
}

// Dismiss walks the selector list in order, clicking whatever overlays are
// present. The only error it returns is Aborted; everything else is a soft
// condition.
func (r *Recovery) Dismiss(ctx context.Context) error {
	for _, sel := range r.selectors {
		if err := abortIfDone(ctx); err != nil {
			return err
		}
		ctl, ok, err := r.panel.QueryControl(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return asAborted(ctx, err)
			}
			r.logger.Debug("Overlay query failed, skipping selector.",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if err := r.panel.Click(ctx, ctl); err != nil {
			if ctx.Err() != nil {
				return asAborted(ctx, err)
			}
			r.logger.Debug("Overlay dismissal click failed.",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		r.logger.Info("Dismissed blocking overlay.", zap.String("selector", sel))
	}
	return nil
}

// RelocateFunc re-resolves the entry a strategy is confirming and its
// popup trigger. Live rendering can replace DOM nodes between clicks, so a
// strategy calls this whenever its trigger handle may have gone stale.
type RelocateFunc func(ctx context.Context) (ItemHandle, Control, error)

// PopupStrategy performs a platform's exact popup confirmation
// choreography: zero, one, or multiple follow-up clicks and dialog
// dismissals after the trigger click, returning once the platform confirms
// the popup is active or failing with ErrPopupConfirmationTimeout when
// confirmation does not appear within the bounded wait. The item handle
// scopes the active-marker check to the entry actually clicked.
type PopupStrategy interface {
	Confirm(ctx context.Context, item ItemHandle, trigger Control, panel Panel, relocate RelocateFunc) error
}

// PopupStrategyFunc adapts a function to the PopupStrategy interface.
type PopupStrategyFunc func(ctx context.Context, item ItemHandle, trigger Control, panel Panel, relocate RelocateFunc) error

func (f PopupStrategyFunc) Confirm(ctx context.Context, item ItemHandle, trigger Control, panel Panel, relocate RelocateFunc) error {
	return f(ctx, item, trigger, panel, relocate)
}
