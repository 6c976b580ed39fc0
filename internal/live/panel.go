// internal/live/panel.go
package live

import (
	"context"
)

// ItemHandle is an opaque, short-lived reference to one rendered catalog
// entry in the control panel's goods list. A handle is only valid for the
// visible window snapshot it came from; any scroll or re-render invalidates
// it and it must never be reused across that boundary.
type ItemHandle interface {
	// Describe returns a short human-readable tag for logging.
	Describe() string
}

// Control is an opaque reference to a clickable (or fillable) element of
// the control panel, such as the comment input or a popup trigger.
type Control interface {
	Describe() string
}

// Panel is the capability contract a page-backed live-control session must
// provide. One implementation exists per supported platform, selected once
// at session construction and never branched on per call.
//
// Every method may suspend on a page round-trip and must honor ctx
// cancellation. Absence of a control is a normal, expected outcome reported
// through the boolean return, not an error: errors are reserved for page
// failures (lost session, evaluation failure, cancellation).
type Panel interface {
	// CommentInput returns the text-entry handle for outgoing chat
	// messages, or ok=false if the panel lacks one in its current state.
	CommentInput(ctx context.Context) (Control, bool, error)

	// VisibleItems returns the currently materialized goods entries in
	// on-screen order. The order may be ascending or descending by
	// identifier and is not fixed in advance. The window may be empty.
	VisibleItems(ctx context.Context) ([]ItemHandle, error)

	// IdentifierOf extracts the numeric identifier rendered in or near the
	// given entry.
	IdentifierOf(ctx context.Context, h ItemHandle) (int64, error)

	// PopupTriggerFor returns the control that opens the "now explaining"
	// popup for the given entry, or ok=false if the entry has none.
	PopupTriggerFor(ctx context.Context, h ItemHandle) (Control, bool, error)

	// ScrollContainer returns the scrollable ancestor of the goods list,
	// or ok=false if no such container is materialized.
	ScrollContainer(ctx context.Context) (Control, bool, error)

	// PinToTopControl returns the control that marks an outgoing message
	// as pinned, or ok=false if the panel has none.
	PinToTopControl(ctx context.Context) (Control, bool, error)

	// SubmitCommentControl returns the comment submit control, with
	// ok=true only when the control is currently clickable.
	SubmitCommentControl(ctx context.Context) (Control, bool, error)

	// QueryControl resolves an arbitrary dismissal selector to a control,
	// with ok=false when no matching element is present.
	QueryControl(ctx context.Context, selector string) (Control, bool, error)

	// QueryControlIn resolves a selector within the given entry only, so
	// state markers on other entries never satisfy the query.
	QueryControlIn(ctx context.Context, h ItemHandle, selector string) (Control, bool, error)

	// ScrollOffset reads the current scroll offset of the goods list
	// container. The value is opaque: it is compared only for equality
	// within a tolerance band to detect stagnation.
	ScrollOffset(ctx context.Context) (float64, error)

	// ScrollIntoView brings the given entry into view, triggering lazy
	// loading of neighboring catalog entries.
	ScrollIntoView(ctx context.Context, h ItemHandle) error

	// Click dispatches a click on the given control.
	Click(ctx context.Context, c Control) error

	// Fill replaces the text content of a fillable control.
	Fill(ctx context.Context, c Control, text string) error
}
