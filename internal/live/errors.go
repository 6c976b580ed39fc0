// internal/live/errors.go
package live

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors forming the command failure taxonomy. Callers match them
// with errors.Is; every hard failure bubbles to the command caller wrapped
// but unmodified in kind.
var (
	// ErrNotFound reports that an identifier could not be resolved after
	// exhausting the loadable range of the goods list.
	ErrNotFound = errors.New("goods item not found")

	// ErrNoInputSurface reports that the panel has no comment input in its
	// current state.
	ErrNoInputSurface = errors.New("no comment input surface")

	// ErrNotSubmittable reports that the comment submit control is absent
	// or not currently clickable.
	ErrNotSubmittable = errors.New("comment not submittable")

	// ErrNoPopupTrigger reports that a resolved goods entry carries no
	// popup trigger.
	ErrNoPopupTrigger = errors.New("no popup trigger")

	// ErrPopupConfirmationTimeout reports that the platform did not
	// confirm the popup within the bounded wait.
	ErrPopupConfirmationTimeout = errors.New("popup confirmation timed out")

	// ErrAborted reports that cancellation was observed mid-command. It is
	// distinct from the failure sentinels so callers can tell "cancelled"
	// from "failed".
	ErrAborted = errors.New("command aborted")
)

// ErrorCode is a string type used for structured error reporting. Using a
// custom type ensures only predefined constants appear where a code is
// expected.
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "GOODS_NOT_FOUND"
	ErrCodeNoInputSurface      ErrorCode = "NO_INPUT_SURFACE"
	ErrCodeNotSubmittable      ErrorCode = "NOT_SUBMITTABLE"
	ErrCodeNoPopupTrigger      ErrorCode = "NO_POPUP_TRIGGER"
	ErrCodeConfirmationTimeout ErrorCode = "POPUP_CONFIRMATION_TIMEOUT"
	ErrCodeAborted             ErrorCode = "ABORTED"
	ErrCodeExecutionFailure    ErrorCode = "EXECUTION_FAILURE"
)

// CodeFor maps an error to its structured code for reporting.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrNoInputSurface):
		return ErrCodeNoInputSurface
	case errors.Is(err, ErrNotSubmittable):
		return ErrCodeNotSubmittable
	case errors.Is(err, ErrNoPopupTrigger):
		return ErrCodeNoPopupTrigger
	case errors.Is(err, ErrPopupConfirmationTimeout):
		return ErrCodeConfirmationTimeout
	case errors.Is(err, ErrAborted):
		return ErrCodeAborted
	default:
		return ErrCodeExecutionFailure
	}
}

// abortIfDone converts an observed cancellation into the Aborted condition.
// It is checked at the start of every suspension point so that no pending
// UI action is committed after cancellation.
func abortIfDone(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return nil
}

// asAborted wraps page errors caused by cancellation so they surface as
// Aborted rather than as generic failures.
func asAborted(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return err
}
