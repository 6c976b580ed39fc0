// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from ctx1 (the tab context carrying CDP
// target values) that is canceled when either ctx1 or ctx2 (the operational
// context carrying the caller's deadline) is done. chromedp resolves the
// target from context values, so the result must descend from ctx1.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// valueOnlyContext wraps a parent context, inheriting its values (the CDP
// target information) while ignoring its deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that inherits values from ctx but not its
// cancellation. Cleanup actions that must still reach the browser after the
// operation context died run on a detached context.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
