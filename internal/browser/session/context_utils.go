// internal/browser/session/context_utils.go
package session

import (
	"context"
)

// CombineContext derives a context from tab (which carries the CDP target) that is also canceled when
// op is done. Values come from tab only.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(op, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// Detach returns a context that still reaches the browser tab but outlives ctx. Close uses it so the
// browser can be shut down gracefully after the run context was canceled.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
