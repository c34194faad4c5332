// Package execution runs SDK calls under a caller supplied deadline.
package execution

import (
	"context"
	"time"
)

// WithTimeout runs fn with a context that expires after timeout. A
// non-positive timeout leaves ctx unchanged. fn must honor cancellation.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
