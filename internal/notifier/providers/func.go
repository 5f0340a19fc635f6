package providers

import (
	"context"

	"github.com/ibeckermayer/xextract/internal/types"
)

// SenderFunc adapts a plain function, e.g. a UI title updater.
type SenderFunc func(ctx context.Context, ev types.Event) error

// Send calls f
func (f SenderFunc) Send(ctx context.Context, ev types.Event) error {
	return f(ctx, ev)
}
