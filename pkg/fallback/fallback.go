// Package fallback wraps a coordinator-path call with a same-shape direct
// execution fallback, used when the coordinator is unreachable or rejects
// the call.
package fallback

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/vectocart/pkg/logger"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// Op produces a Response. Implementations report failure through the
// response, not by panicking; panics are still contained here because the
// caller must always get a well-formed Response.
type Op func(ctx context.Context) protocol.Response

// WithFallback tries primary; when it resolves ok:false or panics, secondary
// runs exactly once and its result is returned. Neither path is retried:
// retry policy belongs to the operations themselves, and retrying a
// non-idempotent call here could double its side effects.
func WithFallback(ctx context.Context, primary, secondary Op) protocol.Response {
	resp := run(ctx, primary)
	if resp.OK {
		return resp
	}
	logger.DebugCF("fallback", "primary path failed, using fallback", map[string]any{
		"error": errMessage(resp),
	})
	return run(ctx, secondary)
}

func run(ctx context.Context, op Op) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = protocol.FailResponse(fmt.Errorf("operation panicked: %v", r))
		}
	}()
	return op(ctx)
}

func errMessage(resp protocol.Response) string {
	if resp.Error != nil {
		return resp.Error.Message
	}
	return "unknown"
}
