package transport

import (
	"context"
	"time"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// Handler is the dispatch surface the local sender drives. The boolean is
// the explicit "a response will arrive on the future" marker; false means no
// response will ever come and the caller should treat the call as failed.
type Handler interface {
	Dispatch(ctx context.Context, msg protocol.Message) (<-chan protocol.Response, bool)
}

// Local sends messages to an in-process dispatcher. It backs single-process
// deployments and the fallback executor's secondary path, where the direct
// route must still produce transport-shaped results.
type Local struct {
	handler Handler
	timeout time.Duration
}

// NewLocal wraps handler. A zero timeout uses DefaultTimeout.
func NewLocal(handler Handler, timeout time.Duration) *Local {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Local{handler: handler, timeout: timeout}
}

func (l *Local) Send(ctx context.Context, msg protocol.Message) protocol.Response {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	future, ok := l.handler.Dispatch(ctx, msg)
	if !ok {
		return protocol.TransportFailure(nil)
	}
	select {
	case resp, open := <-future:
		if !open {
			return protocol.TransportFailure(nil)
		}
		return resp
	case <-ctx.Done():
		return protocol.TransportFailure(ctx.Err())
	}
}
