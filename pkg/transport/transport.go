// Package transport moves typed messages between a caller context and the
// coordinator. Senders never return a Go error: every failure mode, transport
// or application, arrives as the same ok:false response shape so callers have
// a single failure-handling path.
package transport

import (
	"context"

	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// Sender delivers one message and resolves its response. Implementations
// bound the wait; a coordinator that never answers (for example on an
// unknown message kind) resolves as a transport failure.
type Sender interface {
	Send(ctx context.Context, msg protocol.Message) protocol.Response
}

// FrameType discriminates envelope frames on the wire.
type FrameType string

const (
	FrameRequest  FrameType = "request"
	FrameResponse FrameType = "response"
	FrameSignal   FrameType = "signal"
)

// Envelope is the wire frame. Requests and responses are correlated by ID;
// signal frames are unsolicited coordinator pushes and carry no ID.
type Envelope struct {
	ID       uint64             `json:"id,omitempty"`
	Type     FrameType          `json:"type"`
	Message  *protocol.Message  `json:"message,omitempty"`
	Response *protocol.Response `json:"response,omitempty"`
	Signal   *notify.Signal     `json:"signal,omitempty"`
}
