package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/vectocart/pkg/logger"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// DefaultTimeout bounds how long a sender waits for a response before
// treating the call as a transport failure.
const DefaultTimeout = 5 * time.Second

// WSClient is the websocket transport to the coordinator. In-flight requests
// are correlated by envelope ID through a pending map; when the connection
// tears down, every pending call resolves as a transport failure rather than
// hanging.
type WSClient struct {
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan protocol.Response
	closed    bool

	signals chan notify.Signal
}

// DialWS connects to the coordinator's websocket endpoint. A zero timeout
// uses DefaultTimeout.
func DialWS(ctx context.Context, url string, timeout time.Duration) (*WSClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing coordinator: %w", err)
	}
	c := &WSClient{
		conn:    conn,
		timeout: timeout,
		pending: make(map[uint64]chan protocol.Response),
		signals: make(chan notify.Signal, 8),
	}
	go c.readLoop()
	return c, nil
}

// Send delivers msg and waits for the correlated response. All failures,
// including a closed connection and a response that never arrives, come back
// as ok:false responses.
func (c *WSClient) Send(ctx context.Context, msg protocol.Message) protocol.Response {
	id := c.nextID.Add(1)
	ch := make(chan protocol.Response, 1)

	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return protocol.TransportFailure(fmt.Errorf("connection closed"))
	}
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	env := Envelope{ID: id, Type: FrameRequest, Message: &msg}
	if err := c.write(env); err != nil {
		return protocol.TransportFailure(err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case resp, open := <-ch:
		if !open {
			return protocol.TransportFailure(fmt.Errorf("connection closed mid-flight"))
		}
		return resp
	case <-timer.C:
		return protocol.TransportFailure(fmt.Errorf("no response within %s", c.timeout))
	case <-ctx.Done():
		return protocol.TransportFailure(ctx.Err())
	}
}

// Signals delivers change signals pushed by the coordinator.
func (c *WSClient) Signals() <-chan notify.Signal {
	return c.signals
}

// Close tears down the connection and resolves all pending calls as
// transport failures.
func (c *WSClient) Close() error {
	return c.conn.Close()
}

func (c *WSClient) write(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WSClient) readLoop() {
	defer c.teardown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.WarnCF("transport", "malformed frame from coordinator", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		switch env.Type {
		case FrameResponse:
			if env.Response == nil {
				continue
			}
			c.pendingMu.Lock()
			ch, ok := c.pending[env.ID]
			c.pendingMu.Unlock()
			if ok {
				ch <- *env.Response
			}
		case FrameSignal:
			if env.Signal == nil {
				continue
			}
			select {
			case c.signals <- *env.Signal:
			default:
				// Consumer is behind; the next signal carries a newer
				// timestamp so dropping this one loses nothing.
			}
		}
	}
}

func (c *WSClient) teardown() {
	c.pendingMu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	close(c.signals)
}
