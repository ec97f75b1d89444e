package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// wsHarness is a minimal coordinator-side websocket peer driven by a handler
// function per request frame.
type wsHarness struct {
	upgrader websocket.Upgrader
	handle   func(env Envelope) *Envelope

	mu   sync.Mutex
	conn *websocket.Conn
}

func (h *wsHarness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if reply := h.handle(env); reply != nil {
			out, _ := json.Marshal(reply)
			h.mu.Lock()
			conn.WriteMessage(websocket.TextMessage, out)
			h.mu.Unlock()
		}
	}
}

func (h *wsHarness) push(t *testing.T, env Envelope) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		t.Fatal("no connection to push on")
	}
	out, _ := json.Marshal(env)
	if err := h.conn.WriteMessage(websocket.TextMessage, out); err != nil {
		t.Fatal(err)
	}
}

func dialHarness(t *testing.T, h *wsHarness, timeout time.Duration) *WSClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := DialWS(context.Background(), url, timeout)
	if err != nil {
		t.Fatalf("DialWS: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestWSClient_RequestResponseCorrelation(t *testing.T) {
	h := &wsHarness{handle: func(env Envelope) *Envelope {
		resp := protocol.OKResponse(map[string]string{"echo": string(env.Message.Type)})
		return &Envelope{ID: env.ID, Type: FrameResponse, Response: &resp}
	}}
	client := dialHarness(t, h, time.Second)

	resp := client.Send(context.Background(), protocol.Message{Type: protocol.KindPing})
	if !resp.OK {
		t.Fatalf("expected ok, got %+v", resp.Error)
	}
	var data map[string]string
	if err := resp.DecodeData(&data); err != nil {
		t.Fatal(err)
	}
	if data["echo"] != string(protocol.KindPing) {
		t.Errorf("got %v", data)
	}
}

func TestWSClient_ConcurrentSendsCorrelateByID(t *testing.T) {
	h := &wsHarness{handle: func(env Envelope) *Envelope {
		resp := protocol.OKResponse(map[string]uint64{"id": env.ID})
		return &Envelope{ID: env.ID, Type: FrameResponse, Response: &resp}
	}}
	client := dialHarness(t, h, 2*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := client.Send(context.Background(), protocol.Message{Type: protocol.KindPing})
			if !resp.OK {
				t.Errorf("send failed: %+v", resp.Error)
			}
		}()
	}
	wg.Wait()
}

func TestWSClient_NoResponseIsTransportFailure(t *testing.T) {
	h := &wsHarness{handle: func(env Envelope) *Envelope { return nil }}
	client := dialHarness(t, h, 50*time.Millisecond)

	resp := client.Send(context.Background(), protocol.Message{Type: "rooms:explode"})
	if resp.OK {
		t.Fatal("expected failure")
	}
	if !protocol.HasCode(resp.Err(), protocol.CodeTransport) {
		t.Fatalf("expected TRANSPORT_FAILURE, got %v", resp.Err())
	}
}

func TestWSClient_SignalFramesDelivered(t *testing.T) {
	done := make(chan struct{})
	h := &wsHarness{handle: func(env Envelope) *Envelope {
		close(done)
		return nil
	}}
	client := dialHarness(t, h, time.Second)

	// Prime the connection so the harness has a conn to push on.
	go client.Send(context.Background(), protocol.Message{Type: protocol.KindPing})
	<-done

	h.push(t, Envelope{Type: FrameSignal, Signal: &notify.Signal{Timestamp: 42, RoomID: "room1"}})

	select {
	case sig := <-client.Signals():
		if sig.Timestamp != 42 || sig.RoomID != "room1" {
			t.Errorf("got %+v", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal never arrived")
	}
}

func TestWSClient_CloseResolvesPending(t *testing.T) {
	h := &wsHarness{handle: func(env Envelope) *Envelope { return nil }}
	client := dialHarness(t, h, 5*time.Second)

	result := make(chan protocol.Response, 1)
	go func() {
		result <- client.Send(context.Background(), protocol.Message{Type: protocol.KindPing})
	}()
	time.Sleep(20 * time.Millisecond)
	client.Close()

	select {
	case resp := <-result:
		if resp.OK {
			t.Fatal("expected transport failure after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending call hung after close")
	}
}

func TestWSClient_SendAfterClose(t *testing.T) {
	h := &wsHarness{handle: func(env Envelope) *Envelope { return nil }}
	client := dialHarness(t, h, time.Second)
	client.Close()
	time.Sleep(20 * time.Millisecond)

	resp := client.Send(context.Background(), protocol.Message{Type: protocol.KindPing})
	if resp.OK {
		t.Fatal("expected failure sending on a closed connection")
	}
}
