package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/vectocart/pkg/logger"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/transport"
)

// Server exposes the dispatcher to out-of-process contexts. Requests arrive
// as envelope frames over a websocket; change signals are pushed to every
// connected client and also served on GET /signal for polling consumers.
type Server struct {
	dispatcher *Dispatcher
	kv         notify.KV
	upgrader   websocket.Upgrader
	httpServer *http.Server

	connsMu sync.Mutex
	conns   map[string]*clientConn
}

type clientConn struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *clientConn) writeEnvelope(env transport.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewServer builds the coordinator surface on host:port.
func NewServer(host string, port int, dispatcher *Dispatcher, kv notify.KV) *Server {
	s := &Server{
		dispatcher: dispatcher,
		kv:         kv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*clientConn),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/signal", s.handleSignal)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route surface for embedding in an existing server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled or the listener fails. It also runs the
// signal broadcaster when the KV supports watching.
func (s *Server) Start(ctx context.Context) error {
	if watcher, ok := s.kv.(notify.Watcher); ok {
		go s.broadcastLoop(ctx, watcher)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("coordinator", "listening", map[string]any{
			"addr": s.httpServer.Addr,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop shuts the listener down and closes every client connection.
func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)

	s.connsMu.Lock()
	for _, c := range s.conns {
		c.conn.Close()
	}
	s.conns = make(map[string]*clientConn)
	s.connsMu.Unlock()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("coordinator", "websocket upgrade failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	client := &clientConn{id: uuid.NewString(), conn: conn}
	s.connsMu.Lock()
	s.conns[client.id] = client
	s.connsMu.Unlock()

	logger.DebugCF("coordinator", "client connected", map[string]any{
		"conn": client.id,
	})

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, client.id)
		s.connsMu.Unlock()
		conn.Close()
		logger.DebugCF("coordinator", "client disconnected", map[string]any{
			"conn": client.id,
		})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env transport.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.WarnCF("coordinator", "malformed frame", map[string]any{
				"conn":  client.id,
				"error": err.Error(),
			})
			continue
		}
		if env.Type != transport.FrameRequest || env.Message == nil {
			continue
		}

		future, ok := s.dispatcher.Dispatch(r.Context(), *env.Message)
		if !ok {
			// No response will come; the client's timeout handles it.
			continue
		}
		go func(id uint64) {
			resp, open := <-future
			if !open {
				return
			}
			reply := transport.Envelope{ID: id, Type: transport.FrameResponse, Response: &resp}
			if err := client.writeEnvelope(reply); err != nil {
				logger.WarnCF("coordinator", "failed to write response", map[string]any{
					"conn":  client.id,
					"error": err.Error(),
				})
			}
		}(env.ID)
	}
}

// handleSignal serves the latest change signal. Pollers compare the returned
// timestamp against their lastSeen; a missing signal serves the zero value,
// which is never newer than anything.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sig, err := notify.Latest(r.Context(), s.kv)
	if err != nil {
		http.Error(w, "reading signal state", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sig)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// broadcastLoop pushes each new change signal to every connected client.
// Signals carry monotonically increasing timestamps, so clients deduplicate
// on their side; re-broadcasting an already-seen signal is harmless.
func (s *Server) broadcastLoop(ctx context.Context, watcher notify.Watcher) {
	wake, stop := watcher.Watch(ctx)
	defer stop()

	var lastSeen int64
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-wake:
			if !open {
				return
			}
		}

		sig, err := notify.Latest(ctx, s.kv)
		if err != nil {
			logger.WarnCF("coordinator", "reading signal state", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		if sig.Timestamp <= lastSeen {
			continue
		}
		lastSeen = sig.Timestamp
		s.broadcast(sig)
	}
}

func (s *Server) broadcast(sig notify.Signal) {
	env := transport.Envelope{Type: transport.FrameSignal, Signal: &sig}

	s.connsMu.Lock()
	clients := make([]*clientConn, 0, len(s.conns))
	for _, c := range s.conns {
		clients = append(clients, c)
	}
	s.connsMu.Unlock()

	for _, c := range clients {
		if err := c.writeEnvelope(env); err != nil {
			logger.DebugCF("coordinator", "dropping slow client", map[string]any{
				"conn": c.id,
			})
		}
	}
}
