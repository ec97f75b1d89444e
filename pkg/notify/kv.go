package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MemoryKV is the in-process shared store. It supports watching, so in-process
// consumers get pushed changes instead of polling.
type MemoryKV struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[int]chan struct{}
	nextID   int
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:   make(map[string]string),
		watchers: make(map[int]chan struct{}),
	}
}

func (m *MemoryKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	for k, v := range values {
		m.values[k] = v
	}
	watchers := make([]chan struct{}, 0, len(m.watchers))
	for _, ch := range m.watchers {
		watchers = append(watchers, ch)
	}
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
			// Watcher already has a pending wakeup; it will re-read anyway.
		}
	}
	return nil
}

func (m *MemoryKV) Watch(ctx context.Context) (<-chan struct{}, func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	ch := make(chan struct{}, 1)
	m.watchers[id] = ch
	m.mu.Unlock()

	stop := func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
	return ch, stop
}

// ErrReadOnly is returned by Set on read-only KV implementations.
var ErrReadOnly = errors.New("kv store is read-only")

// HTTPKV reads the coordinator's /signal endpoint. It is the polling
// transport of the change feed for contexts in other processes; writes go
// through the coordinator, never through this client.
type HTTPKV struct {
	signalURL string
	client    *http.Client
}

func NewHTTPKV(signalURL string) *HTTPKV {
	return &HTTPKV{
		signalURL: signalURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (h *HTTPKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.signalURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signal endpoint returned status %d", resp.StatusCode)
	}

	var sig Signal
	if err := json.NewDecoder(resp.Body).Decode(&sig); err != nil {
		return nil, fmt.Errorf("decoding signal: %w", err)
	}
	return map[string]string{
		KeyLastMutation: fmt.Sprintf("%d", sig.Timestamp),
		KeyLastRoom:     sig.RoomID,
	}, nil
}

func (h *HTTPKV) Set(ctx context.Context, values map[string]string) error {
	return ErrReadOnly
}
