package notify

import (
	"context"
	"time"

	"github.com/tinyland-inc/vectocart/pkg/logger"
)

// DefaultPollInterval matches the panel's storage check cadence.
const DefaultPollInterval = 3 * time.Second

// Feed is the unified change feed for one room. It subscribes to KV watch
// events when the store supports watching and falls back to polling
// otherwise; both paths converge on the same timestamp comparison, so a
// consumer sees each signal at most once regardless of transport.
type Feed struct {
	kv       KV
	roomID   string
	lastSeen int64
	interval time.Duration
	events   chan Signal
}

// NewFeed builds a feed for roomID. Signals at or before lastSeen are
// considered consumed. A zero interval uses DefaultPollInterval.
func NewFeed(kv KV, roomID string, lastSeen int64, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Feed{
		kv:       kv,
		roomID:   roomID,
		lastSeen: lastSeen,
		interval: interval,
		events:   make(chan Signal, 8),
	}
}

// Events delivers each new signal exactly once. Closed when Run returns.
func (f *Feed) Events() <-chan Signal {
	return f.events
}

// Run drives the feed until ctx is canceled. It must be called at most once.
func (f *Feed) Run(ctx context.Context) {
	defer close(f.events)

	var wake <-chan struct{}
	if w, ok := f.kv.(Watcher); ok {
		ch, stop := w.Watch(ctx)
		defer stop()
		wake = ch
		logger.DebugCF("notify", "change feed subscribed", map[string]any{"room_id": f.roomID})
	} else {
		logger.DebugCF("notify", "change feed polling", map[string]any{
			"room_id":  f.roomID,
			"interval": f.interval.String(),
		})
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		f.check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
			// Polling also backstops a watch transport that drops wakeups.
		}
	}
}

func (f *Feed) check(ctx context.Context) {
	sig, err := Latest(ctx, f.kv)
	if err != nil {
		logger.WarnCF("notify", "change feed read failed", map[string]any{"error": err.Error()})
		return
	}
	if !sig.Newer(f.roomID, f.lastSeen) {
		return
	}
	f.lastSeen = sig.Timestamp
	select {
	case f.events <- sig:
	case <-ctx.Done():
	}
}
