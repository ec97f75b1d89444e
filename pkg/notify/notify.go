// Package notify implements the cross-context change notifier: a shared
// key/value store carrying the last-mutation timestamp and room, written by
// the coordinator after successful mutations and consumed idempotently by any
// context comparing timestamps against its own last-seen value.
package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/tinyland-inc/vectocart/pkg/logger"
)

// Well-known keys, overwritten (never appended) on every signal.
const (
	KeyLastMutation = "vectocart:lastProductAdded"
	KeyLastRoom     = "vectocart:lastProductRoomId"
)

// Signal is one observed change notification.
type Signal struct {
	Timestamp int64  `json:"timestamp"`
	RoomID    string `json:"roomId"`
}

// Newer reports whether the signal is news to a consumer whose last-seen
// timestamp for the room is lastSeen. Equal timestamps are already seen;
// this is what makes consumption idempotent.
func (s Signal) Newer(roomID string, lastSeen int64) bool {
	return s.RoomID == roomID && s.Timestamp > lastSeen
}

// KV is the shared store the notifier writes through. Implementations that
// can push changes additionally implement Watcher.
type KV interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// Watcher is the optional push interface: the returned channel receives a
// value after any Set until stop is called.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, func())
}

// Notifier writes change signals on behalf of the coordinator.
type Notifier struct {
	kv  KV
	now func() time.Time
}

func NewNotifier(kv KV) *Notifier {
	return &Notifier{kv: kv, now: time.Now}
}

// Signal records that a mutation happened in roomID. Fire and forget: a
// failed write is logged, not surfaced, because the triggering operation has
// already succeeded.
func (n *Notifier) Signal(ctx context.Context, roomID string) {
	ts := n.now().UnixMilli()
	err := n.kv.Set(ctx, map[string]string{
		KeyLastMutation: strconv.FormatInt(ts, 10),
		KeyLastRoom:     roomID,
	})
	if err != nil {
		logger.WarnCF("notify", "change signal write failed", map[string]any{
			"room_id": roomID,
			"error":   err.Error(),
		})
		return
	}
	logger.DebugCF("notify", "change signal written", map[string]any{
		"room_id":   roomID,
		"timestamp": ts,
	})
}

// Latest reads the current signal. A store with no signal yet returns the
// zero Signal, which no consumer treats as new.
func Latest(ctx context.Context, kv KV) (Signal, error) {
	values, err := kv.Get(ctx, KeyLastMutation, KeyLastRoom)
	if err != nil {
		return Signal{}, err
	}
	raw, ok := values[KeyLastMutation]
	if !ok || raw == "" {
		return Signal{}, nil
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Signal{}, nil
	}
	return Signal{Timestamp: ts, RoomID: values[KeyLastRoom]}, nil
}

// Observe reports whether a signal newer than lastSeen exists for roomID.
func Observe(ctx context.Context, kv KV, roomID string, lastSeen int64) (bool, error) {
	sig, err := Latest(ctx, kv)
	if err != nil {
		return false, err
	}
	return sig.Newer(roomID, lastSeen), nil
}
