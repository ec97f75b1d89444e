package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal"
	"github.com/tinyland-inc/vectocart/pkg/notify"
)

func NewWatchCommand() *cobra.Command {
	var roomID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow change signals for a room",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return watchCmd(roomID)
		},
	}

	cmd.Flags().StringVarP(&roomID, "room", "r", "", "Room ID to watch")
	_ = cmd.MarkFlagRequired("room")

	return cmd
}

func watchCmd(roomID string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	signalURL := fmt.Sprintf("http://%s:%d/signal", cfg.Gateway.Host, cfg.Gateway.Port)
	kv := notify.NewHTTPKV(signalURL)
	interval := time.Duration(cfg.Notify.PollIntervalSeconds) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start from the current signal so only changes after this moment print.
	var lastSeen int64
	if sig, err := notify.Latest(ctx, kv); err == nil {
		lastSeen = sig.Timestamp
	}

	feed := notify.NewFeed(kv, roomID, lastSeen, interval)
	go feed.Run(ctx)

	fmt.Printf("Watching room %s (poll every %s, Ctrl-C to stop)\n", roomID, interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, open := <-feed.Events():
			if !open {
				return nil
			}
			fmt.Printf("%s  room %s changed\n",
				time.UnixMilli(sig.Timestamp).Format(time.RFC3339), sig.RoomID)
		}
	}
}
