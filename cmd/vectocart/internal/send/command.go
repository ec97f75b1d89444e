package send

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal"
	"github.com/tinyland-inc/vectocart/pkg/auth"
	"github.com/tinyland-inc/vectocart/pkg/client"
	"github.com/tinyland-inc/vectocart/pkg/config"
	"github.com/tinyland-inc/vectocart/pkg/coordinator"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/session"
	"github.com/tinyland-inc/vectocart/pkg/store/remote"
	"github.com/tinyland-inc/vectocart/pkg/transport"
)

func NewSendCommand() *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "send <kind>",
		Short: "Send one message to the coordinator and print the response",
		Long: "Send one message to the coordinator and print the response.\n" +
			"Kinds: " + kindList(),
		Example: `  vectocart send vc:ping
  vectocart send rooms:create --payload '{"name":"Trip"}'
  vectocart send products:list --payload '{"roomId":"..."}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return sendCmd(c.Context(), protocol.Kind(args[0]), payload)
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON payload for the message")

	return cmd
}

func sendCmd(ctx context.Context, kind protocol.Kind, payload string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown message kind %q, expected one of: %s", kind, kindList())
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	msg := protocol.Message{Type: kind}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}

	timeout := time.Duration(cfg.Transport.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	wsURL := fmt.Sprintf("ws://%s:%d/ws", cfg.Gateway.Host, cfg.Gateway.Port)
	var sender transport.Sender
	ws, err := transport.DialWS(ctx, wsURL, timeout)
	if err == nil {
		defer ws.Close()
		sender = ws
	} else {
		// The coordinator is down; the direct path below still serves the
		// call when a remote store is configured.
		sender = unreachableSender{err: err}
	}

	resp := client.New(sender, directSender(cfg, timeout)).Call(ctx, msg)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if !resp.OK {
		return fmt.Errorf("request failed")
	}
	return nil
}

// directSender builds the coordinator-bypassing path: the same dispatcher
// pipeline run in-process against the remote store. Nil when no remote store
// is configured, which disables the fallback.
func directSender(cfg *config.Config, timeout time.Duration) transport.Sender {
	if cfg.Store.Provider != "remote" {
		return nil
	}

	var st *remote.Client
	if cfg.Store.APIKey != "" {
		st = remote.NewWithAPIKey(cfg.Store.BaseURL, cfg.Store.APIKey)
	} else {
		st = remote.New(cfg.Store.BaseURL, nil)
		if cred, err := auth.Load(auth.CredentialsPath()); err == nil && cred != nil {
			st.Reset(cred.TokenSource())
		}
	}

	var sessions session.Provider = session.Static{UserID: cfg.Session.StaticUserID}
	if cfg.Session.UserinfoURL != "" {
		provider := session.NewTokenProvider(cfg.Session.UserinfoURL, nil)
		if cred, err := auth.Load(auth.CredentialsPath()); err == nil && cred != nil {
			provider.Reset(cred.TokenSource())
		}
		sessions = provider
	}

	dispatcher := coordinator.NewDispatcher(st, st, sessions, notify.NewNotifier(notify.NewMemoryKV()), nil)
	return transport.NewLocal(dispatcher, timeout)
}

type unreachableSender struct{ err error }

func (u unreachableSender) Send(ctx context.Context, msg protocol.Message) protocol.Response {
	return protocol.TransportFailure(u.err)
}

func kindList() string {
	kinds := protocol.Kinds()
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += ", "
		}
		out += string(k)
	}
	return out
}
