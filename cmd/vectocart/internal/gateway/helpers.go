package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal"
	"github.com/tinyland-inc/vectocart/pkg/auth"
	"github.com/tinyland-inc/vectocart/pkg/config"
	"github.com/tinyland-inc/vectocart/pkg/coordinator"
	"github.com/tinyland-inc/vectocart/pkg/logger"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/session"
	"github.com/tinyland-inc/vectocart/pkg/store"
	"github.com/tinyland-inc/vectocart/pkg/store/memory"
	"github.com/tinyland-inc/vectocart/pkg/store/remote"
)

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	} else {
		logger.SetLevel(parseLevel(cfg.Logging.Level))
	}

	st, members, err := buildStore(cfg)
	if err != nil {
		return err
	}
	sessions, err := buildSessions(cfg)
	if err != nil {
		return err
	}

	kv := notify.NewMemoryKV()
	notifier := notify.NewNotifier(kv)

	panel := coordinator.PanelOpenerFunc(func(ctx context.Context) error {
		// Headless deployment; the request is honored by logging it so a
		// UI-bearing host can be attached later.
		logger.InfoC("gateway", "panel open requested")
		return nil
	})

	dispatcher := coordinator.NewDispatcher(st, members, sessions, notifier, panel)
	server := coordinator.NewServer(cfg.Gateway.Host, cfg.Gateway.Port, dispatcher, kv)

	fmt.Printf("%s vectocart coordinator v%s\n", internal.Logo, internal.GetVersion())
	fmt.Printf("  • Store: %s\n", cfg.Store.Provider)
	fmt.Printf("  • Listening on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}

func buildStore(cfg *config.Config) (store.Store, store.MembershipSource, error) {
	switch cfg.Store.Provider {
	case "memory":
		st := memory.New()
		return st, st, nil
	case "remote":
		if cfg.Store.APIKey != "" {
			c := remote.NewWithAPIKey(cfg.Store.BaseURL, cfg.Store.APIKey)
			return c, c, nil
		}
		cred, err := auth.Load(auth.CredentialsPath())
		if err != nil {
			return nil, nil, fmt.Errorf("error loading credentials: %w", err)
		}
		c := remote.New(cfg.Store.BaseURL, nil)
		if cred != nil {
			c.Reset(cred.TokenSource())
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}

func buildSessions(cfg *config.Config) (session.Provider, error) {
	if cfg.Session.UserinfoURL != "" {
		cred, err := auth.Load(auth.CredentialsPath())
		if err != nil {
			return nil, fmt.Errorf("error loading credentials: %w", err)
		}
		provider := session.NewTokenProvider(cfg.Session.UserinfoURL, nil)
		if cred != nil {
			provider.Reset(cred.TokenSource())
		}
		return provider, nil
	}
	return session.Static{UserID: cfg.Session.StaticUserID}, nil
}

func parseLevel(level string) logger.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}
