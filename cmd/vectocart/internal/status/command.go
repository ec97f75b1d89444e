package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal"
	"github.com/tinyland-inc/vectocart/pkg/auth"
	"github.com/tinyland-inc/vectocart/pkg/notify"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show coordinator and credential status",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return statusCmd(c.Context())
		},
	}
}

func statusCmd(ctx context.Context) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	fmt.Printf("%s vectocart status\n\n", internal.Logo)
	fmt.Printf("Config:\n")
	fmt.Printf("  • Store:   %s\n", cfg.Store.Provider)
	fmt.Printf("  • Gateway: %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

	cred, err := auth.Load(auth.CredentialsPath())
	if err != nil {
		return err
	}
	if cred != nil {
		fmt.Printf("  • Auth:    signed in since %s\n", cred.CreatedAt.Format("2006-01-02"))
	} else {
		fmt.Printf("  • Auth:    not signed in\n")
	}

	fmt.Printf("\nCoordinator:\n")
	base := fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	if ok := checkHealth(ctx, base + "/health"); !ok {
		fmt.Printf("  • Not reachable at %s\n", base)
		return nil
	}
	fmt.Printf("  • Healthy at %s\n", base)

	sig, err := notify.Latest(ctx, notify.NewHTTPKV(base+"/signal"))
	if err != nil || sig.Timestamp == 0 {
		fmt.Printf("  • No change signal recorded yet\n")
		return nil
	}
	fmt.Printf("  • Last change: room %s at %s\n",
		sig.RoomID, time.UnixMilli(sig.Timestamp).Format(time.RFC3339))
	return nil
}

func checkHealth(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == "ok"
}
