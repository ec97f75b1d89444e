// VectoCart coordinator - shared shopping rooms over a typed message contract.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/auth"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/gateway"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/send"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/status"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/version"
	"github.com/tinyland-inc/vectocart/cmd/vectocart/internal/watch"
)

func NewVectocartCommand() *cobra.Command {
	short := fmt.Sprintf("%s vectocart - Shared shopping rooms v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "vectocart",
		Short:   short,
		Example: "vectocart gateway",
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		send.NewSendCommand(),
		watch.NewWatchCommand(),
		auth.NewAuthCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewVectocartCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
