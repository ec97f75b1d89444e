package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/vectocart/pkg/auth"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored access token",
	}

	cmd.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newShowCommand(),
	)

	return cmd
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Paste and store an access token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cred, err := auth.LoginPasteToken()
			if err != nil {
				return err
			}
			path := auth.CredentialsPath()
			if err := auth.Save(path, cred); err != nil {
				return fmt.Errorf("error saving credentials: %w", err)
			}
			fmt.Printf("✅ Token saved to %s\n", path)
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := auth.Clear(auth.CredentialsPath()); err != nil {
				return err
			}
			fmt.Println("✅ Signed out")
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored credential state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cred, err := auth.Load(auth.CredentialsPath())
			if err != nil {
				return err
			}
			if cred == nil {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("Signed in (method: %s, since: %s)\n",
				cred.AuthMethod, cred.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
