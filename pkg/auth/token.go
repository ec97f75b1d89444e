// Package auth stores the access token used against the hosted store and
// auth provider. Tokens are pasted in by the user, never minted here.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/oauth2"
)

// Credential is the persisted token record.
type Credential struct {
	AccessToken string    `json:"access_token"`
	AuthMethod  string    `json:"auth_method"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenSource exposes the credential to oauth2-backed HTTP clients.
func (c *Credential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken})
}

// CredentialsPath returns the credential file location, honoring
// VECTOCART_CREDENTIALS_PATH when set.
func CredentialsPath() string {
	if p := os.Getenv("VECTOCART_CREDENTIALS_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "credentials.json"
	}
	return filepath.Join(home, ".vectocart", "credentials.json")
}

// LoginPasteToken prompts for a token on the terminal and returns the
// credential. The token is not validated here; the first authenticated call
// surfaces a bad one.
func LoginPasteToken() (*Credential, error) {
	fmt.Println("Paste your access token from your VectoCart account page:")
	rl, err := readline.New("> ")
	if err != nil {
		return nil, fmt.Errorf("opening terminal: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	return credentialFromToken(line)
}

func credentialFromToken(raw string) (*Credential, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}
	return &Credential{
		AccessToken: token,
		AuthMethod:  "token",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Save writes cred to path with owner-only permissions.
func Save(path string, cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads the stored credential. A missing file returns (nil, nil): signed
// out is not an error.
func Load(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, nil
	}
	return &cred, nil
}

// Clear removes the stored credential. Clearing an absent file succeeds.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
