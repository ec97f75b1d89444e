// Package session resolves the caller's identity from the external auth
// provider. Sessions are derived on demand and never cached beyond a single
// request; credential rotation is handled by an explicit Reset instead of
// implicit module-level state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// Provider resolves the current session. Implementations must treat every
// call as fresh; the dispatcher calls this once per inbound request.
type Provider interface {
	Current(ctx context.Context) (protocol.Session, error)
}

// Static is a fixed-identity provider used by tests and the CLI. A zero
// Static is an unauthenticated session.
type Static struct {
	UserID string
}

func (s Static) Current(ctx context.Context) (protocol.Session, error) {
	if s.UserID == "" {
		return protocol.Session{}, nil
	}
	return protocol.Session{UserID: s.UserID, IsAuthenticated: true}, nil
}

// TokenProvider resolves sessions by calling the auth provider's userinfo
// endpoint with a bearer token. The token source is swappable via Reset so
// sign-in and sign-out rotate credentials without rebuilding the provider's
// consumers.
type TokenProvider struct {
	userinfoURL string

	mu     sync.RWMutex
	client *http.Client
}

// NewTokenProvider builds a provider against userinfoURL authenticated by ts.
// A nil token source yields unauthenticated sessions until Reset installs
// one.
func NewTokenProvider(userinfoURL string, ts oauth2.TokenSource) *TokenProvider {
	p := &TokenProvider{userinfoURL: userinfoURL}
	p.Reset(ts)
	return p
}

// Reset swaps the credential backing this provider. Pass nil on sign-out.
func (p *TokenProvider) Reset(ts oauth2.TokenSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ts == nil {
		p.client = nil
		return
	}
	p.client = &http.Client{
		Transport: &oauth2.Transport{Source: ts},
		Timeout:   5 * time.Second,
	}
}

type userinfo struct {
	Sub    string `json:"sub"`
	UserID string `json:"user_id"`
}

func (p *TokenProvider) Current(ctx context.Context) (protocol.Session, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return protocol.Session{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return protocol.Session{}, fmt.Errorf("building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return protocol.Session{}, fmt.Errorf("resolving session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return protocol.Session{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return protocol.Session{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info userinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return protocol.Session{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	userID := info.Sub
	if userID == "" {
		userID = info.UserID
	}
	if userID == "" {
		return protocol.Session{}, nil
	}
	return protocol.Session{UserID: userID, IsAuthenticated: true}, nil
}
