// Package remote implements the store against a hosted REST backend. The
// backend applies its own row-level access policy, so a compromised caller
// cannot bypass it by skipping the local gate.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/store"
)

// Client talks to the hosted store. The HTTP client is swappable via Reset so
// credential rotation does not require rebuilding the client's consumers.
type Client struct {
	baseURL string

	mu   sync.RWMutex
	http *http.Client
}

// New builds a client against baseURL. A nil token source sends
// unauthenticated requests until Reset installs one.
func New(baseURL string, ts oauth2.TokenSource) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	c.Reset(ts)
	return c
}

// NewWithAPIKey builds a client authenticated by a static bearer key.
func NewWithAPIKey(baseURL, apiKey string) *Client {
	var ts oauth2.TokenSource
	if apiKey != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})
	}
	return New(baseURL, ts)
}

// Reset swaps the credential backing this client. Pass nil on sign-out.
func (c *Client) Reset(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	c.http = &http.Client{
		Transport: &oauth2.Transport{Source: ts},
		Timeout:   10 * time.Second,
	}
}

// envelope is the backend's uniform response shape. Exactly one of Data or
// Error is set.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *protocol.ErrorInfo `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, userID string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	c.mu.RLock()
	client := c.http
	c.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling store: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("store returned status %d with unreadable body", resp.StatusCode)
	}
	if env.Error != nil {
		return env.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store returned status %d", resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding store response: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateRoom(ctx context.Context, userID, name string) (*protocol.Room, error) {
	var room protocol.Room
	err := c.do(ctx, http.MethodPost, "/rooms", userID, map[string]string{"name": name}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) JoinRoom(ctx context.Context, userID, code string) (*protocol.Room, error) {
	var room protocol.Room
	err := c.do(ctx, http.MethodPost, "/rooms/join", userID, map[string]string{"code": code}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) ListRooms(ctx context.Context, userID string) ([]protocol.Room, error) {
	var rooms []protocol.Room
	if err := c.do(ctx, http.MethodGet, "/rooms", userID, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) DeleteRoom(ctx context.Context, userID, roomID string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(roomID), userID, nil, nil)
}

func (c *Client) RemoveMember(ctx context.Context, userID, roomID, memberID string) error {
	path := "/rooms/" + url.PathEscape(roomID) + "/members/" + url.PathEscape(memberID)
	return c.do(ctx, http.MethodDelete, path, userID, nil, nil)
}

func (c *Client) LeaveRoom(ctx context.Context, userID, roomID string) error {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/leave", userID, nil, nil)
}

func (c *Client) AddProduct(ctx context.Context, userID, roomID string, input store.AddProductInput) (*protocol.Product, error) {
	body := map[string]any{
		"name":     input.Name,
		"price":    input.Price,
		"currency": input.Currency,
		"rating":   input.Rating,
		"image":    input.Image,
		"url":      input.URL,
		"platform": input.Platform,
	}
	var product protocol.Product
	err := c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/products", userID, body, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ListProducts(ctx context.Context, userID, roomID string) ([]protocol.Product, error) {
	var products []protocol.Product
	path := "/rooms/" + url.PathEscape(roomID) + "/products"
	if err := c.do(ctx, http.MethodGet, path, userID, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) DeleteProduct(ctx context.Context, userID, productID string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(productID), userID, nil, nil)
}

func (c *Client) CastVote(ctx context.Context, userID, productID string, voteType protocol.VoteType) (*protocol.Vote, error) {
	body := map[string]string{"voteType": string(voteType)}
	var vote protocol.Vote
	err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/votes", userID, body, &vote)
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (c *Client) RemoveVote(ctx context.Context, userID, productID string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(productID)+"/votes", userID, nil, nil)
}

// Membership implements the gate's membership lookup against the backend.
func (c *Client) Membership(ctx context.Context, roomID, userID string) (*protocol.Member, error) {
	var member *protocol.Member
	path := "/rooms/" + url.PathEscape(roomID) + "/members/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, userID, nil, &member); err != nil {
		return nil, err
	}
	return member, nil
}

func (c *Client) ProductInfo(ctx context.Context, productID string) (string, string, error) {
	var info struct {
		RoomID  string `json:"roomId"`
		AddedBy string `json:"addedBy"`
	}
	path := "/products/" + url.PathEscape(productID) + "/info"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &info); err != nil {
		return "", "", err
	}
	return info.RoomID, info.AddedBy, nil
}

var (
	_ store.Store            = (*Client)(nil)
	_ store.MembershipSource = (*Client)(nil)
)
