// Package client is the typed calling surface other contexts use. Each method
// builds the corresponding message, sends it through the transport, and
// decodes the response; when a direct sender is configured, a failed
// coordinator call falls back to it once.
package client

import (
	"context"

	"github.com/tinyland-inc/vectocart/pkg/fallback"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/transport"
)

// Client issues typed calls over a Sender. Direct, when set, is the
// same-shape fallback path used when the primary sender fails.
type Client struct {
	sender transport.Sender
	direct transport.Sender
}

// New builds a client over sender. direct may be nil, which disables the
// fallback path.
func New(sender, direct transport.Sender) *Client {
	return &Client{sender: sender, direct: direct}
}

// Call sends one message and returns the raw response. All failure modes
// arrive as ok:false responses, never as panics or dropped calls.
func (c *Client) Call(ctx context.Context, msg protocol.Message) protocol.Response {
	if c.direct == nil {
		return c.sender.Send(ctx, msg)
	}
	return fallback.WithFallback(ctx,
		func(ctx context.Context) protocol.Response { return c.sender.Send(ctx, msg) },
		func(ctx context.Context) protocol.Response { return c.direct.Send(ctx, msg) },
	)
}

func call[T any](ctx context.Context, c *Client, kind protocol.Kind, payload any) (T, error) {
	var out T
	msg, err := protocol.NewMessage(kind, payload)
	if err != nil {
		return out, err
	}
	resp := c.Call(ctx, msg)
	if err := resp.Err(); err != nil {
		return out, err
	}
	if err := resp.DecodeData(&out); err != nil {
		return out, err
	}
	return out, nil
}

func callVoid(ctx context.Context, c *Client, kind protocol.Kind, payload any) error {
	msg, err := protocol.NewMessage(kind, payload)
	if err != nil {
		return err
	}
	return c.Call(ctx, msg).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return callVoid(ctx, c, protocol.KindPing, nil)
}

func (c *Client) AuthCheck(ctx context.Context) (protocol.Session, error) {
	return call[protocol.Session](ctx, c, protocol.KindAuthCheck, nil)
}

func (c *Client) CreateRoom(ctx context.Context, name string) (*protocol.Room, error) {
	return call[*protocol.Room](ctx, c, protocol.KindRoomCreate, protocol.CreateRoomPayload{Name: name})
}

func (c *Client) JoinRoom(ctx context.Context, code string) (*protocol.Room, error) {
	return call[*protocol.Room](ctx, c, protocol.KindRoomJoin, protocol.JoinRoomPayload{Code: code})
}

func (c *Client) ListRooms(ctx context.Context) ([]protocol.Room, error) {
	return call[[]protocol.Room](ctx, c, protocol.KindRoomList, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return callVoid(ctx, c, protocol.KindRoomDelete, protocol.DeleteRoomPayload{RoomID: roomID})
}

func (c *Client) RemoveMember(ctx context.Context, roomID, userID string) error {
	return callVoid(ctx, c, protocol.KindRoomRemoveMember, protocol.RemoveMemberPayload{RoomID: roomID, UserID: userID})
}

func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	return callVoid(ctx, c, protocol.KindRoomLeave, protocol.LeaveRoomPayload{RoomID: roomID})
}

func (c *Client) AddProduct(ctx context.Context, p protocol.AddProductPayload) (*protocol.Product, error) {
	return call[*protocol.Product](ctx, c, protocol.KindProductAdd, p)
}

func (c *Client) ListProducts(ctx context.Context, roomID string) ([]protocol.Product, error) {
	return call[[]protocol.Product](ctx, c, protocol.KindProductList, protocol.ListProductsPayload{RoomID: roomID})
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	return callVoid(ctx, c, protocol.KindProductDelete, protocol.DeleteProductPayload{ProductID: productID})
}

func (c *Client) CastVote(ctx context.Context, productID string, voteType protocol.VoteType) (*protocol.Vote, error) {
	return call[*protocol.Vote](ctx, c, protocol.KindVoteCast, protocol.CastVotePayload{ProductID: productID, VoteType: voteType})
}

func (c *Client) RemoveVote(ctx context.Context, productID string) error {
	return callVoid(ctx, c, protocol.KindVoteRemove, protocol.RemoveVotePayload{ProductID: productID})
}

func (c *Client) OpenPanel(ctx context.Context) error {
	return callVoid(ctx, c, protocol.KindPanelOpen, nil)
}
