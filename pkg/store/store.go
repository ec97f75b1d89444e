// Package store defines the capability interface to the external
// room/product/vote store. The coordinator reaches it through the dispatcher;
// the fallback path calls the same interface directly. Both paths see the
// same access policy because implementations enforce it at the operation
// level (see DESIGN.md).
package store

import (
	"context"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// AddProductInput carries the scraped product fields for AddProduct.
type AddProductInput struct {
	Name     string
	Price    *float64
	Currency string
	Rating   *float64
	Image    string
	URL      string
	Platform protocol.Platform
}

// Store is the external persistence capability. Every operation takes the
// caller's user ID so implementations can apply row-level access policy;
// callers resolve the ID from the session provider per request.
type Store interface {
	CreateRoom(ctx context.Context, userID, name string) (*protocol.Room, error)
	JoinRoom(ctx context.Context, userID, code string) (*protocol.Room, error)
	ListRooms(ctx context.Context, userID string) ([]protocol.Room, error)
	DeleteRoom(ctx context.Context, userID, roomID string) error
	RemoveMember(ctx context.Context, userID, roomID, memberID string) error
	LeaveRoom(ctx context.Context, userID, roomID string) error

	AddProduct(ctx context.Context, userID, roomID string, input AddProductInput) (*protocol.Product, error)
	ListProducts(ctx context.Context, userID, roomID string) ([]protocol.Product, error)
	DeleteProduct(ctx context.Context, userID, productID string) error

	CastVote(ctx context.Context, userID, productID string, voteType protocol.VoteType) (*protocol.Vote, error)
	RemoveVote(ctx context.Context, userID, productID string) error
}

// MembershipSource answers the authorization facts the capability gate needs.
// Implementations must answer from current state, never a cache: membership
// can change between requests and staleness here is a security bug.
type MembershipSource interface {
	// Membership returns the caller's membership in roomID, or nil when the
	// user is not a member. A missing room is reported as an error with code
	// NOT_FOUND.
	Membership(ctx context.Context, roomID, userID string) (*protocol.Member, error)
	// ProductInfo returns the room a product belongs to and who added it.
	ProductInfo(ctx context.Context, productID string) (roomID, addedBy string, err error)
}
