// Package gate implements the per-request capability check run before any
// room, product, or vote operation. Decisions are evaluated fresh against the
// membership source on every call; nothing here caches between requests.
package gate

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/store"
)

// Action is a gated operation class.
type Action string

const (
	ActionRoomView     Action = "room.view"
	ActionRoomDelete   Action = "room.delete"
	ActionRemoveMember Action = "room.remove_member"
	ActionRoomLeave    Action = "room.leave"
	ActionProductAdd   Action = "product.add"
	ActionProductList  Action = "product.list"
	ActionVoteCast     Action = "vote.cast"
	ActionVoteRemove   Action = "vote.remove"
)

// Decision is the result of one authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Gate evaluates capability rules against live membership facts.
type Gate struct {
	members store.MembershipSource
}

func New(members store.MembershipSource) *Gate {
	return &Gate{members: members}
}

// AuthorizeRoom checks whether sess may perform action against roomID.
// Rules: unauthenticated callers are never allowed; default actions require
// membership; destructive actions (delete room, remove member) require the
// owner role; leaving requires only membership.
func (g *Gate) AuthorizeRoom(ctx context.Context, sess protocol.Session, roomID string, action Action) (Decision, error) {
	if !sess.IsAuthenticated || sess.UserID == "" {
		return deny("not authenticated"), nil
	}
	member, err := g.members.Membership(ctx, roomID, sess.UserID)
	if err != nil {
		return Decision{}, err
	}
	if member == nil {
		return deny("not a member of this room"), nil
	}
	switch action {
	case ActionRoomDelete, ActionRemoveMember:
		if member.Role != protocol.RoleOwner {
			return deny(fmt.Sprintf("%s requires the owner role", action)), nil
		}
	}
	return allow(), nil
}

// AuthorizeProductDelete checks product deletion: allowed when the caller
// added the product, or holds the owner role in the product's room.
func (g *Gate) AuthorizeProductDelete(ctx context.Context, sess protocol.Session, productID string) (Decision, error) {
	if !sess.IsAuthenticated || sess.UserID == "" {
		return deny("not authenticated"), nil
	}
	roomID, addedBy, err := g.members.ProductInfo(ctx, productID)
	if err != nil {
		return Decision{}, err
	}
	member, err := g.members.Membership(ctx, roomID, sess.UserID)
	if err != nil {
		return Decision{}, err
	}
	if member == nil {
		return deny("not a member of this room"), nil
	}
	if addedBy == sess.UserID || member.Role == protocol.RoleOwner {
		return allow(), nil
	}
	return deny("only the product owner or room owner can delete products"), nil
}

// AuthorizeVote checks vote cast/remove: requires membership in the product's
// room, nothing more.
func (g *Gate) AuthorizeVote(ctx context.Context, sess protocol.Session, productID string) (Decision, error) {
	if !sess.IsAuthenticated || sess.UserID == "" {
		return deny("not authenticated"), nil
	}
	roomID, _, err := g.members.ProductInfo(ctx, productID)
	if err != nil {
		return Decision{}, err
	}
	member, err := g.members.Membership(ctx, roomID, sess.UserID)
	if err != nil {
		return Decision{}, err
	}
	if member == nil {
		return deny("not a member of this room"), nil
	}
	return allow(), nil
}

// DenialError converts a denied decision into the tagged error surfaced to
// callers: NOT_AUTHENTICATED for missing sessions, NOT_MEMBER for
// non-membership, PERMISSION_DENIED otherwise.
func DenialError(sess protocol.Session, d Decision) error {
	if d.Allowed {
		return nil
	}
	switch {
	case !sess.IsAuthenticated || sess.UserID == "":
		return protocol.CodedError(protocol.CodeNotAuthenticated, "please sign in first")
	case d.Reason == "not a member of this room":
		return protocol.CodedError(protocol.CodeNotMember, d.Reason)
	default:
		return protocol.CodedError(protocol.CodePermissionDenied, d.Reason)
	}
}
