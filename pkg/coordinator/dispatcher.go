// Package coordinator implements the privileged long-lived context: it
// receives typed messages from other contexts, authorizes them, executes them
// against the external store, replies exactly once per request, and signals
// mutations through the change notifier.
package coordinator

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/vectocart/pkg/gate"
	"github.com/tinyland-inc/vectocart/pkg/logger"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/session"
	"github.com/tinyland-inc/vectocart/pkg/store"
)

// PanelOpener raises the panel UI. Only the coordinator may do this, so it is
// a capability injected by the host process.
type PanelOpener interface {
	OpenPanel(ctx context.Context) error
}

// PanelOpenerFunc adapts a function to the PanelOpener interface.
type PanelOpenerFunc func(ctx context.Context) error

func (f PanelOpenerFunc) OpenPanel(ctx context.Context) error { return f(ctx) }

// Dispatcher routes inbound messages to their handlers. Dispatch is total
// over the message contract: every kind maps to exactly one handler, and the
// totality test in this package fails if a kind is added without one.
type Dispatcher struct {
	store    store.Store
	members  store.MembershipSource
	sessions session.Provider
	gate     *gate.Gate
	notifier *notify.Notifier
	panel    PanelOpener
}

// NewDispatcher wires a dispatcher. All collaborators are injected
// explicitly; there is no lazily-initialized shared state to reset.
func NewDispatcher(
	st store.Store,
	members store.MembershipSource,
	sessions session.Provider,
	notifier *notify.Notifier,
	panel PanelOpener,
) *Dispatcher {
	return &Dispatcher{
		store:    st,
		members:  members,
		sessions: sessions,
		gate:     gate.New(members),
		notifier: notifier,
		panel:    panel,
	}
}

// Dispatch accepts one inbound message. The returned boolean is the explicit
// "a response will arrive" marker: true means the future resolves with
// exactly one Response once the asynchronous work finishes, false means no
// response will ever be sent (unknown kind, logged as a defect) and the
// caller's timeout must convert the silence into a transport failure.
func (d *Dispatcher) Dispatch(ctx context.Context, msg protocol.Message) (<-chan protocol.Response, bool) {
	if !msg.Type.Valid() {
		logger.WarnCF("coordinator", "unhandled message kind", map[string]any{
			"kind": string(msg.Type),
		})
		return nil, false
	}

	future := make(chan protocol.Response, 1)
	go func() {
		future <- d.process(ctx, msg)
	}()
	return future, true
}

// process runs one message through the full pipeline: validate, resolve
// session, authorize, execute, signal. Every failure leaves through the
// Response shape; panics included.
func (d *Dispatcher) process(ctx context.Context, msg protocol.Message) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("coordinator", "handler panic", map[string]any{
				"kind":  string(msg.Type),
				"panic": fmt.Sprint(r),
			})
			resp = protocol.FailResponse(fmt.Errorf("internal error handling %s", msg.Type))
		}
	}()

	payload, err := protocol.DecodePayload(msg)
	if err != nil {
		return protocol.FailResponse(err)
	}

	sess, err := d.sessions.Current(ctx)
	if err != nil {
		return protocol.FailResponse(fmt.Errorf("resolving session: %w", err))
	}

	resp = d.handle(ctx, msg.Type, sess, payload)
	if resp.OK {
		logger.DebugCF("coordinator", "request handled", map[string]any{
			"kind": string(msg.Type),
			"user": sess.UserID,
		})
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, kind protocol.Kind, sess protocol.Session, payload any) protocol.Response {
	switch kind {
	case protocol.KindPing:
		return protocol.OKResponse(map[string]any{"pong": true})

	case protocol.KindAuthCheck:
		return protocol.OKResponse(sess)

	case protocol.KindRoomCreate:
		p := payload.(*protocol.CreateRoomPayload)
		if err := requireSession(sess); err != nil {
			return protocol.FailResponse(err)
		}
		room, err := d.store.CreateRoom(ctx, sess.UserID, p.Name)
		if err != nil {
			return protocol.FailResponse(err)
		}
		return protocol.OKResponse(room)

	case protocol.KindRoomJoin:
		p := payload.(*protocol.JoinRoomPayload)
		if err := requireSession(sess); err != nil {
			return protocol.FailResponse(err)
		}
		room, err := d.store.JoinRoom(ctx, sess.UserID, p.Code)
		if err != nil {
			return protocol.FailResponse(err)
		}
		return protocol.OKResponse(room)

	case protocol.KindRoomList:
		if err := requireSession(sess); err != nil {
			return protocol.FailResponse(err)
		}
		rooms, err := d.store.ListRooms(ctx, sess.UserID)
		if err != nil {
			return protocol.FailResponse(err)
		}
		if rooms == nil {
			rooms = []protocol.Room{}
		}
		return protocol.OKResponse(rooms)

	case protocol.KindRoomDelete:
		p := payload.(*protocol.DeleteRoomPayload)
		if resp, ok := d.authorizeRoom(ctx, sess, p.RoomID, gate.ActionRoomDelete); !ok {
			return resp
		}
		if err := d.store.DeleteRoom(ctx, sess.UserID, p.RoomID); err != nil {
			return protocol.FailResponse(err)
		}
		return protocol.OKResponse(nil)

	case protocol.KindRoomRemoveMember:
		p := payload.(*protocol.RemoveMemberPayload)
		if resp, ok := d.authorizeRoom(ctx, sess, p.RoomID, gate.ActionRemoveMember); !ok {
			return resp
		}
		if err := d.store.RemoveMember(ctx, sess.UserID, p.RoomID, p.UserID); err != nil {
			return protocol.FailResponse(err)
		}
		return protocol.OKResponse(nil)

	case protocol.KindRoomLeave:
		p := payload.(*protocol.LeaveRoomPayload)
		if resp, ok := d.authorizeRoom(ctx, sess, p.RoomID, gate.ActionRoomLeave); !ok {
			return resp
		}
		if err := d.store.LeaveRoom(ctx, sess.UserID, p.RoomID); err != nil {
			return protocol.FailResponse(err)
		}
		return protocol.OKResponse(nil)

	case protocol.KindProductAdd:
		p := payload.(*protocol.AddProductPayload)
		if resp, ok := d.authorizeRoom(ctx, sess, p.RoomID, gate.ActionProductAdd); !ok {
			return resp
		}
		product, err := d.store.AddProduct(ctx, sess.UserID, p.RoomID, store.AddProductInput{
			Name:     p.Name,
			Price:    p.Price,
			Currency: p.Currency,
			Rating:   p.Rating,
			Image:    p.Image,
			URL:      p.URL,
			Platform: p.Platform,
		})
		if err != nil {
			return protocol.FailResponse(err)
		}
		d.signal(ctx, p.RoomID)
		return protocol.OKResponse(product)

	case protocol.KindProductList:
		p := payload.(*protocol.ListProductsPayload)
		if resp, ok := d.authorizeRoom(ctx, sess, p.RoomID, gate.ActionProductList); !ok {
			return resp
		}
		products, err := d.store.ListProducts(ctx, sess.UserID, p.RoomID)
		if err != nil {
			return protocol.FailResponse(err)
		}
		if products == nil {
			products = []protocol.Product{}
		}
		return protocol.OKResponse(products)

	case protocol.KindProductDelete:
		p := payload.(*protocol.DeleteProductPayload)
		roomID, resp, ok := d.authorizeProductDelete(ctx, sess, p.ProductID)
		if !ok {
			return resp
		}
		if err := d.store.DeleteProduct(ctx, sess.UserID, p.ProductID); err != nil {
			return protocol.FailResponse(err)
		}
		d.signal(ctx, roomID)
		return protocol.OKResponse(nil)

	case protocol.KindVoteCast:
		p := payload.(*protocol.CastVotePayload)
		roomID, resp, ok := d.authorizeVote(ctx, sess, p.ProductID)
		if !ok {
			return resp
		}
		vote, err := d.store.CastVote(ctx, sess.UserID, p.ProductID, p.VoteType)
		if err != nil {
			return protocol.FailResponse(err)
		}
		d.signal(ctx, roomID)
		return protocol.OKResponse(vote)

	case protocol.KindVoteRemove:
		p := payload.(*protocol.RemoveVotePayload)
		roomID, resp, ok := d.authorizeVote(ctx, sess, p.ProductID)
		if !ok {
			return resp
		}
		if err := d.store.RemoveVote(ctx, sess.UserID, p.ProductID); err != nil {
			return protocol.FailResponse(err)
		}
		d.signal(ctx, roomID)
		return protocol.OKResponse(nil)

	case protocol.KindPanelOpen:
		if d.panel == nil {
			return protocol.FailResponse(fmt.Errorf("no panel capability registered"))
		}
		if err := d.panel.OpenPanel(ctx); err != nil {
			return protocol.FailResponse(fmt.Errorf("opening panel: %w", err))
		}
		return protocol.OKResponse(nil)
	}

	// Unreachable: Dispatch rejects unknown kinds before scheduling work.
	return protocol.FailResponse(protocol.CodedError(protocol.CodeUnknownKind,
		fmt.Sprintf("unknown message kind %q", kind)))
}

func requireSession(sess protocol.Session) error {
	if !sess.IsAuthenticated || sess.UserID == "" {
		return protocol.CodedError(protocol.CodeNotAuthenticated, "please sign in first")
	}
	return nil
}

// authorizeRoom runs the capability gate for a room action. Authorization is
// evaluated here, at execution time, even though the store applies the same
// policy: the gate failing closed first keeps unauthorized calls away from
// the store entirely.
func (d *Dispatcher) authorizeRoom(ctx context.Context, sess protocol.Session, roomID string, action gate.Action) (protocol.Response, bool) {
	decision, err := d.gate.AuthorizeRoom(ctx, sess, roomID, action)
	if err != nil {
		return protocol.FailResponse(err), false
	}
	if !decision.Allowed {
		return protocol.FailResponse(gate.DenialError(sess, decision)), false
	}
	return protocol.Response{}, true
}

func (d *Dispatcher) authorizeProductDelete(ctx context.Context, sess protocol.Session, productID string) (string, protocol.Response, bool) {
	roomID, _, err := d.members.ProductInfo(ctx, productID)
	if err != nil {
		return "", protocol.FailResponse(err), false
	}
	decision, err := d.gate.AuthorizeProductDelete(ctx, sess, productID)
	if err != nil {
		return "", protocol.FailResponse(err), false
	}
	if !decision.Allowed {
		return "", protocol.FailResponse(gate.DenialError(sess, decision)), false
	}
	return roomID, protocol.Response{}, true
}

func (d *Dispatcher) authorizeVote(ctx context.Context, sess protocol.Session, productID string) (string, protocol.Response, bool) {
	roomID, _, err := d.members.ProductInfo(ctx, productID)
	if err != nil {
		return "", protocol.FailResponse(err), false
	}
	decision, err := d.gate.AuthorizeVote(ctx, sess, productID)
	if err != nil {
		return "", protocol.FailResponse(err), false
	}
	if !decision.Allowed {
		return "", protocol.FailResponse(gate.DenialError(sess, decision)), false
	}
	return roomID, protocol.Response{}, true
}

func (d *Dispatcher) signal(ctx context.Context, roomID string) {
	if d.notifier != nil {
		d.notifier.Signal(ctx, roomID)
	}
}
