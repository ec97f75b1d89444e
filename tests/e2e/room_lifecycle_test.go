package e2e

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tinyland-inc/vectocart/pkg/client"
	"github.com/tinyland-inc/vectocart/pkg/coordinator"
	"github.com/tinyland-inc/vectocart/pkg/notify"
	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/session"
	"github.com/tinyland-inc/vectocart/pkg/store/memory"
	"github.com/tinyland-inc/vectocart/pkg/transport"
)

// stack is one full deployment: shared store and notifier state, one
// websocket server, and per-user clients.
type stack struct {
	store *memory.Store
	kv    *notify.MemoryKV
	srv   *httptest.Server
	t     *testing.T
}

func newStack(t *testing.T) *stack {
	return &stack{
		store: memory.New(),
		kv:    notify.NewMemoryKV(),
		t:     t,
	}
}

// clientFor returns a typed client whose requests run as userID. Each user
// gets their own server instance because session identity is resolved by the
// coordinator, not sent by the caller; all instances share the same store
// and notifier state.
func (s *stack) clientFor(userID string) *client.Client {
	dispatcher := coordinator.NewDispatcher(
		s.store, s.store,
		session.Static{UserID: userID},
		notify.NewNotifier(s.kv),
		nil,
	)
	server := coordinator.NewServer("127.0.0.1", 0, dispatcher, s.kv)
	srv := httptest.NewServer(server.Handler())
	s.t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, err := transport.DialWS(context.Background(), url, 2*time.Second)
	if err != nil {
		s.t.Fatalf("DialWS: %v", err)
	}
	s.t.Cleanup(func() { ws.Close() })
	return client.New(ws, nil)
}

func TestRoomLifecycle(t *testing.T) {
	s := newStack(t)
	alice := s.clientFor("alice")
	bob := s.clientFor("bob")
	ctx := context.Background()

	// Alice creates a room and shares its code with Bob.
	room, err := alice.CreateRoom(ctx, "Trip")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(room.Code) != protocol.RoomCodeLength {
		t.Fatalf("bad room code %q", room.Code)
	}

	joined, err := bob.JoinRoom(ctx, strings.ToLower(room.Code))
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if joined.ID != room.ID {
		t.Fatalf("bob joined %q, want %q", joined.ID, room.ID)
	}

	// Both see the room in their lists.
	for name, c := range map[string]*client.Client{"alice": alice, "bob": bob} {
		rooms, err := c.ListRooms(ctx)
		if err != nil {
			t.Fatalf("%s ListRooms: %v", name, err)
		}
		if len(rooms) != 1 || rooms[0].ID != room.ID {
			t.Fatalf("%s sees %+v", name, rooms)
		}
	}

	// Bob adds a product; Alice sees it.
	product, err := bob.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Shoes", URL: "https://x.com/p/1", Platform: protocol.PlatformAmazon,
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	products, err := alice.ListProducts(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != product.ID {
		t.Fatalf("alice sees %+v", products)
	}

	// Votes flow both ways.
	if _, err := alice.CastVote(ctx, product.ID, protocol.VoteUp); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	vote, err := alice.CastVote(ctx, product.ID, protocol.VoteDown)
	if err != nil {
		t.Fatalf("switch vote: %v", err)
	}
	if vote.Type != protocol.VoteDown {
		t.Fatalf("vote did not switch: %+v", vote)
	}

	// Owner deletes the room; every later operation against it fails with
	// NOT_FOUND for everyone.
	if err := bob.DeleteRoom(ctx, room.ID); err == nil {
		t.Fatal("non-owner must not delete the room")
	}
	if err := alice.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("owner DeleteRoom: %v", err)
	}
	_, err = bob.ListProducts(ctx, room.ID)
	if !protocol.HasCode(err, protocol.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND after room deletion, got %v", err)
	}
}

func TestDuplicateProductAcrossMembers(t *testing.T) {
	s := newStack(t)
	alice := s.clientFor("alice")
	bob := s.clientFor("bob")
	ctx := context.Background()

	room, err := alice.CreateRoom(ctx, "Trip")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.JoinRoom(ctx, room.Code); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Shoes", URL: "https://x.com/p/1", Platform: protocol.PlatformAmazon,
	}); err != nil {
		t.Fatal(err)
	}

	// Bob pastes the same listing with a tracking parameter. The room keeps
	// exactly one copy and Bob gets the stable duplicate code.
	_, err = bob.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Shoes (via link)", URL: "https://x.com/p/1?ref=abc", Platform: protocol.PlatformAmazon,
	})
	if !protocol.HasCode(err, protocol.CodeDuplicateProduct) {
		t.Fatalf("expected DUPLICATE_PRODUCT, got %v", err)
	}
	products, err := bob.ListProducts(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Fatalf("room holds %d products, want 1", len(products))
	}
}

func TestMembershipEnforcement(t *testing.T) {
	s := newStack(t)
	alice := s.clientFor("alice")
	mallory := s.clientFor("mallory")
	ctx := context.Background()

	room, err := alice.CreateRoom(ctx, "Trip")
	if err != nil {
		t.Fatal(err)
	}
	product, err := alice.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Shoes", URL: "https://x.com/p/1", Platform: protocol.PlatformAmazon,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mallory.ListProducts(ctx, room.ID); !protocol.HasCode(err, protocol.CodeNotMember) {
		t.Errorf("list: expected NOT_MEMBER, got %v", err)
	}
	if _, err := mallory.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Hat", URL: "https://x.com/p/2", Platform: protocol.PlatformAmazon,
	}); !protocol.HasCode(err, protocol.CodeNotMember) {
		t.Errorf("add: expected NOT_MEMBER, got %v", err)
	}
	if _, err := mallory.CastVote(ctx, product.ID, protocol.VoteUp); !protocol.HasCode(err, protocol.CodeNotMember) {
		t.Errorf("vote: expected NOT_MEMBER, got %v", err)
	}

	anon := s.clientFor("")
	if _, err := anon.CreateRoom(ctx, "Sneaky"); !protocol.HasCode(err, protocol.CodeNotAuthenticated) {
		t.Errorf("anon create: expected NOT_AUTHENTICATED, got %v", err)
	}
}

func TestChangeSignalReachesOtherContexts(t *testing.T) {
	s := newStack(t)
	alice := s.clientFor("alice")
	ctx := context.Background()

	room, err := alice.CreateRoom(ctx, "Trip")
	if err != nil {
		t.Fatal(err)
	}

	// A panel-like consumer follows the room through the change feed.
	feed := notify.NewFeed(s.kv, room.ID, 0, 10*time.Millisecond)
	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go feed.Run(feedCtx)

	if _, err := alice.AddProduct(ctx, protocol.AddProductPayload{
		RoomID: room.ID, Name: "Shoes", URL: "https://x.com/p/1", Platform: protocol.PlatformAmazon,
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case sig := <-feed.Events():
		if sig.RoomID != room.ID {
			t.Fatalf("signal for %q, want %q", sig.RoomID, room.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change signal never reached the consumer")
	}
}

func TestOwnerLifecycleRules(t *testing.T) {
	s := newStack(t)
	alice := s.clientFor("alice")
	bob := s.clientFor("bob")
	ctx := context.Background()

	room, err := alice.CreateRoom(ctx, "Trip")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.JoinRoom(ctx, room.Code); err != nil {
		t.Fatal(err)
	}

	// The owner cannot leave their own room.
	if err := alice.LeaveRoom(ctx, room.ID); !protocol.HasCode(err, protocol.CodePermissionDenied) {
		t.Errorf("owner leave: expected PERMISSION_DENIED, got %v", err)
	}
	// Members cannot remove each other; the owner can.
	if err := bob.RemoveMember(ctx, room.ID, "alice"); !protocol.HasCode(err, protocol.CodePermissionDenied) {
		t.Errorf("member removal by member: expected PERMISSION_DENIED, got %v", err)
	}
	if err := alice.RemoveMember(ctx, room.ID, "bob"); err != nil {
		t.Errorf("owner removal: %v", err)
	}
	// Removed members lose access immediately.
	if _, err := bob.ListProducts(ctx, room.ID); !protocol.HasCode(err, protocol.CodeNotMember) {
		t.Errorf("expected NOT_MEMBER after removal, got %v", err)
	}
}
