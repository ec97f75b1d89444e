// Package memory provides the in-memory reference implementation of the
// vectocart store. It enforces the same row-level access policy the hosted
// store applies, so direct (fallback-path) callers get identical
// authorization outcomes to coordinator-dispatched ones.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
	"github.com/tinyland-inc/vectocart/pkg/store"
)

type voteKey struct {
	productID string
	userID    string
}

// Store is a mutex-guarded in-memory store. Each operation holds the lock for
// its full duration, which gives the single-operation atomicity the protocol
// relies on instead of multi-step transactions.
type Store struct {
	mu       sync.RWMutex
	rooms    map[string]protocol.Room
	byCode   map[string]string
	members  map[string]map[string]protocol.Member
	products map[string]protocol.Product
	votes    map[voteKey]protocol.Vote

	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		rooms:    make(map[string]protocol.Room),
		byCode:   make(map[string]string),
		members:  make(map[string]map[string]protocol.Member),
		products: make(map[string]protocol.Product),
		votes:    make(map[voteKey]protocol.Vote),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

var _ store.Store = (*Store)(nil)
var _ store.MembershipSource = (*Store)(nil)

func errNotAuthenticated() error {
	return protocol.CodedError(protocol.CodeNotAuthenticated, "not authenticated")
}

func errNotMember() error {
	return protocol.CodedError(protocol.CodeNotMember, "not a member of this room")
}

func (s *Store) CreateRoom(ctx context.Context, userID, name string) (*protocol.Room, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	code := store.GenerateRoomCode()
	for i := 0; i < store.CodeRetryAttempts; i++ {
		if _, taken := s.byCode[code]; !taken {
			break
		}
		code = store.GenerateRoomCode()
	}
	if _, taken := s.byCode[code]; taken {
		return nil, protocol.CodedError(protocol.CodeNotFound, "could not allocate a unique room code")
	}

	room := protocol.Room{
		ID:        s.newID(),
		Name:      strings.TrimSpace(name),
		Code:      code,
		CreatedBy: userID,
		CreatedAt: s.now(),
	}
	s.rooms[room.ID] = room
	s.byCode[code] = room.ID
	s.members[room.ID] = map[string]protocol.Member{
		userID: {RoomID: room.ID, UserID: userID, Role: protocol.RoleOwner, JoinedAt: room.CreatedAt},
	}
	return &room, nil
}

func (s *Store) JoinRoom(ctx context.Context, userID, code string) (*protocol.Room, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, protocol.CodedError(protocol.CodeNotFound, "room not found, check the room code")
	}
	room := s.rooms[roomID]

	// Upsert: re-joining keeps the existing role, owners stay owners.
	if _, exists := s.members[roomID][userID]; !exists {
		s.members[roomID][userID] = protocol.Member{
			RoomID:   roomID,
			UserID:   userID,
			Role:     protocol.RoleMember,
			JoinedAt: s.now(),
		}
	}
	return &room, nil
}

func (s *Store) ListRooms(ctx context.Context, userID string) ([]protocol.Room, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type joined struct {
		room protocol.Room
		at   time.Time
	}
	var mine []joined
	for roomID, members := range s.members {
		if m, ok := members[userID]; ok {
			mine = append(mine, joined{room: s.rooms[roomID], at: m.JoinedAt})
		}
	}
	// Most recently joined first, matching the hosted store's ordering.
	sort.Slice(mine, func(i, j int) bool { return mine[i].at.After(mine[j].at) })

	rooms := make([]protocol.Room, len(mine))
	for i, j := range mine {
		rooms[i] = j.room
	}
	return rooms, nil
}

func (s *Store) DeleteRoom(ctx context.Context, userID, roomID string) error {
	if userID == "" {
		return errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	member, ok := s.members[roomID][userID]
	if !ok {
		return errNotMember()
	}
	if member.Role != protocol.RoleOwner {
		return protocol.CodedError(protocol.CodePermissionDenied, "only the owner can delete the room")
	}

	for productID, p := range s.products {
		if p.RoomID != roomID {
			continue
		}
		delete(s.products, productID)
		for key := range s.votes {
			if key.productID == productID {
				delete(s.votes, key)
			}
		}
	}
	delete(s.members, roomID)
	delete(s.byCode, room.Code)
	delete(s.rooms, roomID)
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, userID, roomID, memberID string) error {
	if userID == "" {
		return errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	caller, ok := s.members[roomID][userID]
	if !ok {
		return errNotMember()
	}
	if caller.Role != protocol.RoleOwner {
		return protocol.CodedError(protocol.CodePermissionDenied, "only the owner can remove members")
	}
	delete(s.members[roomID], memberID)
	return nil
}

func (s *Store) LeaveRoom(ctx context.Context, userID, roomID string) error {
	if userID == "" {
		return errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	member, ok := s.members[roomID][userID]
	if !ok {
		return errNotMember()
	}
	if member.Role == protocol.RoleOwner {
		return protocol.CodedError(protocol.CodePermissionDenied, "the owner cannot leave, delete the room instead")
	}
	delete(s.members[roomID], userID)
	return nil
}

func (s *Store) AddProduct(ctx context.Context, userID, roomID string, input store.AddProductInput) (*protocol.Product, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	if _, ok := s.members[roomID][userID]; !ok {
		return nil, errNotMember()
	}

	normalized := store.NormalizeURL(input.URL)
	for _, p := range s.products {
		if p.RoomID == roomID && store.NormalizeURL(p.URL) == normalized {
			return nil, protocol.CodedError(protocol.CodeDuplicateProduct, "this product is already in the room")
		}
	}

	product := protocol.Product{
		ID:       s.newID(),
		RoomID:   roomID,
		Name:     input.Name,
		Price:    input.Price,
		Currency: input.Currency,
		Rating:   input.Rating,
		Image:    input.Image,
		URL:      input.URL,
		AddedBy:  userID,
		AddedAt:  s.now(),
		Platform: input.Platform,
	}
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context, userID, roomID string) ([]protocol.Product, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	if _, ok := s.members[roomID][userID]; !ok {
		return nil, errNotMember()
	}

	var products []protocol.Product
	for _, p := range s.products {
		if p.RoomID == roomID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].AddedAt.After(products[j].AddedAt) })
	return products, nil
}

func (s *Store) DeleteProduct(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return protocol.CodedError(protocol.CodeNotFound, "product not found")
	}
	member, ok := s.members[product.RoomID][userID]
	if !ok {
		return errNotMember()
	}
	if product.AddedBy != userID && member.Role != protocol.RoleOwner {
		return protocol.CodedError(protocol.CodePermissionDenied,
			"only the product owner or room owner can delete products")
	}

	delete(s.products, productID)
	for key := range s.votes {
		if key.productID == productID {
			delete(s.votes, key)
		}
	}
	return nil
}

func (s *Store) CastVote(ctx context.Context, userID, productID string, voteType protocol.VoteType) (*protocol.Vote, error) {
	if userID == "" {
		return nil, errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, protocol.CodedError(protocol.CodeNotFound, "product not found")
	}
	if _, ok := s.members[product.RoomID][userID]; !ok {
		return nil, errNotMember()
	}

	key := voteKey{productID: productID, userID: userID}
	if existing, ok := s.votes[key]; ok {
		if existing.Type == voteType {
			// Idempotent: same vote type returns the existing row unchanged.
			return &existing, nil
		}
		existing.Type = voteType
		existing.UpdatedAt = s.now()
		s.votes[key] = existing
		return &existing, nil
	}

	vote := protocol.Vote{
		ID:        s.newID(),
		ProductID: productID,
		UserID:    userID,
		Type:      voteType,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.votes[key] = vote
	return &vote, nil
}

func (s *Store) RemoveVote(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return errNotAuthenticated()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return protocol.CodedError(protocol.CodeNotFound, "product not found")
	}
	if _, ok := s.members[product.RoomID][userID]; !ok {
		return errNotMember()
	}

	// Removing a vote that does not exist is a success with no data.
	delete(s.votes, voteKey{productID: productID, userID: userID})
	return nil
}

func (s *Store) Membership(ctx context.Context, roomID, userID string) (*protocol.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, protocol.CodedError(protocol.CodeNotFound, "room not found")
	}
	if member, ok := s.members[roomID][userID]; ok {
		return &member, nil
	}
	return nil, nil
}

func (s *Store) ProductInfo(ctx context.Context, productID string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[productID]
	if !ok {
		return "", "", protocol.CodedError(protocol.CodeNotFound, "product not found")
	}
	return product.RoomID, product.AddedBy, nil
}

// MemberCount reports the current membership size of a room. Zero when the
// room does not exist.
func (s *Store) MemberCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[roomID])
}

// ProductCount reports how many products a room currently holds.
func (s *Store) ProductCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.products {
		if p.RoomID == roomID {
			n++
		}
	}
	return n
}
