// Package protocol defines the wire vocabulary exchanged between vectocart
// contexts: the closed set of message kinds, their payload shapes, the
// response envelope, and the tagged error values that survive serialization
// across context boundaries.
package protocol

// Kind identifies one operation in the closed message vocabulary.
type Kind string

const (
	KindPing             Kind = "vc:ping"
	KindRoomCreate       Kind = "rooms:create"
	KindRoomJoin         Kind = "rooms:join"
	KindRoomList         Kind = "rooms:list"
	KindRoomDelete       Kind = "rooms:delete"
	KindRoomRemoveMember Kind = "rooms:removeMember"
	KindRoomLeave        Kind = "rooms:leave"
	KindProductAdd       Kind = "products:add"
	KindProductList      Kind = "products:list"
	KindProductDelete    Kind = "products:delete"
	KindVoteCast         Kind = "votes:cast"
	KindVoteRemove       Kind = "votes:remove"
	KindAuthCheck        Kind = "auth:check"
	KindPanelOpen        Kind = "sidepanel:open"
)

// Kinds returns every kind in the contract. The dispatcher's totality test
// iterates this list; adding a kind without a handler fails that test.
func Kinds() []Kind {
	return []Kind{
		KindPing,
		KindRoomCreate,
		KindRoomJoin,
		KindRoomList,
		KindRoomDelete,
		KindRoomRemoveMember,
		KindRoomLeave,
		KindProductAdd,
		KindProductList,
		KindProductDelete,
		KindVoteCast,
		KindVoteRemove,
		KindAuthCheck,
		KindPanelOpen,
	}
}

// Valid reports whether k is part of the contract.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Mutating reports whether the kind changes shared state other contexts
// observe. Successful mutating operations are followed by a change signal.
func (k Kind) Mutating() bool {
	switch k {
	case KindProductAdd, KindProductDelete, KindVoteCast, KindVoteRemove:
		return true
	}
	return false
}
