package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodePayload_AllKindsHandled(t *testing.T) {
	// Every kind must either decode a payload or be explicitly payload-free.
	payloads := map[Kind]any{
		KindPing:             nil,
		KindAuthCheck:        nil,
		KindPanelOpen:        nil,
		KindRoomList:         nil,
		KindRoomCreate:       CreateRoomPayload{Name: "Trip"},
		KindRoomJoin:         JoinRoomPayload{Code: "ABC234"},
		KindRoomDelete:       DeleteRoomPayload{RoomID: "r1"},
		KindRoomRemoveMember: RemoveMemberPayload{RoomID: "r1", UserID: "u2"},
		KindRoomLeave:        LeaveRoomPayload{RoomID: "r1"},
		KindProductAdd: AddProductPayload{
			RoomID: "r1", Name: "Shoes", URL: "https://x.com/p/1", Platform: PlatformAmazon,
		},
		KindProductList:   ListProductsPayload{RoomID: "r1"},
		KindProductDelete: DeleteProductPayload{ProductID: "p1"},
		KindVoteCast:      CastVotePayload{ProductID: "p1", VoteType: VoteUp},
		KindVoteRemove:    RemoveVotePayload{ProductID: "p1"},
	}

	for _, kind := range Kinds() {
		payload, ok := payloads[kind]
		if !ok {
			t.Fatalf("no test payload for kind %s", kind)
		}
		msg := MustMessage(kind, payload)
		if _, err := DecodePayload(msg); err != nil {
			t.Errorf("DecodePayload(%s) failed: %v", kind, err)
		}
	}
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := DecodePayload(Message{Type: Kind("rooms:explode")})
	if !HasCode(err, CodeUnknownKind) {
		t.Fatalf("expected UNKNOWN_KIND, got %v", err)
	}
}

func TestDecodePayload_MissingPayload(t *testing.T) {
	_, err := DecodePayload(Message{Type: KindRoomCreate})
	if !HasCode(err, CodeInvalidPayload) {
		t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
	}
}

func TestDecodePayload_MalformedJSON(t *testing.T) {
	msg := Message{Type: KindRoomCreate, Payload: json.RawMessage(`{"name":`)}
	_, err := DecodePayload(msg)
	if !HasCode(err, CodeInvalidPayload) {
		t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
	}
}

func TestCreateRoomPayload_NameLimits(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"Trip", true},
		{"ab", true},
		{"a", false},
		{" ", false},
		{strings.Repeat("x", RoomNameMaxLength), true},
		{strings.Repeat("x", RoomNameMaxLength+1), false},
	}
	for _, tc := range cases {
		p := CreateRoomPayload{Name: tc.name}
		err := p.Validate()
		if tc.valid && err != nil {
			t.Errorf("name %q: unexpected error %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("name %q: expected validation error", tc.name)
		}
	}
}

func TestJoinRoomPayload_NormalizesCode(t *testing.T) {
	p := JoinRoomPayload{Code: " abc234 "}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Code != "ABC234" {
		t.Errorf("expected code normalized to ABC234, got %q", p.Code)
	}
}

func TestJoinRoomPayload_RejectsAmbiguousCharacters(t *testing.T) {
	// 0, O, 1 and I are excluded from the code alphabet.
	for _, code := range []string{"ABC230", "ABCO34", "ABC1XY", "ABIXYZ"} {
		p := JoinRoomPayload{Code: code}
		if err := p.Validate(); err == nil {
			t.Errorf("code %q: expected validation error", code)
		}
	}
}

func TestCastVotePayload_RejectsUnknownType(t *testing.T) {
	p := CastVotePayload{ProductID: "p1", VoteType: VoteType("sideways")}
	if err := p.Validate(); !HasCode(err, CodeInvalidPayload) {
		t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
	}
}

func TestAddProductPayload_RejectsUnknownPlatform(t *testing.T) {
	p := AddProductPayload{RoomID: "r1", Name: "Shoes", URL: "https://x.com/1", Platform: Platform("ebay")}
	if err := p.Validate(); !HasCode(err, CodeInvalidPayload) {
		t.Fatalf("expected INVALID_PAYLOAD, got %v", err)
	}
}

func TestKindValidity(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Errorf("kind %s reported invalid", kind)
		}
	}
	if Kind("vc:pong").Valid() {
		t.Error("vc:pong should not be valid")
	}
}
