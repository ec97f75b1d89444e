package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Room name limits, matching the hosted service's validation.
const (
	RoomNameMinLength = 2
	RoomNameMaxLength = 64
	RoomCodeLength    = 6
)

// RoomCodeAlphabet excludes ambiguous characters (0/O, 1/I).
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Message is one typed request crossing a context boundary. Constructed
// fresh per call, never mutated.
type Message struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a Message for kind with the given payload, which must be
// JSON-serializable. A nil payload is valid for payload-free kinds.
func NewMessage(kind Kind, payload any) (Message, error) {
	msg := Message{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("encoding %s payload: %w", kind, err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

// MustMessage is NewMessage for payloads that cannot fail to encode.
func MustMessage(kind Kind, payload any) Message {
	msg, err := NewMessage(kind, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Validator is implemented by every payload shape.
type Validator interface {
	Validate() error
}

type CreateRoomPayload struct {
	Name string `json:"name"`
}

func (p *CreateRoomPayload) Validate() error {
	name := strings.TrimSpace(p.Name)
	if len(name) < RoomNameMinLength || len(name) > RoomNameMaxLength {
		return CodedError(CodeInvalidPayload,
			fmt.Sprintf("room name must be %d-%d characters", RoomNameMinLength, RoomNameMaxLength))
	}
	return nil
}

type JoinRoomPayload struct {
	Code string `json:"code"`
}

func (p *JoinRoomPayload) Validate() error {
	code := strings.ToUpper(strings.TrimSpace(p.Code))
	if len(code) != RoomCodeLength {
		return CodedError(CodeInvalidPayload, "room code must be 6 characters")
	}
	for _, r := range code {
		if !strings.ContainsRune(RoomCodeAlphabet, r) {
			return CodedError(CodeInvalidPayload, "room code contains invalid characters")
		}
	}
	p.Code = code
	return nil
}

type DeleteRoomPayload struct {
	RoomID string `json:"roomId"`
}

func (p *DeleteRoomPayload) Validate() error {
	if p.RoomID == "" {
		return CodedError(CodeInvalidPayload, "roomId is required")
	}
	return nil
}

type RemoveMemberPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (p *RemoveMemberPayload) Validate() error {
	if p.RoomID == "" || p.UserID == "" {
		return CodedError(CodeInvalidPayload, "roomId and userId are required")
	}
	return nil
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

func (p *LeaveRoomPayload) Validate() error {
	if p.RoomID == "" {
		return CodedError(CodeInvalidPayload, "roomId is required")
	}
	return nil
}

type AddProductPayload struct {
	RoomID   string   `json:"roomId"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Image    string   `json:"image,omitempty"`
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

func (p *AddProductPayload) Validate() error {
	if p.RoomID == "" {
		return CodedError(CodeInvalidPayload, "roomId is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return CodedError(CodeInvalidPayload, "product name is required")
	}
	if p.URL == "" {
		return CodedError(CodeInvalidPayload, "product url is required")
	}
	switch p.Platform {
	case PlatformAmazon, PlatformFlipkart, PlatformMeesho:
	default:
		return CodedError(CodeInvalidPayload, fmt.Sprintf("unsupported platform %q", p.Platform))
	}
	return nil
}

type ListProductsPayload struct {
	RoomID string `json:"roomId"`
}

func (p *ListProductsPayload) Validate() error {
	if p.RoomID == "" {
		return CodedError(CodeInvalidPayload, "roomId is required")
	}
	return nil
}

type DeleteProductPayload struct {
	ProductID string `json:"productId"`
}

func (p *DeleteProductPayload) Validate() error {
	if p.ProductID == "" {
		return CodedError(CodeInvalidPayload, "productId is required")
	}
	return nil
}

type CastVotePayload struct {
	ProductID string   `json:"productId"`
	VoteType  VoteType `json:"voteType"`
}

func (p *CastVotePayload) Validate() error {
	if p.ProductID == "" {
		return CodedError(CodeInvalidPayload, "productId is required")
	}
	if p.VoteType != VoteUp && p.VoteType != VoteDown {
		return CodedError(CodeInvalidPayload, fmt.Sprintf("unsupported vote type %q", p.VoteType))
	}
	return nil
}

type RemoveVotePayload struct {
	ProductID string `json:"productId"`
}

func (p *RemoveVotePayload) Validate() error {
	if p.ProductID == "" {
		return CodedError(CodeInvalidPayload, "productId is required")
	}
	return nil
}

// DecodePayload decodes and validates msg's payload into the shape its kind
// requires. This is the single validation path; handlers receive already
// validated payloads. Kinds without payloads return nil.
func DecodePayload(msg Message) (any, error) {
	switch msg.Type {
	case KindPing, KindRoomList, KindAuthCheck, KindPanelOpen:
		return nil, nil
	case KindRoomCreate:
		return decode[CreateRoomPayload](msg)
	case KindRoomJoin:
		return decode[JoinRoomPayload](msg)
	case KindRoomDelete:
		return decode[DeleteRoomPayload](msg)
	case KindRoomRemoveMember:
		return decode[RemoveMemberPayload](msg)
	case KindRoomLeave:
		return decode[LeaveRoomPayload](msg)
	case KindProductAdd:
		return decode[AddProductPayload](msg)
	case KindProductList:
		return decode[ListProductsPayload](msg)
	case KindProductDelete:
		return decode[DeleteProductPayload](msg)
	case KindVoteCast:
		return decode[CastVotePayload](msg)
	case KindVoteRemove:
		return decode[RemoveVotePayload](msg)
	}
	return nil, CodedError(CodeUnknownKind, fmt.Sprintf("unknown message kind %q", msg.Type))
}

func decode[T any, PT interface {
	*T
	Validator
}](msg Message) (*T, error) {
	if len(msg.Payload) == 0 {
		return nil, CodedError(CodeInvalidPayload, fmt.Sprintf("%s requires a payload", msg.Type))
	}
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, CodedError(CodeInvalidPayload, fmt.Sprintf("malformed %s payload: %v", msg.Type, err))
	}
	if err := PT(&payload).Validate(); err != nil {
		return nil, err
	}
	return &payload, nil
}
