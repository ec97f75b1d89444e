package protocol

import "time"

// Role is a room membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// VoteType is the direction of a product vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Platform identifies the retailer a product was captured from.
type Platform string

const (
	PlatformAmazon   Platform = "amazon"
	PlatformFlipkart Platform = "flipkart"
	PlatformMeesho   Platform = "meesho"
)

// Room is a shared shopping room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a user's membership in a room. It is an authorization fact and is
// always queried fresh, never cached across requests.
type Member struct {
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Product is a product curated into a room.
type Product struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"roomId"`
	Name     string    `json:"name"`
	Price    *float64  `json:"price"`
	Currency string    `json:"currency,omitempty"`
	Rating   *float64  `json:"rating"`
	Image    string    `json:"image,omitempty"`
	URL      string    `json:"url"`
	AddedBy  string    `json:"addedBy"`
	AddedAt  time.Time `json:"addedAt"`
	Platform Platform  `json:"platform"`
}

// Vote is a single user's vote on a product. One row per user/product; a
// repeat cast of the same type returns this row unchanged.
type Vote struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Type      VoteType  `json:"voteType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the caller's identity, derived on demand from the auth provider
// for the lifetime of a single request.
type Session struct {
	UserID          string `json:"userId"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}
