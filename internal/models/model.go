package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered marketplace participant
type User struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	NationalID   string    `json:"national_id"`
	Role         string    `json:"role"`
	ProfilePic   string    `json:"profile_pic,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Auction represents a listed item that accepts bids until ClosingTime
type Auction struct {
	AuctionID     string          `json:"auction_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	ImageRef      string          `json:"image_ref"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	ClosingTime   time.Time       `json:"closing_time"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Bid represents an accepted offer against an auction.
// BidderName is a snapshot of the bidder's display name at bid time.
type Bid struct {
	BidID      string          `json:"bid_id"`
	AuctionID  string          `json:"auction_id"`
	UserID     string          `json:"user_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Phase is the derived temporal state of an auction
type Phase string

const (
	PhaseOpen   Phase = "OPEN"
	PhaseClosed Phase = "CLOSED"
)

// AuctionState is an auction as observed at a given instant
type AuctionState struct {
	Auction       Auction         `json:"auction"`
	Phase         Phase           `json:"phase"`
	WinningAmount decimal.Decimal `json:"winning_amount"`
	WinningBid    *Bid            `json:"winning_bid,omitempty"`
	BidCount      int             `json:"bid_count"`
	ObservedAt    time.Time       `json:"observed_at"`
}

// BidView is a bid annotated with the bidder's current profile, when it can be resolved
type BidView struct {
	Bid
	BidderDisplayName string `json:"bidder_display_name"`
	BidderEmail       string `json:"bidder_email,omitempty"`
	BidderResolved    bool   `json:"bidder_resolved"`
}

// Stats is a point-in-time snapshot of marketplace aggregates
type Stats struct {
	TotalUsers   int64           `json:"total_users"`
	OpenAuctions int64           `json:"open_auctions"`
	TotalBids    int64           `json:"total_bids"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
