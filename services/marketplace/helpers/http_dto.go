package helpers

import (
	"time"

	"github.com/shopspring/decimal"

	model "auction-marketplace/internal/models"
)

// Request/Response DTOs

// PlaceBidRequest is not validated by binding; the bidding service checks
// each field in its own order
type PlaceBidRequest struct {
	AuctionID  string          `json:"auction_id"`
	UserID     string          `json:"user_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	BidID      string          `json:"bid_id"`
	AuctionID  string          `json:"auction_id"`
	UserID     string          `json:"user_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  string          `json:"created_at"`
}

type BidViewResponse struct {
	BidResponse
	BidderDisplayName string `json:"bidder_display_name"`
	BidderEmail       string `json:"bidder_email,omitempty"`
	BidderResolved    bool   `json:"bidder_resolved"`
}

type CreateAuctionRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	ImageRef      string          `json:"image_ref"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	ClosingTime   time.Time       `json:"closing_time"`
}

type UpdateAuctionRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageRef    string  `json:"image_ref"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type RegisterUserRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	NationalID string `json:"national_id"`
	Role       string `json:"role"`
	ProfilePic string `json:"profile_pic"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Role       string `json:"role"`
	ProfilePic string `json:"profile_pic"`
}

// FormatTime renders timestamps with sub-second precision so bid order survives the round trip
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NewBidResponse converts a Bid into its response form
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		AuctionID:  bid.AuctionID,
		UserID:     bid.UserID,
		BidderName: bid.BidderName,
		Amount:     bid.Amount,
		CreatedAt:  FormatTime(bid.CreatedAt),
	}
}

// NewBidViewResponses converts annotated bids, keeping their order
func NewBidViewResponses(views []model.BidView) []BidViewResponse {
	out := make([]BidViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, BidViewResponse{
			BidResponse:       NewBidResponse(v.Bid),
			BidderDisplayName: v.BidderDisplayName,
			BidderEmail:       v.BidderEmail,
			BidderResolved:    v.BidderResolved,
		})
	}
	return out
}
