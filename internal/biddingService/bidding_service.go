package bidding

//go:generate mockgen -source=bidding_service.go -destination=mock_bidding_service.go -package=bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/resolver"
	"auction-marketplace/utils"
)

// UserRegistry resolves bidder identities
type UserRegistry interface {
	ResolveUser(ctx context.Context, userID string) (models.User, error)
}

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo  repository.AuctionDB
	users UserRegistry
	clock utils.Clock
}

// PlaceBidInput is a bid request as received from a caller
type PlaceBidInput struct {
	AuctionID  string
	UserID     string
	BidderName string
	Amount     decimal.Decimal
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, users UserRegistry, clock utils.Clock) *BiddingService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &BiddingService{
		repo:  repo,
		users: users,
		clock: clock,
	}
}

// PlaceBid validates and records a user's bid for an auction.
// Checks run in order and stop at the first failure; the phase and amount
// checks are repeated by the ledger under the auction's lock.
func (s *BiddingService) PlaceBid(ctx context.Context, in PlaceBidInput) (bid models.Bid, err error) {
	start := time.Now()
	defer func() {
		metrics.BidPlacementSeconds.Observe(time.Since(start).Seconds())
		metrics.BidsTotal.WithLabelValues(metrics.BidOutcome(err)).Inc()
	}()

	auction, err := s.repo.GetAuction(ctx, in.AuctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", in.AuctionID, err)
	}

	bidder, err := s.resolveBidder(ctx, in.UserID)
	if err != nil {
		return models.Bid{}, err
	}

	if !in.Amount.IsPositive() {
		return models.Bid{}, fmt.Errorf("service: %w - amount must be greater than zero, got %s",
			biddingerrors.ErrInvalidAmount, in.Amount.String())
	}

	if !resolver.IsOpen(auction, s.clock.Now()) {
		return models.Bid{}, fmt.Errorf("service: %w - closed at %s",
			biddingerrors.ErrAuctionClosed, auction.ClosingTime.Format(time.RFC3339))
	}

	bids, err := s.repo.GetBidsByAuction(ctx, in.AuctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to read bids for auction %s: %w", in.AuctionID, err)
	}
	state := resolver.Resolve(auction, bids, s.clock.Now())
	if in.Amount.LessThanOrEqual(state.WinningAmount) {
		return models.Bid{}, fmt.Errorf("service: %w - current highest bid is %s",
			biddingerrors.ErrBidTooLow, state.WinningAmount.String())
	}

	name := in.BidderName
	if name == "" {
		name = bidder.FullName
	}

	bid, err = s.repo.AppendBid(ctx, models.Bid{
		BidID:      utils.GenerateID(),
		AuctionID:  in.AuctionID,
		UserID:     in.UserID,
		BidderName: name,
		Amount:     in.Amount,
	})
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", in.AuctionID, in.UserID, err)
	}

	utils.Info("bid accepted", map[string]any{
		"auction_id": bid.AuctionID,
		"user_id":    bid.UserID,
		"amount":     bid.Amount.String(),
	})
	return bid, nil
}

// resolveBidder maps an unknown user to ErrInvalidBidder; other registry
// failures pass through unchanged
func (s *BiddingService) resolveBidder(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidBidder)
	}
	user, err := s.users.ResolveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrNotFound) {
			return models.User{}, fmt.Errorf("service: %w - user %s is not registered", biddingerrors.ErrInvalidBidder, userID)
		}
		return models.User{}, fmt.Errorf("service: failed to resolve bidder %s: %w", userID, err)
	}
	return user, nil
}

// ListBids returns the bids for an auction, newest first, annotated with
// each bidder's current profile where it still resolves
func (s *BiddingService) ListBids(ctx context.Context, auctionID string) ([]models.BidView, error) {
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	resolved := make(map[string]*models.User)
	views := make([]models.BidView, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		b := bids[i]
		user, seen := resolved[b.UserID]
		if !seen {
			user = s.lookupBidder(ctx, b.UserID)
			resolved[b.UserID] = user
		}

		view := models.BidView{Bid: b, BidderDisplayName: b.BidderName}
		if user != nil {
			view.BidderDisplayName = user.FullName
			view.BidderEmail = user.Email
			view.BidderResolved = true
		}
		views = append(views, view)
	}
	return views, nil
}

// lookupBidder is best-effort; nil means fall back to the snapshot name
func (s *BiddingService) lookupBidder(ctx context.Context, userID string) *models.User {
	user, err := s.users.ResolveUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, biddingerrors.ErrNotFound) {
			utils.Warn("bidder lookup failed, using snapshot name", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return nil
	}
	return &user
}
