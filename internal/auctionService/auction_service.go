package auction

import (
	"context"
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

// CreateAuctionInput holds the caller-supplied fields of a new auction
type CreateAuctionInput struct {
	Title         string          `validate:"required,max=200"`
	Description   string          `validate:"required"`
	StartingPrice decimal.Decimal `validate:"gt=0"`
	ImageRef      string          `validate:"required"`
	Latitude      float64         `validate:"min=-90,max=90"`
	Longitude     float64         `validate:"min=-180,max=180"`
	ClosingTime   time.Time       `validate:"required"`
}

// UpdateAuctionInput holds the descriptive fields an auction owner may change
type UpdateAuctionInput struct {
	Title       string  `validate:"required,max=200"`
	Description string  `validate:"required"`
	ImageRef    string  `validate:"required"`
	Latitude    float64 `validate:"min=-90,max=90"`
	Longitude   float64 `validate:"min=-180,max=180"`
}

// AuctionService manages auction records and their derived state
type AuctionService struct {
	repo  repository.AuctionDB
	clock utils.Clock
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, clock utils.Clock) *AuctionService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AuctionService{repo: repo, clock: clock}
}

// CreateAuction validates the input and stores a new auction
func (s *AuctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (models.Auction, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.Auction{}, fmt.Errorf("service: invalid auction: %w", err)
	}

	now := s.clock.Now()
	if !in.ClosingTime.After(now) {
		return models.Auction{}, fmt.Errorf("service: invalid auction: %w",
			biddingerrors.NewValidationError("ClosingTime", "must be in the future"))
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		Title:         in.Title,
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		ImageRef:      in.ImageRef,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		ClosingTime:   in.ClosingTime.UTC(),
		CreatedAt:     now,
	}
	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}

	metrics.AuctionsCreatedTotal.Inc()
	utils.Info("auction created", map[string]any{
		"auction_id":   auction.AuctionID,
		"closing_time": auction.ClosingTime,
	})
	return auction, nil
}

// GetAuction returns a single auction
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ListAuctions returns every auction
func (s *AuctionService) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// UpdateAuction changes descriptive fields. Closing time and starting price are fixed.
func (s *AuctionService) UpdateAuction(ctx context.Context, auctionID string, in UpdateAuctionInput) (models.Auction, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.Auction{}, fmt.Errorf("service: invalid auction update: %w", err)
	}

	updated, err := s.repo.UpdateAuctionDetails(ctx, models.Auction{
		AuctionID:   auctionID,
		Title:       in.Title,
		Description: in.Description,
		ImageRef:    in.ImageRef,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}
	return updated, nil
}

// GetAuctionState resolves phase and winning bid as of now
func (s *AuctionService) GetAuctionState(ctx context.Context, auctionID string) (models.AuctionState, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionState{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionState{}, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return resolver.Resolve(auction, bids, s.clock.Now()), nil
}
