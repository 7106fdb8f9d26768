package handler

//go:generate mockgen -source=services.go -destination=mock_services.go -package=handler

import (
	"context"

	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	model "auction-marketplace/internal/models"
	users "auction-marketplace/internal/userService"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, in bidding.PlaceBidInput) (model.Bid, error)
	ListBids(ctx context.Context, auctionID string) ([]model.BidView, error)
}

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, in auction.CreateAuctionInput) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	UpdateAuction(ctx context.Context, auctionID string, in auction.UpdateAuctionInput) (model.Auction, error)
	GetAuctionState(ctx context.Context, auctionID string) (model.AuctionState, error)
}

type UserServiceInterface interface {
	Register(ctx context.Context, in users.RegisterInput) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
	UpdateUser(ctx context.Context, userID string, in users.UpdateInput) (model.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type StatsServiceInterface interface {
	GetStats(ctx context.Context) (model.Stats, error)
}
