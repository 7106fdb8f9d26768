package perftests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	users "auction-marketplace/internal/userService"
)

// fixture is a memory-backed marketplace with pre-registered bidders and auctions
type fixture struct {
	repo     *repository.MemoryRepo
	bidding  *bidding.BiddingService
	auctions *auction.AuctionService
	userIDs  []string
}

func auctionID(i int) string { return fmt.Sprintf("auction_%d", i) }

// newFixture stores users directly so bcrypt cost stays out of the measurements
func newFixture(b *testing.B, numAuctions, numUsers int, startingPrice int64) *fixture {
	b.Helper()
	ctx := context.Background()

	repo := repository.NewMemoryRepo(nil)
	userSvc := users.NewUserService(repo, nil)

	f := &fixture{
		repo:     repo,
		bidding:  bidding.NewBiddingService(repo, userSvc, nil),
		auctions: auction.NewAuctionService(repo, nil),
	}

	now := time.Now().UTC()
	for i := 0; i < numUsers; i++ {
		u := model.User{
			UserID:    fmt.Sprintf("user_%d", i),
			FullName:  fmt.Sprintf("Bidder %d", i),
			Email:     fmt.Sprintf("bidder%d@example.com", i),
			CreatedAt: now,
		}
		if err := repo.CreateUser(ctx, u); err != nil {
			b.Fatalf("failed to create user: %v", err)
		}
		f.userIDs = append(f.userIDs, u.UserID)
	}

	for i := 0; i < numAuctions; i++ {
		err := repo.CreateAuction(ctx, model.Auction{
			AuctionID:     auctionID(i),
			Title:         fmt.Sprintf("title_%d", i),
			Description:   "Load test auction",
			StartingPrice: decimal.NewFromInt(startingPrice),
			ImageRef:      "https://example.com/load.jpg",
			ClosingTime:   now.Add(24 * time.Hour),
			CreatedAt:     now,
		})
		if err != nil {
			b.Fatalf("failed to create auction: %v", err)
		}
	}
	return f
}

func (f *fixture) placeBid(ctx context.Context, auctionID, userID string, amount int64) (model.Bid, error) {
	return f.bidding.PlaceBid(ctx, bidding.PlaceBidInput{
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    decimal.NewFromInt(amount),
	})
}
