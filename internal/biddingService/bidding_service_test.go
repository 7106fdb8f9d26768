package bidding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func testAuction(closing time.Time) model.Auction {
	return model.Auction{
		AuctionID:     "auction1",
		Title:         "Vintage Clock",
		Description:   "Brass mantel clock",
		StartingPrice: decimal.NewFromInt(100),
		ImageRef:      "https://example.com/clock.jpg",
		ClosingTime:   closing,
		CreatedAt:     now.Add(-time.Hour),
	}
}

func testUser(userID string) model.User {
	return model.User{UserID: userID, FullName: "Alice Smith", Email: "alice@example.com"}
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	t.Parallel()

	open := testAuction(now.Add(time.Hour))
	closed := testAuction(now.Add(-time.Minute))
	storageDown := fmt.Errorf("get auction: %w: %w", biddingerrors.ErrStorageUnavailable, errors.New("connection refused"))

	// Table-driven test cases
	tests := []struct {
		name          string
		input         PlaceBidInput
		mockSetup     func(repo *repository.MockAuctionDB, users *MockUserRegistry)
		expectedError error
		expectedName  string
	}{
		{
			name:  "valid_first_bid",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", BidderName: "Ally", Amount: decimal.NewFromInt(150)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(nil, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, b model.Bid) (model.Bid, error) {
						b.CreatedAt = now
						return b, nil
					})
			},
			expectedName: "Ally",
		},
		{
			name:  "empty_bidder_name_uses_registry_name",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(150)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(nil, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, b model.Bid) (model.Bid, error) {
						b.CreatedAt = now
						return b, nil
					})
			},
			expectedName: "Alice Smith",
		},
		{
			name:  "auction_not_found_checked_first",
			input: PlaceBidInput{AuctionID: "missing", UserID: "", Amount: decimal.NewFromInt(-5)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "missing").Return(model.Auction{}, biddingerrors.ErrAuctionNotFound)
			},
			expectedError: biddingerrors.ErrNotFound,
		},
		{
			name:  "unknown_bidder_before_amount",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "ghost", Amount: decimal.Zero},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(closed, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "ghost").Return(model.User{}, biddingerrors.ErrUserNotFound)
			},
			expectedError: biddingerrors.ErrInvalidBidder,
		},
		{
			name:  "empty_user_id",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "", Amount: decimal.NewFromInt(500)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
			},
			expectedError: biddingerrors.ErrInvalidBidder,
		},
		{
			name:  "zero_amount_before_phase",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.Zero},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(closed, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
			},
			expectedError: biddingerrors.ErrInvalidAmount,
		},
		{
			name:  "negative_amount",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(-50)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
			},
			expectedError: biddingerrors.ErrInvalidAmount,
		},
		{
			name:  "closed_before_amount_comparison",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(1)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(closed, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
			},
			expectedError: biddingerrors.ErrAuctionClosed,
		},
		{
			name:  "closing_instant_counts_as_closed",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(500)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(testAuction(now), nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
			},
			expectedError: biddingerrors.ErrAuctionClosed,
		},
		{
			name:  "not_above_starting_price",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(100)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(nil, nil)
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:  "not_above_current_high",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user2", Amount: decimal.RequireFromString("150.00")},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user2").Return(testUser("user2"), nil)
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return([]model.Bid{
					{BidID: "b1", AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(150), CreatedAt: now.Add(-time.Minute)},
				}, nil)
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:  "ledger_rejects_on_race",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(120)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil)
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(nil, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).Return(model.Bid{}, biddingerrors.ErrBidTooLow)
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:  "storage_failure_not_conflated",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(120)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(model.Auction{}, storageDown)
			},
			expectedError: biddingerrors.ErrStorageUnavailable,
		},
		{
			name:  "registry_failure_not_invalid_bidder",
			input: PlaceBidInput{AuctionID: "auction1", UserID: "user1", Amount: decimal.NewFromInt(120)},
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetAuction(gomock.Any(), "auction1").Return(open, nil)
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(model.User{}, storageDown)
			},
			expectedError: biddingerrors.ErrStorageUnavailable,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel() // Run tests concurrently

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := repository.NewMockAuctionDB(ctrl)
			mockUsers := NewMockUserRegistry(ctrl)
			service := NewBiddingService(mockRepo, mockUsers, utils.NewManualClock(now))
			tc.mockSetup(mockRepo, mockUsers)

			bid, err := service.PlaceBid(context.Background(), tc.input)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				if errors.Is(tc.expectedError, biddingerrors.ErrStorageUnavailable) {
					require.False(t, errors.Is(err, biddingerrors.ErrNotFound))
					require.False(t, errors.Is(err, biddingerrors.ErrInvalidBidder))
				}
				return
			}

			require.NoError(t, err)

			// Validate generated BidID
			_, parseErr := uuid.Parse(bid.BidID)
			require.NoError(t, parseErr, "BidID should be a valid UUID")

			require.Equal(t, tc.input.AuctionID, bid.AuctionID)
			require.Equal(t, tc.input.UserID, bid.UserID)
			require.Equal(t, tc.expectedName, bid.BidderName)
			require.True(t, tc.input.Amount.Equal(bid.Amount))
		})
	}
}

// newLedgerService wires the service to an in-memory ledger and a registry
// that knows every user ID starting with "user"
func newLedgerService(t *testing.T, clock *utils.ManualClock) (*BiddingService, *repository.MemoryRepo) {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := NewMockUserRegistry(ctrl)
	users.EXPECT().ResolveUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, userID string) (model.User, error) {
			if len(userID) >= 4 && userID[:4] == "user" {
				return model.User{UserID: userID, FullName: "Name " + userID, Email: userID + "@example.com"}, nil
			}
			return model.User{}, biddingerrors.ErrUserNotFound
		}).AnyTimes()

	repo := repository.NewMemoryRepo(clock)
	require.NoError(t, repo.CreateAuction(context.Background(), testAuction(now.Add(time.Hour))))
	return NewBiddingService(repo, users, clock), repo
}

func TestBiddingService_WorkedExample(t *testing.T) {
	t.Parallel()

	clock := utils.NewManualClock(now)
	service, _ := newLedgerService(t, clock)
	ctx := context.Background()

	place := func(userID string, amount int64) error {
		_, err := service.PlaceBid(ctx, PlaceBidInput{AuctionID: "auction1", UserID: userID, Amount: decimal.NewFromInt(amount)})
		return err
	}

	require.ErrorIs(t, place("userA", 80), biddingerrors.ErrBidTooLow)
	require.NoError(t, place("userA", 150))
	clock.Advance(time.Second)
	require.ErrorIs(t, place("userB", 150), biddingerrors.ErrBidTooLow)
	require.NoError(t, place("userB", 151))

	clock.Advance(time.Hour)
	require.ErrorIs(t, place("userA", 1000), biddingerrors.ErrAuctionClosed)

	views, err := service.ListBids(ctx, "auction1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.True(t, decimal.NewFromInt(151).Equal(views[0].Amount))
	require.Equal(t, "userB", views[0].UserID)
	require.True(t, views[0].CreatedAt.After(views[1].CreatedAt), "newest first")
}

func TestBiddingService_ConcurrentBids(t *testing.T) {
	t.Parallel()

	clock := utils.NewManualClock(now)
	service, repo := newLedgerService(t, clock)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, err := service.PlaceBid(ctx, PlaceBidInput{
				AuctionID: "auction1",
				UserID:    fmt.Sprintf("user%d", i),
				Amount:    decimal.NewFromInt(int64(101 + i%10)),
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, biddingerrors.ErrBidTooLow)
	}

	bids, err := repo.GetBidsByAuction(ctx, "auction1")
	require.NoError(t, err)
	require.NotEmpty(t, bids)
	require.LessOrEqual(t, len(bids), 10)
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i].Amount.GreaterThan(bids[i-1].Amount))
		require.True(t, bids[i].CreatedAt.After(bids[i-1].CreatedAt))
	}
}

// Tests ListBids
func TestBiddingService_ListBids(t *testing.T) {
	t.Parallel()

	bidsExample := []model.Bid{
		{BidID: "bid1", AuctionID: "auction1", UserID: "user1", BidderName: "Old Alice", Amount: decimal.NewFromInt(150), CreatedAt: now},
		{BidID: "bid2", AuctionID: "auction1", UserID: "deleted", BidderName: "Bob Snapshot", Amount: decimal.NewFromInt(160), CreatedAt: now.Add(time.Second)},
		{BidID: "bid3", AuctionID: "auction1", UserID: "user1", BidderName: "Old Alice", Amount: decimal.NewFromInt(170), CreatedAt: now.Add(2 * time.Second)},
	}

	tests := []struct {
		name          string
		auctionID     string
		mockSetup     func(repo *repository.MockAuctionDB, users *MockUserRegistry)
		expectedError error
		expectedIDs   []string
	}{
		{
			name:      "newest_first_with_fallback",
			auctionID: "auction1",
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(bidsExample, nil)
				// one lookup per distinct bidder
				users.EXPECT().ResolveUser(gomock.Any(), "user1").Return(testUser("user1"), nil).Times(1)
				users.EXPECT().ResolveUser(gomock.Any(), "deleted").Return(model.User{}, biddingerrors.ErrUserNotFound).Times(1)
			},
			expectedIDs: []string{"bid3", "bid2", "bid1"},
		},
		{
			name:      "no_bids",
			auctionID: "auction2",
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction2").Return([]model.Bid{}, nil)
			},
			expectedIDs: []string{},
		},
		{
			name:      "unknown_auction",
			auctionID: "missing",
			mockSetup: func(repo *repository.MockAuctionDB, users *MockUserRegistry) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "missing").Return(nil, biddingerrors.ErrAuctionNotFound)
			},
			expectedError: biddingerrors.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := repository.NewMockAuctionDB(ctrl)
			mockUsers := NewMockUserRegistry(ctrl)
			service := NewBiddingService(mockRepo, mockUsers, utils.NewManualClock(now))
			tc.mockSetup(mockRepo, mockUsers)

			views, err := service.ListBids(context.Background(), tc.auctionID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.BidID)
			}
			require.Equal(t, tc.expectedIDs, ids)

			for _, v := range views {
				if v.UserID == "deleted" {
					require.False(t, v.BidderResolved)
					require.Equal(t, "Bob Snapshot", v.BidderDisplayName)
					continue
				}
				require.True(t, v.BidderResolved)
				require.Equal(t, "Alice Smith", v.BidderDisplayName)
				require.Equal(t, "alice@example.com", v.BidderEmail)
			}
		})
	}
}
