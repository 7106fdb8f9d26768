package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	auction "auction-marketplace/internal/auctionService"
	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	stats "auction-marketplace/internal/statsService"
	users "auction-marketplace/internal/userService"
	"auction-marketplace/services/marketplace/helpers"
	"auction-marketplace/utils"
)

// testEnv is a fully wired application backed by the in-memory repository
type testEnv struct {
	router *gin.Engine
	clock  *utils.ManualClock
	repo   *repository.MemoryRepo
}

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := utils.NewManualClock(time.Now().UTC())
	repo := repository.NewMemoryRepo(clock)
	userSvc := users.NewUserService(repo, clock)

	router := server.SetupRouter(server.Services{
		Auctions: auction.NewAuctionService(repo, clock),
		Bidding:  bidding.NewBiddingService(repo, userSvc, clock),
		Users:    userSvc,
		Stats:    stats.NewStatsService(repo, repo, clock),
	}, 5*time.Second)

	return &testEnv{router: router, clock: clock, repo: repo}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// registerUser creates a user through the API and returns its ID
func (e *testEnv) registerUser(t *testing.T, name, email string) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, e.router, http.MethodPost, "/users", helpers.RegisterUserRequest{
		FullName:   name,
		Email:      email,
		Password:   "Password123!",
		NationalID: "NID-" + name,
		Role:       "bidder",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["user_id"].(string)
}

// createAuction lists an item closing after closesIn and returns its ID
func (e *testEnv) createAuction(t *testing.T, title, startingPrice string, closesIn time.Duration) string {
	t.Helper()
	body := map[string]any{
		"title":          title,
		"description":    title + " description",
		"starting_price": startingPrice,
		"image_ref":      "https://example.com/" + title + ".jpg",
		"latitude":       40.7128,
		"longitude":      -74.0060,
		"closing_time":   e.clock.Now().Add(closesIn).Format(time.RFC3339Nano),
	}
	resp, w := ExecuteRequestAndParse(t, e.router, http.MethodPost, "/auctions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["auction_id"].(string)
}

// placeBid posts a bid and returns the decoded envelope
func (e *testEnv) placeBid(t *testing.T, auctionID, userID, amount string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	return ExecuteRequestAndParse(t, e.router, http.MethodPost, "/bids", map[string]any{
		"auction_id": auctionID,
		"user_id":    userID,
		"amount":     amount,
	})
}
