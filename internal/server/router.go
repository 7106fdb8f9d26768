package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auction-marketplace/services/marketplace/handler"
	"auction-marketplace/utils"
)

// Services bundles the business services the HTTP layer exposes
type Services struct {
	Auctions handler.AuctionServiceInterface
	Bidding  handler.BiddingServiceInterface
	Users    handler.UserServiceInterface
	Stats    handler.StatsServiceInterface
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services, requestTimeout time.Duration) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	api.Use(RequestTimeoutMiddleware(requestTimeout))

	auctionHandler := handler.NewAuctionHandler(svc.Auctions)
	biddingHandler := handler.NewBiddingHandler(svc.Bidding)
	userHandler := handler.NewUserHandler(svc.Users)
	statsHandler := handler.NewStatsHandler(svc.Stats)

	users := api.Group("/users")
	{
		users.POST("", userHandler.RegisterHandler)
		users.POST("/login", userHandler.LoginHandler)
		users.GET("", userHandler.ListUsersHandler)
		users.GET("/:user_id", userHandler.GetUserHandler)
		users.PUT("/:user_id", userHandler.UpdateUserHandler)
		users.DELETE("/:user_id", userHandler.DeleteUserHandler)
	}

	auctions := api.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PATCH("/:auction_id", auctionHandler.UpdateAuctionHandler)
		auctions.GET("/:auction_id/state", auctionHandler.GetAuctionStateHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.ListBidsHandler)
	}

	bids := api.Group("/bids")
	{
		bids.POST("", biddingHandler.PlaceBidHandler)
	}

	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/stats", statsHandler.GetStatsHandler)
	}

	return router
}
