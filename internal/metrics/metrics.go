package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"auction-marketplace/internal/biddingerrors"
)

// bid outcomes
const (
	OutcomeAccepted      = "accepted"
	OutcomeBidTooLow     = "bid_too_low"
	OutcomeAuctionClosed = "auction_closed"
	OutcomeInvalidAmount = "invalid_amount"
	OutcomeInvalidBidder = "invalid_bidder"
	OutcomeNotFound      = "not_found"
	OutcomeError         = "error"
)

var (
	BidsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Bid placement attempts by outcome",
		},
		[]string{"outcome"},
	)

	BidPlacementSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auction_bid_placement_seconds",
			Help:    "Time spent admitting or rejecting a bid",
			Buckets: prometheus.DefBuckets,
		},
	)

	AuctionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_auctions_created_total",
			Help: "Auctions created",
		},
	)

	StatsFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_stats_failures_total",
			Help: "Dashboard statistics requests that failed to aggregate",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(BidsTotal)
	prometheus.MustRegister(BidPlacementSeconds)
	prometheus.MustRegister(AuctionsCreatedTotal)
	prometheus.MustRegister(StatsFailuresTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// BidOutcome maps a PlaceBid result to its outcome label
func BidOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return OutcomeBidTooLow
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return OutcomeAuctionClosed
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return OutcomeInvalidAmount
	case errors.Is(err, biddingerrors.ErrInvalidBidder):
		return OutcomeInvalidBidder
	case errors.Is(err, biddingerrors.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
