// Package resolver derives an auction's phase and winning bid from its closing
// time and bid set. Nothing here is stored; callers re-resolve on every read.
package resolver

import (
	"time"

	"auction-marketplace/internal/models"
)

// Phase returns OPEN while now is strictly before the closing time
func Phase(auction models.Auction, now time.Time) models.Phase {
	if now.Before(auction.ClosingTime) {
		return models.PhaseOpen
	}
	return models.PhaseClosed
}

// IsOpen reports whether the auction accepts bids at now
func IsOpen(auction models.Auction, now time.Time) bool {
	return Phase(auction, now) == models.PhaseOpen
}

// WinningBid returns the highest bid, ties going to the earliest timestamp.
// ok is false when there are no bids.
func WinningBid(bids []models.Bid) (winning models.Bid, ok bool) {
	if len(bids) == 0 {
		return models.Bid{}, false
	}

	winning = bids[0]
	for _, b := range bids[1:] {
		cmp := b.Amount.Cmp(winning.Amount)
		if cmp > 0 || (cmp == 0 && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}

// Resolve builds the auction state observed at now
func Resolve(auction models.Auction, bids []models.Bid, now time.Time) models.AuctionState {
	state := models.AuctionState{
		Auction:       auction,
		Phase:         Phase(auction, now),
		WinningAmount: auction.StartingPrice,
		BidCount:      len(bids),
		ObservedAt:    now,
	}

	if winning, ok := WinningBid(bids); ok {
		state.WinningAmount = winning.Amount
		state.WinningBid = &winning
	}
	return state
}
