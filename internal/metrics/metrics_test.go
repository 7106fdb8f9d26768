package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"auction-marketplace/internal/biddingerrors"
)

func TestBidOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "accepted", err: nil, want: OutcomeAccepted},
		{name: "too_low", err: fmt.Errorf("service: %w", biddingerrors.ErrBidTooLow), want: OutcomeBidTooLow},
		{name: "closed", err: biddingerrors.ErrAuctionClosed, want: OutcomeAuctionClosed},
		{name: "amount", err: biddingerrors.ErrInvalidAmount, want: OutcomeInvalidAmount},
		{name: "bidder", err: biddingerrors.ErrInvalidBidder, want: OutcomeInvalidBidder},
		{name: "auction_missing", err: biddingerrors.ErrAuctionNotFound, want: OutcomeNotFound},
		{name: "storage", err: fmt.Errorf("x: %w", biddingerrors.ErrStorageUnavailable), want: OutcomeError},
		{name: "unknown", err: errors.New("boom"), want: OutcomeError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, BidOutcome(tc.err))
		})
	}
}

func TestBidsTotal_Increments(t *testing.T) {
	before := testutil.ToFloat64(BidsTotal.WithLabelValues(OutcomeAccepted))
	BidsTotal.WithLabelValues(OutcomeAccepted).Inc()
	require.Equal(t, before+1, testutil.ToFloat64(BidsTotal.WithLabelValues(OutcomeAccepted)))
}
