package engine

import (
	"time"

	"github.com/aaronwang/auction-house/internal/config"
	"github.com/aaronwang/auction-house/internal/models"
)

// requiredMinimum is the smallest acceptable bid for an auction: the
// start price while no bid has been accepted, then one increment above
// the current highest.
func requiredMinimum(a *models.Auction) float64 {
	if a.CurrentBidderID == "" {
		return a.StartPrice
	}
	return addAmounts(a.CurrentBid, a.MinIncrement)
}

// validateBid runs the placement checks in order and returns the first
// rejection, or "" if the bid may proceed. The access check happens in
// the pipeline (it consults the external policy); everything here is
// pure over the auction record, the settings and the submission.
func validateBid(a *models.Auction, s config.Settings, req *models.BidRequest, now time.Time) models.RejectionReason {
	if a.Status != models.StatusLive {
		return models.RejectAuctionNotLive
	}
	if s.BlockSellerBidding && req.BidderID == a.SellerID {
		return models.RejectSellerCannotBid
	}
	if s.PreventDuplicateHighest && req.BidderID == a.CurrentBidderID {
		return models.RejectAlreadyHighest
	}
	if s.MaxBidLimit > 0 {
		if amountGreater(req.Amount, s.MaxBidLimit) || amountGreater(req.MaxProxy, s.MaxBidLimit) {
			return models.RejectBidExceedsLimit
		}
	}
	if !now.Before(a.EndAt) {
		return models.RejectAuctionEnded
	}

	min := requiredMinimum(a)
	if standingCeiling(a, req) {
		// The engine bids the minimum necessary on the bidder's behalf,
		// so the ceiling is what must clear the bar.
		if !amountAtLeast(req.MaxProxy, min) {
			return models.RejectBidTooLow
		}
	} else if !amountAtLeast(req.Amount, min) {
		return models.RejectBidTooLow
	}

	return ""
}

// standingCeiling reports whether the submission establishes a proxy
// ceiling. A supplied maximum is ignored outright when the auction has
// proxy bidding disabled, and only counts when it strictly exceeds the
// submitted amount.
func standingCeiling(a *models.Auction, req *models.BidRequest) bool {
	return a.ProxyEnabled && amountGreater(req.MaxProxy, req.Amount)
}
