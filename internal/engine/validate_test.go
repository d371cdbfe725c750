package engine

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/aaronwang/auction-house/internal/config"
	"github.com/aaronwang/auction-house/internal/models"
)

func validationAuction() *models.Auction {
	now := time.Now().UTC()
	return &models.Auction{
		ID:           "a1",
		SellerID:     "seller",
		Status:       models.StatusLive,
		StartPrice:   100,
		MinIncrement: 10,
		ProxyEnabled: true,
		EndAt:        now.Add(time.Hour),
	}
}

func TestRequiredMinimum(t *testing.T) {
	a := validationAuction()
	check.Equal(t, 100.0, requiredMinimum(a))

	a.CurrentBid = 100
	a.CurrentBidderID = "alice"
	check.Equal(t, 110.0, requiredMinimum(a))
}

func TestValidateBid_AcceptsOpeningBidAtStartPrice(t *testing.T) {
	now := time.Now().UTC()
	reason := validateBid(validationAuction(), config.Settings{}, &models.BidRequest{BidderID: "alice", Amount: 100}, now)
	check.Equal(t, models.RejectionReason(""), reason)
}

func TestValidateBid_RejectionOrder(t *testing.T) {
	now := time.Now().UTC()
	settings := config.Settings{
		BlockSellerBidding:      true,
		PreventDuplicateHighest: true,
		MaxBidLimit:             500,
	}

	// Status outranks everything, including the seller check.
	a := validationAuction()
	a.Status = models.StatusEnded
	reason := validateBid(a, settings, &models.BidRequest{BidderID: "seller", Amount: 50}, now)
	check.Equal(t, models.RejectAuctionNotLive, reason)

	// Seller outranks the too-low amount.
	a = validationAuction()
	reason = validateBid(a, settings, &models.BidRequest{BidderID: "seller", Amount: 50}, now)
	check.Equal(t, models.RejectSellerCannotBid, reason)

	// Duplicate-highest outranks the limit.
	a = validationAuction()
	a.CurrentBid = 100
	a.CurrentBidderID = "alice"
	reason = validateBid(a, settings, &models.BidRequest{BidderID: "alice", Amount: 600}, now)
	check.Equal(t, models.RejectAlreadyHighest, reason)

	// Limit outranks the clock.
	a = validationAuction()
	a.EndAt = now.Add(-time.Minute)
	reason = validateBid(a, settings, &models.BidRequest{BidderID: "bob", Amount: 600}, now)
	check.Equal(t, models.RejectBidExceedsLimit, reason)

	// Clock outranks too-low.
	reason = validateBid(a, settings, &models.BidRequest{BidderID: "bob", Amount: 50}, now)
	check.Equal(t, models.RejectAuctionEnded, reason)
}

func TestValidateBid_CeilingValidatesAgainstMinimum(t *testing.T) {
	now := time.Now().UTC()
	a := validationAuction()
	a.CurrentBid = 100
	a.CurrentBidderID = "alice"

	// The submitted amount is below the minimum but the ceiling clears
	// it, so the engine can bid the minimum on the bidder's behalf.
	reason := validateBid(a, config.Settings{}, &models.BidRequest{BidderID: "bob", Amount: 100, MaxProxy: 200}, now)
	check.Equal(t, models.RejectionReason(""), reason)

	// Neither the amount nor the ceiling clears 110.
	reason = validateBid(a, config.Settings{}, &models.BidRequest{BidderID: "bob", Amount: 100, MaxProxy: 105}, now)
	check.Equal(t, models.RejectBidTooLow, reason)
}

func TestValidateBid_CeilingIgnoredWhenProxyDisabled(t *testing.T) {
	now := time.Now().UTC()
	a := validationAuction()
	a.ProxyEnabled = false
	a.CurrentBid = 100
	a.CurrentBidderID = "alice"

	// With proxy bidding off the ceiling cannot rescue a low amount.
	reason := validateBid(a, config.Settings{}, &models.BidRequest{BidderID: "bob", Amount: 100, MaxProxy: 200}, now)
	check.Equal(t, models.RejectBidTooLow, reason)
}

func TestStandingCeiling(t *testing.T) {
	a := validationAuction()

	check.True(t, standingCeiling(a, &models.BidRequest{Amount: 100, MaxProxy: 150}))
	check.False(t, standingCeiling(a, &models.BidRequest{Amount: 100, MaxProxy: 100}))
	check.False(t, standingCeiling(a, &models.BidRequest{Amount: 100}))

	a.ProxyEnabled = false
	check.False(t, standingCeiling(a, &models.BidRequest{Amount: 100, MaxProxy: 150}))
}
