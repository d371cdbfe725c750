package engine

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/aaronwang/auction-house/internal/models"
)

func ceilingBid(bidder string, amount, ceiling float64, declared time.Time) models.Bid {
	return models.Bid{
		ID:        bidder + "-ceiling",
		AuctionID: "a1",
		BidderID:  bidder,
		Amount:    amount,
		MaxProxy:  ceiling,
		IsProxy:   true,
		CreatedAt: declared,
	}
}

func TestResolve_NoCeilings(t *testing.T) {
	snap := Snapshot{
		Highest:      &models.Bid{BidderID: "alice", Amount: 100},
		StartPrice:   100,
		MinIncrement: 10,
	}

	check.Nil(t, Resolve(snap))
}

func TestResolve_CeilingDoesNotExceedHighest(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest:      &models.Bid{BidderID: "alice", Amount: 150},
		Ceilings:     []models.Bid{ceilingBid("bob", 110, 150, t0)},
		StartPrice:   100,
		MinIncrement: 10,
	}

	// Bob's ceiling equals the standing amount; first at that price keeps it.
	check.Nil(t, Resolve(snap))
}

func TestResolve_CounterBidAgainstOrdinaryBid(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest:      &models.Bid{BidderID: "alice", Amount: 100},
		Ceilings:     []models.Bid{ceilingBid("bob", 110, 200, t0)},
		StartPrice:   100,
		MinIncrement: 10,
	}

	auto := Resolve(snap)
	check.NotNil(t, auto)
	check.Equal(t, "bob", auto.BidderID)
	check.Equal(t, 110.0, auto.Amount) // min(200, 100+10)
	check.Equal(t, 200.0, auto.Ceiling)
}

func TestResolve_TwoCeilingsSecondPlusIncrement(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "alice", Amount: 110},
		Ceilings: []models.Bid{
			ceilingBid("bob", 110, 200, t0.Add(time.Second)),
			ceilingBid("alice", 100, 150, t0),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	auto := Resolve(snap)
	check.NotNil(t, auto)
	check.Equal(t, "bob", auto.BidderID)
	check.Equal(t, 160.0, auto.Amount) // min(200, 150+10)
}

func TestResolve_CappedAtOwnCeiling(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "alice", Amount: 110},
		Ceilings: []models.Bid{
			ceilingBid("bob", 110, 155, t0.Add(time.Second)),
			ceilingBid("alice", 100, 150, t0),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	auto := Resolve(snap)
	check.NotNil(t, auto)
	check.Equal(t, "bob", auto.BidderID)
	check.Equal(t, 155.0, auto.Amount) // capped below 150+10
}

func TestResolve_LeaderRaisedOverRivalCeiling(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "bob", Amount: 110},
		Ceilings: []models.Bid{
			ceilingBid("bob", 110, 200, t0.Add(time.Second)),
			ceilingBid("alice", 100, 150, t0),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	// Bob leads but Alice's standing 150 still pushes the price.
	auto := Resolve(snap)
	check.NotNil(t, auto)
	check.Equal(t, "bob", auto.BidderID)
	check.Equal(t, 160.0, auto.Amount)
}

func TestResolve_LeaderWithoutRivalIsFixedPoint(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest:      &models.Bid{BidderID: "bob", Amount: 110},
		Ceilings:     []models.Bid{ceilingBid("bob", 110, 200, t0)},
		StartPrice:   100,
		MinIncrement: 10,
	}

	check.Nil(t, Resolve(snap))
}

func TestResolve_EqualCeilingsEarliestWins(t *testing.T) {
	t0 := time.Now().UTC()
	// Alice declared 150 first; ceilings arrive pre-sorted with the
	// earlier declaration ahead on ties.
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "bob", Amount: 110},
		Ceilings: []models.Bid{
			ceilingBid("alice", 100, 150, t0),
			ceilingBid("bob", 110, 150, t0.Add(time.Second)),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	auto := Resolve(snap)
	check.NotNil(t, auto)
	check.Equal(t, "alice", auto.BidderID)
	check.Equal(t, 150.0, auto.Amount) // min(150, 150+10)
}

func TestResolve_ConvergedStateIsIdempotent(t *testing.T) {
	t0 := time.Now().UTC()
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "bob", Amount: 160, MaxProxy: 200, IsProxy: true},
		Ceilings: []models.Bid{
			ceilingBid("bob", 160, 200, t0.Add(time.Second)),
			ceilingBid("alice", 100, 150, t0),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	check.Nil(t, Resolve(snap))
}

func TestResolve_ProgressGuard(t *testing.T) {
	t0 := time.Now().UTC()
	// A manual bid overtook both ceilings; nothing to do.
	snap := Snapshot{
		Highest: &models.Bid{BidderID: "carol", Amount: 300},
		Ceilings: []models.Bid{
			ceilingBid("bob", 110, 200, t0.Add(time.Second)),
			ceilingBid("alice", 100, 150, t0),
		},
		StartPrice:   100,
		MinIncrement: 10,
	}

	check.Nil(t, Resolve(snap))
}
