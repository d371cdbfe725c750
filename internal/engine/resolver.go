package engine

import (
	"github.com/aaronwang/auction-house/internal/models"
)

// maxResolveRounds bounds the proxy war per accepted bid. Each emitted
// auto-bid strictly raises the highest amount and is capped by the top
// ceiling, so the loop converges well inside this bound on sane data;
// the bound guarantees termination regardless of data shape.
const maxResolveRounds = 5

// Snapshot is the ledger state the resolver steps over: the current
// highest bid plus the top standing ceilings (one per bidder, highest
// ceiling first, equal ceilings ordered earliest-declared first).
type Snapshot struct {
	Highest      *models.Bid
	Ceilings     []models.Bid
	StartPrice   float64
	MinIncrement float64
}

// AutoBid is the next automatic counter-bid the resolver wants placed.
type AutoBid struct {
	BidderID string
	Amount   float64
	Ceiling  float64
}

// Resolve computes the next automatic bid for a snapshot, or nil at a
// fixed point. It is a pure function; the placement pipeline applies it
// repeatedly under the per-auction lock, re-reading the ledger between
// steps.
//
// Semantics are the classic ascending-price proxy war: the bidder with
// the strictly higher ceiling ends up holding the highest bid at
// (second ceiling + one increment), capped at their own ceiling. Equal
// ceilings go to the earliest-declared one.
func Resolve(s Snapshot) *AutoBid {
	if len(s.Ceilings) == 0 {
		return nil
	}

	top := s.Ceilings[0]
	second := 0.0
	if len(s.Ceilings) > 1 {
		second = s.Ceilings[1].MaxProxy
	}

	current := s.StartPrice
	leaderID := ""
	if s.Highest != nil {
		current = s.Highest.Amount
		leaderID = s.Highest.BidderID
	}

	var target float64
	if top.BidderID == leaderID {
		// The top ceiling already leads. Only a rival standing ceiling
		// can push the price: raise the leader's own bid so the rival's
		// ceiling is beaten by one increment, capped at the leader's
		// ceiling. Without a rival there is nothing to do.
		if second == 0 {
			return nil
		}
		target = minAmount(top.MaxProxy, addAmounts(second, s.MinIncrement))
	} else {
		if !amountGreater(top.MaxProxy, current) {
			return nil
		}
		target = minAmount(top.MaxProxy,
			maxAmount(addAmounts(current, s.MinIncrement), addAmounts(second, s.MinIncrement)))
	}

	// Guard against non-positive progress.
	if !amountGreater(target, current) {
		return nil
	}

	return &AutoBid{
		BidderID: top.BidderID,
		Amount:   target,
		Ceiling:  top.MaxProxy,
	}
}
