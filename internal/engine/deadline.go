package engine

import (
	"time"

	"github.com/aaronwang/auction-house/internal/models"
)

// extendedDeadline evaluates the anti-sniping rule for a bid accepted at
// bidTime. If the extension window is open (window > 0) and the bid
// landed at or after end_at minus the window, the new deadline is
// bidTime plus the window. Returns the zero time when no extension
// applies. maxExtensions bounds the recurrence; 0 means unlimited.
func extendedDeadline(a *models.Auction, bidTime time.Time, windowMinutes, maxExtensions int) time.Time {
	if windowMinutes <= 0 {
		return time.Time{}
	}
	if maxExtensions > 0 && a.Extensions >= maxExtensions {
		return time.Time{}
	}

	window := time.Duration(windowMinutes) * time.Minute
	if bidTime.Before(a.EndAt.Add(-window)) {
		return time.Time{}
	}
	return bidTime.Add(window)
}
