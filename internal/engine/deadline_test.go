package engine

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/aaronwang/auction-house/internal/models"
)

func TestExtendedDeadline_InsideWindow(t *testing.T) {
	end := time.Now().UTC().Add(3 * time.Minute)
	a := &models.Auction{EndAt: end}

	bidTime := end.Add(-2 * time.Minute)
	newEnd := extendedDeadline(a, bidTime, 5, 0)
	check.True(t, newEnd.Equal(bidTime.Add(5*time.Minute)))
}

func TestExtendedDeadline_OutsideWindow(t *testing.T) {
	end := time.Now().UTC().Add(time.Hour)
	a := &models.Auction{EndAt: end}

	bidTime := end.Add(-30 * time.Minute)
	check.True(t, extendedDeadline(a, bidTime, 5, 0).IsZero())
}

func TestExtendedDeadline_ExactWindowBoundary(t *testing.T) {
	end := time.Now().UTC().Add(time.Hour)
	a := &models.Auction{EndAt: end}

	// A bid exactly at end_at - window still extends.
	bidTime := end.Add(-5 * time.Minute)
	newEnd := extendedDeadline(a, bidTime, 5, 0)
	check.True(t, newEnd.Equal(bidTime.Add(5*time.Minute)))
}

func TestExtendedDeadline_DisabledWindow(t *testing.T) {
	end := time.Now().UTC().Add(time.Minute)
	a := &models.Auction{EndAt: end}

	check.True(t, extendedDeadline(a, end.Add(-time.Second), 0, 0).IsZero())
}

func TestExtendedDeadline_ExtensionCap(t *testing.T) {
	end := time.Now().UTC().Add(time.Minute)
	a := &models.Auction{EndAt: end, Extensions: 2}

	bidTime := end.Add(-time.Second)
	check.True(t, extendedDeadline(a, bidTime, 5, 2).IsZero())

	// Unlimited (0) and a cap that has not been reached both extend.
	check.False(t, extendedDeadline(a, bidTime, 5, 0).IsZero())
	check.False(t, extendedDeadline(a, bidTime, 5, 3).IsZero())
}
