// Package alloc implements the building-resident allocation flow: direct
// assignment when a pool spot is free for the window, otherwise an
// explicit fallback classification the caller must branch on.
package alloc

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/store"
)

// Kind tags the four allocation outcomes. Modeling the branch as a tagged
// type (rather than a status string) forces callers to handle each case.
type Kind int

const (
	// Assigned: a free building spot exists for the whole window and a
	// pending booking on it has been created. Assignment reserves.
	Assigned Kind = iota
	// NoSpotToday: the request is for today and nothing is free; the
	// caller should offer the waitlist with immediate-release framing.
	NoSpotToday
	// NoSpotFuture: the request is for a future date and nothing is
	// free; the caller should offer the waitlist resolved by the
	// periodic sweep.
	NoSpotFuture
	// AcceptedFallback: the requester confirmed the waitlist fallback;
	// the caller records the entry and then surfaces the private-market
	// fallback in the outcome's advised order.
	AcceptedFallback
)

func (k Kind) String() string {
	switch k {
	case Assigned:
		return "assigned"
	case NoSpotToday:
		return "no_spot_today"
	case NoSpotFuture:
		return "no_spot_future"
	case AcceptedFallback:
		return "accepted_fallback"
	}
	return "unknown"
}

// Request is one building allocation attempt.
type Request struct {
	BuildingID int64
	UserID     int64
	// Window, UTC.
	StartAt time.Time
	EndAt   time.Time
	// Location classifies the request date as today or future in the
	// requester's timezone.
	Location *time.Location
	// WaitlistConfirmed marks a retry where the requester already agreed
	// to join the waitlist if no spot is free.
	WaitlistConfirmed bool
}

// Outcome is the allocator's tagged result.
type Outcome struct {
	Kind Kind
	// Spot and Booking are set only for Assigned.
	Spot    *model.ParkingSpot
	Booking *model.Booking
	// PrivateFirst advises the fallback ordering for non-assigned
	// outcomes: today's misses suggest the private market immediately,
	// future ones offer the waitlist first.
	PrivateFirst bool
}

// Allocator finds a free building spot for a window or classifies the miss.
type Allocator struct {
	store    store.Store
	bookings *booking.Manager
	now      func() time.Time
}

// NewAllocator creates an allocator backed by the given store and
// lifecycle manager.
func NewAllocator(s store.Store, bookings *booking.Manager) *Allocator {
	return &Allocator{
		store:    s,
		bookings: bookings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the allocator's time source. Tests pin it.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Allocate enumerates the building's pool spots in stable order and books
// the first one with no overlapping non-terminal booking for the window.
// When none qualifies the miss is classified by request date: today gets
// the immediate waitlist framing, a future date the deferred one. The
// distinction governs very different caller behavior; never collapse it.
func (a *Allocator) Allocate(ctx context.Context, req Request) (Outcome, error) {
	if _, err := a.store.GetBuilding(ctx, req.BuildingID); err != nil {
		return Outcome{}, err
	}

	spots, err := a.store.BuildingSpots(ctx, req.BuildingID)
	if err != nil {
		return Outcome{}, err
	}

	for i := range spots {
		spot := &spots[i]
		overlapping, err := a.store.CountOverlappingBookings(ctx, spot.ID, req.StartAt, req.EndAt)
		if err != nil {
			return Outcome{}, err
		}
		if overlapping > 0 {
			continue
		}

		b, err := a.bookings.Create(ctx, booking.CreateInput{
			SpotID:      spot.ID,
			UserID:      req.UserID,
			BookingType: model.BookingTypeParking,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
			BaseRate:    decimal.Zero,
		})
		if err != nil {
			// A concurrent booking may win the spot between the count
			// and the insert; move on to the next spot.
			if store.IsConflict(err) {
				continue
			}
			return Outcome{}, err
		}
		return Outcome{Kind: Assigned, Spot: spot, Booking: b}, nil
	}

	today := a.isToday(req.StartAt, req.Location)
	if req.WaitlistConfirmed {
		return Outcome{Kind: AcceptedFallback, PrivateFirst: today}, nil
	}
	if today {
		return Outcome{Kind: NoSpotToday, PrivateFirst: true}, nil
	}
	return Outcome{Kind: NoSpotFuture, PrivateFirst: false}, nil
}

// isToday reports whether the window start falls on the current date in
// the requester's timezone.
func (a *Allocator) isToday(start time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	y1, m1, d1 := start.In(loc).Date()
	y2, m2, d2 := a.now().In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
