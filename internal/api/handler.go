package api

import (
	"spotmarket-backend/internal/alloc"
	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/search"
	"spotmarket-backend/internal/store"
	"spotmarket-backend/internal/waitlist"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	finder      *search.Finder
	allocator   *alloc.Allocator
	coordinator *waitlist.Coordinator
	bookings    *booking.Manager
	sweeper     *waitlist.Sweeper
}

// NewHandler creates a new API handler. The sweeper may be nil; release
// signals are then left to the periodic sweep.
func NewHandler(
	s store.Store,
	finder *search.Finder,
	allocator *alloc.Allocator,
	coordinator *waitlist.Coordinator,
	bookings *booking.Manager,
	sweeper *waitlist.Sweeper,
) *Handler {
	return &Handler{
		store:       s,
		finder:      finder,
		allocator:   allocator,
		coordinator: coordinator,
		bookings:    bookings,
		sweeper:     sweeper,
	}
}

// notifyRelease signals the waitlist resolver that a building spot was
// freed by a cancellation or completion.
func (h *Handler) notifyRelease(spotBuildingID *int64) {
	if h.sweeper == nil || spotBuildingID == nil {
		return
	}
	h.sweeper.NotifyRelease(*spotBuildingID)
}
