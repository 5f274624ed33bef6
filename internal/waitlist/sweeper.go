package waitlist

import (
	"context"
	"log"
	"time"

	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/store"
)

// Sweeper drives waitlist resolution: a pool of workers handles
// on-release signals for individual buildings, and a periodic sweep
// revisits every building with pending entries (the deferred path for
// future-dated requests) while also expiring due bookings.
type Sweeper struct {
	size     int
	jobs     chan int64
	store    store.Store
	coord    *Coordinator
	bookings *booking.Manager
	interval time.Duration
}

// NewSweeper creates a sweeper with the given worker pool size and sweep
// interval.
func NewSweeper(size int, interval time.Duration, s store.Store, coord *Coordinator, bookings *booking.Manager) *Sweeper {
	return &Sweeper{
		size:     size,
		jobs:     make(chan int64, size), // Buffered channel
		store:    s,
		coord:    coord,
		bookings: bookings,
		interval: interval,
	}
}

// Start launches the worker goroutines and the periodic sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	for i := 0; i < s.size; i++ {
		go s.worker(ctx, i)
	}
	go s.run(ctx)
}

// NotifyRelease queues a resolution pass for a building whose spot was
// just freed by a cancellation or completion.
func (s *Sweeper) NotifyRelease(buildingID int64) {
	select {
	case s.jobs <- buildingID:
	default:
		// The periodic sweep will pick the building up; dropping the
		// signal under backpressure is safe because resolution is
		// idempotent over pending entries.
		log.Printf("Waitlist resolver queue full; deferring building %d to the periodic sweep", buildingID)
	}
}

// worker resolves buildings dispatched on spot release.
func (s *Sweeper) worker(ctx context.Context, id int) {
	log.Printf("Waitlist resolver %d started", id)
	for {
		select {
		case buildingID := <-s.jobs:
			if _, err := s.coord.Resolve(ctx, buildingID); err != nil {
				log.Printf("Waitlist resolver %d: building %d: %v", id, buildingID, err)
			}
		case <-ctx.Done():
			log.Printf("Waitlist resolver %d shutting down", id)
			return
		}
	}
}

// run executes the periodic sweep until the context is cancelled.
func (s *Sweeper) run(ctx context.Context) {
	log.Println("Starting waitlist sweep loop...")

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Waitlist sweep loop shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce expires due bookings, dispatches the resulting building
// releases, and runs one resolution pass over every building with
// pending entries.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	completed, err := s.bookings.ExpireDue(ctx)
	if err != nil {
		log.Printf("Booking expiry sweep failed: %v", err)
	}
	for _, b := range completed {
		if b.Spot.SpotType == model.SpotTypeBuilding && b.Spot.BuildingID != nil {
			s.NotifyRelease(*b.Spot.BuildingID)
		}
	}

	buildingIDs, err := s.store.BuildingsWithPendingEntries(ctx)
	if err != nil {
		log.Printf("Waitlist sweep failed to list buildings: %v", err)
		return
	}
	for _, buildingID := range buildingIDs {
		if _, err := s.coord.Resolve(ctx, buildingID); err != nil {
			log.Printf("Waitlist sweep for building %d failed: %v", buildingID, err)
		}
	}
}
