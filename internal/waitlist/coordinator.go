// Package waitlist records deferred building-spot requests and resolves
// them when capacity appears, either on a spot release or via the
// periodic sweep.
package waitlist

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"spotmarket-backend/internal/alloc"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/store"
)

// Coordinator manages waitlist entries for building windows.
type Coordinator struct {
	store     store.Store
	allocator *alloc.Allocator

	// One resolution pass per building at a time; concurrent passes
	// could hand the same freed spot to two entries.
	buildingLocks struct {
		mu sync.RWMutex
		m  map[int64]*sync.Mutex
	}
}

// NewCoordinator creates a coordinator backed by the given store and
// allocator.
func NewCoordinator(s store.Store, allocator *alloc.Allocator) *Coordinator {
	c := &Coordinator{store: s, allocator: allocator}
	c.buildingLocks.m = make(map[int64]*sync.Mutex)
	return c
}

// Join records a pending entry for the window. Joins are idempotent per
// (user, building, window): a duplicate join over an open entry returns
// the existing entry and created=false.
func (c *Coordinator) Join(ctx context.Context, userID, buildingID int64, start, end time.Time) (*model.WaitlistEntry, bool, error) {
	if _, err := c.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, false, err
	}

	entry := &model.WaitlistEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		BuildingID: buildingID,
		StartAt:    start.UTC(),
		EndAt:      end.UTC(),
		Status:     model.WaitlistPending,
	}
	created, err := c.store.FirstOrCreateWaitlistEntry(ctx, entry)
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}

// ListByUser returns the user's waitlist entries, newest first.
func (c *Coordinator) ListByUser(ctx context.Context, userID int64) ([]model.WaitlistEntry, error) {
	return c.store.ListUserWaitlistEntries(ctx, userID)
}

// Resolve scans the building's pending entries in FIFO order and promotes
// every entry the allocator can now satisfy. Each promotion creates a
// pending booking through the allocator, so a freed spot consumed by one
// entry is never reused for a later entry in the same pass. Finding no
// capacity for anyone is a logged no-op, not an error.
func (c *Coordinator) Resolve(ctx context.Context, buildingID int64) ([]model.WaitlistEntry, error) {
	lock := c.buildingLock(buildingID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := c.store.PendingWaitlistEntries(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var promoted []model.WaitlistEntry
	for i := range entries {
		entry := &entries[i]
		out, err := c.allocator.Allocate(ctx, alloc.Request{
			BuildingID: buildingID,
			UserID:     entry.UserID,
			StartAt:    entry.StartAt,
			EndAt:      entry.EndAt,
		})
		if err != nil {
			log.Printf("Waitlist resolution for entry %s failed: %v", entry.ID, err)
			continue
		}
		if out.Kind != alloc.Assigned {
			continue
		}

		if err := c.store.PromoteWaitlistEntry(ctx, entry.ID, out.Spot.ID, out.Booking.ID); err != nil {
			log.Printf("Failed to promote waitlist entry %s: %v", entry.ID, err)
			continue
		}
		entry.Status = model.WaitlistActive
		entry.AssignedSpotID = &out.Spot.ID
		entry.AssignedBookingID = &out.Booking.ID
		promoted = append(promoted, *entry)
	}

	if len(promoted) == 0 {
		log.Printf("Waitlist sweep for building %d found no capacity for %d pending entr(ies)", buildingID, len(entries))
	}
	return promoted, nil
}

func (c *Coordinator) buildingLock(buildingID int64) *sync.Mutex {
	c.buildingLocks.mu.RLock()
	m, exists := c.buildingLocks.m[buildingID]
	c.buildingLocks.mu.RUnlock()
	if exists {
		return m
	}

	c.buildingLocks.mu.Lock()
	defer c.buildingLocks.mu.Unlock()
	if m, exists = c.buildingLocks.m[buildingID]; !exists {
		m = &sync.Mutex{}
		c.buildingLocks.m[buildingID] = m
	}
	return m
}
