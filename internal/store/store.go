package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"spotmarket-backend/internal/model"
)

// Store defines the interface for all database operations. The booking
// and availability sets are mutated exclusively through these methods so
// the overlap invariants hold under concurrent callers.
type Store interface {
	DB() *gorm.DB

	// Users
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUserWeights(ctx context.Context, id int64, distance, price int) (*model.User, error)

	// Buildings
	GetBuilding(ctx context.Context, id int64) (*model.Building, error)
	ListBuildings(ctx context.Context) ([]model.Building, error)
	BuildingSpots(ctx context.Context, buildingID int64) ([]model.ParkingSpot, error)

	// Spots
	CreateSpot(ctx context.Context, spot *model.ParkingSpot) error
	GetSpot(ctx context.Context, id int64) (*model.ParkingSpot, error)
	AddAvailabilityWindow(ctx context.Context, w *model.AvailabilityWindow) error
	PrivateSpotCandidates(ctx context.Context, f CandidateFilter) ([]model.ParkingSpot, error)
	SpotFreeForWindow(ctx context.Context, spotID int64, start, end time.Time) (bool, error)

	// Bookings
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	SaveBooking(ctx context.Context, b *model.Booking) error
	ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	ListUnpaidCompleted(ctx context.Context, userID int64) ([]model.Booking, error)
	CountUnpaidCompleted(ctx context.Context, userID int64) (int64, error)
	CountOverlappingBookings(ctx context.Context, spotID int64, start, end time.Time) (int64, error)
	DueBookings(ctx context.Context, now time.Time) ([]model.Booking, error)
	DueUserBookings(ctx context.Context, userID int64, now time.Time) ([]model.Booking, error)

	// Waitlist
	FirstOrCreateWaitlistEntry(ctx context.Context, entry *model.WaitlistEntry) (created bool, err error)
	PendingWaitlistEntries(ctx context.Context, buildingID int64) ([]model.WaitlistEntry, error)
	PromoteWaitlistEntry(ctx context.Context, entryID string, spotID int64, bookingID string) error
	ListUserWaitlistEntries(ctx context.Context, userID int64) ([]model.WaitlistEntry, error)
	BuildingsWithPendingEntries(ctx context.Context) ([]int64, error)
}

// CandidateFilter narrows the private-spot candidate query. Price
// filtering happens in the finder (decimal comparison in Go keeps the
// query portable across the postgres and sqlite drivers).
type CandidateFilter struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	ChargingOnly   bool
	ChargerType    string
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	spotLocks *keyedMutex
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, spotLocks: newKeyedMutex()}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// keyedMutex hands out one mutex per int64 key so writes for a given spot
// serialize in-process while unrelated spots proceed in parallel.
type keyedMutex struct {
	mu    sync.RWMutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

func (k *keyedMutex) get(key int64) *sync.Mutex {
	k.mu.RLock()
	m, exists := k.locks[key]
	k.mu.RUnlock()
	if exists {
		return m
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if m, exists = k.locks[key]; !exists {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// --- Users ---

func (s *gormStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return &user, nil
}

func (s *gormStore) UpdateUserWeights(ctx context.Context, id int64, distance, price int) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.DistanceWeight = distance
	user.PriceWeight = price
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update preference weights for user %d: %w", id, err)
	}
	return user, nil
}

// --- Buildings ---

func (s *gormStore) GetBuilding(ctx context.Context, id int64) (*model.Building, error) {
	var building model.Building
	if err := s.db.WithContext(ctx).First(&building, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "building", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch building %d: %w", id, err)
	}
	return &building, nil
}

func (s *gormStore) ListBuildings(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	if err := s.db.WithContext(ctx).Order("id").Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

// BuildingSpots returns the building's active pool spots in id order. The
// allocator depends on that order being stable across calls.
func (s *gormStore) BuildingSpots(ctx context.Context, buildingID int64) ([]model.ParkingSpot, error) {
	var spots []model.ParkingSpot
	err := s.db.WithContext(ctx).
		Where("building_id = ? AND spot_type = ? AND is_active = ?", buildingID, model.SpotTypeBuilding, true).
		Order("id").
		Find(&spots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list spots for building %d: %w", buildingID, err)
	}
	return spots, nil
}

// --- Spots ---

func (s *gormStore) CreateSpot(ctx context.Context, spot *model.ParkingSpot) error {
	if err := s.db.WithContext(ctx).Create(spot).Error; err != nil {
		return fmt.Errorf("failed to create spot: %w", err)
	}
	return nil
}

func (s *gormStore) GetSpot(ctx context.Context, id int64) (*model.ParkingSpot, error) {
	var spot model.ParkingSpot
	if err := s.db.WithContext(ctx).Preload("Windows").First(&spot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "spot", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch spot %d: %w", id, err)
	}
	return &spot, nil
}

// AddAvailabilityWindow inserts a window after verifying it overlaps none
// of the spot's declared windows. The check and insert run under the
// spot's lock and a transaction, so two concurrent inserts cannot both
// pass the check.
func (s *gormStore) AddAvailabilityWindow(ctx context.Context, w *model.AvailabilityWindow) error {
	lock := s.spotLocks.get(w.SpotID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var spot model.ParkingSpot
		if err := tx.First(&spot, w.SpotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "spot", ID: w.SpotID}
			}
			return fmt.Errorf("failed to fetch spot %d: %w", w.SpotID, err)
		}

		var overlapping int64
		err := tx.Model(&model.AvailabilityWindow{}).
			Where("spot_id = ? AND start_at < ? AND end_at > ?", w.SpotID, w.EndAt, w.StartAt).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("failed to check window overlap for spot %d: %w", w.SpotID, err)
		}
		if overlapping > 0 {
			return &ConflictError{Resource: "availability window", Reason: "overlaps an existing window"}
		}

		if err := tx.Create(w).Error; err != nil {
			return fmt.Errorf("failed to create availability window: %w", err)
		}
		return nil
	})
}

// PrivateSpotCandidates returns active private spots inside the bounding
// box, with charging filters applied in SQL.
func (s *gormStore) PrivateSpotCandidates(ctx context.Context, f CandidateFilter) ([]model.ParkingSpot, error) {
	q := s.db.WithContext(ctx).
		Where("spot_type = ? AND is_active = ?", model.SpotTypePrivate, true).
		Where("latitude BETWEEN ? AND ?", f.MinLat, f.MaxLat).
		Where("longitude BETWEEN ? AND ?", f.MinLng, f.MaxLng)

	if f.ChargingOnly {
		q = q.Where("is_charging_station = ?", true)
		if f.ChargerType != "" {
			q = q.Where("charger_type = ?", f.ChargerType)
		}
	}

	var spots []model.ParkingSpot
	if err := q.Order("id").Find(&spots).Error; err != nil {
		return nil, fmt.Errorf("failed to query private spot candidates: %w", err)
	}
	return spots, nil
}

// SpotFreeForWindow reports whether [start, end) fits inside one of the
// spot's declared availability windows and collides with no non-terminal
// booking.
func (s *gormStore) SpotFreeForWindow(ctx context.Context, spotID int64, start, end time.Time) (bool, error) {
	var covering int64
	err := s.db.WithContext(ctx).Model(&model.AvailabilityWindow{}).
		Where("spot_id = ? AND start_at <= ? AND end_at >= ?", spotID, start, end).
		Count(&covering).Error
	if err != nil {
		return false, fmt.Errorf("failed to check availability windows for spot %d: %w", spotID, err)
	}
	if covering == 0 {
		return false, nil
	}

	overlapping, err := s.CountOverlappingBookings(ctx, spotID, start, end)
	if err != nil {
		return false, err
	}
	return overlapping == 0, nil
}
