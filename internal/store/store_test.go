package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spotmarket-backend/internal/model"
)

// newSQLiteStore opens an in-memory database with the full schema.
func newSQLiteStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&model.User{}, &model.Building{}, &model.ParkingSpot{},
		&model.AvailabilityWindow{}, &model.Booking{}, &model.WaitlistEntry{},
	)
	require.NoError(t, err)

	return NewGormStore(db), db
}

func createUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := &model.User{Name: "Tester", Email: uuid.NewString() + "@example.com", DistanceWeight: 3, PriceWeight: 3}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPrivateSpot(t *testing.T, db *gorm.DB, ownerID int64) *model.ParkingSpot {
	t.Helper()
	spot := &model.ParkingSpot{
		SpotType:    model.SpotTypePrivate,
		OwnerID:     &ownerID,
		Latitude:    24.18,
		Longitude:   120.65,
		HourlyPrice: decimal.RequireFromString("10"),
		IsActive:    true,
	}
	require.NoError(t, db.Create(spot).Error)
	return spot
}

func createBuilding(t *testing.T, db *gorm.DB) *model.Building {
	t.Helper()
	b := &model.Building{Name: "Tower A", Code: uuid.NewString()[:8], Latitude: 24.18, Longitude: 120.65}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestAddAvailabilityWindow(t *testing.T) {
	s, db := newSQLiteStore(t)
	user := createUser(t, db)
	spot := createPrivateSpot(t, db, user.ID)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	err := s.AddAvailabilityWindow(ctx, &model.AvailabilityWindow{
		SpotID: spot.ID, StartAt: base, EndAt: base.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	t.Run("overlapping window is rejected", func(t *testing.T) {
		err := s.AddAvailabilityWindow(ctx, &model.AvailabilityWindow{
			SpotID: spot.ID, StartAt: base.Add(2 * time.Hour), EndAt: base.Add(6 * time.Hour),
		})
		assert.True(t, IsConflict(err), "expected conflict, got %v", err)
	})

	t.Run("touching window is allowed", func(t *testing.T) {
		err := s.AddAvailabilityWindow(ctx, &model.AvailabilityWindow{
			SpotID: spot.ID, StartAt: base.Add(4 * time.Hour), EndAt: base.Add(6 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown spot is not found", func(t *testing.T) {
		err := s.AddAvailabilityWindow(ctx, &model.AvailabilityWindow{
			SpotID: 99999, StartAt: base, EndAt: base.Add(time.Hour),
		})
		assert.True(t, IsNotFound(err))
	})
}

func TestSpotFreeForWindow(t *testing.T) {
	s, db := newSQLiteStore(t)
	user := createUser(t, db)
	spot := createPrivateSpot(t, db, user.ID)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddAvailabilityWindow(ctx, &model.AvailabilityWindow{
		SpotID: spot.ID, StartAt: base, EndAt: base.Add(8 * time.Hour),
	}))

	t.Run("free inside a declared window", func(t *testing.T) {
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(time.Hour), base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.True(t, free)
	})

	t.Run("not free outside every declared window", func(t *testing.T) {
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(10*time.Hour), base.Add(12*time.Hour))
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("not free when a request straddles the window edge", func(t *testing.T) {
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(7*time.Hour), base.Add(9*time.Hour))
		require.NoError(t, err)
		assert.False(t, free)
	})

	booking := &model.Booking{
		ID: uuid.NewString(), SpotID: spot.ID, UserID: user.ID,
		BookingType: model.BookingTypeParking,
		StartAt:     base.Add(2 * time.Hour), EndAt: base.Add(4 * time.Hour),
		Status:   model.BookingPending,
		BaseRate: spot.HourlyPrice, FinalAmount: decimal.Zero,
		PaymentStatus: model.PaymentPending,
	}
	require.NoError(t, s.CreateBooking(ctx, booking))

	t.Run("not free against a pending booking", func(t *testing.T) {
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(3*time.Hour), base.Add(5*time.Hour))
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("free beside the booking", func(t *testing.T) {
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(4*time.Hour), base.Add(6*time.Hour))
		require.NoError(t, err)
		assert.True(t, free)
	})

	t.Run("cancelled bookings do not block", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Booking{}).Where("id = ?", booking.ID).
			Update("status", model.BookingCancelled).Error)
		free, err := s.SpotFreeForWindow(ctx, spot.ID, base.Add(3*time.Hour), base.Add(5*time.Hour))
		require.NoError(t, err)
		assert.True(t, free)
	})
}

func TestFirstOrCreateWaitlistEntry(t *testing.T) {
	s, db := newSQLiteStore(t)
	user := createUser(t, db)
	building := createBuilding(t, db)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	entry := &model.WaitlistEntry{
		ID: uuid.NewString(), UserID: user.ID, BuildingID: building.ID,
		StartAt: start, EndAt: end, Status: model.WaitlistPending,
	}
	created, err := s.FirstOrCreateWaitlistEntry(ctx, entry)
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("duplicate join returns the existing entry", func(t *testing.T) {
		dup := &model.WaitlistEntry{
			ID: uuid.NewString(), UserID: user.ID, BuildingID: building.ID,
			StartAt: start, EndAt: end, Status: model.WaitlistPending,
		}
		created, err := s.FirstOrCreateWaitlistEntry(ctx, dup)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, entry.ID, dup.ID)

		var count int64
		db.Model(&model.WaitlistEntry{}).Where("user_id = ?", user.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("a different window is a separate entry", func(t *testing.T) {
		other := &model.WaitlistEntry{
			ID: uuid.NewString(), UserID: user.ID, BuildingID: building.ID,
			StartAt: start.Add(24 * time.Hour), EndAt: end.Add(24 * time.Hour),
			Status: model.WaitlistPending,
		}
		created, err := s.FirstOrCreateWaitlistEntry(ctx, other)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("a closed entry does not block rejoining", func(t *testing.T) {
		require.NoError(t, db.Model(&model.WaitlistEntry{}).Where("id = ?", entry.ID).
			Update("status", model.WaitlistCancelled).Error)

		rejoin := &model.WaitlistEntry{
			ID: uuid.NewString(), UserID: user.ID, BuildingID: building.ID,
			StartAt: start, EndAt: end, Status: model.WaitlistPending,
		}
		created, err := s.FirstOrCreateWaitlistEntry(ctx, rejoin)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestPendingWaitlistEntriesFIFO(t *testing.T) {
	s, db := newSQLiteStore(t)
	building := createBuilding(t, db)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	joined := start.Add(-24 * time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		u := createUser(t, db)
		e := &model.WaitlistEntry{
			ID: uuid.NewString(), UserID: u.ID, BuildingID: building.ID,
			StartAt: start, EndAt: start.Add(8 * time.Hour),
			Status:    model.WaitlistPending,
			CreatedAt: joined.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(e).Error)
		ids = append(ids, e.ID)
	}

	entries, err := s.PendingWaitlistEntries(ctx, building.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID, "entries must come back in join order")
	}
}

func TestPromoteWaitlistEntry(t *testing.T) {
	s, db := newSQLiteStore(t)
	user := createUser(t, db)
	building := createBuilding(t, db)
	ctx := context.Background()

	entry := &model.WaitlistEntry{
		ID: uuid.NewString(), UserID: user.ID, BuildingID: building.ID,
		StartAt: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 9, 1, 16, 0, 0, 0, time.UTC),
		Status:  model.WaitlistPending,
	}
	require.NoError(t, db.Create(entry).Error)

	bookingID := uuid.NewString()
	require.NoError(t, s.PromoteWaitlistEntry(ctx, entry.ID, 42, bookingID))

	var promoted model.WaitlistEntry
	require.NoError(t, db.First(&promoted, "id = ?", entry.ID).Error)
	assert.Equal(t, model.WaitlistActive, promoted.Status)
	require.NotNil(t, promoted.AssignedSpotID)
	assert.Equal(t, int64(42), *promoted.AssignedSpotID)
	require.NotNil(t, promoted.AssignedBookingID)
	assert.Equal(t, bookingID, *promoted.AssignedBookingID)

	t.Run("promoting twice conflicts", func(t *testing.T) {
		err := s.PromoteWaitlistEntry(ctx, entry.ID, 42, bookingID)
		assert.True(t, IsConflict(err))
	})

	t.Run("unknown entry is not found", func(t *testing.T) {
		err := s.PromoteWaitlistEntry(ctx, uuid.NewString(), 42, bookingID)
		assert.True(t, IsNotFound(err))
	})
}

func TestBuildingsWithPendingEntries(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()

	a := createBuilding(t, db)
	b := createBuilding(t, db)
	createBuilding(t, db) // no entries

	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	for _, buildingID := range []int64{a.ID, a.ID, b.ID} {
		u := createUser(t, db)
		require.NoError(t, db.Create(&model.WaitlistEntry{
			ID: uuid.NewString(), UserID: u.ID, BuildingID: buildingID,
			StartAt: start, EndAt: start.Add(time.Hour), Status: model.WaitlistPending,
		}).Error)
	}

	ids, err := s.BuildingsWithPendingEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)
}

func TestUpdateUserWeights(t *testing.T) {
	s, db := newSQLiteStore(t)
	user := createUser(t, db)
	ctx := context.Background()

	updated, err := s.UpdateUserWeights(ctx, user.ID, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.DistanceWeight)
	assert.Equal(t, 1, updated.PriceWeight)

	reloaded, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.DistanceWeight)
	assert.Equal(t, 1, reloaded.PriceWeight)

	_, err = s.UpdateUserWeights(ctx, 99999, 3, 3)
	assert.True(t, IsNotFound(err))
}
