package search

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

	"spotmarket-backend/config"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/score"
	"spotmarket-backend/internal/store"
)

// The search origin for all fixtures; spot coordinates are offsets from it.
const (
	originLat = 24.1802
	originLng = 120.6497
)

type fixture struct {
	store  store.Store
	db     *gorm.DB
	finder *Finder
	owner  *model.User
	start  time.Time
	end    time.Time
}

func newFixture(t *testing.T) *fixture {
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

	s := store.NewGormStore(db)
	f := &fixture{
		store:  s,
		db:     db,
		finder: NewFinder(s, config.Default().Search),
		start:  time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}
	f.end = f.start.Add(2 * time.Hour)

	f.owner = &model.User{Name: "Owner", Email: uuid.NewString() + "@example.com", DistanceWeight: 3, PriceWeight: 3}
	require.NoError(t, db.Create(f.owner).Error)
	return f
}

type spotOpts struct {
	latOffset, lngOffset float64
	price                string
	charging             bool
	chargerType          string
	inactive             bool
	noWindow             bool
	spotType             model.SpotType
}

func (f *fixture) addSpot(t *testing.T, o spotOpts) *model.ParkingSpot {
	t.Helper()

	if o.spotType == "" {
		o.spotType = model.SpotTypePrivate
	}
	if o.price == "" {
		o.price = "10"
	}
	spot := &model.ParkingSpot{
		SpotType:          o.spotType,
		OwnerID:           &f.owner.ID,
		Latitude:          originLat + o.latOffset,
		Longitude:         originLng + o.lngOffset,
		HourlyPrice:       decimal.RequireFromString(o.price),
		IsChargingStation: o.charging,
		ChargerType:       o.chargerType,
		IsActive:          !o.inactive,
	}
	require.NoError(t, f.db.Create(spot).Error)
	if o.inactive {
		// GORM skips zero-value fields carrying a default tag on insert,
		// so IsActive=false must be persisted explicitly.
		require.NoError(t, f.db.Model(spot).Update("is_active", false).Error)
	}

	if !o.noWindow {
		require.NoError(t, f.store.AddAvailabilityWindow(context.Background(), &model.AvailabilityWindow{
			SpotID:  spot.ID,
			StartAt: f.start.Add(-2 * time.Hour),
			EndAt:   f.end.Add(2 * time.Hour),
		}))
	}
	return spot
}

func (f *fixture) query() Query {
	return Query{
		Latitude:  originLat,
		Longitude: originLng,
		StartAt:   f.start,
		EndAt:     f.end,
		Weights:   score.Weights{Distance: 3, Price: 3},
	}
}

func TestSearchFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	match := f.addSpot(t, spotOpts{latOffset: 0.005}) // ~0.6 km
	farAway := f.addSpot(t, spotOpts{latOffset: 0.5}) // ~55 km
	expensive := f.addSpot(t, spotOpts{latOffset: 0.004, price: "99"})
	unavailable := f.addSpot(t, spotOpts{latOffset: 0.003, noWindow: true})
	inactive := f.addSpot(t, spotOpts{latOffset: 0.002, inactive: true})

	q := f.query()
	q.MaxPrice = decimal.RequireFromString("20")

	results, err := f.finder.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].Spot.ID)
	assert.InDelta(t, 0.56, results[0].DistanceKm, 0.05)

	for _, excluded := range []*model.ParkingSpot{farAway, expensive, unavailable, inactive} {
		assert.NotEqual(t, excluded.ID, results[0].Spot.ID)
	}
}

func TestSearchExcludesBookedWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	spot := f.addSpot(t, spotOpts{latOffset: 0.005})

	results, err := f.finder.Search(ctx, f.query())
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A pending booking over part of the window removes the spot.
	require.NoError(t, f.store.CreateBooking(ctx, &model.Booking{
		ID: uuid.NewString(), SpotID: spot.ID, UserID: f.owner.ID,
		BookingType: model.BookingTypeParking,
		StartAt:     f.start.Add(time.Hour), EndAt: f.end.Add(time.Hour),
		Status:   model.BookingPending,
		BaseRate: spot.HourlyPrice, FinalAmount: decimal.Zero,
		PaymentStatus: model.PaymentPending,
	}))

	results, err = f.finder.Search(ctx, f.query())
	require.NoError(t, err)
	assert.Empty(t, results, "an empty result set is a valid no-match outcome")
}

func TestSearchChargingFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addSpot(t, spotOpts{latOffset: 0.001})
	ccs := f.addSpot(t, spotOpts{latOffset: 0.002, charging: true, chargerType: "CCS2"})
	f.addSpot(t, spotOpts{latOffset: 0.003, charging: true, chargerType: "CHAdeMO"})

	q := f.query()
	q.ChargingOnly = true
	results, err := f.finder.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, results, 2, "plain spots are excluded for charging searches")

	q.ChargerType = "CCS2"
	results, err = f.finder.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ccs.ID, results[0].Spot.ID)
}

func TestSearchRankingByWeights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nearExpensive := f.addSpot(t, spotOpts{latOffset: 0.002, price: "40"}) // ~0.2 km
	farCheap := f.addSpot(t, spotOpts{latOffset: 0.02, price: "5"}) // ~2.2 km

	q := f.query()
	q.Weights = score.Weights{Distance: 5, Price: 1}
	results, err := f.finder.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, nearExpensive.ID, results[0].Spot.ID, "distance-weighted search prefers the near spot")

	q.Weights = score.Weights{Distance: 1, Price: 5}
	results, err = f.finder.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, farCheap.ID, results[0].Spot.ID, "price-weighted search prefers the cheap spot")

	// Scores are exposed and ascending.
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.addSpot(t, spotOpts{latOffset: 0.001 * float64(i+1)})
	}

	q := f.query()
	q.Limit = 3
	results, err := f.finder.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// The best-ranked candidates survive the cut: all at the same price,
	// so the three closest.
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].DistanceKm, results[i].DistanceKm)
	}
}
