package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spotmarket-backend/config"
	"spotmarket-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		log.Println("Applying booking overlap exclusion constraint DDL...")
		if err := applyExclusionDDL(db); err != nil {
			return nil, fmt.Errorf("failed to apply exclusion constraint DDL: %w", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations for all marketplace entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Building{},
		&model.ParkingSpot{},
		&model.AvailabilityWindow{},
		&model.Booking{},
		&model.WaitlistEntry{},
	)
}

// applyExclusionDDL installs a Postgres exclusion constraint that rejects
// two non-terminal bookings with intersecting windows on the same spot.
// The store's transactional overlap check already enforces the invariant;
// the constraint makes the database the final arbiter under concurrency.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_window_valid;",
		"ALTER TABLE bookings ADD CONSTRAINT bookings_window_valid CHECK (start_at < end_at);",

		// Lower bound closed, upper bound open: back-to-back bookings are fine.
		"ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap;",
		"ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap " +
			"EXCLUDE USING GIST (spot_id WITH =, tstzrange(start_at, end_at, '[)') WITH &&) " +
			"WHERE (status IN ('pending', 'active'));",

		"CREATE INDEX IF NOT EXISTS idx_bookings_spot_status ON bookings (spot_id, status);",
		"CREATE INDEX IF NOT EXISTS idx_waitlist_building_status_created ON waitlist_entries (building_id, status, created_at);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
