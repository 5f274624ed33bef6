package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpotType distinguishes building-pool spots from market-listed ones.
type SpotType string

const (
	SpotTypeBuilding SpotType = "building"
	SpotTypePrivate  SpotType = "private"
)

// ParkingSpot represents a single parking or charging spot.
// Building spots belong to a building pool and carry no price; private
// spots are market-listed with an hourly price and explicit availability
// windows.
type ParkingSpot struct {
	ID         int64    `gorm:"primaryKey"`
	SpotType   SpotType `gorm:"size:16;not null;index"`
	OwnerID    *int64   `gorm:"index"`
	BuildingID *int64   `gorm:"index"`
	Floor      int
	SpotNumber string `gorm:"size:32"`
	Latitude   float64
	Longitude  float64

	HourlyPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsChargingStation bool            `gorm:"not null;default:false"`
	ChargerType       string          `gorm:"size:32"`
	IsActive          bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Building *Building            `gorm:"constraint:OnDelete:CASCADE"`
	Owner    *User                `gorm:"foreignKey:OwnerID"`
	Windows  []AvailabilityWindow `gorm:"foreignKey:SpotID"`
}

// AvailabilityWindow is a declared window during which a private spot may
// be booked. Windows of one spot never overlap; the store rejects inserts
// that would violate that.
type AvailabilityWindow struct {
	ID        int64     `gorm:"primaryKey"`
	SpotID    int64     `gorm:"index;not null"`
	StartAt   time.Time `gorm:"not null;index"`
	EndAt     time.Time `gorm:"not null"`
	CreatedAt time.Time
}
