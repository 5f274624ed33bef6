package model

import "time"

// Building represents a residential building with a shared parking pool.
type Building struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Code      string `gorm:"uniqueIndex;size:32;not null"`
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Spots []ParkingSpot `gorm:"foreignKey:BuildingID"`
}
