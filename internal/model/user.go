package model

import "time"

// User represents a registered user of the marketplace.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Email     string `gorm:"uniqueIndex;size:256;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Preference weights used by the scorer, each on a 1..5 scale.
	DistanceWeight int `gorm:"not null;default:3"`
	PriceWeight    int `gorm:"not null;default:3"`

	// Associations
	Spots []ParkingSpot `gorm:"foreignKey:OwnerID"`
}
