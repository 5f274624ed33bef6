package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further status transition is permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// BookingType distinguishes plain parking from charging bookings.
type BookingType string

const (
	BookingTypeParking  BookingType = "parking"
	BookingTypeCharging BookingType = "charging"
)

// PaymentStatus is the settlement state of a completed booking.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentCompleted     PaymentStatus = "completed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentNotApplicable PaymentStatus = "not_applicable"
)

// Booking reserves a spot for a [StartAt, EndAt) window. For a given spot
// the set of pending/active bookings never contains two overlapping
// windows; the store's conditional insert enforces that.
type Booking struct {
	ID          string      `gorm:"primaryKey;size:36"`
	SpotID      int64       `gorm:"index;not null"`
	UserID      int64       `gorm:"index;not null"`
	BookingType BookingType `gorm:"size:16;not null"`

	StartAt     time.Time `gorm:"not null;index"`
	EndAt       time.Time `gorm:"not null"`
	ActualEndAt *time.Time

	Status        BookingStatus   `gorm:"size:16;not null;index"`
	BaseRate      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentStatus PaymentStatus   `gorm:"size:16;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Spot ParkingSpot `gorm:"constraint:OnDelete:CASCADE"`
	User User
}

// Overlaps reports whether the booking's window intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && b.EndAt.After(start)
}
