package model

import "time"

// WaitlistStatus is the lifecycle state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistPending   WaitlistStatus = "pending"
	WaitlistApproved  WaitlistStatus = "approved"
	WaitlistActive    WaitlistStatus = "active"
	WaitlistCompleted WaitlistStatus = "completed"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// Open reports whether the entry still counts for join idempotency.
func (s WaitlistStatus) Open() bool {
	return s == WaitlistPending || s == WaitlistApproved || s == WaitlistActive
}

// WaitlistEntry is a deferred request for a building spot, created only
// after the allocator has exhausted direct assignment for the window.
type WaitlistEntry struct {
	ID         string    `gorm:"primaryKey;size:36"`
	UserID     int64     `gorm:"index;not null"`
	BuildingID int64     `gorm:"index;not null"`
	StartAt    time.Time `gorm:"not null"`
	EndAt      time.Time `gorm:"not null"`

	Status            WaitlistStatus `gorm:"size:16;not null;index"`
	AssignedSpotID    *int64
	AssignedBookingID *string `gorm:"size:36"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Building Building `gorm:"constraint:OnDelete:CASCADE"`
	User     User
}
