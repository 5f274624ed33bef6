package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"spotmarket-backend/internal/model"
)

var nonTerminalStatuses = []model.BookingStatus{model.BookingPending, model.BookingActive}

// CreateBooking inserts a booking only if no pending/active booking on the
// same spot overlaps its window. The check and insert run as a single
// conditional write: under the spot's in-process lock and a transaction,
// with the Postgres exclusion constraint (when installed) as the final
// arbiter across processes. Of N concurrent attempts on an overlapping
// window exactly one succeeds; the rest receive a ConflictError.
func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	lock := s.spotLocks.get(b.SpotID)
	lock.Lock()
	defer lock.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&model.Booking{}).
			Where("spot_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
				b.SpotID, nonTerminalStatuses, b.EndAt, b.StartAt).
			Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("failed to check booking overlap for spot %d: %w", b.SpotID, err)
		}
		if overlapping > 0 {
			return &ConflictError{Resource: "booking", Reason: "slot no longer available"}
		}

		if err := tx.Create(b).Error; err != nil {
			if isExclusionViolation(err) {
				return &ConflictError{Resource: "booking", Reason: "slot no longer available"}
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	return err
}

// isExclusionViolation recognizes the bookings_no_overlap constraint
// raised by Postgres when a concurrent transaction won the slot.
func isExclusionViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "bookings_no_overlap")
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Preload("Spot").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: id}
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

func (s *gormStore) SaveBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Omit("Spot", "User").Save(b).Error; err != nil {
		return fmt.Errorf("failed to save booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *gormStore) ListUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).Preload("Spot").
		Where("user_id = ?", userID).
		Order("start_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user %d: %w", userID, err)
	}
	return bookings, nil
}

func (s *gormStore) ListUnpaidCompleted(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).Preload("Spot").
		Where("user_id = ? AND status = ? AND payment_status = ?",
			userID, model.BookingCompleted, model.PaymentPending).
		Order("start_at").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid bookings for user %d: %w", userID, err)
	}
	return bookings, nil
}

func (s *gormStore) CountUnpaidCompleted(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("user_id = ? AND status = ? AND payment_status = ?",
			userID, model.BookingCompleted, model.PaymentPending).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid bookings for user %d: %w", userID, err)
	}
	return n, nil
}

func (s *gormStore) CountOverlappingBookings(ctx context.Context, spotID int64, start, end time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("spot_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			spotID, nonTerminalStatuses, end, start).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings for spot %d: %w", spotID, err)
	}
	return n, nil
}

// DueBookings returns non-terminal bookings whose window boundary has
// passed: pending ones whose start is due and active ones whose end is
// due. The lifecycle manager folds their status forward.
func (s *gormStore) DueBookings(ctx context.Context, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).Preload("Spot").
		Where("(status = ? AND start_at <= ?) OR (status = ? AND end_at <= ?)",
			model.BookingPending, now, model.BookingActive, now).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due bookings: %w", err)
	}
	return bookings, nil
}

// DueUserBookings is the per-user variant of DueBookings, used to settle a
// user's implicit completions before a payment-gate decision.
func (s *gormStore) DueUserBookings(ctx context.Context, userID int64, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).Preload("Spot").
		Where("user_id = ?", userID).
		Where("(status = ? AND start_at <= ?) OR (status = ? AND end_at <= ?)",
			model.BookingPending, now, model.BookingActive, now).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due bookings for user %d: %w", userID, err)
	}
	return bookings, nil
}
