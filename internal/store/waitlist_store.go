package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"spotmarket-backend/internal/model"
)

var openWaitlistStatuses = []model.WaitlistStatus{
	model.WaitlistPending, model.WaitlistApproved, model.WaitlistActive,
}

// FirstOrCreateWaitlistEntry creates the entry unless an open entry for
// the same (user, building, window) already exists. On a duplicate join
// the existing entry is loaded into entry and created is false.
func (s *gormStore) FirstOrCreateWaitlistEntry(ctx context.Context, entry *model.WaitlistEntry) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.WaitlistEntry
		err := tx.Where("user_id = ? AND building_id = ? AND start_at = ? AND end_at = ? AND status IN ?",
			entry.UserID, entry.BuildingID, entry.StartAt, entry.EndAt, openWaitlistStatuses).
			Order("created_at").
			First(&existing).Error
		if err == nil {
			*entry = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for existing waitlist entry: %w", err)
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create waitlist entry: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

// PendingWaitlistEntries returns the building's pending entries in
// first-in-first-out order.
func (s *gormStore) PendingWaitlistEntries(ctx context.Context, buildingID int64) ([]model.WaitlistEntry, error) {
	var entries []model.WaitlistEntry
	err := s.db.WithContext(ctx).
		Where("building_id = ? AND status = ?", buildingID, model.WaitlistPending).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending waitlist entries for building %d: %w", buildingID, err)
	}
	return entries, nil
}

// PromoteWaitlistEntry records a satisfied entry: pending moves through
// approved to active with the assigned spot and booking attached. A
// no-longer-pending entry is a conflict, not a silent overwrite.
func (s *gormStore) PromoteWaitlistEntry(ctx context.Context, entryID string, spotID int64, bookingID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry model.WaitlistEntry
		if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "waitlist entry", ID: entryID}
			}
			return fmt.Errorf("failed to fetch waitlist entry %s: %w", entryID, err)
		}
		if entry.Status != model.WaitlistPending {
			return &ConflictError{Resource: "waitlist entry", Reason: "entry is no longer pending"}
		}

		entry.Status = model.WaitlistApproved
		entry.AssignedSpotID = &spotID
		entry.AssignedBookingID = &bookingID
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("failed to approve waitlist entry %s: %w", entryID, err)
		}

		entry.Status = model.WaitlistActive
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("failed to activate waitlist entry %s: %w", entryID, err)
		}
		return nil
	})
}

func (s *gormStore) ListUserWaitlistEntries(ctx context.Context, userID int64) ([]model.WaitlistEntry, error) {
	var entries []model.WaitlistEntry
	err := s.db.WithContext(ctx).Preload("Building").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries for user %d: %w", userID, err)
	}
	return entries, nil
}

// BuildingsWithPendingEntries returns the distinct buildings that the
// periodic sweep should attempt to resolve.
func (s *gormStore) BuildingsWithPendingEntries(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&model.WaitlistEntry{}).
		Where("status = ?", model.WaitlistPending).
		Distinct("building_id").
		Order("building_id").
		Pluck("building_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings with pending waitlist entries: %w", err)
	}
	return ids, nil
}
