// Package booking implements the reservation lifecycle state machine:
// pending -> active -> completed, with cancellation before the lead-time
// cutoff and payment settlement after completion. All booking state is
// mutated through the Manager; no other component writes it directly.
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spotmarket-backend/config"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/store"
)

// Manager governs booking lifecycle transitions and the overlap invariant.
type Manager struct {
	store store.Store

	cancellationLead time.Duration
	billingIncrement time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager creates a lifecycle manager with the configured policy.
func NewManager(s store.Store, cfg config.BookingConfig) *Manager {
	return &Manager{
		store:            s,
		cancellationLead: cfg.CancellationLead,
		billingIncrement: cfg.BillingIncrement,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// WithClock substitutes the manager's time source. Tests pin it.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateInput carries the parameters for a new booking.
type CreateInput struct {
	SpotID      int64
	UserID      int64
	BookingType model.BookingType
	StartAt     time.Time
	EndAt       time.Time
	BaseRate    decimal.Decimal
}

// Create atomically verifies the overlap invariant and inserts a pending
// booking. A user with completed-but-unpaid bookings is refused with a
// PaymentDueError; a lost race for the slot surfaces as a ConflictError.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*model.Booking, error) {
	if !in.EndAt.After(in.StartAt) {
		return nil, &ValidationError{Field: "window", Reason: "end must be after start"}
	}
	if in.EndAt.Before(m.now()) {
		return nil, &ValidationError{Field: "window", Reason: "window lies entirely in the past"}
	}
	if in.BookingType != model.BookingTypeParking && in.BookingType != model.BookingTypeCharging {
		return nil, &ValidationError{Field: "booking_type", Reason: "must be parking or charging"}
	}
	if in.BaseRate.IsNegative() {
		return nil, &ValidationError{Field: "base_rate", Reason: "must not be negative"}
	}

	if err := m.CheckPaymentGate(ctx, in.UserID); err != nil {
		return nil, err
	}

	spot, err := m.store.GetSpot(ctx, in.SpotID)
	if err != nil {
		return nil, err
	}
	if !spot.IsActive {
		return nil, &ValidationError{Field: "spot", Reason: "spot is not active"}
	}
	if in.BookingType == model.BookingTypeCharging && !spot.IsChargingStation {
		return nil, &ValidationError{Field: "booking_type", Reason: "spot is not a charging station"}
	}

	paymentStatus := model.PaymentPending
	if spot.SpotType == model.SpotTypeBuilding {
		// Building-pool spots are free for residents; nothing to settle.
		paymentStatus = model.PaymentNotApplicable
	}

	b := &model.Booking{
		ID:            uuid.NewString(),
		SpotID:        in.SpotID,
		UserID:        in.UserID,
		BookingType:   in.BookingType,
		StartAt:       in.StartAt.UTC(),
		EndAt:         in.EndAt.UTC(),
		Status:        model.BookingPending,
		BaseRate:      in.BaseRate,
		FinalAmount:   decimal.Zero,
		PaymentStatus: paymentStatus,
	}

	if err := m.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CheckPaymentGate returns a PaymentDueError when the user has completed
// bookings awaiting payment confirmation. The user's due bookings are
// folded forward first, so an implicit completion closes the gate even
// when nothing else has read it yet.
func (m *Manager) CheckPaymentGate(ctx context.Context, userID int64) error {
	if err := m.expireUserDue(ctx, userID); err != nil {
		return err
	}
	due, err := m.store.CountUnpaidCompleted(ctx, userID)
	if err != nil {
		return err
	}
	if due > 0 {
		return &PaymentDueError{UserID: userID, Count: due}
	}
	return nil
}

// Get loads a booking with its status folded forward to the current time.
func (m *Manager) Get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.expireInPlace(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the user's bookings, each folded forward.
func (m *Manager) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	bookings, err := m.store.ListUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if err := m.expireInPlace(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// PaymentDue returns the user's completed bookings still awaiting payment
// confirmation, folding due bookings forward first. The client polls this
// to enforce the blocking gate.
func (m *Manager) PaymentDue(ctx context.Context, userID int64) ([]model.Booking, error) {
	if err := m.expireUserDue(ctx, userID); err != nil {
		return nil, err
	}
	return m.store.ListUnpaidCompleted(ctx, userID)
}

// expireUserDue folds the user's due bookings forward without waiting for
// the periodic sweep.
func (m *Manager) expireUserDue(ctx context.Context, userID int64) error {
	due, err := m.store.DueUserBookings(ctx, userID, m.now())
	if err != nil {
		return err
	}
	for i := range due {
		if err := m.expireInPlace(ctx, &due[i]); err != nil {
			return err
		}
	}
	return nil
}

// Cancel transitions a pending booking to cancelled, releasing its slot.
// It is permitted only while more than the cancellation lead time remains
// before the booked start.
func (m *Manager) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status != model.BookingPending {
		return nil, &StateError{BookingID: b.ID, Status: string(b.Status), Op: "cancel",
			Reason: "only pending bookings may be cancelled"}
	}
	cutoff := b.StartAt.Add(-m.cancellationLead)
	if !m.now().Before(cutoff) {
		return nil, &StateError{BookingID: b.ID, Status: string(b.Status), Op: "cancel",
			Reason: fmt.Sprintf("cancellation window closed %v before start", m.cancellationLead)}
	}

	b.Status = model.BookingCancelled
	if err := m.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// End terminates an active booking now, recording the actual end time and
// deriving the settlement amount from the elapsed duration rounded up to
// the billing increment.
func (m *Manager) End(ctx context.Context, id string) (*model.Booking, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status != model.BookingActive {
		return nil, &StateError{BookingID: b.ID, Status: string(b.Status), Op: "end",
			Reason: "only active bookings may be ended"}
	}

	now := m.now()
	m.complete(b, now)
	if err := m.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ConfirmPayment settles a completed booking. Only completed bookings
// with payment pending qualify; everything else is a StateError.
func (m *Manager) ConfirmPayment(ctx context.Context, id string) (*model.Booking, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status != model.BookingCompleted {
		return nil, &StateError{BookingID: b.ID, Status: string(b.Status), Op: "confirm payment",
			Reason: "booking is not completed"}
	}
	if b.PaymentStatus != model.PaymentPending {
		return nil, &StateError{BookingID: b.ID, Status: string(b.Status), Op: "confirm payment",
			Reason: fmt.Sprintf("payment status is %s", b.PaymentStatus)}
	}

	b.PaymentStatus = model.PaymentCompleted
	if err := m.store.SaveBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ExpireDue folds every due booking forward and returns those that newly
// completed. The waitlist sweeper uses the completions on building spots
// as release signals. Expiry is lazy on every read path as well, so this
// sweep changes when state flips, never what state is observed.
func (m *Manager) ExpireDue(ctx context.Context) ([]model.Booking, error) {
	due, err := m.store.DueBookings(ctx, m.now())
	if err != nil {
		return nil, err
	}

	var completed []model.Booking
	for i := range due {
		wasCompleted := due[i].Status == model.BookingCompleted
		if err := m.expireInPlace(ctx, &due[i]); err != nil {
			log.Printf("Failed to expire booking %s: %v", due[i].ID, err)
			continue
		}
		if !wasCompleted && due[i].Status == model.BookingCompleted {
			completed = append(completed, due[i])
		}
	}
	return completed, nil
}

// expireInPlace folds a booking's status forward to the current time and
// persists any change: pending becomes active once the window starts, and
// active becomes completed at the booked end with the full-window amount.
func (m *Manager) expireInPlace(ctx context.Context, b *model.Booking) error {
	now := m.now()
	changed := false

	if b.Status == model.BookingPending && !now.Before(b.StartAt) {
		b.Status = model.BookingActive
		changed = true
	}
	if b.Status == model.BookingActive && !now.Before(b.EndAt) {
		m.complete(b, b.EndAt)
		changed = true
	}

	if !changed {
		return nil
	}
	return m.store.SaveBooking(ctx, b)
}

// complete moves a booking to completed at endedAt and derives the
// settlement amount. Building bookings settle at zero and stay outside
// the payment flow.
func (m *Manager) complete(b *model.Booking, endedAt time.Time) {
	ended := endedAt.UTC()
	b.Status = model.BookingCompleted
	b.ActualEndAt = &ended
	if b.PaymentStatus == model.PaymentNotApplicable {
		b.FinalAmount = decimal.Zero
		return
	}
	b.FinalAmount = finalAmount(b.StartAt, ended, b.BaseRate, m.billingIncrement)
}
