package booking

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed booking parameters before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError rejects a lifecycle transition that is not permitted from the
// booking's current status. Transitions out of terminal states always
// fail with a StateError, never silently.
type StateError struct {
	BookingID string
	Status    string
	Op        string
	Reason    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s booking %s in status %s: %s", e.Op, e.BookingID, e.Status, e.Reason)
}

// PaymentDueError blocks new searches and bookings for a user with
// completed-but-unpaid bookings. Confirming payment lifts the gate.
type PaymentDueError struct {
	UserID int64
	Count  int64
}

func (e *PaymentDueError) Error() string {
	return fmt.Sprintf("user %d has %d completed booking(s) awaiting payment confirmation", e.UserID, e.Count)
}

// IsStateError reports whether err is (or wraps) a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
