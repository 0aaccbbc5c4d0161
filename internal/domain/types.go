package domain

import "strings"

// Role identifies which side of a booking a subject is on.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// BookingStatus is monotonic: booked may become completed or cancelled, nothing else.
type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to BookingStatus) bool {
	return from == StatusBooked && to.Terminal()
}

// ParseBookingStatus accepts case-insensitive status names from URLs.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusBooked:
		return StatusBooked, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// CancelledBy records which party cancelled; it reuses the role names.
type CancelledBy = Role

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundSucceeded RefundStatus = "succeeded"
	RefundFailed    RefundStatus = "failed"
)

// ParseRefundStatus maps gateway refund states onto the three tracked values.
// Gateway states such as requires_action or canceled collapse to pending / failed.
func ParseRefundStatus(s string) RefundStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "succeeded":
		return RefundSucceeded
	case "failed", "canceled", "cancelled":
		return RefundFailed
	default:
		return RefundPending
	}
}
