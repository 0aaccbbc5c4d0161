package models

import (
	"time"

	"sessionbook/internal/domain"
)

// Booking is the committed reservation of one student in one session slot.
type Booking struct {
	ID           string               `json:"id"`
	PaymentID    string               `json:"paymentId"`
	StudentID    string               `json:"studentId"`
	InstructorID string               `json:"instructorId"`
	SessionID    string               `json:"sessionId"`
	BookedDate   time.Time            `json:"bookedDate"`
	Start        time.Time            `json:"timeSlot"`
	End          time.Time            `json:"endTime"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
	Concerns     string               `json:"concerns,omitempty"`
	Status       domain.BookingStatus `json:"status"`

	AmountPaid     int64               `json:"amountPaid"`
	Currency       string              `json:"currency"`
	RefundID       string              `json:"refundId,omitempty"`
	RefundStatus   domain.RefundStatus `json:"refundStatus,omitempty"`
	RefundedAmount *int64              `json:"refundedAmount,omitempty"`
	IsRefunded     bool                `json:"isRefunded"`

	MeetingID    string        `json:"meetingId"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Cancellation struct {
	CancelledBy domain.CancelledBy `json:"cancelledBy"`
	CancelledAt time.Time          `json:"cancelledAt"`
	Reason      string             `json:"reason,omitempty"`
}

// Overlaps uses half-open intervals: [Start, End) against [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// SameSlot reports whether the booking is for the given session instance.
func (b Booking) SameSlot(sessionID string, start time.Time) bool {
	return b.SessionID == sessionID && b.Start.Equal(start)
}
