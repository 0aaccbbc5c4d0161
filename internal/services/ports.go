package services

import (
	"context"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/payments"
)

// BookingStore is the persistence surface of the booking lifecycle. It is satisfied by
// repositories.BookingRepository.
type BookingStore interface {
	HasOverlap(ctx context.Context, subjectID string, role domain.Role, start, end time.Time) (bool, error)
	GetByID(ctx context.Context, id string) (models.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (models.Booking, bool, error)
	FindBookedForSlot(ctx context.Context, sessionID string, start time.Time) (models.Booking, bool, error)
	FindInstructorOverlaps(ctx context.Context, instructorID string, start, end time.Time) ([]models.Booking, error)
	InsertIfFree(ctx context.Context, b models.Booking) (bool, error)
	CancelIfBooked(ctx context.Context, id string, by domain.CancelledBy, at time.Time, reason string) (bool, error)
	SetRefund(ctx context.Context, id, refundID string, status domain.RefundStatus, refundedAmount int64) error
	ReconcileRefund(ctx context.Context, refundID string, status domain.RefundStatus, refundedAmount int64) (int64, error)
	MarkCompleted(ctx context.Context, now, cutoff time.Time) (int64, error)
	ListBySubject(ctx context.Context, subjectID string, role domain.Role, status domain.BookingStatus) ([]models.Booking, error)
}

type SessionStore interface {
	GetByID(ctx context.Context, id string) (models.Session, error)
	ListActiveByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

type WishlistStore interface {
	Delete(ctx context.Context, studentID, sessionID string) error
	Toggle(ctx context.Context, studentID, sessionID string) (bool, error)
	SessionIDs(ctx context.Context, studentID string) ([]string, error)
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error)
	CreateRefund(ctx context.Context, req payments.RefundRequest) (payments.Refund, error)
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
