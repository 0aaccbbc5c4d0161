package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/events"
	"sessionbook/internal/payments"
	"sessionbook/internal/repositories"
	"sessionbook/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitOutcome tells what a delivery did. Committed inserted a booking; Reconciled
// changed a booking's refund state.
type CommitOutcome string

const (
	OutcomeCommitted  CommitOutcome = "committed"
	OutcomeReconciled CommitOutcome = "reconciled"
	OutcomeDuplicate  CommitOutcome = "duplicate"
	OutcomeAnomaly    CommitOutcome = "anomaly"
	OutcomeIgnored    CommitOutcome = "ignored"
)

// WebhookService applies verified gateway events. Every delivery may be repeated; the
// booking unique keys make repeats no-ops. Business anomalies are logged, not returned,
// because the payment has already moved. Only storage failures come back as errors so the
// gateway retries the delivery.
type WebhookService struct {
	Bookings    BookingStore
	Sessions    SessionStore
	Wishlist    WishlistStore
	Publisher   events.Publisher
	MinorFactor int64
	Currency    string
	RequestID   string
	Now         func() time.Time
	NewID       func() string
}

// HandleEvent routes one verified event. Unknown kinds are accepted and ignored.
func (s WebhookService) HandleEvent(ctx context.Context, ev payments.Event) (CommitOutcome, error) {
	switch {
	case ev.Type == payments.EventPaymentSucceeded && ev.Payment != nil:
		return s.CommitBooking(ctx, *ev.Payment)
	case ev.Type == payments.EventRefundUpdated && ev.Refund != nil:
		return s.ReconcileRefund(ctx, *ev.Refund)
	default:
		utils.LogEvent(s.RequestID, "webhook", "ignore", "unhandled event type "+ev.Type, zap.String("event_id", ev.ID))
		return OutcomeIgnored, nil
	}
}

// CommitBooking turns a succeeded payment into at most one booked row.
func (s WebhookService) CommitBooking(ctx context.Context, p payments.PaymentSucceeded) (CommitOutcome, error) {
	if strings.TrimSpace(p.PaymentID) == "" {
		return s.anomaly(p.PaymentID, "payment id missing", nil), nil
	}

	if _, found, err := s.Bookings.GetByPaymentID(ctx, p.PaymentID); err != nil {
		return "", err
	} else if found {
		utils.LogEvent(s.RequestID, "webhook", "commit_booking", "payment already committed", zap.String("payment_id", p.PaymentID))
		return OutcomeDuplicate, nil
	}

	studentID := strings.TrimSpace(p.Metadata[payments.MetaStudentID])
	sessionID := strings.TrimSpace(p.Metadata[payments.MetaSessionID])
	if studentID == "" || sessionID == "" {
		return s.anomaly(p.PaymentID, "metadata missing student or session", nil), nil
	}
	start, err := utils.ParseSlotStart(p.Metadata[payments.MetaTimeSlot])
	if err != nil {
		return s.anomaly(p.PaymentID, "metadata time slot unparseable", err), nil
	}
	bookedDate, err := utils.ParseDateOrInstant(p.Metadata[payments.MetaSelectedDate])
	if err != nil {
		bookedDate = start
	}

	session, err := s.Sessions.GetByID(ctx, sessionID)
	if domain.IsNotFound(err) {
		return s.anomaly(p.PaymentID, "session "+sessionID+" no longer exists", err), nil
	}
	if err != nil {
		return "", err
	}
	end := session.SlotEnd(start)

	overlaps, err := s.Bookings.FindInstructorOverlaps(ctx, session.InstructorID, start, end)
	if err != nil {
		return "", err
	}
	for _, c := range overlaps {
		if !c.SameSlot(session.ID, start) {
			return s.anomaly(p.PaymentID, "instructor already booked by "+c.ID, nil), nil
		}
		if c.StudentID == studentID {
			utils.LogEvent(s.RequestID, "webhook", "commit_booking", "student already holds this slot", zap.String("payment_id", p.PaymentID), zap.String("booking_id", c.ID))
			return OutcomeDuplicate, nil
		}
	}

	meetingID := MeetingID(session.ID, start)
	if existing, found, err := s.Bookings.FindBookedForSlot(ctx, session.ID, start); err != nil {
		return "", err
	} else if found && existing.MeetingID != "" {
		meetingID = existing.MeetingID
	}

	now := clock(s.Now).now()
	b := models.Booking{
		ID:           s.newID(),
		PaymentID:    p.PaymentID,
		StudentID:    studentID,
		InstructorID: session.InstructorID,
		SessionID:    session.ID,
		BookedDate:   bookedDate,
		Start:        start,
		End:          end,
		Concerns:     strings.TrimSpace(p.Metadata[payments.MetaConcerns]),
		Status:       domain.StatusBooked,
		AmountPaid:   utils.FromMinorUnits(p.AmountReceived, s.MinorFactor),
		Currency:     s.currency(p.Currency),
		MeetingID:    meetingID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	inserted, err := s.Bookings.InsertIfFree(ctx, b)
	if errors.Is(err, repositories.ErrDuplicateBooking) {
		utils.LogEvent(s.RequestID, "webhook", "commit_booking", "duplicate delivery", zap.String("payment_id", p.PaymentID))
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}
	if !inserted {
		return s.anomaly(p.PaymentID, "slot taken before commit", nil), nil
	}

	if err := s.Wishlist.Delete(ctx, studentID, session.ID); err != nil {
		utils.LogError(s.RequestID, "webhook", "wishlist_cleanup", err, zap.String("booking_id", b.ID))
	}
	s.publish(ctx, events.KeyBookingCommitted, events.BookingCommitted{
		BookingID:    b.ID,
		PaymentID:    b.PaymentID,
		StudentID:    b.StudentID,
		InstructorID: b.InstructorID,
		SessionID:    b.SessionID,
		TimeSlot:     b.Start,
		MeetingID:    b.MeetingID,
	})
	utils.LogEvent(s.RequestID, "webhook", "commit_booking",
		fmt.Sprintf("booking_id=%s payment_id=%s meeting_id=%s", b.ID, b.PaymentID, b.MeetingID))
	return OutcomeCommitted, nil
}

// ReconcileRefund records the gateway's view of a refund. A refund that already succeeded
// is final and later deliveries are ignored.
func (s WebhookService) ReconcileRefund(ctx context.Context, r payments.RefundUpdated) (CommitOutcome, error) {
	if strings.TrimSpace(r.RefundID) == "" {
		return s.anomaly("", "refund id missing", nil), nil
	}
	status := domain.ParseRefundStatus(r.Status)
	n, err := s.Bookings.ReconcileRefund(ctx, r.RefundID, status, utils.FromMinorUnits(r.Amount, s.MinorFactor))
	if err != nil {
		return "", err
	}
	if n == 0 {
		utils.LogEvent(s.RequestID, "webhook", "reconcile_refund", "no open booking for refund", zap.String("refund_id", r.RefundID))
		return OutcomeIgnored, nil
	}
	utils.LogEvent(s.RequestID, "webhook", "reconcile_refund",
		fmt.Sprintf("refund_id=%s status=%s", r.RefundID, status))
	return OutcomeReconciled, nil
}

func (s WebhookService) anomaly(paymentID, reason string, err error) CommitOutcome {
	a := domain.ReconciliationAnomaly{PaymentID: paymentID, Reason: reason, Err: err}
	utils.LogWarn(s.RequestID, "webhook", "reconciliation_anomaly", a.Error(), zap.String("payment_id", paymentID))
	return OutcomeAnomaly
}

func (s WebhookService) publish(ctx context.Context, key string, v any) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishJSON(ctx, key, v); err != nil {
		utils.LogError(s.RequestID, "events", "publish", err, zap.String("key", key))
	}
}

func (s WebhookService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s WebhookService) currency(c string) string {
	if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
		return c
	}
	if c = strings.ToLower(strings.TrimSpace(s.Currency)); c != "" {
		return c
	}
	return "inr"
}
