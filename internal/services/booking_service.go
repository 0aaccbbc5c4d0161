package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/events"
	"sessionbook/internal/payments"
	"sessionbook/internal/utils"

	"go.uber.org/zap"
)

type CancelInput struct {
	BookingID   string
	CancelledBy domain.CancelledBy
	RequesterID string
	Reason      string
}

type CancelResult struct {
	Booking      models.Booking      `json:"booking"`
	RefundAmount int64               `json:"refundAmount"`
	RefundID     string              `json:"refundId,omitempty"`
	RefundStatus domain.RefundStatus `json:"refundStatus,omitempty"`
}

// SessionSummary is the session part of a booking listing.
type SessionSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Fee      int64  `json:"fees"`
}

type BookingView struct {
	models.Booking
	Session *SessionSummary `json:"session,omitempty"`
}

// BookingService owns cancellation with refund, and the read side of bookings.
type BookingService struct {
	Bookings    BookingStore
	Sessions    SessionStore
	Gateway     PaymentGateway
	Publisher   events.Publisher
	MinorFactor int64
	RequestID   string
	Now         func() time.Time
}

// Cancel moves a booked row to cancelled and refunds per CalculateRefund. The status change
// is a compare-and-swap so a concurrent cancel or completion sweep wins cleanly. A failed
// refund call leaves the booking cancelled with refund_status=failed.
func (s BookingService) Cancel(ctx context.Context, in CancelInput) (CancelResult, error) {
	if !in.CancelledBy.Valid() {
		return CancelResult{}, domain.ValidationError{Field: "cancelledBy", Msg: "must be student or instructor"}
	}
	if strings.TrimSpace(in.RequesterID) == "" {
		return CancelResult{}, domain.AuthorizationError{Action: "cancel booking"}
	}

	b, err := s.Bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return CancelResult{}, err
	}
	if !domain.CanTransition(b.Status, domain.StatusCancelled) {
		return CancelResult{}, domain.ConflictError{Resource: "booking", Msg: "booking is already " + string(b.Status)}
	}
	if !s.isParty(b, in.CancelledBy, in.RequesterID) {
		utils.LogWarn(s.RequestID, "booking", "cancel", "requester is not a party",
			zap.String("booking_id", b.ID), zap.String("requester_id", in.RequesterID))
		return CancelResult{}, domain.AuthorizationError{Action: "cancel booking"}
	}

	now := clock(s.Now).now()
	reason := strings.TrimSpace(in.Reason)
	ok, err := s.Bookings.CancelIfBooked(ctx, b.ID, in.CancelledBy, now, reason)
	if err != nil {
		return CancelResult{}, err
	}
	if !ok {
		return CancelResult{}, domain.ConflictError{Resource: "booking", Msg: "booking cannot be cancelled"}
	}
	b.Status = domain.StatusCancelled
	b.Cancellation = &models.Cancellation{CancelledBy: in.CancelledBy, CancelledAt: now, Reason: reason}

	res := CancelResult{Booking: b, RefundAmount: CalculateRefund(b.AmountPaid, b.Start, now, in.CancelledBy)}
	utils.LogEvent(s.RequestID, "booking", "cancel",
		fmt.Sprintf("booking_id=%s by=%s refund=%d", b.ID, in.CancelledBy, res.RefundAmount))

	var refundErr error
	if res.RefundAmount > 0 {
		refundErr = s.refund(ctx, &res)
	}
	s.publish(ctx, events.KeyBookingCancelled, events.BookingCancelled{
		BookingID:    b.ID,
		StudentID:    b.StudentID,
		InstructorID: b.InstructorID,
		CancelledBy:  string(in.CancelledBy),
		Refund:       res.RefundAmount,
		CancelledAt:  now,
	})
	if refundErr != nil {
		return res, refundErr
	}
	return res, nil
}

func (s BookingService) refund(ctx context.Context, res *CancelResult) error {
	b := res.Booking
	rf, err := s.Gateway.CreateRefund(ctx, payments.RefundRequest{
		PaymentID:      b.PaymentID,
		Amount:         utils.ToMinorUnits(res.RefundAmount, s.MinorFactor),
		IdempotencyKey: "refund_" + b.ID,
	})
	if err != nil {
		utils.LogError(s.RequestID, "booking", "refund", err, zap.String("booking_id", b.ID))
		res.RefundStatus = domain.RefundFailed
		if serr := s.Bookings.SetRefund(ctx, b.ID, "", domain.RefundFailed, 0); serr != nil {
			utils.LogError(s.RequestID, "booking", "refund_status", serr, zap.String("booking_id", b.ID))
		}
		res.Booking.RefundStatus = domain.RefundFailed
		return domain.InternalError{Msg: "booking cancelled but refund request failed", Err: err}
	}

	res.RefundID = rf.ID
	res.RefundStatus = domain.ParseRefundStatus(rf.Status)
	res.Booking.RefundID = rf.ID
	res.Booking.RefundStatus = res.RefundStatus
	if res.RefundStatus == domain.RefundSucceeded {
		amount := res.RefundAmount
		res.Booking.RefundedAmount = &amount
		res.Booking.IsRefunded = true
	}
	if err := s.Bookings.SetRefund(ctx, b.ID, rf.ID, res.RefundStatus, res.RefundAmount); err != nil {
		// the refund-updated webhook cannot find the booking without refund_id
		utils.LogError(s.RequestID, "booking", "refund_status", err,
			zap.String("booking_id", b.ID), zap.String("refund_id", rf.ID))
		return domain.InternalError{Msg: "refund issued but not recorded", Err: err}
	}
	utils.LogEvent(s.RequestID, "booking", "refund",
		fmt.Sprintf("booking_id=%s refund_id=%s status=%s", b.ID, rf.ID, res.RefundStatus))
	return nil
}

func (s BookingService) isParty(b models.Booking, role domain.Role, userID string) bool {
	switch role {
	case domain.RoleStudent:
		return b.StudentID == userID
	case domain.RoleInstructor:
		return b.InstructorID == userID
	}
	return false
}

// List returns a subject's bookings in one status with their session summaries.
func (s BookingService) List(ctx context.Context, subjectID string, role domain.Role, status domain.BookingStatus) ([]BookingView, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, domain.AuthorizationError{Action: "list bookings"}
	}
	rows, err := s.Bookings.ListBySubject(ctx, subjectID, role, status)
	if err != nil {
		return nil, err
	}
	return s.withSessions(ctx, rows), nil
}

// StudentDetail returns one booking only if it belongs to studentID. A booking of someone
// else is reported as missing.
func (s BookingService) StudentDetail(ctx context.Context, studentID, bookingID string) (BookingView, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return BookingView{}, err
	}
	if b.StudentID != studentID {
		return BookingView{}, domain.NotFoundError{Resource: "booking"}
	}
	return s.withSessions(ctx, []models.Booking{b})[0], nil
}

func (s BookingService) withSessions(ctx context.Context, rows []models.Booking) []BookingView {
	cache := map[string]*SessionSummary{}
	out := make([]BookingView, 0, len(rows))
	for _, b := range rows {
		sum, seen := cache[b.SessionID]
		if !seen && s.Sessions != nil {
			if sess, err := s.Sessions.GetByID(ctx, b.SessionID); err == nil {
				sum = &SessionSummary{ID: sess.ID, Title: sess.Title, Duration: sess.DurationMinutes, Fee: sess.Fee}
			} else if !domain.IsNotFound(err) {
				utils.LogError(s.RequestID, "booking", "load_session", err, zap.String("session_id", b.SessionID))
			}
			cache[b.SessionID] = sum
		}
		out = append(out, BookingView{Booking: b, Session: sum})
	}
	return out
}

func (s BookingService) publish(ctx context.Context, key string, v any) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishJSON(ctx, key, v); err != nil {
		utils.LogError(s.RequestID, "events", "publish", err, zap.String("key", key))
	}
}
