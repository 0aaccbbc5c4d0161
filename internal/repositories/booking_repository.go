package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "sessionbook/internal/config"
	intdb "sessionbook/internal/db"
	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
)

// ErrDuplicateBooking is returned when an insert hits either unique key
// (payment intent, or student+session+slot while booked).
var ErrDuplicateBooking = errors.New("booking already exists")

const bookingColumns = `id, payment_intent_id, student_id, instructor_id, session_id,
	booked_date, time_slot_start, time_slot_end, completed_at, COALESCE(concerns,''), status,
	amount_paid, currency, COALESCE(refund_id,''), COALESCE(refund_status,''), refunded_amount, is_refunded,
	meeting_id, COALESCE(cancelled_by,''), cancelled_at, COALESCE(cancel_reason,''), created_at, updated_at`

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b              models.Booking
		completedAt    sql.NullTime
		status         string
		refundStatus   string
		refundedAmount sql.NullInt64
		cancelledBy    string
		cancelledAt    sql.NullTime
		cancelReason   string
	)
	if err := row.Scan(
		&b.ID,
		&b.PaymentID,
		&b.StudentID,
		&b.InstructorID,
		&b.SessionID,
		&b.BookedDate,
		&b.Start,
		&b.End,
		&completedAt,
		&b.Concerns,
		&status,
		&b.AmountPaid,
		&b.Currency,
		&b.RefundID,
		&refundStatus,
		&refundedAmount,
		&b.IsRefunded,
		&b.MeetingID,
		&cancelledBy,
		&cancelledAt,
		&cancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return models.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	b.RefundStatus = domain.RefundStatus(refundStatus)
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		b.CompletedAt = &t
	}
	if refundedAmount.Valid {
		v := refundedAmount.Int64
		b.RefundedAmount = &v
	}
	if cancelledBy != "" || cancelledAt.Valid {
		b.Cancellation = &models.Cancellation{
			CancelledBy: domain.CancelledBy(cancelledBy),
			CancelledAt: cancelledAt.Time.UTC(),
			Reason:      cancelReason,
		}
	}
	b.BookedDate = b.BookedDate.UTC()
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	return b, nil
}

func subjectColumn(role domain.Role) (string, error) {
	switch role {
	case domain.RoleStudent:
		return "student_id", nil
	case domain.RoleInstructor:
		return "instructor_id", nil
	}
	return "", domain.ValidationError{Field: "role", Msg: "must be student or instructor"}
}

// HasOverlap checks booked rows of one subject against [start, end).
func (r BookingRepository) HasOverlap(ctx context.Context, subjectID string, role domain.Role, start, end time.Time) (bool, error) {
	col, err := subjectColumn(role)
	if err != nil {
		return false, err
	}
	var exists bool
	err = r.db().QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE `+col+` = ? AND status = ?
			  AND time_slot_start < ? AND time_slot_end > ?
		)`, subjectID, domain.StatusBooked, end.UTC(), start.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

func (r BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return models.Booking{}, domain.ValidationError{Field: "booking_id", Msg: "required"}
	}
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// GetByPaymentID returns the booking committed for a payment intent, if any.
func (r BookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (models.Booking, bool, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = ? LIMIT 1`, paymentID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, false, nil
	}
	if err != nil {
		return models.Booking{}, false, fmt.Errorf("get booking by payment: %w", err)
	}
	return b, true, nil
}

// FindBookedForSlot returns any live booking of the same session instance.
func (r BookingRepository) FindBookedForSlot(ctx context.Context, sessionID string, start time.Time) (models.Booking, bool, error) {
	row := r.db().QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE session_id = ? AND time_slot_start = ? AND status = ?
		ORDER BY created_at ASC
		LIMIT 1`, sessionID, start.UTC(), domain.StatusBooked)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, false, nil
	}
	if err != nil {
		return models.Booking{}, false, fmt.Errorf("find slot booking: %w", err)
	}
	return b, true, nil
}

// FindInstructorOverlaps lists booked rows of the instructor intersecting [start, end).
func (r BookingRepository) FindInstructorOverlaps(ctx context.Context, instructorID string, start, end time.Time) ([]models.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE instructor_id = ? AND status = ?
		  AND time_slot_start < ? AND time_slot_end > ?
		ORDER BY time_slot_start ASC
		LIMIT 50`, instructorID, domain.StatusBooked, end.UTC(), start.UTC())
}

// InsertIfFree inserts b only when neither the instructor nor the student has another
// booked row intersecting the slot. Bookings of the same session instance do not count
// as conflicts so group sessions can fill up. It returns false when the guard rejected
// the row and ErrDuplicateBooking when a unique key did.
func (r BookingRepository) InsertIfFree(ctx context.Context, b models.Booking) (bool, error) {
	start, end := b.Start.UTC(), b.End.UTC()
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO bookings (
			id, payment_intent_id, student_id, instructor_id, session_id,
			booked_date, time_slot_start, time_slot_end, concerns, status,
			amount_paid, currency, meeting_id, created_at, updated_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE (instructor_id = ? OR student_id = ?)
			  AND status = ?
			  AND time_slot_start < ? AND time_slot_end > ?
			  AND NOT (session_id = ? AND time_slot_start = ?)
		)`,
		b.ID, b.PaymentID, b.StudentID, b.InstructorID, b.SessionID,
		b.BookedDate.UTC(), start, end, intdb.NullIfEmpty(b.Concerns), domain.StatusBooked,
		b.AmountPaid, b.Currency, b.MeetingID, b.CreatedAt.UTC(), b.CreatedAt.UTC(),
		b.InstructorID, b.StudentID,
		domain.StatusBooked,
		end, start,
		b.SessionID, start,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return false, ErrDuplicateBooking
		}
		return false, fmt.Errorf("insert booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert booking rows: %w", err)
	}
	return n == 1, nil
}

// CancelIfBooked is the compare-and-swap for cancellation. It only matches rows that are
// still booked, so it loses cleanly against a concurrent sweep or cancel.
func (r BookingRepository) CancelIfBooked(ctx context.Context, id string, by domain.CancelledBy, at time.Time, reason string) (bool, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, cancelled_by = ?, cancelled_at = ?, cancel_reason = ?
		WHERE id = ? AND status = ?`,
		domain.StatusCancelled, string(by), at.UTC(), intdb.NullIfEmpty(reason), id, domain.StatusBooked)
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel booking rows: %w", err)
	}
	return n == 1, nil
}

// SetRefund stores the refund issued for a cancelled booking. A succeeded refund also
// records the refunded amount and closes the booking for refunds. A refund already
// confirmed by webhook is not overwritten.
func (r BookingRepository) SetRefund(ctx context.Context, id, refundID string, status domain.RefundStatus, refundedAmount int64) error {
	var (
		amount     any
		isRefunded bool
	)
	if status == domain.RefundSucceeded {
		amount = refundedAmount
		isRefunded = true
	}
	_, err := r.db().ExecContext(ctx, `
		UPDATE bookings
		SET refund_id = COALESCE(?, refund_id), refund_status = ?,
		    refunded_amount = COALESCE(?, refunded_amount), is_refunded = ?
		WHERE id = ? AND is_refunded = 0`,
		intdb.NullIfEmpty(refundID), string(status), amount, isRefunded, id)
	if err != nil {
		return fmt.Errorf("set refund: %w", err)
	}
	return nil
}

// ReconcileRefund applies a refund status update unless the refund already succeeded.
// It returns the number of rows changed; zero means unknown refund or already final.
func (r BookingRepository) ReconcileRefund(ctx context.Context, refundID string, status domain.RefundStatus, refundedAmount int64) (int64, error) {
	var (
		amount     any
		isRefunded bool
	)
	if status == domain.RefundSucceeded {
		amount = refundedAmount
		isRefunded = true
	}
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings
		SET refund_status = ?, refunded_amount = COALESCE(?, refunded_amount), is_refunded = ?
		WHERE refund_id = ? AND is_refunded = 0`,
		string(status), amount, isRefunded, refundID)
	if err != nil {
		return 0, fmt.Errorf("reconcile refund: %w", err)
	}
	return res.RowsAffected()
}

// MarkCompleted is the set-based sweep: every booked row that ended at or before cutoff
// becomes completed. Re-running it is harmless.
func (r BookingRepository) MarkCompleted(ctx context.Context, now, cutoff time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, completed_at = ?
		WHERE status = ? AND time_slot_end <= ?`,
		domain.StatusCompleted, now.UTC(), domain.StatusBooked, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("mark completed: %w", err)
	}
	return res.RowsAffected()
}

// ListBySubject returns a subject's bookings with the given status, earliest slot first.
func (r BookingRepository) ListBySubject(ctx context.Context, subjectID string, role domain.Role, status domain.BookingStatus) ([]models.Booking, error) {
	col, err := subjectColumn(role)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE `+col+` = ? AND status = ?
		ORDER BY time_slot_start ASC`, subjectID, status)
}

// BookedSessionIDs lists every session the student has a booking for, any status.
func (r BookingRepository) BookedSessionIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT DISTINCT session_id FROM bookings WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, fmt.Errorf("booked sessions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r BookingRepository) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
