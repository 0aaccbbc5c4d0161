// Package servicetest provides in-memory stores and a fake gateway that honour the same
// guarantees as the MySQL repositories, for tests of services and handlers.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/payments"
	"sessionbook/internal/repositories"
)

// MemBookings mimics the MySQL constraints the repository relies on: unique payment id,
// unique live (student, session, start), and the guarded insert.
type MemBookings struct {
	mu   sync.Mutex
	rows map[string]models.Booking
}

func NewMemBookings(rows ...models.Booking) *MemBookings {
	m := &MemBookings{rows: map[string]models.Booking{}}
	for _, b := range rows {
		m.rows[b.ID] = b
	}
	return m
}

func (m *MemBookings) All() []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Booking, 0, len(m.rows))
	for _, b := range m.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemBookings) Get(id string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *MemBookings) HasOverlap(_ context.Context, subjectID string, role domain.Role, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		owner := b.StudentID
		if role == domain.RoleInstructor {
			owner = b.InstructorID
		}
		if owner == subjectID && b.Status == domain.StatusBooked && b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemBookings) GetByID(_ context.Context, id string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (m *MemBookings) GetByPaymentID(_ context.Context, pid string) (models.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.PaymentID == pid {
			return b, true, nil
		}
	}
	return models.Booking{}, false, nil
}

func (m *MemBookings) FindBookedForSlot(_ context.Context, sessionID string, start time.Time) (models.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.Status == domain.StatusBooked && b.SameSlot(sessionID, start) {
			return b, true, nil
		}
	}
	return models.Booking{}, false, nil
}

func (m *MemBookings) FindInstructorOverlaps(_ context.Context, instructorID string, start, end time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.rows {
		if b.InstructorID == instructorID && b.Status == domain.StatusBooked && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemBookings) InsertIfFree(_ context.Context, nb models.Booking) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.PaymentID == nb.PaymentID {
			return false, repositories.ErrDuplicateBooking
		}
		if b.Status == domain.StatusBooked && b.StudentID == nb.StudentID && b.SameSlot(nb.SessionID, nb.Start) {
			return false, repositories.ErrDuplicateBooking
		}
	}
	for _, b := range m.rows {
		if b.Status != domain.StatusBooked || b.SameSlot(nb.SessionID, nb.Start) {
			continue
		}
		if (b.InstructorID == nb.InstructorID || b.StudentID == nb.StudentID) && b.Overlaps(nb.Start, nb.End) {
			return false, nil
		}
	}
	m.rows[nb.ID] = nb
	return true, nil
}

func (m *MemBookings) CancelIfBooked(_ context.Context, id string, by domain.CancelledBy, at time.Time, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok || b.Status != domain.StatusBooked {
		return false, nil
	}
	b.Status = domain.StatusCancelled
	b.Cancellation = &models.Cancellation{CancelledBy: by, CancelledAt: at, Reason: reason}
	m.rows[id] = b
	return true, nil
}

func (m *MemBookings) SetRefund(_ context.Context, id, refundID string, status domain.RefundStatus, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok || b.IsRefunded {
		return nil
	}
	if refundID != "" {
		b.RefundID = refundID
	}
	b.RefundStatus = status
	if status == domain.RefundSucceeded {
		v := amount
		b.RefundedAmount = &v
		b.IsRefunded = true
	}
	m.rows[id] = b
	return nil
}

func (m *MemBookings) ReconcileRefund(_ context.Context, refundID string, status domain.RefundStatus, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.rows {
		if b.RefundID != refundID || b.IsRefunded {
			continue
		}
		b.RefundStatus = status
		if status == domain.RefundSucceeded {
			v := amount
			b.RefundedAmount = &v
			b.IsRefunded = true
		}
		m.rows[id] = b
		n++
	}
	return n, nil
}

func (m *MemBookings) MarkCompleted(_ context.Context, now, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.rows {
		if b.Status == domain.StatusBooked && !b.End.After(cutoff) {
			b.Status = domain.StatusCompleted
			t := now
			b.CompletedAt = &t
			m.rows[id] = b
			n++
		}
	}
	return n, nil
}

func (m *MemBookings) ListBySubject(_ context.Context, subjectID string, role domain.Role, status domain.BookingStatus) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range m.All() {
		owner := b.StudentID
		if role == domain.RoleInstructor {
			owner = b.InstructorID
		}
		if owner == subjectID && b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

type MemSessions map[string]models.Session

func (m MemSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	s, ok := m[id]
	if !ok {
		return models.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return s, nil
}

func (m MemSessions) ListActiveByIDs(_ context.Context, ids []string) ([]models.Session, error) {
	out := []models.Session{}
	for _, id := range ids {
		if s, ok := m[id]; ok && !s.IsArchived {
			out = append(out, s)
		}
	}
	return out, nil
}

type MemWishlist struct {
	mu      sync.Mutex
	entries map[[2]string]bool
	order   []string
}

func NewMemWishlist() *MemWishlist { return &MemWishlist{entries: map[[2]string]bool{}} }

func (m *MemWishlist) Delete(_ context.Context, studentID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, [2]string{studentID, sessionID})
	return nil
}

func (m *MemWishlist) Toggle(_ context.Context, studentID, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{studentID, sessionID}
	if m.entries[k] {
		delete(m.entries, k)
		return false, nil
	}
	m.entries[k] = true
	m.order = append(m.order, sessionID)
	return true, nil
}

func (m *MemWishlist) SessionIDs(_ context.Context, studentID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, id := range m.order {
		if m.entries[[2]string{studentID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MemWishlist) Has(studentID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[[2]string{studentID, sessionID}]
}

type FakeGateway struct {
	mu        sync.Mutex
	Intents   []payments.IntentRequest
	Refunds   []payments.RefundRequest
	RefundErr error
	// RefundStatus is the status CreateRefund reports; empty means pending.
	RefundStatus string
}

func (g *FakeGateway) CreatePaymentIntent(_ context.Context, req payments.IntentRequest) (payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Intents = append(g.Intents, req)
	return payments.Intent{ID: "pi_test", ClientSecret: "pi_test_secret_x"}, nil
}

func (g *FakeGateway) CreateRefund(_ context.Context, req payments.RefundRequest) (payments.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RefundErr != nil {
		return payments.Refund{}, g.RefundErr
	}
	g.Refunds = append(g.Refunds, req)
	status := g.RefundStatus
	if status == "" {
		status = "pending"
	}
	return payments.Refund{ID: "re_" + req.IdempotencyKey, Status: status, Amount: req.Amount}, nil
}

