package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/events"
	"sessionbook/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	bookings *memBookings
	wishlist *memWishlist
	events   *events.Recorder
	svc      WebhookService
}

func newWebhookFixture(rows ...models.Booking) *webhookFixture {
	var seq int64
	f := &webhookFixture{
		bookings: newMemBookings(rows...),
		wishlist: newMemWishlist(),
		events:   &events.Recorder{},
	}
	f.svc = WebhookService{
		Bookings:    f.bookings,
		Sessions:    memSessions{yoga.ID: yoga, "sess-pilates": {ID: "sess-pilates", InstructorID: yoga.InstructorID, DurationMinutes: 45, Fee: 800}},
		Wishlist:    f.wishlist,
		Publisher:   f.events,
		MinorFactor: 100,
		Now:         func() time.Time { return slot10.Add(-48 * time.Hour) },
		NewID:       func() string { return fmt.Sprintf("bk-%d", atomic.AddInt64(&seq, 1)) },
	}
	return f
}

func paid(pid, student, session string, start time.Time) payments.PaymentSucceeded {
	return payments.PaymentSucceeded{
		PaymentID:      pid,
		AmountReceived: 100000,
		Currency:       "inr",
		Metadata: map[string]string{
			payments.MetaStudentID:    student,
			payments.MetaSessionID:    session,
			payments.MetaTimeSlot:     start.Format(time.RFC3339),
			payments.MetaSelectedDate: "2026-07-01T00:00:00.000Z",
			payments.MetaConcerns:     "knees",
		},
	}
}

// Scenario A: a redelivered payment event leaves exactly one booking.
func TestCommitBookingRedeliveryIsNoop(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, _ = f.wishlist.Toggle(ctx, "stu-1", yoga.ID)

	out, err := f.svc.CommitBooking(ctx, paid("pi_A", "stu-1", yoga.ID, slot10))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, out)

	out, err = f.svc.CommitBooking(ctx, paid("pi_A", "stu-1", yoga.ID, slot10))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)

	rows := f.bookings.All()
	require.Len(t, rows, 1)
	b := rows[0]
	assert.EqualValues(t, 1000, b.AmountPaid)
	assert.Equal(t, "inr", b.Currency)
	assert.Equal(t, slot10.Add(time.Hour), b.End)
	assert.Equal(t, domain.StatusBooked, b.Status)
	assert.Equal(t, "knees", b.Concerns)
	assert.Equal(t, MeetingID(yoga.ID, slot10), b.MeetingID)
	assert.False(t, f.wishlist.Has("stu-1", yoga.ID), "wishlist entry removed after commit")
	assert.Equal(t, []string{events.KeyBookingCommitted}, f.events.Keys())
}

func TestCommitBookingConcurrentDeliveries(t *testing.T) {
	f := newWebhookFixture()
	var wg sync.WaitGroup
	var committed int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.CommitBooking(context.Background(), paid("pi_many", "stu-1", yoga.ID, slot10))
			assert.NoError(t, err)
			if out == OutcomeCommitted {
				atomic.AddInt32(&committed, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, committed)
	assert.Len(t, f.bookings.All(), 1)
}

func TestCommitBookingGroupSessionSharesMeeting(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()

	out, err := f.svc.CommitBooking(ctx, paid("pi_1", "stu-1", yoga.ID, slot10))
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, out)
	out, err = f.svc.CommitBooking(ctx, paid("pi_2", "stu-2", yoga.ID, slot10))
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, out)

	rows := f.bookings.All()
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].MeetingID, rows[1].MeetingID)
}

func TestCommitBookingFractionalSlotJoinsStoredGroup(t *testing.T) {
	first := models.Booking{
		ID: "bk-stored", PaymentID: "pi_1", StudentID: "stu-1", InstructorID: yoga.InstructorID, SessionID: yoga.ID,
		Start: slot10, End: slot10.Add(time.Hour), Status: domain.StatusBooked, MeetingID: MeetingID(yoga.ID, slot10),
	}
	f := newWebhookFixture(first)

	p := paid("pi_2", "stu-2", yoga.ID, slot10)
	p.Metadata[payments.MetaTimeSlot] = slot10.Add(600 * time.Millisecond).Format(time.RFC3339Nano)
	out, err := f.svc.CommitBooking(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, out)

	rows := f.bookings.All()
	require.Len(t, rows, 2)
	for _, b := range rows {
		assert.True(t, b.Start.Equal(slot10), "start %s stored with sub-second digits", b.Start)
		assert.Equal(t, first.MeetingID, b.MeetingID)
	}
}

func TestCommitBookingSameStudentSecondPayment(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, err := f.svc.CommitBooking(ctx, paid("pi_1", "stu-1", yoga.ID, slot10))
	require.NoError(t, err)

	out, err := f.svc.CommitBooking(ctx, paid("pi_2", "stu-1", yoga.ID, slot10))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)
	assert.Len(t, f.bookings.All(), 1)
}

// Scenario E: two students race for overlapping slots of one instructor.
func TestCommitBookingInstructorRace(t *testing.T) {
	f := newWebhookFixture()
	var wg sync.WaitGroup
	outcomes := make([]CommitOutcome, 2)
	deliveries := []payments.PaymentSucceeded{
		paid("pi_x", "stu-1", yoga.ID, slot10),
		paid("pi_y", "stu-2", "sess-pilates", slot10.Add(30*time.Minute)),
	}
	for i := range deliveries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.svc.CommitBooking(context.Background(), deliveries[i])
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []CommitOutcome{OutcomeCommitted, OutcomeAnomaly}, outcomes)
	assert.Len(t, f.bookings.All(), 1)
}

func TestCommitBookingAnomaliesAreSwallowed(t *testing.T) {
	cases := []struct {
		name string
		p    payments.PaymentSucceeded
	}{
		{"missing session", paid("pi_1", "stu-1", "gone", slot10)},
		{"bad time slot", func() payments.PaymentSucceeded {
			p := paid("pi_2", "stu-1", yoga.ID, slot10)
			p.Metadata[payments.MetaTimeSlot] = "soon"
			return p
		}()},
		{"no metadata", payments.PaymentSucceeded{PaymentID: "pi_3", AmountReceived: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWebhookFixture()
			out, err := f.svc.CommitBooking(context.Background(), tc.p)
			require.NoError(t, err)
			assert.Equal(t, OutcomeAnomaly, out)
			assert.Empty(t, f.bookings.All())
			assert.Empty(t, f.events.Keys())
		})
	}
}

func TestCommitBookingStudentBusyElsewhere(t *testing.T) {
	other := models.Booking{
		ID: "b-other", PaymentID: "pi_other", StudentID: "stu-1", InstructorID: "ins-7", SessionID: "sess-x",
		Start: slot10, End: slot10.Add(time.Hour), Status: domain.StatusBooked,
	}
	f := newWebhookFixture(other)
	out, err := f.svc.CommitBooking(context.Background(), paid("pi_1", "stu-1", yoga.ID, slot10.Add(15*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, out)
	assert.Len(t, f.bookings.All(), 1)
}

func TestReconcileRefund(t *testing.T) {
	b := models.Booking{
		ID: "b1", PaymentID: "pi_1", StudentID: "stu-1", InstructorID: "ins-1", SessionID: yoga.ID,
		Start: slot10, End: slot10.Add(time.Hour), Status: domain.StatusCancelled,
		AmountPaid: 1000, RefundID: "re_1", RefundStatus: domain.RefundPending,
	}
	f := newWebhookFixture(b)
	ctx := context.Background()

	out, err := f.svc.ReconcileRefund(ctx, payments.RefundUpdated{RefundID: "re_1", Status: "succeeded", Amount: 50000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, out)
	got := f.bookings.Get("b1")
	assert.True(t, got.IsRefunded)
	assert.Equal(t, domain.RefundSucceeded, got.RefundStatus)
	require.NotNil(t, got.RefundedAmount)
	assert.EqualValues(t, 500, *got.RefundedAmount)

	// a late "pending" after success must not regress the booking
	out, err = f.svc.ReconcileRefund(ctx, payments.RefundUpdated{RefundID: "re_1", Status: "pending", Amount: 50000})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Equal(t, domain.RefundSucceeded, f.bookings.Get("b1").RefundStatus)

	// unknown refund id is a no-op
	out, err = f.svc.ReconcileRefund(ctx, payments.RefundUpdated{RefundID: "re_unknown", Status: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	out, err = f.svc.ReconcileRefund(ctx, payments.RefundUpdated{Status: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, out)
}

func TestReconcileRefundFailedKeepsOpen(t *testing.T) {
	b := models.Booking{ID: "b1", PaymentID: "pi_1", Status: domain.StatusCancelled, RefundID: "re_1", RefundStatus: domain.RefundPending}
	f := newWebhookFixture(b)
	out, err := f.svc.ReconcileRefund(context.Background(), payments.RefundUpdated{RefundID: "re_1", Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, out)
	got := f.bookings.Get("b1")
	assert.Equal(t, domain.RefundFailed, got.RefundStatus)
	assert.False(t, got.IsRefunded)
	assert.Nil(t, got.RefundedAmount)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	f := newWebhookFixture()
	out, err := f.svc.HandleEvent(context.Background(), payments.Event{ID: "evt_1", Type: "customer.created"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	p := paid("pi_h", "stu-1", yoga.ID, slot10)
	out, err = f.svc.HandleEvent(context.Background(), payments.Event{ID: "evt_2", Type: payments.EventPaymentSucceeded, Payment: &p})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, out)
}

func TestHandleEventReportsRefundReconciliation(t *testing.T) {
	b := models.Booking{ID: "b1", PaymentID: "pi_1", Status: domain.StatusCancelled, RefundID: "re_1", RefundStatus: domain.RefundPending}
	f := newWebhookFixture(b)
	ev := payments.Event{ID: "evt_r", Type: payments.EventRefundUpdated, Refund: &payments.RefundUpdated{RefundID: "re_1", Status: "succeeded", Amount: 50000}}

	out, err := f.svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, out)

	out, err = f.svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
}
