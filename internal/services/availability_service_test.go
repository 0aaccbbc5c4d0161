package services

import (
	"context"
	"testing"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasOverlapHalfOpen(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	svc := AvailabilityService{Bookings: newMemBookings(models.Booking{
		ID: "bk-1", PaymentID: "pi_1", StudentID: "stu-1", InstructorID: "ins-1", SessionID: "sess-1",
		Start: start, End: start.Add(time.Hour), Status: domain.StatusBooked,
	})}
	ctx := context.Background()

	busy, err := svc.HasOverlap(ctx, "ins-1", domain.RoleInstructor, start.Add(30*time.Minute), start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, busy)

	busy, err = svc.HasOverlap(ctx, "ins-1", domain.RoleInstructor, start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, busy, "touching slots do not overlap")

	busy, err = svc.HasOverlap(ctx, "stu-1", domain.RoleStudent, start.Add(-time.Hour), start)
	require.NoError(t, err)
	assert.False(t, busy)

	busy, err = svc.HasOverlap(ctx, "stu-2", domain.RoleStudent, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestHasOverlapIgnoresTerminalBookings(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	svc := AvailabilityService{Bookings: newMemBookings(models.Booking{
		ID: "bk-1", PaymentID: "pi_1", StudentID: "stu-1", InstructorID: "ins-1", SessionID: "sess-1",
		Start: start, End: start.Add(time.Hour), Status: domain.StatusCancelled,
	})}

	busy, err := svc.HasOverlap(context.Background(), "stu-1", domain.RoleStudent, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestHasOverlapValidates(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	svc := AvailabilityService{Bookings: newMemBookings()}
	ctx := context.Background()

	_, err := svc.HasOverlap(ctx, "stu-1", domain.Role("admin"), start, start.Add(time.Hour))
	assert.True(t, domain.IsValidation(err))
	_, err = svc.HasOverlap(ctx, " ", domain.RoleStudent, start, start.Add(time.Hour))
	assert.True(t, domain.IsValidation(err))
	_, err = svc.HasOverlap(ctx, "stu-1", domain.RoleStudent, start, start)
	assert.True(t, domain.IsValidation(err))
}
