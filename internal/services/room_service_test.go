package services

import (
	"context"
	"testing"
	"time"

	"sessionbook/internal/auth"
	"sessionbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinRoom(t *testing.T) {
	cancelled := bookedRow()
	cancelled.ID, cancelled.PaymentID, cancelled.Status = "bk-c", "pi_c", domain.StatusCancelled
	secret := []byte("room-secret")
	svc := RoomService{
		Bookings: newMemBookings(bookedRow(), cancelled),
		Tokens:   auth.RoomTokenIssuer{Secret: secret, TTL: time.Hour},
	}
	ctx := context.Background()

	j, err := svc.Join(ctx, "stu-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, j.Role)
	assert.Equal(t, MeetingID(yoga.ID, slot10), j.RoomID)
	claims, err := auth.ParseRoomToken(secret, j.Token)
	require.NoError(t, err)
	assert.Equal(t, j.RoomID, claims.RoomID)
	assert.Equal(t, "stu-1", claims.Subject)

	j, err = svc.Join(ctx, "ins-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, j.Role)

	_, err = svc.Join(ctx, "someone", "bk-1")
	assert.True(t, domain.IsAuthorization(err))

	_, err = svc.Join(ctx, "stu-1", "missing")
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.Join(ctx, "stu-1", "bk-c")
	assert.True(t, domain.IsConflict(err))
}
