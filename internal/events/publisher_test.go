package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsOrder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.PublishJSON(context.Background(), KeyBookingCommitted, BookingCommitted{BookingID: "b1"}))
	require.NoError(t, r.PublishJSON(context.Background(), KeyBookingCancelled, BookingCancelled{BookingID: "b1"}))

	assert.Equal(t, []string{KeyBookingCommitted, KeyBookingCancelled}, r.Keys())
	assert.Equal(t, "b1", r.Events[0].Payload.(BookingCommitted).BookingID)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishJSON(context.Background(), KeyBookingCompleted, BookingsCompleted{Count: 3}))
}
