package services

import (
	"fmt"
	"time"
)

// MeetingID names the shared video room of one session instance. Every student booked into
// the same (session, start) joins the same room.
func MeetingID(sessionID string, start time.Time) string {
	return fmt.Sprintf("session_%s_%d", sessionID, start.UTC().UnixMilli())
}
