package services

import (
	"context"
	"strings"
	"time"

	"sessionbook/internal/domain"
)

// AvailabilityService answers whether a student or instructor is free for a slot.
type AvailabilityService struct {
	Bookings BookingStore
}

// HasOverlap reports whether subjectID already holds a booked slot intersecting
// [start, end). Touching intervals do not overlap.
func (s AvailabilityService) HasOverlap(ctx context.Context, subjectID string, role domain.Role, start, end time.Time) (bool, error) {
	if !role.Valid() {
		return false, domain.ValidationError{Field: "role", Msg: "must be student or instructor"}
	}
	if strings.TrimSpace(subjectID) == "" {
		return false, domain.ValidationError{Field: "subject_id", Msg: "required"}
	}
	if !start.Before(end) {
		return false, domain.ValidationError{Field: "time_slot", Msg: "end must be after start"}
	}
	return s.Bookings.HasOverlap(ctx, subjectID, role, start, end)
}
