package services

import (
	"testing"
	"time"

	"sessionbook/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRefundTiers(t *testing.T) {
	start := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		now  time.Time
		by   domain.CancelledBy
		paid int64
		want int64
	}{
		{"instructor after start", start.Add(time.Hour), domain.RoleInstructor, 1000, 1000},
		{"student 30h before", start.Add(-30 * time.Hour), domain.RoleStudent, 1000, 1000},
		{"student exactly 24h before", start.Add(-24 * time.Hour), domain.RoleStudent, 1000, 1000},
		{"student just under 24h", start.Add(-24*time.Hour + time.Second), domain.RoleStudent, 1000, 500},
		{"student 10h before", start.Add(-10 * time.Hour), domain.RoleStudent, 1000, 500},
		{"student half floors", start.Add(-2 * time.Hour), domain.RoleStudent, 999, 499},
		{"student at start", start, domain.RoleStudent, 1000, 0},
		{"student after start", start.Add(time.Minute), domain.RoleStudent, 1000, 0},
		{"nothing paid", start.Add(-48 * time.Hour), domain.RoleInstructor, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateRefund(tc.paid, start, tc.now, tc.by))
		})
	}
}

func TestMeetingIDFormat(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "session_s1_1767323045000", MeetingID("s1", start))
	// same instant in another zone names the same room
	ist := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, MeetingID("s1", start), MeetingID("s1", start.In(ist)))
}
