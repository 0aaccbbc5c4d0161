package models

import "time"

// Session is the bookable offering owned by an instructor. The core only reads it.
type Session struct {
	ID              string `json:"id"`
	InstructorID    string `json:"instructorId"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration"`
	Fee             int64  `json:"fees"`
	IsArchived      bool   `json:"isArchived"`
}

func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// SlotEnd derives the end of a slot that starts at start.
func (s Session) SlotEnd(start time.Time) time.Time {
	return start.Add(s.Duration())
}

type WishlistEntry struct {
	StudentID string    `json:"studentId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}
