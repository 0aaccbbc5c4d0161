package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseInstant parses an RFC3339 timestamp (with or without fraction) into UTC.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SlotPrecision is the resolution of the slot columns (DATETIME without fraction).
const SlotPrecision = time.Second

// ParseSlotStart parses a slot start and drops sub-second digits, so the value compared in
// memory is the value stored.
func ParseSlotStart(s string) (time.Time, error) {
	t, err := ParseInstant(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(SlotPrecision), nil
}

// ParseDateOrInstant accepts RFC3339 or plain YYYY-MM-DD (midnight UTC).
func ParseDateOrInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := ParseInstant(s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(layoutDate, s, time.UTC)
}

// FormatInstant renders t as RFC3339 in UTC with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in UTC.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(layoutDateTime)
}

// FormatDate formats time to YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}
