package utils

import (
	"testing"
	"time"
)

func TestParseSlotStartTruncatesToSeconds(t *testing.T) {
	want := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2026-07-01T10:00:00Z",
		"2026-07-01T10:00:00.600Z",
		"2026-07-01T10:00:00.999999999Z",
		" 2026-07-01T15:30:00.250+05:30 ",
	} {
		got, err := ParseSlotStart(in)
		if err != nil {
			t.Fatalf("ParseSlotStart(%q) error: %v", in, err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("ParseSlotStart(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseSlotStart("tomorrow"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFormatInstantMilliseconds(t *testing.T) {
	ts := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	if got := FormatInstant(ts); got != "2026-07-01T10:00:00.000Z" {
		t.Fatalf("FormatInstant = %q", got)
	}
}
