// Package jobs holds background work that runs next to the HTTP server.
package jobs

import (
	"context"
	"time"

	"sessionbook/internal/events"
	"sessionbook/internal/utils"

	"go.uber.org/zap"
)

type BookingCompleter interface {
	MarkCompleted(ctx context.Context, now, cutoff time.Time) (int64, error)
}

// CompletionSweeper closes booked slots that ended at least Buffer ago. The update is
// set-based and gated on status=booked, so overlapping runs and a racing cancel are safe.
type CompletionSweeper struct {
	Bookings  BookingCompleter
	Publisher events.Publisher
	Interval  time.Duration
	Buffer    time.Duration
	Now       func() time.Time
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s CompletionSweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	utils.LogEvent("", "sweeper", "start", "completion sweeper running", zap.Duration("interval", interval), zap.Duration("buffer", s.Buffer))
	s.sweepLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			utils.LogEvent("", "sweeper", "stop", "completion sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweepLogged(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns how many bookings were completed.
func (s CompletionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	n, err := s.Bookings.MarkCompleted(ctx, now, now.Add(-s.Buffer))
	if err != nil {
		return 0, err
	}
	if n > 0 && s.Publisher != nil {
		if err := s.Publisher.PublishJSON(ctx, events.KeyBookingCompleted, events.BookingsCompleted{Count: n, At: now}); err != nil {
			utils.LogError("", "events", "publish", err, zap.String("key", events.KeyBookingCompleted))
		}
	}
	return n, nil
}

func (s CompletionSweeper) sweepLogged(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			utils.LogError("", "sweeper", "sweep", err)
		}
		return
	}
	if n > 0 {
		utils.LogEvent("", "sweeper", "sweep", "bookings completed", zap.Int64("count", n))
	}
}
