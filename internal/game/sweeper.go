package game

import (
	"context"
	"time"
)

// Sweeper periodically removes finished sessions from memory.
type Sweeper struct {
	coordinator *Coordinator
	interval    time.Duration
}

func NewSweeper(coordinator *Coordinator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{coordinator: coordinator, interval: interval}
}

func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.coordinator.Sweep(now)
		}
	}
}

func (s *Sweeper) String() string {
	return "session-sweeper"
}
