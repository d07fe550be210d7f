package proxy

import "time"

// Scheduler tracks when the aggregator's next poll of its upstream
// directories is due. It mirrors the re-architecture note in the protocol
// specification: the next-fire time advances by interval regardless of how
// long the previous poll took, and a cursor that has slipped into the past
// yields a zero timeout (fire immediately) rather than a negative one.
type Scheduler struct {
	interval   time.Duration
	nextFireAt time.Time
}

// NewScheduler builds a Scheduler whose first fire is due immediately.
func NewScheduler(interval time.Duration, now time.Time) *Scheduler {
	return &Scheduler{interval: interval, nextFireAt: now}
}

// Due returns how long to wait before the next fire, clamped to a
// non-negative value. Callers pass it directly as a receive timeout.
func (s *Scheduler) Due(now time.Time) time.Duration {
	d := s.nextFireAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Advance moves the next-fire time forward by one interval from now,
// regardless of how long the poll that just ran took.
func (s *Scheduler) Advance(now time.Time) {
	s.nextFireAt = now.Add(s.interval)
}
