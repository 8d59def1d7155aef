package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clock abstracts the device clock so scheduling is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Segment is one decoded unit of inbound audio plus its playback length.
// It is owned by the Scheduler between enqueue and device consumption.
type Segment struct {
	Samples  []float32
	Duration time.Duration
}

// Scheduler plays segments back-to-back with no gap and no overlap.
// Segments arrive asynchronously; ordering is by enqueue order, carried by
// the monotonic next-playback time, not by wall-clock decode completion.
type Scheduler struct {
	out   Output
	clock Clock
	log   zerolog.Logger

	mu     sync.Mutex
	next   time.Time
	timers map[*time.Timer]struct{}
	closed bool
}

// SchedulerConfig wires a Scheduler. Clock defaults to the system clock.
type SchedulerConfig struct {
	Output Output
	Clock  Clock
	Logger zerolog.Logger
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Scheduler{
		out:    cfg.Output,
		clock:  clock,
		log:    cfg.Logger,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Enqueue schedules a segment to start at max(now, nextPlaybackTime) and
// advances nextPlaybackTime by the segment's duration. Returns the
// computed start time.
func (s *Scheduler) Enqueue(seg Segment) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return time.Time{}
	}

	now := s.clock.Now()
	startAt := now
	if s.next.After(now) {
		startAt = s.next
	}
	s.next = startAt.Add(seg.Duration)

	var timer *time.Timer
	timer = time.AfterFunc(startAt.Sub(now), func() {
		s.mu.Lock()
		delete(s.timers, timer)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.out.Play(seg.Samples)
	})
	s.timers[timer] = struct{}{}

	return startAt
}

// Interrupt resets nextPlaybackTime to now, so the next enqueued segment
// starts immediately instead of after the cancelled queue. Sound that is
// already scheduled keeps playing; the brief overlap is tolerated.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next = s.clock.Now()
	s.log.Debug().Msg("Playback interrupted, schedule reset")
}

// NextPlaybackTime reports the earliest start for the next segment.
func (s *Scheduler) NextPlaybackTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Close stops pending timers and releases the output device. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for timer := range s.timers {
		timer.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	return s.out.Close()
}
