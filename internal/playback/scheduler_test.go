package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeOutput struct {
	mu         sync.Mutex
	played     [][]float32
	closeCount int
}

func (o *fakeOutput) Play(samples []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.played = append(o.played, samples)
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeCount++
	return nil
}

func newTestScheduler(clock Clock) (*Scheduler, *fakeOutput) {
	out := &fakeOutput{}
	s := NewScheduler(SchedulerConfig{Output: out, Clock: clock, Logger: zerolog.Nop()})
	return s, out
}

func TestEnqueueIsGapless(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	s, _ := newTestScheduler(clock)
	defer s.Close()

	d1 := 300 * time.Millisecond
	d2 := 150 * time.Millisecond
	d3 := 450 * time.Millisecond

	start1 := s.Enqueue(Segment{Duration: d1})
	start2 := s.Enqueue(Segment{Duration: d2})
	start3 := s.Enqueue(Segment{Duration: d3})

	// Device clock never exceeds the running total, so the chain is exact:
	// no gap, no overlap.
	if !start2.Equal(start1.Add(d1)) {
		t.Fatalf("expected start2 == start1+d1, got %v vs %v", start2, start1.Add(d1))
	}
	if !start3.Equal(start2.Add(d2)) {
		t.Fatalf("expected start3 == start2+d2, got %v vs %v", start3, start2.Add(d2))
	}
	if next := s.NextPlaybackTime(); !next.Equal(start3.Add(d3)) {
		t.Fatalf("expected next == start3+d3, got %v", next)
	}
}

func TestEnqueueNeverStartsInThePast(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	s, _ := newTestScheduler(clock)
	defer s.Close()

	s.Enqueue(Segment{Duration: 100 * time.Millisecond})

	// The queue drained long ago; the next segment starts now, not at the
	// stale next-playback time.
	clock.advance(5 * time.Second)
	start := s.Enqueue(Segment{Duration: 100 * time.Millisecond})
	if !start.Equal(clock.Now()) {
		t.Fatalf("expected start at device clock now, got %v vs %v", start, clock.Now())
	}
}

func TestInterruptResetsSchedule(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	s, _ := newTestScheduler(clock)
	defer s.Close()

	// Build up a queued future.
	s.Enqueue(Segment{Duration: 10 * time.Second})
	preInterruptNext := s.NextPlaybackTime()

	clock.advance(time.Second)
	s.Interrupt()

	d := 250 * time.Millisecond
	start := s.Enqueue(Segment{Duration: d})

	if !start.Equal(clock.Now()) {
		t.Fatalf("expected post-interrupt segment to start immediately, got %v vs %v", start, clock.Now())
	}
	if start.Equal(preInterruptNext) {
		t.Fatal("segment must not start at the pre-interruption queued time")
	}
	if next := s.NextPlaybackTime(); !next.Equal(start.Add(d)) {
		t.Fatalf("expected next == clock-at-enqueue + duration, got %v", next)
	}
}

func TestDueSegmentsReachTheDevice(t *testing.T) {
	s, out := newTestScheduler(nil) // system clock
	defer s.Close()

	s.Enqueue(Segment{Samples: []float32{0.1, 0.2}, Duration: time.Millisecond})

	var played bool
	for i := 0; i < 100; i++ {
		out.mu.Lock()
		played = len(out.played) > 0
		out.mu.Unlock()
		if played {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !played {
		t.Fatal("expected the due segment to be written to the output")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	s, out := newTestScheduler(clock)

	s.Enqueue(Segment{Duration: time.Hour})

	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closeCount != 1 {
		t.Fatalf("expected the output device to be released exactly once, got %d", out.closeCount)
	}
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	s, out := newTestScheduler(clock)
	s.Close()

	if start := s.Enqueue(Segment{Duration: time.Second}); !start.IsZero() {
		t.Fatalf("expected zero start after close, got %v", start)
	}

	time.Sleep(20 * time.Millisecond)
	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.played) != 0 {
		t.Fatal("expected nothing to play after close")
	}
}
