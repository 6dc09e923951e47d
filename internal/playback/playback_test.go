package playback

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// frameClock replays display refresh callbacks at a fixed rate.
type frameClock struct {
	now  time.Time
	step time.Duration
}

func (c *frameClock) next() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func TestTickAdvancesAndWraps(t *testing.T) {
	const frameCount = 71 // 1950..2020
	s := Start(t0)
	clock := &frameClock{now: t0, step: 16 * time.Millisecond}

	advanced := 0
	for advanced < frameCount {
		prev := s.Index
		var again bool
		s, again = Tick(s, clock.next(), DefaultInterval, frameCount)
		if !again {
			t.Fatal("playing loop asked not to reschedule")
		}
		if s.Index != prev {
			if want := (prev + 1) % frameCount; s.Index != want {
				t.Fatalf("advanced %d -> %d, want %d", prev, s.Index, want)
			}
			advanced++
			if advanced == 1 && s.Index != 1 {
				t.Fatalf("first advance landed on %d", s.Index)
			}
		}
	}
	if s.Index != 0 {
		t.Fatalf("after %d advances index = %d, want wrap to 0", frameCount, s.Index)
	}
}

func TestTickAtMostOncePerCallback(t *testing.T) {
	s := Start(t0)
	// a long stall (e.g. a hidden window) still advances only one frame
	s, _ = Tick(s, t0.Add(10*time.Second), DefaultInterval, 10)
	if s.Index != 1 {
		t.Fatalf("index = %d, want 1", s.Index)
	}
	if !s.ClockMark.Equal(t0.Add(10 * time.Second)) {
		t.Errorf("clock mark not reset: %v", s.ClockMark)
	}
}

func TestTickThresholdIsStrict(t *testing.T) {
	s := Start(t0)
	s, _ = Tick(s, t0.Add(DefaultInterval), DefaultInterval, 10)
	if s.Index != 0 {
		t.Fatalf("advanced at exactly one interval")
	}
	s, _ = Tick(s, t0.Add(DefaultInterval+time.Millisecond), DefaultInterval, 10)
	if s.Index != 1 {
		t.Fatalf("did not advance past the interval")
	}
}

func TestTickRateBoundedByRefresh(t *testing.T) {
	// refresh slower than the interval: one advance per callback
	s := Start(t0)
	clock := &frameClock{now: t0, step: 250 * time.Millisecond}
	for i := 1; i <= 5; i++ {
		s, _ = Tick(s, clock.next(), DefaultInterval, 100)
		if s.Index != i {
			t.Fatalf("callback %d: index = %d", i, s.Index)
		}
	}
}

func TestTickPausedDoesNothing(t *testing.T) {
	s := Start(t0).Pause()
	next, again := Tick(s, t0.Add(time.Hour), DefaultInterval, 10)
	if again {
		t.Error("paused loop asked to reschedule")
	}
	if next != s {
		t.Errorf("paused tick changed state: %+v -> %+v", s, next)
	}
	if _, again := Tick(Start(t0), t0.Add(time.Hour), DefaultInterval, 0); again {
		t.Error("empty dataset asked to reschedule")
	}
}

func TestTogglePlay(t *testing.T) {
	s := Start(t0)
	s = s.TogglePlay(t0.Add(time.Second))
	if s.Playing {
		t.Fatal("toggle did not pause")
	}
	resume := t0.Add(5 * time.Second)
	s = s.TogglePlay(resume)
	if !s.Playing || !s.ClockMark.Equal(resume) {
		t.Fatalf("resume = %+v", s)
	}
}

func TestDragAndSeek(t *testing.T) {
	s := Start(t0).DragStart()
	if s.Playing {
		t.Fatal("drag start did not pause")
	}
	at := t0.Add(time.Second)
	s = s.Seek(7, at)
	if s.Index != 7 || !s.ClockMark.Equal(at) || s.Playing {
		t.Fatalf("seek = %+v", s)
	}
	// seek alone never pauses
	p := Start(t0).Seek(3, at)
	if !p.Playing {
		t.Error("Seek paused playback")
	}
}

func TestClickSeek(t *testing.T) {
	at := t0.Add(time.Second)
	s := Start(t0).ClickSeek(4, at)
	if s.Playing || s.Index != 4 || !s.ClockMark.Equal(at) {
		t.Fatalf("click seek = %+v", s)
	}
	same := Start(t0).ClickSeek(0, at)
	if !same.Playing || !same.ClockMark.Equal(t0) {
		t.Fatalf("click on current frame changed state: %+v", same)
	}
}

func TestStep(t *testing.T) {
	s := Start(t0).Step(-1, 5, t0)
	if s.Index != 4 || s.Playing {
		t.Fatalf("step back from 0 = %+v", s)
	}
	s = s.Step(1, 5, t0)
	if s.Index != 0 {
		t.Fatalf("step forward from last = %+v", s)
	}
}

func TestClamp(t *testing.T) {
	if got := (State{Index: 9}).Clamp(3).Index; got != 2 {
		t.Errorf("Clamp high = %d", got)
	}
	if got := (State{Index: -2}).Clamp(3).Index; got != 0 {
		t.Errorf("Clamp low = %d", got)
	}
	if got := (State{Index: 2}).Clamp(0).Index; got != 0 {
		t.Errorf("Clamp empty = %d", got)
	}
}

func TestLoopGenerations(t *testing.T) {
	var l Loop
	if l.Running() {
		t.Fatal("new loop running")
	}
	g1 := l.Restart()
	cb := Callback{Gen: g1, At: t0}
	if !l.Accept(cb) {
		t.Fatal("live callback rejected")
	}
	g2 := l.Restart()
	if g2 == g1 {
		t.Fatal("restart reused generation")
	}
	if l.Accept(cb) {
		t.Error("stale callback accepted after restart")
	}
	l.Cancel()
	if l.Accept(Callback{Gen: g2}) || l.Running() {
		t.Error("callback accepted after cancel")
	}
	g3 := l.Restart()
	l.Stop()
	if l.Accept(Callback{Gen: g3}) {
		t.Error("callback accepted after stop")
	}
}
