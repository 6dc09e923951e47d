// Package playback owns the current frame index and the play/pause flag.
//
// State transitions are pure functions: they take a State and return the
// next one, so the autonomous tick and user input compose without shared
// mutable state. Hosts drive Tick from whatever per-frame callback they have
// (a bubbletea tick, a test clock) and stop rescheduling when it says so.
package playback

import "time"

// DefaultInterval is the minimum time a frame stays on screen while playing.
const DefaultInterval = 100 * time.Millisecond

type State struct {
	Index     int
	Playing   bool
	ClockMark time.Time
}

// Start is the state once frames become available: first frame, playing.
func Start(now time.Time) State {
	return State{Index: 0, Playing: true, ClockMark: now}
}

// TogglePlay flips between playing and paused. Resuming resets the clock
// mark so the current frame gets a full interval on screen.
func (s State) TogglePlay(now time.Time) State {
	s.Playing = !s.Playing
	if s.Playing {
		s.ClockMark = now
	}
	return s
}

// Pause stops autonomous advancement. A drag start is a pause.
func (s State) Pause() State {
	s.Playing = false
	return s
}

// DragStart pauses playback when the user grabs the timeline pointer.
func (s State) DragStart() State { return s.Pause() }

// Seek jumps to index i without touching the play flag.
func (s State) Seek(i int, now time.Time) State {
	s.Index = i
	s.ClockMark = now
	return s
}

// ClickSeek pauses and jumps to i if i differs from the current index.
// Clicking the frame already shown changes nothing.
func (s State) ClickSeek(i int, now time.Time) State {
	if i == s.Index {
		return s
	}
	return s.Pause().Seek(i, now)
}

// Step moves delta frames, wrapping in both directions, and pauses.
func (s State) Step(delta, frameCount int, now time.Time) State {
	if frameCount <= 0 {
		return s
	}
	i := ((s.Index+delta)%frameCount + frameCount) % frameCount
	return s.Pause().Seek(i, now)
}

// Tick evaluates one frame callback at now. While playing, once more than
// interval has elapsed since the clock mark, it advances exactly one frame
// (wrapping to 0 after the last) and moves the mark to now. The returned
// flag tells the host whether to schedule another callback.
func Tick(s State, now time.Time, interval time.Duration, frameCount int) (State, bool) {
	if !s.Playing || frameCount <= 0 {
		return s, false
	}
	if now.Sub(s.ClockMark) > interval {
		s.Index = (s.Index + 1) % frameCount
		s.ClockMark = now
	}
	return s, true
}

// Clamp keeps s.Index within [0, frameCount-1].
func (s State) Clamp(frameCount int) State {
	if frameCount <= 0 {
		s.Index = 0
		return s
	}
	s.Index = min(frameCount-1, max(0, s.Index))
	return s
}
