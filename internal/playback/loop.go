package playback

import "time"

// Callback is one scheduled frame callback. Gen identifies the loop that
// scheduled it.
type Callback struct {
	Gen uint64
	At  time.Time
}

// Loop tracks the self-rescheduling frame callback chain. Host primitives
// like tui.Tick cannot be revoked once issued, so cancellation works by
// generation: Cancel and Restart bump the generation and any callback from an
// older chain is reported stale by Accept.
type Loop struct {
	gen     uint64
	running bool
}

// Restart cancels any running chain and returns the generation new
// callbacks must carry.
func (l *Loop) Restart() uint64 {
	l.gen++
	l.running = true
	return l.gen
}

// Cancel stops the current chain.
func (l *Loop) Cancel() {
	l.gen++
	l.running = false
}

// Running reports whether a chain is live.
func (l *Loop) Running() bool { return l.running }

// Gen is the generation of the live chain.
func (l *Loop) Gen() uint64 { return l.gen }

// Accept reports whether cb belongs to the live chain.
func (l *Loop) Accept(cb Callback) bool {
	return l.running && cb.Gen == l.gen
}

// Stop marks the live chain as finished because its last callback chose not
// to reschedule.
func (l *Loop) Stop() { l.running = false }
