package reconcile

import (
	"time"
)

// DefaultDuration is the length of every transition.
const DefaultDuration = 90 * time.Millisecond

// Target is where an element should end up after the next transition.
type Target[D any] struct {
	Key    string
	Y      float64
	Length float64
	Value  float64
	Data   D
}

// Element is a sampled element. T is the eased transition progress in
// [0, 1]; From is the payload the transition started from, so renderers can
// blend attributes such as colour.
type Element[D any] struct {
	Key      string
	Y        float64
	Length   float64
	Value    float64
	T        float64
	From     D
	Data     D
	Entering bool
	Exiting  bool
}

type attrs struct {
	y, length, value float64
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func (a attrs) towards(b attrs, t float64) attrs {
	return attrs{
		y:      lerp(a.y, b.y, t),
		length: lerp(a.length, b.length, t),
		value:  lerp(a.value, b.value, t),
	}
}

type element[D any] struct {
	key      string
	from, to attrs
	fromData D
	data     D
	start    time.Time
	entering bool
	exiting  bool
}

// Stage keeps the visual elements between selections. Every transition it
// starts lasts exactly the stage's duration, independent of the data.
type Stage[D any] struct {
	duration   time.Duration
	offscreenY float64

	elems map[string]*element[D]
	order []string
}

// NewStage creates a stage. Entering elements start at offscreenY and
// exiting ones travel there before they are removed.
func NewStage[D any](duration time.Duration, offscreenY float64) *Stage[D] {
	if duration < 0 {
		duration = 0
	}
	return &Stage[D]{
		duration:   duration,
		offscreenY: offscreenY,
		elems:      make(map[string]*element[D]),
	}
}

func (s *Stage[D]) progress(start, now time.Time) float64 {
	if s.duration == 0 {
		return 1
	}
	t := float64(now.Sub(start)) / float64(s.duration)
	return min(1, max(0, t))
}

func (e *element[D]) sample(t float64) attrs {
	return e.from.towards(e.to, easeCubicInOut(t))
}

// visible lists the live (non-exiting) elements at their current targets.
func (s *Stage[D]) visible() []Item[string] {
	var out []Item[string]
	for _, k := range s.order {
		e := s.elems[k]
		if e.exiting {
			continue
		}
		out = append(out, Item[string]{Key: k, Position: e.to.y, Value: e.to.value})
	}
	return out
}

// Apply reconciles the stage with the next selection and starts the
// transitions at now. It returns the diff it applied.
func (s *Stage[D]) Apply(targets []Target[D], now time.Time) Diff[string] {
	next := make([]Item[string], len(targets))
	byKey := make(map[string]Target[D], len(targets))
	for i, tg := range targets {
		next[i] = Item[string]{Key: tg.Key, Position: tg.Y, Value: tg.Value}
		byKey[tg.Key] = tg
	}
	diff := Compute(s.visible(), next)

	for _, k := range diff.Exiting {
		e := s.elems[k]
		cur := e.sample(s.progress(e.start, now))
		e.from = cur
		e.to = attrs{y: s.offscreenY, length: cur.length, value: cur.value}
		e.fromData = e.data
		e.start = now
		e.entering = false
		e.exiting = true
	}
	for _, k := range diff.Persisting {
		e := s.elems[k]
		tg := byKey[k]
		e.from = e.sample(s.progress(e.start, now))
		e.to = attrs{y: tg.Y, length: tg.Length, value: tg.Value}
		e.fromData = e.data
		e.data = tg.Data
		e.start = now
		e.entering = false
	}
	for _, k := range diff.Entering {
		tg := byKey[k]
		e, ok := s.elems[k]
		if ok {
			// Still sliding out from an earlier exit: turn around from
			// where it is.
			e.from = e.sample(s.progress(e.start, now))
			e.fromData = e.data
		} else {
			e = &element[D]{
				key:      k,
				from:     attrs{y: s.offscreenY, length: 0, value: tg.Value},
				fromData: tg.Data,
			}
			s.elems[k] = e
		}
		e.to = attrs{y: tg.Y, length: tg.Length, value: tg.Value}
		e.data = tg.Data
		e.start = now
		e.entering = true
		e.exiting = false
	}

	order := make([]string, 0, len(s.elems))
	for _, k := range s.order {
		if s.elems[k].exiting {
			order = append(order, k)
		}
	}
	for _, tg := range targets {
		if !contains(order, tg.Key) {
			order = append(order, tg.Key)
		}
	}
	s.order = order
	return diff
}

func contains(ks []string, k string) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

// Sample returns every element interpolated at now, exiting ones first.
// Exits whose transition has finished are removed from the stage.
func (s *Stage[D]) Sample(now time.Time) []Element[D] {
	out := make([]Element[D], 0, len(s.order))
	kept := s.order[:0]
	for _, k := range s.order {
		e := s.elems[k]
		t := s.progress(e.start, now)
		if e.exiting && t >= 1 {
			delete(s.elems, k)
			continue
		}
		kept = append(kept, k)
		a := e.sample(t)
		out = append(out, Element[D]{
			Key:      k,
			Y:        a.y,
			Length:   a.length,
			Value:    a.value,
			T:        easeCubicInOut(t),
			From:     e.fromData,
			Data:     e.data,
			Entering: e.entering && t < 1,
			Exiting:  e.exiting,
		})
	}
	s.order = kept
	return out
}

// Active reports whether any transition is still running at now.
func (s *Stage[D]) Active(now time.Time) bool {
	for _, e := range s.elems {
		if s.progress(e.start, now) < 1 {
			return true
		}
	}
	return false
}

// Len is the number of elements on the stage, exiting ones included.
func (s *Stage[D]) Len() int { return len(s.elems) }

// Reset drops every element, e.g. after a new dataset was loaded.
func (s *Stage[D]) Reset() {
	s.elems = make(map[string]*element[D])
	s.order = nil
}

func easeCubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
