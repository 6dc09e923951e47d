// Package timeline maps frame periods to horizontal positions and resolves
// pointer input on the timeline back to frame indices.
package timeline

import (
	"math"
	"sort"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/rank"
)

// DefaultStep is the period distance between major tick marks.
const DefaultStep = 3

type Scrubber struct {
	scale   rank.Linear
	periods []int
}

// New builds a scrubber over fs spanning pixels [x0, x1]. fs must be sorted
// by period, as frames.Build returns them.
func New(fs []frames.Frame, x0, x1 float64) *Scrubber {
	return &Scrubber{
		scale:   rank.NewTimeScale(fs, x0, x1),
		periods: frames.Periods(fs),
	}
}

func (s *Scrubber) Scale() rank.Linear { return s.scale }
func (s *Scrubber) Len() int           { return len(s.periods) }

// X is the pointer position for period.
func (s *Scrubber) X(period int) float64 {
	return s.scale.Map(float64(period))
}

// Period estimates the period under pixel x, clamped to the timeline.
func (s *Scrubber) Period(x float64) int {
	return int(math.Round(s.scale.Invert(s.scale.Clamp(x))))
}

// Drag resolves a pointer drag at x to the latest frame whose period is at
// or below the estimate under the pointer. The result is always a valid
// index, and it never decreases as x grows.
func (s *Scrubber) Drag(x float64) int {
	if len(s.periods) == 0 {
		return 0
	}
	p := s.Period(x)
	i := sort.Search(len(s.periods), func(i int) bool { return s.periods[i] > p }) - 1
	return min(len(s.periods)-1, max(0, i))
}

// Click resolves a click at x to the frame whose period equals the rounded
// estimate. Clicks between frames resolve to nothing.
func (s *Scrubber) Click(x float64) (int, bool) {
	p := s.Period(x)
	i := sort.SearchInts(s.periods, p)
	if i < len(s.periods) && s.periods[i] == p {
		return i, true
	}
	return -1, false
}

// Tick is a timeline mark. Major ticks carry a label.
type Tick struct {
	Period int
	X      float64
	Major  bool
}

// Ticks returns one mark per period in [first, last]; periods divisible by
// step are major. When the span has more periods than the timeline has
// pixels, marks are thinned to multiples of a wider stride so there is at
// most about one mark per pixel.
func (s *Scrubber) Ticks(step int) []Tick {
	if len(s.periods) == 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}
	first, last := s.periods[0], s.periods[len(s.periods)-1]
	span := last - first
	stride, major := 1, step
	if limit := max(1, int(math.Abs(s.scale.R1-s.scale.R0))); span > limit {
		stride = step * ((span + limit*step - 1) / (limit * step))
		major = stride * step
	}
	start := first
	if r := ((first % stride) + stride) % stride; r != 0 {
		start += stride - r
	}
	out := make([]Tick, 0, span/stride+1)
	for p := start; p <= last; p += stride {
		out = append(out, Tick{Period: p, X: s.X(p), Major: p%major == 0})
	}
	return out
}
