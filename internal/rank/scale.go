package rank

import (
	"math"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

// Linear maps a continuous domain onto a continuous range.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

func (s Linear) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

func (s Linear) Invert(px float64) float64 {
	if s.R1 == s.R0 || s.D1 == s.D0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Clamp limits px to the scale's range.
func (s Linear) Clamp(px float64) float64 {
	lo, hi := min(s.R0, s.R1), max(s.R0, s.R1)
	return min(hi, max(lo, px))
}

// Ticks returns roughly n evenly spaced round values covering the domain,
// using 1, 2 and 5 multiples of a power of ten.
func (s Linear) Ticks(n int) []float64 {
	lo, hi := min(s.D0, s.D1), max(s.D0, s.D1)
	if n <= 0 || lo == hi {
		return []float64{lo}
	}
	step := tickStep(lo, hi, n)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return []float64{lo}
	}
	start := math.Ceil(lo / step)
	stop := math.Floor(hi / step)
	// steps below 1 are decimal fractions; round off float noise like 0.6000000000000001
	scale := 1.0
	if step < 1 {
		scale = math.Pow(10, math.Ceil(-math.Log10(step)))
	}
	out := make([]float64, 0, int(stop-start)+1)
	for i := start; i <= stop; i++ {
		out = append(out, math.Round(i*step*scale)/scale)
	}
	return out
}

func tickStep(lo, hi float64, n int) float64 {
	raw := (hi - lo) / float64(n)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	switch e := raw / power; {
	case e >= math.Sqrt(50):
		return power * 10
	case e >= math.Sqrt(10):
		return power * 5
	case e >= math.Sqrt(2):
		return power * 2
	}
	return power
}

// NewValueScale maps [0, max value of selection] onto [r0, r1]. An all-zero
// selection uses [0, 1] so the domain never collapses.
func NewValueScale(selection []frames.Entity, r0, r1 float64) Linear {
	hi := float64(MaxValue(selection))
	if hi < 1 {
		hi = 1
	}
	return Linear{D0: 0, D1: hi, R0: r0, R1: r1}
}

// NewTimeScale maps the first and last frame periods onto [r0, r1]. It is
// computed once per dataset.
func NewTimeScale(fs []frames.Frame, r0, r1 float64) Linear {
	if len(fs) == 0 {
		return Linear{R0: r0, R1: r1}
	}
	return Linear{
		D0: float64(fs[0].Period),
		D1: float64(fs[len(fs)-1].Period),
		R0: r0,
		R1: r1,
	}
}

// Band assigns each key a disjoint slot of equal size within a range, with
// padding expressed as a fraction of the step between slots.
type Band struct {
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBand lays out the selection's names, in rank order, over [r0, r1].
// padding applies both between slots and at either end.
func NewBand(selection []frames.Entity, r0, r1, padding float64) Band {
	return NewBandKeys(Names(selection), r0, r1, padding)
}

func NewBandKeys(keys []string, r0, r1, padding float64) Band {
	padding = min(1, max(0, padding))
	b := Band{index: make(map[string]int, len(keys))}
	for _, k := range keys {
		if _, ok := b.index[k]; !ok {
			b.index[k] = len(b.index)
		}
	}
	n := float64(len(b.index))
	b.step = (r1 - r0) / max(1, n-padding+padding*2)
	b.start = r0 + (r1-r0-b.step*(n-padding))/2
	b.bandwidth = b.step * (1 - padding)
	return b
}

// Position returns the start of key's slot.
func (b Band) Position(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}

func (b Band) Bandwidth() float64 { return b.bandwidth }

// Len is the number of slots.
func (b Band) Len() int { return len(b.index) }
