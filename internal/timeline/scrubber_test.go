package timeline

import (
	"testing"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

func yearly(from, to int) []frames.Frame {
	var fs []frames.Frame
	for y := from; y <= to; y++ {
		fs = append(fs, frames.Frame{Period: y})
	}
	return fs
}

func periods(ps ...int) []frames.Frame {
	fs := make([]frames.Frame, len(ps))
	for i, p := range ps {
		fs[i] = frames.Frame{Period: p}
	}
	return fs
}

func TestClickAtMidpoint(t *testing.T) {
	fs := yearly(1950, 2020)
	s := New(fs, 110, 1280)
	i, ok := s.Click(695)
	if !ok {
		t.Fatal("click at midpoint did not resolve")
	}
	if fs[i].Period != 1985 {
		t.Errorf("click resolved to %d, want 1985", fs[i].Period)
	}
}

func TestClickExactMatchOnly(t *testing.T) {
	fs := periods(1950, 1960, 1970)
	s := New(fs, 0, 200)
	if _, ok := s.Click(s.X(1955)); ok {
		t.Error("click between frames resolved")
	}
	if i, ok := s.Click(s.X(1960)); !ok || i != 1 {
		t.Errorf("Click(1960) = %d, %v", i, ok)
	}
	// outside the range clamps to the ends
	if i, ok := s.Click(-50); !ok || i != 0 {
		t.Errorf("Click(left of range) = %d, %v", i, ok)
	}
	if i, ok := s.Click(999); !ok || i != 2 {
		t.Errorf("Click(right of range) = %d, %v", i, ok)
	}
}

func TestDragNearestAtOrBelow(t *testing.T) {
	fs := periods(1950, 1960, 1970)
	s := New(fs, 0, 200)
	tests := []struct {
		period int
		want   int
	}{
		{1950, 0},
		{1955, 0},
		{1959, 0},
		{1960, 1},
		{1969, 1},
		{1970, 2},
	}
	for _, tt := range tests {
		if got := s.Drag(s.X(tt.period)); got != tt.want {
			t.Errorf("Drag(%d) = %d, want %d", tt.period, got, tt.want)
		}
	}
	if got := s.Drag(-1000); got != 0 {
		t.Errorf("Drag(far left) = %d", got)
	}
	if got := s.Drag(1000); got != 2 {
		t.Errorf("Drag(far right) = %d", got)
	}
}

func TestDragMonotonic(t *testing.T) {
	fs := periods(1900, 1901, 1905, 1930, 1931, 1990, 2000)
	s := New(fs, 110, 1280)
	prev := -1
	for x := 0.0; x <= 1400; x += 0.5 {
		got := s.Drag(x)
		if got < prev {
			t.Fatalf("Drag(%v) = %d after %d", x, got, prev)
		}
		if got < 0 || got >= len(fs) {
			t.Fatalf("Drag(%v) = %d out of range", x, got)
		}
		prev = got
	}
	if prev != len(fs)-1 {
		t.Errorf("drag never reached the last frame: %d", prev)
	}
}

func TestSingleFrame(t *testing.T) {
	s := New(periods(2000), 0, 100)
	if got := s.Drag(10); got != 0 {
		t.Errorf("Drag = %d", got)
	}
	if i, ok := s.Click(90); !ok || i != 0 {
		t.Errorf("Click = %d, %v", i, ok)
	}
}

func TestEmpty(t *testing.T) {
	s := New(nil, 0, 100)
	if got := s.Drag(10); got != 0 {
		t.Errorf("Drag = %d", got)
	}
	if _, ok := s.Click(10); ok {
		t.Error("click on empty timeline resolved")
	}
	if ticks := s.Ticks(3); ticks != nil {
		t.Errorf("ticks = %v", ticks)
	}
}

func TestTicks(t *testing.T) {
	s := New(yearly(1950, 1960), 0, 100)
	ticks := s.Ticks(3)
	if len(ticks) != 11 {
		t.Fatalf("len = %d", len(ticks))
	}
	var majors []int
	for _, tk := range ticks {
		if tk.Major {
			majors = append(majors, tk.Period)
		}
	}
	want := []int{1950, 1953, 1956, 1959}
	if len(majors) != len(want) {
		t.Fatalf("majors = %v, want %v", majors, want)
	}
	for i := range want {
		if majors[i] != want[i] {
			t.Fatalf("majors = %v, want %v", majors, want)
		}
	}
	if ticks[0].X != 0 || ticks[len(ticks)-1].X != 100 {
		t.Errorf("tick ends = %v..%v", ticks[0].X, ticks[len(ticks)-1].X)
	}
}

func TestTicksSparseSpan(t *testing.T) {
	s := New(periods(2000, 99999999), 0, 100)
	ticks := s.Ticks(3)
	if len(ticks) == 0 || len(ticks) > 101 {
		t.Fatalf("len = %d, want between 1 and 101", len(ticks))
	}
	for i, tk := range ticks {
		if tk.Period < 2000 || tk.Period > 99999999 {
			t.Errorf("tick %d period %d out of span", i, tk.Period)
		}
		if i > 0 && tk.Period <= ticks[i-1].Period {
			t.Errorf("ticks not increasing at %d", i)
		}
	}
}
