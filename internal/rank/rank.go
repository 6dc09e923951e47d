// Package rank selects the top-K entities of a frame and derives the scales
// that place them on screen.
package rank

import (
	"slices"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

// SelectTopK returns at most k entities of f ordered by descending value.
// Entities with equal values keep their relative order from the frame.
// The frame itself is not modified.
func SelectTopK(f frames.Frame, k int) []frames.Entity {
	if k <= 0 {
		return nil
	}
	sorted := slices.Clone(f.Entities)
	slices.SortStableFunc(sorted, func(a, b frames.Entity) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// Total is the running total of the visible selection.
func Total(selection []frames.Entity) int64 {
	var sum int64
	for _, e := range selection {
		sum += e.Value
	}
	return sum
}

// MaxValue returns the largest value in selection, or 0 if it is empty.
func MaxValue(selection []frames.Entity) int64 {
	var m int64
	for _, e := range selection {
		m = max(m, e.Value)
	}
	return m
}

// Names lists the selection's entity names in rank order.
func Names(selection []frames.Entity) []string {
	out := make([]string, len(selection))
	for i, e := range selection {
		out[i] = e.Name
	}
	return out
}
