// Package reconcile computes enter/update/exit sets between two successive
// visible selections and drives fixed-duration transitions from them.
package reconcile

// Item is one keyed visual element with the attributes that animate.
type Item[K comparable] struct {
	Key      K
	Position float64
	Value    float64
}

// Delta is the change of a persisting element.
type Delta struct {
	FromPosition, ToPosition float64
	FromValue, ToValue       float64
}

func (d Delta) Moved() bool   { return d.FromPosition != d.ToPosition }
func (d Delta) Changed() bool { return d.FromValue != d.ToValue }

// Diff partitions the union of two selections into three disjoint sets.
// Entering and Persisting follow next's order, Exiting follows prev's.
type Diff[K comparable] struct {
	Entering   []K
	Persisting []K
	Exiting    []K
	Deltas     map[K]Delta
}

// Compute diffs prev against next. Duplicate keys count once; the first
// occurrence wins.
func Compute[K comparable](prev, next []Item[K]) Diff[K] {
	before := make(map[K]Item[K], len(prev))
	for _, it := range prev {
		if _, ok := before[it.Key]; !ok {
			before[it.Key] = it
		}
	}
	d := Diff[K]{Deltas: make(map[K]Delta)}
	after := make(map[K]struct{}, len(next))
	for _, it := range next {
		if _, dup := after[it.Key]; dup {
			continue
		}
		after[it.Key] = struct{}{}
		old, ok := before[it.Key]
		if !ok {
			d.Entering = append(d.Entering, it.Key)
			continue
		}
		d.Persisting = append(d.Persisting, it.Key)
		d.Deltas[it.Key] = Delta{
			FromPosition: old.Position,
			ToPosition:   it.Position,
			FromValue:    old.Value,
			ToValue:      it.Value,
		}
	}
	seen := make(map[K]struct{}, len(prev))
	for _, it := range prev {
		if _, ok := after[it.Key]; ok {
			continue
		}
		if _, dup := seen[it.Key]; dup {
			continue
		}
		seen[it.Key] = struct{}{}
		d.Exiting = append(d.Exiting, it.Key)
	}
	return d
}
