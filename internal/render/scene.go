// Package render paints the current frame: a terminal chart for the
// interactive UI and a fixed-size SVG canvas for exports.
package render

import (
	"github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/rank"
	"github.com/keilerkonzept/barchart-race-tui/internal/reconcile"
)

// DefaultMaxBars is K, the number of bars shown per frame.
const DefaultMaxBars = 10

// Bar is the payload carried by every staged element.
type Bar struct {
	Name       string
	Value      int64
	Category   string
	Color      string
	Decoration string
}

// Geometry is the part of a layout the scene needs: where bars go.
type Geometry struct {
	ValueX0, ValueX1 float64
	BandY0           float64
	BarHeight        float64
	Padding          float64
	MaxBars          int
}

// Scene is everything derived from one frame. It is rebuilt on every frame
// change and never mutated.
type Scene struct {
	Period    int
	Selection []frames.Entity
	Value     rank.Linear
	Band      rank.Band
	Total     int64
	Targets   []reconcile.Target[Bar]
}

func NewScene(f frames.Frame, g Geometry, schema *config.Schema) Scene {
	if schema == nil {
		schema = config.Default()
	}
	k := g.MaxBars
	if k <= 0 {
		k = DefaultMaxBars
	}
	sel := rank.SelectTopK(f, k)
	value := rank.NewValueScale(sel, g.ValueX0, g.ValueX1)
	band := rank.NewBand(sel, g.BandY0, g.BandY0+g.BarHeight*float64(len(sel)), g.Padding)

	targets := make([]reconcile.Target[Bar], len(sel))
	for i, e := range sel {
		y, _ := band.Position(e.Name)
		targets[i] = reconcile.Target[Bar]{
			Key:    e.Name,
			Y:      y,
			Length: value.Map(float64(e.Value)) - g.ValueX0,
			Value:  float64(e.Value),
			Data: Bar{
				Name:       e.Name,
				Value:      e.Value,
				Category:   e.Category.Name,
				Color:      schema.Color(e.Category.Name),
				Decoration: e.Decoration,
			},
		}
	}
	return Scene{
		Period:    f.Period,
		Selection: sel,
		Value:     value,
		Band:      band,
		Total:     rank.Total(sel),
		Targets:   targets,
	}
}
