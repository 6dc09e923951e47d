package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/timeline"
)

// SVGLayout is the fixed canvas geometry of exported frames.
type SVGLayout struct {
	Width, Height            float64
	Top, Right, Bottom, Left float64
	BarHeight                float64
	Padding                  float64
	MaxBars                  int
	TimelineStep             int
}

func DefaultSVGLayout() SVGLayout {
	return SVGLayout{
		Width: 1500, Height: 500,
		Top: 30, Right: 220, Bottom: 80, Left: 110,
		BarHeight:    42,
		Padding:      0.1,
		MaxBars:      DefaultMaxBars,
		TimelineStep: timeline.DefaultStep,
	}
}

func (l SVGLayout) Geometry() Geometry {
	return Geometry{
		ValueX0:   l.Left,
		ValueX1:   l.Width - l.Right,
		BandY0:    l.Top,
		BarHeight: l.BarHeight,
		Padding:   l.Padding,
		MaxBars:   l.MaxBars,
	}
}

// Scrubber builds the timeline for fs on this canvas.
func (l SVGLayout) Scrubber(fs []frames.Frame) *timeline.Scrubber {
	return timeline.New(fs, l.Left, l.Width-l.Right)
}

// SVG renders one settled frame. Output depends only on its arguments.
type SVG struct {
	Layout SVGLayout
	Schema *config.Schema
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func esc(s string) string { return html.EscapeString(s) }

// Write paints frame fs[index] with the play/pause control in the given
// state.
func (r SVG) Write(w io.Writer, fs []frames.Frame, index int, playing bool) error {
	if index < 0 || index >= len(fs) {
		return fmt.Errorf("frame index %d out of range [0,%d)", index, len(fs))
	}
	l := r.Layout
	schema := r.Schema
	if schema == nil {
		schema = config.Default()
	}
	sc := NewScene(fs[index], l.Geometry(), schema)
	scrub := l.Scrubber(fs)

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { fmt.Fprintf(bw, format, args...) }

	p(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s" font-family="Arial, sans-serif">`+"\n",
		num(l.Width), num(l.Height), num(l.Width), num(l.Height))
	p(`<rect width="100%%" height="100%%" fill="#ffffff"/>` + "\n")

	// top axis with gridlines sized to the visible bars
	gridH := l.BarHeight * float64(sc.Band.Len())
	p(`<g class="axis" transform="translate(0,%s)">`+"\n", num(l.Top))
	p(`<path class="domain" stroke="#999" d="M%s,0H%s"/>`+"\n", num(l.Left), num(l.Width-l.Right))
	for _, tick := range sc.Value.Ticks(6) {
		x := sc.Value.Map(tick)
		p(`<g class="tick" transform="translate(%s,0)"><line stroke="#ccc" y2="%s"/><text fill="#666" y="-6" text-anchor="middle" font-size="12px">%s</text></g>`+"\n",
			num(x), num(gridH), tickLabel(tick))
	}
	p("</g>\n")

	// bars
	r0 := sc.Band.Bandwidth()/2 - 2
	p(`<g class="bars">` + "\n")
	for _, tg := range sc.Targets {
		b := tg.Data
		end := l.Left + tg.Length
		p(`<g class="bar" transform="translate(0,%s)">`+"\n", num(tg.Y))
		p(`<rect x="%s" height="%s" width="%s" fill="%s"/>`+"\n", num(l.Left), num(sc.Band.Bandwidth()), num(tg.Length), esc(b.Color))
		p(`<text class="val" x="%s" dy="1.1em">%s</text>`+"\n", num(end+8), humanize.Comma(b.Value))
		p(`<text class="name" x="%s" dy="1.1em" text-anchor="end">%s</text>`+"\n", num(l.Left-10), esc(b.Name))
		p(`<circle stroke="#fff" stroke-width="2" r="%s" cx="%s" cy="%s" fill="%s"/>`+"\n", num(r0), num(end-r0-4), num(r0+2), esc(b.Color))
		if b.Decoration != "" {
			p(`<image href="%s" width="%s" height="%s" x="%s" y="4"/>`+"\n", esc(b.Decoration), num(r0*2), num(r0*2), num(end-r0*2-4))
		}
		p("</g>\n")
	}
	p("</g>\n")

	// period and running total
	p(`<g class="label">` + "\n")
	p(`<text class="year" x="%s" y="%s" text-anchor="end" font-size="96px" fill="#c5c5c5" font-weight="600">%d</text>`+"\n",
		num(l.Width-230), num(l.Height-120), sc.Period)
	p(`<text class="total" x="%s" y="%s" text-anchor="end" font-size="30px" fill="#c5c5c5">Total: %s</text>`+"\n",
		num(l.Width-230), num(l.Height-80), humanize.Comma(sc.Total))
	p("</g>\n")

	// timeline
	const majorLen, minorLen, tri = 10, 6, 8
	baseY := l.Height - 32
	p(`<g class="timeline">` + "\n")
	p(`<line class="base" x1="%s" x2="%s" y1="%s" y2="%s" stroke="#888"/>`+"\n", num(l.Left), num(l.Width-l.Right), num(baseY), num(baseY))
	for _, tk := range scrub.Ticks(l.TimelineStep) {
		n, class := float64(minorLen), "tick-minor"
		if tk.Major {
			n, class = majorLen, "tick-major"
		}
		p(`<line class="%s" x1="%s" x2="%s" y1="%s" y2="%s" stroke="#888"/>`+"\n", class, num(tk.X), num(tk.X), num(baseY), num(baseY+n))
	}
	for _, tk := range scrub.Ticks(l.TimelineStep) {
		if tk.Major {
			p(`<text class="lbl" x="%s" y="%s" text-anchor="middle" fill="#777" font-size="11px">%d</text>`+"\n", num(tk.X), num(baseY+minorLen+20), tk.Period)
		}
	}
	cx := scrub.X(sc.Period)
	p(`<path class="ptr" fill="#888" d="M%s %sL%s %sL%s %sZ"/>`+"\n",
		num(cx-tri), num(baseY-8), num(cx+tri), num(baseY-8), num(cx), num(baseY))
	p("</g>\n")

	// play/pause control
	glyph := "▶"
	if playing {
		glyph = "❚❚"
	}
	p(`<g class="toggle"><circle cx="53" cy="%s" r="23" fill="#333"/><text x="53" y="%s" text-anchor="middle" fill="#fff" font-size="20px">%s</text></g>`+"\n",
		num(l.Height-58), num(l.Height-51), glyph)

	// legend
	p(`<g class="legend" transform="translate(%s,%s)">`+"\n", num(l.Width-l.Right+20), num(l.Top))
	p(`<text font-size="16px" font-weight="bold" fill="#000">Region</text>` + "\n")
	for i, c := range schema.Colors {
		y := float64(i+1) * 18
		p(`<rect y="%s" width="12" height="12" fill="%s"/><text x="16" y="%s" font-size="13px" fill="#000">%s</text>`+"\n",
			num(y), esc(c.Color), num(y+11), esc(c.Category))
	}
	p("</g>\n</svg>\n")
	return bw.Flush()
}

// ExportAll writes one SVG per frame into dir as frame-<period>.svg and
// returns the number of files written.
func (r SVG) ExportAll(dir string, fs []frames.Frame) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	for i, f := range fs {
		path := filepath.Join(dir, fmt.Sprintf("frame-%d.svg", f.Period))
		out, err := os.Create(path)
		if err != nil {
			return i, fmt.Errorf("create %s: %w", path, err)
		}
		werr := r.Write(out, fs, i, false)
		cerr := out.Close()
		if werr != nil {
			return i, fmt.Errorf("write %s: %w", path, werr)
		}
		if cerr != nil {
			return i, fmt.Errorf("close %s: %w", path, cerr)
		}
	}
	return len(fs), nil
}
