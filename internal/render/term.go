package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/reconcile"
	"github.com/keilerkonzept/barchart-race-tui/internal/timeline"
)

// TermLayout places the chart on a character grid, one cell per "pixel".
//
// Rows, top to bottom: axis labels, MaxBars bar rows, period and total,
// timeline pointer, timeline baseline, timeline labels, legend.
type TermLayout struct {
	Width        int
	Left, Right  int
	MaxBars      int
	TimelineStep int
}

func DefaultTermLayout(width int) TermLayout {
	return TermLayout{
		Width:        width,
		Left:         18,
		Right:        16,
		MaxBars:      DefaultMaxBars,
		TimelineStep: timeline.DefaultStep,
	}
}

func (l TermLayout) Height() int      { return l.MaxBars + 6 }
func (l TermLayout) StatusRow() int   { return l.MaxBars + 1 }
func (l TermLayout) PointerRow() int  { return l.MaxBars + 2 }
func (l TermLayout) BaselineRow() int { return l.MaxBars + 3 }
func (l TermLayout) LabelRow() int    { return l.MaxBars + 4 }
func (l TermLayout) LegendRow() int   { return l.MaxBars + 5 }

// OffscreenY is where bars enter from and exit to.
func (l TermLayout) OffscreenY() float64 { return float64(l.StatusRow()) }

func (l TermLayout) Geometry() Geometry {
	return Geometry{
		ValueX0:   float64(l.Left),
		ValueX1:   float64(max(l.Left+1, l.Width-l.Right)),
		BandY0:    1,
		BarHeight: 1,
		Padding:   0,
		MaxBars:   l.MaxBars,
	}
}

func (l TermLayout) timelineX1() int { return max(l.Left+1, l.Width-l.Right-1) }

func (l TermLayout) Scrubber(fs []frames.Frame) *timeline.Scrubber {
	return timeline.New(fs, float64(l.Left), float64(l.timelineX1()))
}

// OnTimeline reports whether cell (x, y) belongs to the clickable timeline.
func (l TermLayout) OnTimeline(x, y int) bool {
	if y != l.PointerRow() && y != l.BaselineRow() && y != l.LabelRow() {
		return false
	}
	return x >= l.Left-2 && x <= l.timelineX1()+2
}

// OnPointer reports whether cell (x, y) grabs the pointer drawn at px.
func (l TermLayout) OnPointer(x, y int, px float64) bool {
	if y != l.PointerRow() && y != l.BaselineRow() {
		return false
	}
	return abs(x-int(math.Round(px))) <= 1
}

// OnToggle reports whether cell (x, y) hits the play/pause control.
func (l TermLayout) OnToggle(x, y int) bool {
	return y == l.PointerRow() && x >= 1 && x <= 4
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var (
	axisStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"})
	nameStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000", Dark: "#ddd"})
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#333", Dark: "#bbb"})
	periodStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c5c5c5"))
	timelineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	pointerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "9"})
	toggleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Background(lipgloss.Color("#333"))
	legendTitle   = lipgloss.NewStyle().Bold(true)
)

const partialBlocks = "▏▎▍▌▋▊▉"

// TermView is what one terminal paint needs.
type TermView struct {
	Elements []reconcile.Element[Bar]
	Scene    Scene
	Scrubber *timeline.Scrubber
	Playing  bool
}

// Term paints the chart pane.
type Term struct {
	Layout TermLayout
	Schema *config.Schema
}

// Render returns exactly Layout.Height() lines, each Layout.Width cells wide.
func (r Term) Render(v TermView) string {
	l := r.Layout
	rows := make([]string, l.Height())

	rows[0] = axisStyle.Render(r.axisRow(v.Scene))
	for _, e := range v.Elements {
		row := int(math.Round(e.Y))
		if row < 1 || row > l.MaxBars {
			continue
		}
		rows[row] = r.barRow(e)
	}
	rows[l.StatusRow()] = r.statusRow(v.Scene)
	rows[l.PointerRow()] = r.pointerRow(v)
	base, labels := r.timelineRows(v.Scrubber)
	rows[l.BaselineRow()] = timelineStyle.Render(base)
	rows[l.LabelRow()] = timelineStyle.Render(labels)
	rows[l.LegendRow()] = r.legendRow()

	for i, s := range rows {
		rows[i] = pad(s, l.Width)
	}
	return strings.Join(rows, "\n")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(rs[:n-1]) + "…"
}

// put writes s into buf starting at x, clipping at both ends.
func put(buf []rune, x int, s string) {
	for i, r := range []rune(s) {
		if j := x + i; j >= 0 && j < len(buf) {
			buf[j] = r
		}
	}
}

func blank(n int) []rune {
	buf := make([]rune, max(0, n))
	for i := range buf {
		buf[i] = ' '
	}
	return buf
}

func (r Term) axisRow(sc Scene) string {
	buf := blank(r.Layout.Width)
	last := -1
	for _, tick := range sc.Value.Ticks(4) {
		label := tickLabel(tick)
		x := int(math.Round(sc.Value.Map(tick))) - len(label)/2
		if x <= last {
			continue
		}
		put(buf, x, label)
		last = x + len(label)
	}
	return string(buf)
}

// tickLabel formats an axis value with thousands separators, keeping
// fractional ticks of small domains.
func tickLabel(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.Commaf(v)
}

func blend(from, to string, t float64) string {
	if from == to || t >= 1 {
		return to
	}
	a, err := colorful.Hex(from)
	if err != nil {
		return to
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return to
	}
	return a.BlendLab(b, t).Clamped().Hex()
}

func (r Term) barRow(e reconcile.Element[Bar]) string {
	l := r.Layout
	name := truncate(e.Data.Name, l.Left-2)
	name = strings.Repeat(" ", max(0, l.Left-1-len([]rune(name)))) + name + " "

	length := max(0, e.Length)
	full := int(length)
	bar := strings.Repeat("█", full)
	if eighths := int((length - float64(full)) * 8); eighths > 0 {
		bar += string([]rune(partialBlocks)[eighths-1])
	}
	color := blend(e.From.Color, e.Data.Color, e.T)
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color))

	badge := barStyle.Render("●")
	value := humanize.Comma(int64(math.Round(e.Value)))
	return nameStyle.Render(name) + barStyle.Render(bar) + badge + " " + valueStyle.Render(value)
}

func (r Term) statusRow(sc Scene) string {
	text := periodStyle.Render(strconv.Itoa(sc.Period)) + "  " + valueStyle.Render("Total: "+humanize.Comma(sc.Total))
	gap := r.Layout.Width - r.Layout.Right - lipgloss.Width(text)
	if gap < 0 {
		return text
	}
	return strings.Repeat(" ", gap) + text
}

func (r Term) pointerRow(v TermView) string {
	glyph := " ▶ "
	if v.Playing {
		glyph = "❚❚ "
	}
	out := " " + toggleStyle.Render(glyph)
	if v.Scrubber == nil || v.Scrubber.Len() == 0 {
		return out
	}
	x := int(math.Round(v.Scrubber.X(v.Scene.Period)))
	if gap := x - lipgloss.Width(out); gap >= 0 {
		out += strings.Repeat(" ", gap) + pointerStyle.Render("▼")
	}
	return out
}

func (r Term) timelineRows(s *timeline.Scrubber) (string, string) {
	l := r.Layout
	base := blank(l.Width)
	labels := blank(l.Width)
	if s == nil || s.Len() == 0 {
		return string(base), string(labels)
	}
	for x := l.Left; x <= l.timelineX1() && x < len(base); x++ {
		base[x] = '─'
	}
	ticks := s.Ticks(l.TimelineStep)
	for _, tk := range ticks {
		if x := int(math.Round(tk.X)); x >= 0 && x < len(base) && !tk.Major {
			base[x] = '┬'
		}
	}
	last := -1
	for _, tk := range ticks {
		if !tk.Major {
			continue
		}
		x := int(math.Round(tk.X))
		if x >= 0 && x < len(base) {
			base[x] = '┼'
		}
		label := strconv.Itoa(tk.Period)
		lx := x - len(label)/2
		if lx <= last {
			continue
		}
		put(labels, lx, label)
		last = lx + len(label)
	}
	return string(base), string(labels)
}

func (r Term) legendRow() string {
	schema := r.Schema
	if schema == nil {
		schema = config.Default()
	}
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(legendTitle.Render("Region"))
	for _, c := range schema.Colors {
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("■"))
		b.WriteString(" ")
		b.WriteString(c.Category)
	}
	return b.String()
}
