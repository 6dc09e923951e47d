package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/reconcile"
)

func sampleFrames() []frames.Frame {
	var fs []frames.Frame
	for y := 1950; y <= 1960; y++ {
		var es []frames.Entity
		for i := 0; i < 14; i++ {
			es = append(es, frames.Entity{
				Name:     "Country " + strconv.Itoa(i),
				Value:    int64((i*37+y)%50) * 1_000_000,
				Category: frames.Category{Name: []string{"Africa", "Asia", "Europe"}[i%3]},
				Period:   y,
			})
		}
		es[0].Decoration = "flags/c0.svg"
		fs = append(fs, frames.Frame{Period: y, Entities: es})
	}
	return fs
}

func TestSceneTargets(t *testing.T) {
	fs := sampleFrames()
	g := DefaultSVGLayout().Geometry()
	sc := NewScene(fs[3], g, nil)
	if len(sc.Targets) != DefaultMaxBars {
		t.Fatalf("targets = %d", len(sc.Targets))
	}
	var total int64
	for i, tg := range sc.Targets {
		total += tg.Data.Value
		if i > 0 && tg.Y <= sc.Targets[i-1].Y {
			t.Errorf("target %d not below previous", i)
		}
		if tg.Length < 0 || tg.Length > g.ValueX1-g.ValueX0+1e-9 {
			t.Errorf("target %d length %v out of range", i, tg.Length)
		}
	}
	if total != sc.Total {
		t.Errorf("Total = %d, want %d", sc.Total, total)
	}
	if sc.Targets[0].Length != g.ValueX1-g.ValueX0 {
		t.Errorf("leader length = %v, want full range", sc.Targets[0].Length)
	}
	if sc.Targets[0].Data.Color == "" {
		t.Error("missing colour")
	}
}

func TestSVGDeterministic(t *testing.T) {
	fs := sampleFrames()
	r := SVG{Layout: DefaultSVGLayout(), Schema: config.Default()}
	var a, b bytes.Buffer
	if err := r.Write(&a, fs, 4, false); err != nil {
		t.Fatal(err)
	}
	if err := r.Write(&b, fs, 4, false); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatal("same frame rendered differently")
	}
	out := a.String()
	for _, want := range []string{
		`viewBox="0 0 1500 500"`,
		`class="year"`,
		">1954<",
		"Total: ",
		`class="ptr"`,
		`class="tick-major"`,
		`class="tick-minor"`,
		"▶",
		"Region",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if got := strings.Count(out, `<g class="bar"`); got != DefaultMaxBars {
		t.Errorf("bars = %d", got)
	}
	if err := r.Write(&a, fs, len(fs), false); err == nil {
		t.Error("out of range index did not error")
	}
}

func TestSVGEscapes(t *testing.T) {
	fs := []frames.Frame{{Period: 2000, Entities: []frames.Entity{{Name: "A&B <Co>", Value: 3, Period: 2000}}}}
	var buf bytes.Buffer
	if err := (SVG{Layout: DefaultSVGLayout()}).Write(&buf, fs, 0, true); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "A&B <Co>") || !strings.Contains(buf.String(), "A&amp;B &lt;Co&gt;") {
		t.Error("name not escaped")
	}
	if !strings.Contains(buf.String(), "❚❚") {
		t.Error("playing glyph missing")
	}
}

func TestExportAll(t *testing.T) {
	fs := sampleFrames()
	dir := filepath.Join(t.TempDir(), "out")
	n, err := (SVG{Layout: DefaultSVGLayout()}).ExportAll(dir, fs)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(fs) {
		t.Errorf("wrote %d, want %d", n, len(fs))
	}
	if _, err := os.Stat(filepath.Join(dir, "frame-1950.svg")); err != nil {
		t.Error(err)
	}
}

func TestTermRender(t *testing.T) {
	fs := sampleFrames()
	l := DefaultTermLayout(100)
	term := Term{Layout: l}
	sc := NewScene(fs[2], l.Geometry(), nil)
	stage := reconcile.NewStage[Bar](reconcile.DefaultDuration, l.OffscreenY())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stage.Apply(sc.Targets, now)

	settled := now.Add(time.Second)
	view := TermView{Elements: stage.Sample(settled), Scene: sc, Scrubber: l.Scrubber(fs), Playing: true}
	out := term.Render(view)
	lines := strings.Split(out, "\n")
	if len(lines) != l.Height() {
		t.Fatalf("lines = %d, want %d", len(lines), l.Height())
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != l.Width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, l.Width, line)
		}
	}
	if !strings.Contains(lines[1], sc.Selection[0].Name) {
		t.Errorf("leader not on first bar row: %q", lines[1])
	}
	if !strings.Contains(lines[l.StatusRow()], "1952") {
		t.Errorf("status row = %q", lines[l.StatusRow()])
	}
	if !strings.Contains(lines[l.PointerRow()], "▼") || !strings.Contains(lines[l.PointerRow()], "❚❚") {
		t.Errorf("pointer row = %q", lines[l.PointerRow()])
	}
	if !strings.Contains(lines[l.LabelRow()], "1950") {
		t.Errorf("label row = %q", lines[l.LabelRow()])
	}

	if again := term.Render(TermView{Elements: stage.Sample(settled), Scene: sc, Scrubber: l.Scrubber(fs), Playing: true}); again != out {
		t.Error("re-rendering the same settled frame drifted")
	}
}

func TestTermHitTesting(t *testing.T) {
	l := DefaultTermLayout(100)
	if !l.OnToggle(2, l.PointerRow()) || l.OnToggle(2, l.BaselineRow()) {
		t.Error("toggle hit test wrong")
	}
	if !l.OnTimeline(40, l.BaselineRow()) || l.OnTimeline(40, 3) {
		t.Error("timeline hit test wrong")
	}
	if !l.OnPointer(41, l.PointerRow(), 40.4) || l.OnPointer(45, l.PointerRow(), 40.4) {
		t.Error("pointer hit test wrong")
	}
}

func TestTickLabel(t *testing.T) {
	for _, tt := range []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.5, "0.5"},
		{1.5, "1.5"},
		{2, "2"},
		{1500000, "1,500,000"},
	} {
		if got := tickLabel(tt.in); got != tt.want {
			t.Errorf("tickLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSVGSmallValueAxis(t *testing.T) {
	fs := []frames.Frame{{Period: 2000, Entities: []frames.Entity{
		{Name: "A", Value: 3, Period: 2000},
		{Name: "B", Value: 1, Period: 2000},
	}}}
	var buf bytes.Buffer
	if err := (SVG{Layout: DefaultSVGLayout()}).Write(&buf, fs, 0, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{">0.5</text>", ">1.5</text>", ">2.5</text>"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("axis missing %q", want)
		}
	}
}

func TestBlend(t *testing.T) {
	if got := blend("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("blend t=1 = %s", got)
	}
	if got := blend("#e44e9d", "#e44e9d", 0.3); got != "#e44e9d" {
		t.Errorf("blend same = %s", got)
	}
	if got := blend("nope", "#123456", 0.5); got != "#123456" {
		t.Errorf("blend invalid = %s", got)
	}
	mid := blend("#000000", "#ffffff", 0.5)
	if mid == "#000000" || mid == "#ffffff" {
		t.Errorf("blend mid = %s", mid)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Democratic Republic of Congo", 10); got != "Democrati…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Chad", 10); got != "Chad" {
		t.Errorf("truncate = %q", got)
	}
}
