package main

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
)

func TestDurationRing(t *testing.T) {
	r := newDurationRing(3)
	if s := r.snapshot(); s.n != 0 {
		t.Fatalf("empty ring n = %d", s.n)
	}
	for _, d := range []time.Duration{1, 2, 3, 10} {
		r.add(d * time.Millisecond)
	}
	s := r.snapshot()
	if s.n != 3 {
		t.Errorf("n = %d, want 3", s.n)
	}
	if s.last != 10*time.Millisecond {
		t.Errorf("last = %s", s.last)
	}
	if s.max != 10*time.Millisecond {
		t.Errorf("max = %s", s.max)
	}
	if s.avg != 5*time.Millisecond {
		t.Errorf("avg = %s, want 5ms", s.avg)
	}
}

func TestSnapshotDisabled(t *testing.T) {
	m := newPlaybackMetrics(16)
	m.observeAdvance(1)
	if snap := m.snapshot(); snap.advances != 0 {
		t.Errorf("disabled snapshot reported %d advances", snap.advances)
	}
	m.setEnabled(true)
	if snap := m.snapshot(); snap.advances != 1 {
		t.Errorf("advances = %d", snap.advances)
	}
}

func TestPrometheusHandler(t *testing.T) {
	m := newPlaybackMetrics(16)
	m.observeAdvance(3)
	m.observeSeek(seekClick, 5)
	m.observeSeek(seekDrag, 6)
	var stats frames.BuildStats
	stats.Rows, stats.Kept = 10, 7
	stats.Dropped[frames.DropAggregate] = 3
	m.observeBuild(stats)
	m.observeRender(2 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		"race_frame_advances_total 1",
		`race_seeks_total{source="click"} 1`,
		`race_seeks_total{source="drag"} 1`,
		"race_frame_index 6",
		`race_rows_dropped_total{reason="` + frames.DropAggregate.String() + `"} 3`,
		"race_render_seconds_count 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestFormatMetricDuration(t *testing.T) {
	if got := formatMetricDuration(0); got != "0.000ms" {
		t.Errorf("zero = %s", got)
	}
	if got := formatMetricDuration(1500 * time.Microsecond); got != "1.500ms" {
		t.Errorf("1.5ms = %s", got)
	}
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(time.Time{}); got != "-" {
		t.Errorf("zero start = %s", got)
	}
	if got := formatUptime(time.Now().Add(-90 * time.Second)); got != "1m30s" {
		t.Errorf("90s ago = %s", got)
	}
}
