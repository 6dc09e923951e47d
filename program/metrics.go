package main

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/logging"
)

type durationRing struct {
	buf   []time.Duration
	idx   int
	count int
}

func newDurationRing(n int) *durationRing {
	if n < 1 {
		n = 1
	}
	return &durationRing{buf: make([]time.Duration, n)}
}

func (r *durationRing) add(d time.Duration) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.idx] = d
	r.idx++
	if r.idx >= len(r.buf) {
		r.idx = 0
	}
	if r.count < len(r.buf) {
		r.count++
	}
}

type durationStats struct {
	last time.Duration
	max  time.Duration
	avg  time.Duration
	n    int
}

func (r *durationRing) snapshot() durationStats {
	if r.count == 0 {
		return durationStats{}
	}
	var sum time.Duration
	var max time.Duration
	for i := 0; i < r.count; i++ {
		d := r.buf[i]
		sum += d
		if d > max {
			max = d
		}
	}

	lastIdx := r.idx - 1
	if lastIdx < 0 {
		lastIdx = len(r.buf) - 1
	}
	last := r.buf[lastIdx]

	return durationStats{
		last: last,
		max:  max,
		avg:  sum / time.Duration(r.count),
		n:    r.count,
	}
}

// Seek sources.
const (
	seekDrag  = "drag"
	seekClick = "click"
	seekStep  = "step"
)

// playbackMetrics feeds the PERF STATS block and mirrors every event into
// Prometheus collectors.
type playbackMetrics struct {
	enabled atomic.Bool

	startedNs   atomic.Int64
	advances    atomic.Uint64
	seeks       atomic.Uint64
	toggles     atomic.Uint64
	callbacks   atomic.Uint64
	rowsKept    atomic.Uint64
	rowsDropped atomic.Uint64

	render *durationRing

	reg          *prometheus.Registry
	advanceTotal prometheus.Counter
	seekTotal    *prometheus.CounterVec
	droppedTotal *prometheus.CounterVec
	frameIndex   prometheus.Gauge
	renderTime   prometheus.Histogram
}

func newPlaybackMetrics(window int) *playbackMetrics {
	m := &playbackMetrics{
		render: newDurationRing(window),
		reg:    prometheus.NewRegistry(),
		advanceTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "race_frame_advances_total",
			Help: "Frames advanced by autonomous playback.",
		}),
		seekTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "race_seeks_total",
			Help: "Manual frame changes by input source.",
		}, []string{"source"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "race_rows_dropped_total",
			Help: "Input rows dropped while building frames, by reason.",
		}, []string{"reason"}),
		frameIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "race_frame_index",
			Help: "Index of the frame on screen.",
		}),
		renderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "race_render_seconds",
			Help:    "Time spent painting one view.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	m.reg.MustRegister(m.advanceTotal, m.seekTotal, m.droppedTotal, m.frameIndex, m.renderTime)
	m.startedNs.Store(time.Now().UnixNano())
	return m
}

func (m *playbackMetrics) setEnabled(v bool) { m.enabled.Store(v) }
func (m *playbackMetrics) isEnabled() bool   { return m.enabled.Load() }

func (m *playbackMetrics) observeBuild(stats frames.BuildStats) {
	m.rowsKept.Add(uint64(stats.Kept))
	m.rowsDropped.Add(uint64(stats.TotalDropped()))
	for r, n := range stats.Dropped {
		if n > 0 {
			m.droppedTotal.WithLabelValues(frames.DropReason(r).String()).Add(float64(n))
		}
	}
}

func (m *playbackMetrics) observeCallback() { m.callbacks.Add(1) }

func (m *playbackMetrics) observeAdvance(index int) {
	m.advances.Add(1)
	m.advanceTotal.Inc()
	m.frameIndex.Set(float64(index))
}

func (m *playbackMetrics) observeSeek(source string, index int) {
	m.seeks.Add(1)
	m.seekTotal.WithLabelValues(source).Inc()
	m.frameIndex.Set(float64(index))
}

func (m *playbackMetrics) observeToggle() { m.toggles.Add(1) }

func (m *playbackMetrics) observeRender(d time.Duration) {
	m.renderTime.Observe(d.Seconds())
	if !m.isEnabled() {
		return
	}
	m.render.add(d)
}

type snapshot struct {
	started   time.Time
	advances  uint64
	seeks     uint64
	toggles   uint64
	callbacks uint64
	rowsKept  uint64
	dropped   uint64
	render    durationStats
}

func (m *playbackMetrics) snapshot() snapshot {
	if !m.isEnabled() {
		return snapshot{}
	}
	startedNs := m.startedNs.Load()
	started := time.Time{}
	if startedNs != 0 {
		started = time.Unix(0, startedNs)
	}
	return snapshot{
		started:   started,
		advances:  m.advances.Load(),
		seeks:     m.seeks.Load(),
		toggles:   m.toggles.Load(),
		callbacks: m.callbacks.Load(),
		rowsKept:  m.rowsKept.Load(),
		dropped:   m.rowsDropped.Load(),
		render:    m.render.snapshot(),
	}
}

// handler exposes the collectors in the Prometheus text format.
func (m *playbackMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func serveMetrics(addr string, m *playbackMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	return srv
}
