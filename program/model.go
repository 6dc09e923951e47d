package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/dustin/go-humanize"

	dsconfig "github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/logging"
	"github.com/keilerkonzept/barchart-race-tui/internal/playback"
	"github.com/keilerkonzept/barchart-race-tui/internal/rank"
	"github.com/keilerkonzept/barchart-race-tui/internal/reconcile"
	"github.com/keilerkonzept/barchart-race-tui/internal/render"
	"github.com/keilerkonzept/barchart-race-tui/internal/timeline"
)

type model struct {
	width, height  int
	leftPaneWidth  int
	rightPaneWidth int

	logScale bool
	dragging bool
	err      error

	schema *dsconfig.Schema
	load   func(context.Context) ([]frames.Row, error)
	now    func() time.Time

	frames     []frames.Frame
	state      playback.State
	loop       playback.Loop
	layout     render.TermLayout
	chart      render.Term
	scrubber   *timeline.Scrubber
	stage      *reconcile.Stage[render.Bar]
	scene      render.Scene
	sceneIndex int
	drawAt     time.Time

	list      list.Model
	listStyle styles.Style
	help      help.Model
	plot      *plot.Canvas
	histories map[string][]float64

	metrics *playbackMetrics
}

func newModel(schema *dsconfig.Schema, load func(context.Context) ([]frames.Row, error), metrics *playbackMetrics) *model {
	const (
		defaultWidth  = 120
		defaultHeight = 30
	)

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = styles.NewStyle().
		Border(styles.NormalBorder(), false, false, false, true).
		BorderForeground(borderColor).
		Foreground(selectedColor).
		Bold(false).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.
		Foreground(selectedColor)
	d.ShowDescription = true

	l := list.New(make([]list.Item, 0), d, defaultWidth/3, defaultHeight)
	l.Styles.NoItems = l.Styles.NoItems.
		Padding(0, 2)
	l.SetFilteringEnabled(config.SearchEnabled)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)

	p := plot.NewCanvas(defaultWidth, defaultHeight)
	p.ShowAxis = false

	m := &model{
		logScale:   config.LogScale,
		schema:     schema,
		load:       load,
		now:        time.Now,
		sceneIndex: -1,
		list:       l,
		help:       help.New(),
		plot:       &p,
		histories:  make(map[string][]float64),
		metrics:    metrics,
	}
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(defaultWidth, config.ViewSplit)
	m.setLayout(m.rightPaneWidth)
	return m
}

func (m *model) leftWidth() int {
	if m.leftPaneWidth > 0 {
		return m.leftPaneWidth
	}
	left, _ := computePaneWidths(m.width, config.ViewSplit)
	return left
}

func (m *model) rightWidth() int {
	if m.rightPaneWidth > 0 {
		return m.rightPaneWidth
	}
	_, right := computePaneWidths(m.width, config.ViewSplit)
	return right
}

// setLayout rebuilds everything that depends on the chart width. Bars
// re-enter from the bottom on the next sync.
func (m *model) setLayout(width int) {
	layout := render.DefaultTermLayout(width)
	layout.MaxBars = config.K
	layout.TimelineStep = config.TimelineStep
	m.layout = layout
	m.chart = render.Term{Layout: layout, Schema: m.schema}
	m.stage = reconcile.NewStage[render.Bar](config.Transition, layout.OffscreenY())
	m.sceneIndex = -1
	if len(m.frames) > 0 {
		m.scrubber = layout.Scrubber(m.frames)
	}
}

type framesLoadedMsg struct {
	frames []frames.Frame
	stats  frames.BuildStats
}

type errMsg struct{ err error }

// FrameTickMsg is one callback of the frame clock.
type FrameTickMsg playback.Callback

func frameTick(gen uint64) tui.Cmd {
	return tui.Tick(time.Second/time.Duration(config.FPS), func(t time.Time) tui.Msg {
		return FrameTickMsg{Gen: gen, At: t}
	})
}

func (m *model) loadCmd() tui.Cmd {
	load, schema := m.load, m.schema
	return func() tui.Msg {
		fs, stats, err := loadFrames(context.Background(), load, schema)
		if err != nil {
			return errMsg{err}
		}
		return framesLoadedMsg{frames: fs, stats: stats}
	}
}

func (m *model) Init() tui.Cmd {
	return m.loadCmd()
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		logging.Error("loading dataset", "err", msg.err)
		return m, nil
	case framesLoadedMsg:
		return m, m.onLoaded(msg)
	case FrameTickMsg:
		return m, m.onFrame(playback.Callback(msg))
	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(m.width, config.ViewSplit)
		statsLines := 0
		if config.StatsEnabled {
			// title + 6 metric lines
			statsLines = 7
		}
		helpLines := 1
		available := max(1, m.height-statsLines-helpLines)

		leftW := max(1, m.leftWidth())
		rightW := max(1, m.rightWidth())

		m.list.SetSize(leftW, available)
		m.list.Styles.Title = styles.NewStyle()
		m.list.Styles.PaginationStyle = styles.NewStyle()
		m.list.Styles.HelpStyle = styles.NewStyle()
		m.listStyle = styles.NewStyle().Width(leftW).Height(available)

		m.setLayout(rightW)
		// Below the chart: plot canvas + 1 label line, wrapped in a border (adds 2 lines).
		plotHeight := max(1, available-m.layout.Height()-3)
		m.resizePlot(max(1, rightW-2), plotHeight)
		return m, m.sync(m.now())
	case tui.MouseMsg:
		return m, m.onMouse(msg)
	case tui.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.loop.Cancel()
			return m, tui.Quit
		case key.Matches(msg, keys.Up):
			m.list.CursorUp()
			m.updatePlot()
			return m, nil
		case key.Matches(msg, keys.Down):
			m.list.CursorDown()
			m.updatePlot()
			return m, nil
		case key.Matches(msg, keys.Pause):
			return m, m.togglePlay()
		case key.Matches(msg, keys.Prev):
			now := m.now()
			return m, m.seek(m.state.Step(-1, len(m.frames), now), seekStep, now)
		case key.Matches(msg, keys.Next):
			now := m.now()
			return m, m.seek(m.state.Step(1, len(m.frames), now), seekStep, now)
		case key.Matches(msg, keys.Scale):
			m.toggleScale()
			return m, nil
		}
	}
	var cmd tui.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) onLoaded(msg framesLoadedMsg) tui.Cmd {
	m.frames = msg.frames
	m.err = nil
	m.metrics.observeBuild(msg.stats)
	logging.Info("dataset loaded",
		"frames", len(m.frames),
		"first", m.frames[0].Period,
		"last", m.frames[len(m.frames)-1].Period,
	)
	if bad := msg.stats.TotalDropped() - msg.stats.Dropped[frames.DropAggregate]; bad > 0 {
		logging.Warn("skipped malformed rows", "count", bad)
	}
	now := m.now()
	m.state = playback.Start(now)
	m.scrubber = m.layout.Scrubber(m.frames)
	m.stage.Reset()
	m.sceneIndex = -1
	cmd := m.sync(now)
	return tui.Batch(cmd, frameTick(m.loop.Restart()))
}

// onFrame runs one frame-clock callback: at most one autonomous advance,
// then reschedule while playing or while bars are still moving.
func (m *model) onFrame(cb playback.Callback) tui.Cmd {
	if !m.loop.Accept(cb) {
		return nil
	}
	m.metrics.observeCallback()
	prev := m.state.Index
	next, again := playback.Tick(m.state, cb.At, config.Interval, len(m.frames))
	m.state = next
	if m.state.Index != prev {
		m.metrics.observeAdvance(m.state.Index)
	}
	cmd := m.sync(cb.At)
	if again || m.stage.Active(cb.At) {
		return tui.Batch(cmd, frameTick(cb.Gen))
	}
	m.loop.Stop()
	return cmd
}

// sync brings the scene, the staged bars and the side panes in line with
// the current index.
func (m *model) sync(now time.Time) tui.Cmd {
	m.drawAt = now
	if len(m.frames) == 0 {
		return nil
	}
	m.state = m.state.Clamp(len(m.frames))
	if m.state.Index == m.sceneIndex {
		return nil
	}
	m.scene = render.NewScene(m.frames[m.state.Index], m.layout.Geometry(), m.schema)
	diff := m.stage.Apply(m.scene.Targets, now)
	var moved, changed int
	for _, d := range diff.Deltas {
		if d.Moved() {
			moved++
		}
		if d.Changed() {
			changed++
		}
	}
	logging.Debug("reconciled",
		"period", m.scene.Period,
		"entering", len(diff.Entering),
		"exiting", len(diff.Exiting),
		"moved", moved,
		"changed", changed,
	)
	m.sceneIndex = m.state.Index
	cmd := m.updateList()
	m.updatePlot()
	return cmd
}

// ensureLoop starts a callback chain unless one is live.
func (m *model) ensureLoop() tui.Cmd {
	if m.loop.Running() {
		return nil
	}
	return frameTick(m.loop.Restart())
}

// stopLoop cancels the chain once nothing is left to animate; otherwise the
// chain ends by itself when the bars settle.
func (m *model) stopLoop(now time.Time) {
	if !m.stage.Active(now) {
		m.loop.Cancel()
	}
}

func (m *model) togglePlay() tui.Cmd {
	if len(m.frames) == 0 {
		return nil
	}
	now := m.now()
	m.state = m.state.TogglePlay(now)
	m.drawAt = now
	m.metrics.observeToggle()
	if m.state.Playing {
		return m.ensureLoop()
	}
	m.stopLoop(now)
	return nil
}

func (m *model) seek(next playback.State, source string, now time.Time) tui.Cmd {
	if len(m.frames) == 0 {
		return nil
	}
	changed := next.Index != m.state.Index
	m.state = next
	m.drawAt = now
	if !changed {
		if !m.state.Playing {
			m.stopLoop(now)
		}
		return nil
	}
	m.metrics.observeSeek(source, m.state.Index)
	return tui.Batch(m.sync(now), m.ensureLoop())
}

func (m *model) onMouse(msg tui.MouseMsg) tui.Cmd {
	if len(m.frames) == 0 || m.scrubber == nil {
		return nil
	}
	x, y := msg.X-m.leftWidth(), msg.Y
	now := m.now()
	switch msg.Action {
	case tui.MouseActionPress:
		if msg.Button != tui.MouseButtonLeft || x < 0 {
			return nil
		}
		switch {
		case m.layout.OnToggle(x, y):
			return m.togglePlay()
		case m.layout.OnPointer(x, y, m.scrubber.X(m.frames[m.state.Index].Period)):
			m.dragging = true
			m.state = m.state.DragStart()
			m.drawAt = now
			m.stopLoop(now)
			return nil
		case m.layout.OnTimeline(x, y):
			i, ok := m.scrubber.Click(float64(x))
			if !ok {
				return nil
			}
			return m.seek(m.state.ClickSeek(i, now), seekClick, now)
		}
	case tui.MouseActionMotion:
		if !m.dragging {
			return nil
		}
		i := m.scrubber.Drag(float64(x))
		if i == m.state.Index {
			return nil
		}
		return m.seek(m.state.Seek(i, now), seekDrag, now)
	case tui.MouseActionRelease:
		m.dragging = false
	}
	return nil
}

func (m *model) toggleScale() {
	m.logScale = !m.logScale
	m.updatePlot()
}

func (m *model) resizePlot(w int, h int) {
	p := plot.NewCanvas(w, h)
	p.NumDataPoints = m.plot.NumDataPoints
	p.ShowAxis = m.plot.ShowAxis
	p.LineColors = m.plot.LineColors
	m.plot = &p
	m.updatePlot()
}

// updateList shows the whole current frame ranked, keeping the selected
// entity selected across frames.
func (m *model) updateList() tui.Cmd {
	f := m.frames[m.state.Index]
	ranked := rank.SelectTopK(f, len(f.Entities))
	items := make([]list.Item, len(ranked))
	order := make(map[string]int, len(ranked))

	numDecimals := 1 + int(math.Ceil(math.Log10(float64(len(ranked)+1))))
	padToItemRankWidth := strings.Repeat(" ", numDecimals+1)
	itemRankFormat := "#%-" + fmt.Sprint(numDecimals) + "d"
	for i, e := range ranked {
		items[i] = listItem{
			DescriptionPrefix: padToItemRankWidth,
			TitlePrefix:       fmt.Sprintf(itemRankFormat, i+1),
			Entity:            e,
		}
		order[e.Name] = i
	}
	selected := m.list.SelectedItem()
	cmd := m.list.SetItems(items)
	if selected != nil {
		if i, ok := order[selected.(listItem).Name]; ok {
			m.list.Select(i)
		}
	}
	return cmd
}

func (m *model) selectedName() string {
	if li, ok := m.list.SelectedItem().(listItem); ok {
		return li.Name
	}
	if len(m.scene.Selection) > 0 {
		return m.scene.Selection[0].Name
	}
	return ""
}

func (m *model) history(name string) []float64 {
	h, ok := m.histories[name]
	if !ok {
		h = frames.History(m.frames, name)
		m.histories[name] = h
	}
	return h
}

// updatePlot draws the value history of the visible bars across all
// periods, the selected entity highlighted on top.
func (m *model) updatePlot() {
	if len(m.frames) == 0 {
		return
	}
	var highlight, dim plot.Color
	if styles.DefaultRenderer().HasDarkBackground() {
		highlight, dim = plot.Red, plot.DimGray
	} else {
		highlight, dim = plot.Black, plot.LightGray
	}

	selected := m.selectedName()
	data := make([][]float64, 0, len(m.scene.Selection)+1)
	colors := make([]plot.Color, 0, len(m.scene.Selection)+1)
	for _, e := range m.scene.Selection {
		if e.Name == selected {
			continue
		}
		data = append(data, m.series(e.Name))
		colors = append(colors, dim)
	}
	if selected != "" {
		data = append(data, m.series(selected))
		colors = append(colors, highlight)
	}
	if len(data) == 0 {
		return
	}
	m.plot.NumDataPoints = len(m.frames)
	m.plot.LineColors = colors
	m.plot.Fill(data)
}

func (m *model) series(name string) []float64 {
	h := m.history(name)
	if !m.logScale {
		return h
	}
	out := make([]float64, len(h))
	for i, v := range h {
		out[i] = math.Log(max(1, v))
	}
	return out
}

func (m *model) View() string {
	start := time.Now()
	defer func() { m.metrics.observeRender(time.Since(start)) }()

	errStyle := styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
	if len(m.frames) == 0 {
		view := "Loading…"
		if m.err != nil {
			view = styles.JoinVertical(styles.Left, view, errStyle.Render("ERROR: "+m.err.Error()))
		}
		return styles.JoinVertical(styles.Left, view, m.help.View(keys))
	}

	left := m.listStyle.Render(m.list.View())
	chart := m.chart.Render(render.TermView{
		Elements: m.stage.Sample(m.drawAt),
		Scene:    m.scene,
		Scrubber: m.scrubber,
		Playing:  m.state.Playing,
	})
	right := chart
	if p := m.plot.String(); p != "" && m.plot.NumDataPoints > 0 {
		right = styles.JoinVertical(styles.Left, chart, plotStyle.Render(styles.JoinVertical(styles.Top, p, m.plotLabels())))
	}
	view := styles.JoinHorizontal(styles.Top, left, right)

	var statsBlock []string
	if config.StatsEnabled {
		snap := m.metrics.snapshot()
		title := "PERF STATS (PLAYING)"
		if !m.state.Playing {
			title = "PERF STATS (PAUSED)"
		}
		leader := "-"
		if len(m.scene.Selection) > 0 {
			top := m.scene.Selection[0]
			leader = fmt.Sprintf("%s (%s)", top.Name, humanize.Comma(top.Value))
		}
		statsBlock = []string{
			title,
			fmt.Sprintf("frame: %d/%d (%d)", m.state.Index+1, len(m.frames), m.scene.Period),
			fmt.Sprintf("rows: %d kept, %d dropped", snap.rowsKept, snap.dropped),
			fmt.Sprintf("advances: %d  seeks: %d  toggles: %d", snap.advances, snap.seeks, snap.toggles),
			fmt.Sprintf("frame callbacks: %d  uptime: %s", snap.callbacks, formatUptime(snap.started)),
			fmt.Sprintf("render (%d): last %s avg %s max %s", snap.render.n, formatMetricDuration(snap.render.last), formatMetricDuration(snap.render.avg), formatMetricDuration(snap.render.max)),
			fmt.Sprintf("top-1: %s", leader),
		}
	}

	if len(statsBlock) != 0 {
		statsStyle := styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "1", Dark: "9"})
		statsText := strings.Join(statsBlock, "\n")
		return styles.JoinVertical(styles.Left, view, statsStyle.Render(statsText), m.help.View(keys))
	}
	return styles.JoinVertical(styles.Left, view, m.help.View(keys))
}

// plotLabels is the line under the history plot: first period, the scale
// toggle and last period.
func (m *model) plotLabels() string {
	linColor := borderFg
	logColor := borderFg
	if m.logScale {
		logColor = selectedFg
	} else {
		linColor = selectedFg
	}
	linLog := linColor.Render("LIN") + " " + logColor.Render("LOG")

	w := max(0, m.rightWidth()-2)
	leftLabel := strconv.Itoa(m.frames[0].Period)
	rightLabel := strconv.Itoa(m.frames[len(m.frames)-1].Period)
	minWidth := len(leftLabel) + len(rightLabel) + len("LIN LOG") + 4
	if w < minWidth {
		return " " + linLog
	}
	spaceTotal := w - (len(leftLabel) + len(rightLabel) + len("LIN LOG"))
	leftGap := spaceTotal / 2
	rightGap := spaceTotal - leftGap
	return borderFg.Render(leftLabel) +
		strings.Repeat(" ", leftGap) +
		linLog +
		strings.Repeat(" ", rightGap) +
		borderFg.Render(rightLabel)
}

func formatUptime(started time.Time) string {
	if started.IsZero() {
		return "-"
	}
	return time.Since(started).Truncate(time.Second).String()
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = totalWidth * splitPercent / 100
	if left < 1 {
		left = 1
	}
	if left > totalWidth-1 {
		left = totalWidth - 1
	}
	right = totalWidth - left

	// Keep panes readable when the terminal is wide enough.
	const minPane = 18
	if totalWidth >= minPane*2 {
		if left < minPane {
			left = minPane
			right = totalWidth - left
		}
		if right < minPane {
			right = minPane
			left = totalWidth - right
		}
	}
	if left < 1 {
		left = 1
	}
	if right < 1 {
		right = 1
	}
	return left, right
}

type listItem struct {
	DescriptionPrefix string
	TitlePrefix       string
	frames.Entity
}

func (i listItem) Title() string { return fmt.Sprintf("%s %s", i.TitlePrefix, i.Name) }
func (i listItem) Description() string {
	return fmt.Sprintf("%s %s  %s", i.DescriptionPrefix, humanize.Comma(i.Value), i.Category.Name)
}
func (i listItem) FilterValue() string { return i.Name }

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Prev, k.Next, k.Scale}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Prev, k.Next},
		{k.Up, k.Down, k.Scale},
	}
}

type keyMap struct {
	Scale key.Binding
	Pause key.Binding
	Prev  key.Binding
	Next  key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Scale: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "log/lin"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p/space", "play/pause"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
