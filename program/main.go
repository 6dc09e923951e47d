package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"

	dsconfig "github.com/keilerkonzept/barchart-race-tui/internal/config"
	"github.com/keilerkonzept/barchart-race-tui/internal/frames"
	"github.com/keilerkonzept/barchart-race-tui/internal/logging"
	"github.com/keilerkonzept/barchart-race-tui/internal/playback"
	"github.com/keilerkonzept/barchart-race-tui/internal/reconcile"
	"github.com/keilerkonzept/barchart-race-tui/internal/render"
	"github.com/keilerkonzept/barchart-race-tui/internal/source"
	"github.com/keilerkonzept/barchart-race-tui/internal/timeline"
)

type Config struct {
	// chart
	K            int
	FPS          int
	Interval     time.Duration
	Transition   time.Duration
	TimelineStep int

	// render
	LogScale  bool
	ViewSplit int

	// input
	InputPath   string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	SQLitePath  string
	SQLiteQuery string
	SchemaPath  string

	// output
	ExportDir string

	LogFile     string
	LogLevel    string
	MetricsAddr string

	SearchEnabled bool
	StatsEnabled  bool
	StatsWindow   int

	AltScreen bool
}

var config = Config{
	K:            render.DefaultMaxBars,
	FPS:          60,
	Interval:     playback.DefaultInterval,
	Transition:   reconcile.DefaultDuration,
	TimelineStep: timeline.DefaultStep,

	ViewSplit: 30,

	SQLiteQuery: source.DefaultQuery,

	LogLevel: "info",

	SearchEnabled: true,
	StatsEnabled:  true,
	StatsWindow:   256,

	AltScreen: true,
}

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func main() {
	flag.IntVar(&config.K, "k", config.K, "Show the top K entities per frame")
	flag.IntVar(&config.FPS, "fps", config.FPS, "Frame clock rate (callbacks per second)")
	flag.DurationVar(&config.Interval, "interval", config.Interval, "Minimum time a frame stays on screen while playing")
	flag.DurationVar(&config.Transition, "transition", config.Transition, "Bar transition duration")
	flag.IntVar(&config.TimelineStep, "timeline-step", config.TimelineStep, "Label every Nth period on the timeline")
	flag.StringVar(&config.InputPath, "in", config.InputPath, "CSV input: file path, - for stdin, or s3://bucket/key")
	flag.StringVar(&config.S3Region, "s3-region", config.S3Region, "Region for s3:// inputs (default: from the AWS environment)")
	flag.StringVar(&config.S3Endpoint, "s3-endpoint", config.S3Endpoint, "Custom S3 endpoint, e.g. a MinIO URL")
	flag.BoolVar(&config.S3PathStyle, "s3-path-style", config.S3PathStyle, "Use path-style S3 addressing")
	flag.StringVar(&config.SQLitePath, "sqlite", config.SQLitePath, "Read rows from this SQLite database instead of CSV")
	flag.StringVar(&config.SQLiteQuery, "sqlite-query", config.SQLiteQuery, "Query selecting the dataset rows (with -sqlite)")
	flag.StringVar(&config.SchemaPath, "schema", config.SchemaPath, "YAML file overriding column names, exclusions and colours")
	flag.StringVar(&config.ExportDir, "export", config.ExportDir, "Write one SVG per frame into this directory and exit")
	flag.StringVar(&config.LogFile, "log-file", config.LogFile, "Append logs to this file (default: discard)")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&config.MetricsAddr, "metrics-addr", config.MetricsAddr, "Serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&config.LogScale, "log-scale", config.LogScale, "Use a logarithmic Y axis in the history plot (default: linear)")
	flag.IntVar(&config.ViewSplit, "view-split", config.ViewSplit, "Split the view at this % of the total screen width [20,80]")
	flag.BoolVar(&config.SearchEnabled, "search", config.SearchEnabled, "Enable search/filtering in the leaderboard list")
	flag.BoolVar(&config.StatsEnabled, "stats", config.StatsEnabled, "Show runtime performance stats")
	flag.IntVar(&config.StatsWindow, "stats-window", config.StatsWindow, "Number of recent samples kept per metric")
	flag.BoolVar(&config.AltScreen, "alt-screen", config.AltScreen, "Use the terminal alternate screen buffer (recommended inside IDE terminals)")

	flag.Parse()

	if err := validateAndNormalizeConfig(); err != nil {
		logging.Fatal("invalid flags", "err", err)
	}
	if err := logging.Init(config.LogFile, config.LogLevel); err != nil {
		logging.Fatal("logging setup failed", "err", err)
	}
	defer logging.Close()

	schema, err := dsconfig.Load(config.SchemaPath)
	if err != nil {
		logging.Fatal("schema", "err", err)
	}

	if config.ExportDir != "" {
		if config.LogFile == "" {
			logging.SetOutput(os.Stderr)
		}
		if err := runExport(context.Background(), schema); err != nil {
			logging.Fatal("export failed", "err", err)
		}
		return
	}

	metrics := newPlaybackMetrics(config.StatsWindow)
	metrics.setEnabled(config.StatsEnabled)
	if config.MetricsAddr != "" {
		srv := serveMetrics(config.MetricsAddr, metrics)
		defer srv.Close()
		logging.Info("serving metrics", "addr", config.MetricsAddr)
	}

	m := newModel(schema, loadRows, metrics)
	opts := []tui.ProgramOption{tui.WithMouseCellMotion()}
	if readsStdin() {
		opts = append(opts, tui.WithInputTTY())
	}
	if config.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	if _, err := tui.NewProgram(m, opts...).Run(); err != nil {
		logging.Fatal("ui", "err", err)
	}
}

func validateAndNormalizeConfig() error {
	if config.K < 1 {
		return fmt.Errorf("-k must be >= 1")
	}
	if config.FPS < 1 {
		return fmt.Errorf("-fps must be >= 1")
	}
	if config.Interval < 0 {
		return fmt.Errorf("-interval must be >= 0")
	}
	if config.Transition < 0 {
		return fmt.Errorf("-transition must be >= 0")
	}
	if config.TimelineStep < 1 {
		return fmt.Errorf("-timeline-step must be >= 1")
	}
	if config.SQLitePath != "" && config.InputPath != "" {
		return fmt.Errorf("choose only one: -in or -sqlite")
	}
	if config.SQLitePath != "" && config.SQLiteQuery == "" {
		return fmt.Errorf("-sqlite-query must not be empty")
	}
	if config.StatsWindow < 0 {
		return fmt.Errorf("-stats-window must be >= 0")
	}
	config.ViewSplit = max(20, config.ViewSplit)
	config.ViewSplit = min(80, config.ViewSplit)
	if config.StatsWindow < 16 {
		config.StatsWindow = 16
	}
	return nil
}

func readsStdin() bool {
	return config.SQLitePath == "" && (config.InputPath == "" || config.InputPath == "-")
}

// loadRows reads the raw dataset from whichever input the flags name.
func loadRows(ctx context.Context) ([]frames.Row, error) {
	if config.SQLitePath != "" {
		return source.LoadSQLite(ctx, config.SQLitePath, config.SQLiteQuery)
	}
	return source.Load(ctx, config.InputPath, source.S3Options{
		Region:    config.S3Region,
		Endpoint:  config.S3Endpoint,
		PathStyle: config.S3PathStyle,
	})
}

func loadFrames(ctx context.Context, load func(context.Context) ([]frames.Row, error), schema *dsconfig.Schema) ([]frames.Frame, frames.BuildStats, error) {
	rows, err := load(ctx)
	if err != nil {
		return nil, frames.BuildStats{}, fmt.Errorf("load dataset: %w", err)
	}
	fs, stats, err := frames.Build(rows, schema)
	logging.Debug("built frames",
		"rows", stats.Rows,
		"kept", stats.Kept,
		"dropped", stats.TotalDropped(),
		"frames", len(fs),
	)
	if err != nil {
		return nil, stats, err
	}
	return fs, stats, nil
}

func runExport(ctx context.Context, schema *dsconfig.Schema) error {
	fs, _, err := loadFrames(ctx, loadRows, schema)
	if err != nil {
		if errors.Is(err, frames.ErrEmptyDataset) {
			return fmt.Errorf("nothing to export: %w", err)
		}
		return err
	}
	layout := render.DefaultSVGLayout()
	layout.MaxBars = config.K
	layout.TimelineStep = config.TimelineStep
	n, err := render.SVG{Layout: layout, Schema: schema}.ExportAll(config.ExportDir, fs)
	if err != nil {
		return err
	}
	logging.Info("exported frames", "count", n, "dir", config.ExportDir)
	return nil
}
