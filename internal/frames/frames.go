// Package frames turns raw tabular rows into an ordered, immutable sequence
// of per-period snapshots.
package frames

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/keilerkonzept/barchart-race-tui/internal/config"
)

// ErrEmptyDataset is returned when no row survives filtering. Callers treat
// it as "not loaded yet" and must not render.
var ErrEmptyDataset = errors.New("frames: no usable rows in dataset")

// Row is one input record keyed by column name.
type Row map[string]string

// Category is a colour bucket. Derived is set when the row carried no
// explicit category and the schema's fallback policy supplied the name.
type Category struct {
	Name    string
	Derived bool
}

type Entity struct {
	Name       string
	Value      int64
	Category   Category
	Decoration string
	Period     int
}

// Frame holds every entity of one period in the order the rows were read.
type Frame struct {
	Period   int
	Entities []Entity
}

// DropReason classifies rows discarded by Build.
type DropReason int

const (
	DropBadValue DropReason = iota
	DropNegativeValue
	DropMissingName
	DropAggregate
	DropBadPeriod
	numDropReasons
)

func (r DropReason) String() string {
	switch r {
	case DropBadValue:
		return "bad_value"
	case DropNegativeValue:
		return "negative_value"
	case DropMissingName:
		return "missing_name"
	case DropAggregate:
		return "aggregate"
	case DropBadPeriod:
		return "bad_period"
	}
	return "unknown"
}

type BuildStats struct {
	Rows    int
	Kept    int
	Dropped [numDropReasons]int
}

func (s BuildStats) TotalDropped() int {
	n := 0
	for _, d := range s.Dropped {
		n += d
	}
	return n
}

// Build parses rows with the given schema, groups them by period and returns
// the frames sorted by period. Rows that fail parsing or name an aggregate
// are dropped silently and only counted in the returned stats.
func Build(rows []Row, schema *config.Schema) ([]Frame, BuildStats, error) {
	if schema == nil {
		schema = config.Default()
	}
	stats := BuildStats{Rows: len(rows)}
	strip, err := schema.StripPatterns()
	if err != nil {
		return nil, stats, err
	}
	byPeriod := make(map[int]int)
	var out []Frame
	for _, row := range rows {
		e, reason, ok := parseRow(row, schema, strip)
		if !ok {
			stats.Dropped[reason]++
			continue
		}
		stats.Kept++
		i, seen := byPeriod[e.Period]
		if !seen {
			i = len(out)
			byPeriod[e.Period] = i
			out = append(out, Frame{Period: e.Period})
		}
		out[i].Entities = append(out[i].Entities, e)
	}
	if len(out) == 0 {
		return nil, stats, ErrEmptyDataset
	}
	slices.SortFunc(out, func(a, b Frame) int { return cmp.Compare(a.Period, b.Period) })
	return out, stats, nil
}

func parseRow(row Row, schema *config.Schema, strip []*regexp.Regexp) (Entity, DropReason, bool) {
	raw, _ := firstPresent(row, schema.ValueColumns)
	value, ok := parseLeadingInt(strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(raw)))
	if !ok {
		return Entity{}, DropBadValue, false
	}
	if value < 0 {
		return Entity{}, DropNegativeValue, false
	}

	name := row[schema.NameColumn]
	for _, re := range strip {
		name = re.ReplaceAllString(name, "")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Entity{}, DropMissingName, false
	}
	if isAggregate(name, schema) {
		return Entity{}, DropAggregate, false
	}

	period, err := strconv.Atoi(strings.TrimSpace(row[schema.PeriodColumn]))
	if err != nil {
		return Entity{}, DropBadPeriod, false
	}

	return Entity{
		Name:       name,
		Value:      value,
		Category:   categoryOf(row, name, schema),
		Decoration: strings.TrimSpace(row[schema.DecorationColumn]),
		Period:     period,
	}, 0, true
}

func firstPresent(row Row, columns []string) (string, bool) {
	for _, c := range columns {
		if v, ok := row[c]; ok {
			return v, true
		}
	}
	return "", false
}

// parseLeadingInt accepts an optional sign followed by digits and ignores any
// trailing text, so "12.7" reads as 12 and "3 million" (spaces already
// stripped) as 3.
func parseLeadingInt(s string) (int64, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isAggregate(name string, schema *config.Schema) bool {
	if slices.Contains(schema.ExcludeNames, name) {
		return true
	}
	for _, sub := range schema.ExcludeSubstrings {
		if sub != "" && strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

func categoryOf(row Row, name string, schema *config.Schema) Category {
	if schema.CategoryColumn != "" {
		if c := strings.TrimSpace(row[schema.CategoryColumn]); c != "" {
			return Category{Name: c}
		}
	}
	if schema.CategoryFallback == config.FallbackShared {
		return Category{Name: schema.SharedCategory, Derived: true}
	}
	return Category{Name: name, Derived: true}
}

// Periods returns the frame periods in order.
func Periods(frames []Frame) []int {
	out := make([]int, len(frames))
	for i, f := range frames {
		out[i] = f.Period
	}
	return out
}

// History returns name's value in every frame; frames without the entity
// contribute 0.
func History(frames []Frame, name string) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		for _, e := range f.Entities {
			if e.Name == name {
				out[i] = float64(e.Value)
				break
			}
		}
	}
	return out
}
