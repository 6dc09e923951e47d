// Package config describes how raw dataset columns map onto entities and how
// categories are coloured. The defaults reproduce the population dataset the
// chart was built for; a YAML file can override any field.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Fallback policies for rows without an explicit category.
const (
	FallbackEntity = "entity"
	FallbackShared = "shared"
)

type Schema struct {
	// ValueColumns are tried in order; the first present column wins.
	ValueColumns      []string `yaml:"value_columns"`
	NameColumn        string   `yaml:"name_column"`
	PeriodColumn      string   `yaml:"period_column"`
	CategoryColumn    string   `yaml:"category_column"`
	DecorationColumn  string   `yaml:"decoration_column"`
	NameStripPatterns []string `yaml:"name_strip_patterns"`

	// Rows whose name equals one of ExcludeNames, or contains one of
	// ExcludeSubstrings, are pre-aggregated totals and never ranked.
	ExcludeNames      []string `yaml:"exclude_names"`
	ExcludeSubstrings []string `yaml:"exclude_substrings"`

	CategoryFallback string `yaml:"category_fallback"`
	SharedCategory   string `yaml:"shared_category"`

	Colors       []CategoryColor `yaml:"colors"`
	DefaultColor string          `yaml:"default_color"`

	stripRe []*regexp.Regexp
}

type CategoryColor struct {
	Category string `yaml:"category"`
	Color    string `yaml:"color"`
}

func Default() *Schema {
	return &Schema{
		ValueColumns:      []string{"Value", "Population", "all years"},
		NameColumn:        "Entity",
		PeriodColumn:      "Year",
		CategoryColumn:    "region",
		DecorationColumn:  "flag",
		NameStripPatterns: []string{`\s*\(UN\)\s*`},
		ExcludeNames:      []string{"World"},
		ExcludeSubstrings: []string{"developed", "countries", "Asia"},
		CategoryFallback:  FallbackEntity,
		SharedCategory:    "Uncategorized",
		Colors: []CategoryColor{
			{Category: "Africa", Color: "#e44e9d"},
			{Category: "Americas", Color: "#29a9ff"},
			{Category: "Asia", Color: "#1e7fe5"},
			{Category: "Europe", Color: "#a557d8"},
			{Category: "Oceania", Color: "#ff6b00"},
		},
		DefaultColor: "#cccccc",
	}
}

// Load reads a YAML schema from path on top of the defaults. Fields missing
// from the file keep their default values.
func Load(path string) (*Schema, error) {
	s := Default()
	if path == "" {
		return s, s.compile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, s.compile()
}

func (s *Schema) Validate() error {
	if len(s.ValueColumns) == 0 {
		return fmt.Errorf("schema: value_columns must not be empty")
	}
	if s.NameColumn == "" {
		return fmt.Errorf("schema: name_column must be set")
	}
	if s.PeriodColumn == "" {
		return fmt.Errorf("schema: period_column must be set")
	}
	switch s.CategoryFallback {
	case FallbackEntity:
	case FallbackShared:
		if s.SharedCategory == "" {
			return fmt.Errorf("schema: shared_category must be set when category_fallback is %q", FallbackShared)
		}
	default:
		return fmt.Errorf("schema: category_fallback must be %q or %q (got %q)", FallbackEntity, FallbackShared, s.CategoryFallback)
	}
	return nil
}

func (s *Schema) compile() error {
	s.stripRe = s.stripRe[:0]
	for _, p := range s.NameStripPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("schema: name_strip_patterns %q: %w", p, err)
		}
		s.stripRe = append(s.stripRe, re)
	}
	return nil
}

// StripPatterns returns the compiled name annotation patterns. Schemas
// built by hand skip Load and are compiled here on first use.
func (s *Schema) StripPatterns() ([]*regexp.Regexp, error) {
	if len(s.stripRe) != len(s.NameStripPatterns) {
		if err := s.compile(); err != nil {
			return nil, err
		}
	}
	return s.stripRe, nil
}

// Color returns the configured colour for a category, or DefaultColor.
func (s *Schema) Color(category string) string {
	for _, c := range s.Colors {
		if c.Category == category {
			return c.Color
		}
	}
	return s.DefaultColor
}
