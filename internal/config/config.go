// Package config loads run configuration from TRANSFORMER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"

	"transformer/internal/engine"
	"transformer/internal/source"
	"transformer/internal/transform"
)

const Prefix = "TRANSFORMER"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	SourcePath     string `envconfig:"SOURCE_PATH" required:"true"`
	Delimiter      string `envconfig:"DELIMITER" default:"tab"`
	TimeLayout     string `envconfig:"TIME_LAYOUT" default:"02.01.2006 15:04"`
	TimeZone       string `envconfig:"TIME_ZONE" default:"UTC"`
	Mode           string `envconfig:"MODE" default:"streaming"`
	Transforms     string `envconfig:"TRANSFORMS" default:"midpoint(high,low); sma(midpoint,26)"`
	AllowUnordered bool   `envconfig:"ALLOW_UNORDERED" default:"false"`

	Output       string `envconfig:"OUTPUT"`
	OutputFormat string `envconfig:"OUTPUT_FORMAT" default:"text"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	Symbol      string `envconfig:"SYMBOL" default:"TQBR.SBER_D1"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Progress    bool   `envconfig:"PROGRESS" default:"true"`
	MetricsFile string `envconfig:"METRICS_FILE"`
}

// Load fills a Config from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var namedDelimiters = map[string]rune{
	"tab":       '\t',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	"space":     ' ',
}

// DelimiterRune accepts a single character or one of the names tab,
// comma, semicolon, pipe, space.
func (c *Config) DelimiterRune() (rune, error) {
	if r, ok := namedDelimiters[strings.ToLower(c.Delimiter)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character: %w", c.Delimiter, ErrInvalid)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r, nil
}

func (c *Config) SourceConfig() (source.Config, error) {
	delim, err := c.DelimiterRune()
	if err != nil {
		return source.Config{}, err
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return source.Config{}, fmt.Errorf("time zone %q: %w", c.TimeZone, err)
	}
	sc := source.Config{Delimiter: delim, TimeLayout: c.TimeLayout, Location: loc}
	if err := sc.Validate(); err != nil {
		return source.Config{}, err
	}
	return sc, nil
}

func (c *Config) EngineConfig() (*engine.Config, error) {
	sc, err := c.SourceConfig()
	if err != nil {
		return nil, err
	}
	return engine.NewConfig(c.SourcePath, sc).
		AllowUnordered(c.AllowUnordered).
		ShowProgress(c.Progress), nil
}

func (c *Config) TransformList() (transform.List, error) {
	return transform.Parse(c.Transforms)
}

func (c *Config) RunMode() (engine.Mode, error) {
	return engine.ParseMode(strings.ToLower(c.Mode))
}

const (
	FormatText    = "text"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

func (c *Config) Format() (string, error) {
	switch f := strings.ToLower(c.OutputFormat); f {
	case FormatText, FormatCSV, FormatParquet:
		if f == FormatParquet && c.Output == "" {
			return "", fmt.Errorf("parquet output needs an output path: %w", ErrInvalid)
		}
		return f, nil
	}
	return "", fmt.Errorf("output format %q: %w", c.OutputFormat, ErrInvalid)
}
