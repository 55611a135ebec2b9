package engine

import (
	"errors"
	"fmt"

	"transformer/internal/source"
)

type Mode string

const (
	ModeBatch     Mode = "batch"
	ModeStreaming Mode = "streaming"
)

var ErrUnknownMode = errors.New("unknown mode")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBatch, ModeStreaming:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// Config describes one run. It is passed explicitly so runs stay
// independent of each other.
type Config struct {
	sourcePath     string
	source         source.Config
	allowUnordered bool
	showProgress   bool
}

func NewConfig(sourcePath string, src source.Config) *Config {
	return &Config{
		sourcePath: sourcePath,
		source:     src,
	}
}

// AllowUnordered keeps rows whose timestamps do not increase instead of
// failing the run.
func (c *Config) AllowUnordered(allow bool) *Config {
	c.allowUnordered = allow
	return c
}

func (c *Config) ShowProgress(show bool) *Config {
	c.showProgress = show
	return c
}

func (c *Config) validate() error {
	if c.sourcePath == "" {
		return errors.New("source path not set")
	}
	return c.source.Validate()
}
