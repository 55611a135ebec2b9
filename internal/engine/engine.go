package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"transformer/internal/indicator"
	"transformer/internal/table"
	"transformer/internal/transform"
)

type Engine struct {
	cfg        Config
	transforms transform.List
	registry   indicator.Registry
	executor   *transform.Executor
	logger     *slog.Logger
	metrics    *Metrics
	progress   io.Writer
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRegistry replaces the built-in indicator registry.
func WithRegistry(r indicator.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithProgressWriter sets where the progress bar is drawn when progress is
// enabled. Defaults to stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(e *Engine) {
		e.progress = w
	}
}

// NewEngine validates the configuration and the transform list. Any
// configuration error is reported here, before a row is read.
func NewEngine(cfg *Config, transforms transform.List, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	e := &Engine{
		cfg:        *cfg,
		transforms: transforms,
		registry:   indicator.Default(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		progress:   os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := transforms.Validate(e.registry); err != nil {
		return nil, fmt.Errorf("transforms: %w", err)
	}
	var execOpts []transform.ExecutorOption
	if e.metrics != nil {
		execOpts = append(execOpts, transform.WithObserver(e.metrics))
	}
	executor, err := transform.NewExecutor(e.registry, transforms, execOpts...)
	if err != nil {
		return nil, err
	}
	e.executor = executor
	return e, nil
}

// Run processes the whole source file in the given mode and returns the
// completed table. On error no table is returned; logging the error is left
// to the caller.
func (e *Engine) Run(mode Mode) (*table.Table, error) {
	start := time.Now()
	e.logger.Info("run started",
		slog.String("mode", string(mode)),
		slog.String("source", e.cfg.sourcePath),
		slog.String("transforms", e.transforms.String()),
	)

	var (
		tbl *table.Table
		err error
	)
	switch mode {
	case ModeBatch:
		tbl, err = e.runBatch()
	case ModeStreaming:
		tbl, err = e.runStreaming()
	default:
		err = fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	e.metrics.runDone(mode, elapsed)
	e.logger.Info("run finished",
		slog.String("mode", string(mode)),
		slog.Int("rows", tbl.Len()),
		slog.Duration("elapsed", elapsed),
	)
	for _, col := range tbl.Columns() {
		attrs := []any{slog.String("column", col), slog.Int("available", tbl.Count(col))}
		if v, ok := tbl.Last(col); ok {
			attrs = append(attrs, slog.String("last", v.String()))
		}
		e.logger.Debug("column summary", attrs...)
	}
	return tbl, nil
}

func (e *Engine) newTable() (*table.Table, error) {
	var opts []table.Option
	if e.cfg.allowUnordered {
		opts = append(opts, table.WithUnorderedRows())
	}
	return table.New(e.transforms.Columns(), opts...)
}

func (e *Engine) openSource() (*os.File, error) {
	f, err := os.Open(e.cfg.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}
