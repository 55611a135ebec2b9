package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"transformer/internal/source"
	"transformer/internal/table"
)

// runBatch loads the whole file into the table first, then applies the
// transforms row by row.
func (e *Engine) runBatch() (*table.Table, error) {
	f, err := e.openSource()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := source.NewReader(f, e.cfg.source).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	tbl, err := e.newTable()
	if err != nil {
		return nil, err
	}
	for _, b := range bars {
		if err := tbl.Append(b); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("history loaded", slog.Int("rows", tbl.Len()))

	bar := e.initProgressBar(tbl.Len(), "Processing history...")
	defer bar.Finish()
	for row := 0; row < tbl.Len(); row++ {
		if err := e.executor.Execute(tbl, row); err != nil {
			return nil, err
		}
		e.metrics.rowDone(ModeBatch)
		bar.Add(1)
	}
	return tbl, nil
}

// runStreaming starts from an empty table and appends one bar per line,
// applying the transforms to each new row as it arrives.
func (e *Engine) runStreaming() (*table.Table, error) {
	f, err := e.openSource()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl, err := e.newTable()
	if err != nil {
		return nil, err
	}
	reader := source.NewReader(f, e.cfg.source)

	bar := e.initProgressBar(-1, "Emulating new bars...")
	defer bar.Finish()
	for {
		b, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return tbl, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		if err := tbl.Append(b); err != nil {
			return nil, err
		}
		if err := e.executor.Execute(tbl, tbl.Len()-1); err != nil {
			return nil, err
		}
		e.metrics.rowDone(ModeStreaming)
		bar.Add(1)
	}
}

// initProgressBar draws nothing unless progress is enabled. A negative
// maxTicks gives a spinner for input of unknown length.
func (e *Engine) initProgressBar(maxTicks int, description string) *progressbar.ProgressBar {
	w := io.Discard
	if e.cfg.showProgress {
		w = e.progress
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
