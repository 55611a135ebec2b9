package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"transformer/internal/config"
	"transformer/internal/engine"
	"transformer/internal/export"
	"transformer/internal/logger"
	"transformer/internal/repository"
	"transformer/internal/table"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(os.Stderr, "transformer", cfg.LogLevel)

	start := time.Now()
	if err := run(cfg, log); err != nil {
		log.Error("transformer failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("done", slog.Duration("elapsed", time.Since(start)))
}

func run(cfg *config.Config, log *slog.Logger) error {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	transforms, err := cfg.TransformList()
	if err != nil {
		return err
	}
	mode, err := cfg.RunMode()
	if err != nil {
		return err
	}
	format, err := cfg.Format()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	eng, err := engine.NewEngine(engineCfg, transforms,
		engine.WithLogger(log),
		engine.WithMetrics(engine.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}

	tbl, err := eng.Run(mode)
	if err != nil {
		return fmt.Errorf("%s run: %w", mode, err)
	}

	if err := writeOutput(cfg.Output, format, tbl); err != nil {
		return err
	}

	if cfg.DatabaseURL != "" {
		if err := persist(cfg.DatabaseURL, cfg.Symbol, tbl, log); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func writeOutput(path, format string, tbl *table.Table) error {
	switch {
	case format == config.FormatParquet:
		return export.WriteParquetFile(path, tbl)
	case format == config.FormatCSV && path != "":
		return export.WriteCSVFile(path, tbl)
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if format == config.FormatCSV {
		return export.WriteCSV(w, tbl)
	}
	return export.WriteText(w, tbl)
}

func persist(dbURL, symbol string, tbl *table.Table, log *slog.Logger) error {
	ctx := context.Background()
	db, err := repository.NewDatabase(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	n, err := db.SaveTable(ctx, symbol, tbl)
	if err != nil {
		return err
	}
	log.Info("table saved", slog.String("symbol", symbol), slog.Int64("rows", n))
	return nil
}
