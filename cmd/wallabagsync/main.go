// Command wallabagsync checks a Wallabag account for newly saved entries and
// exports each one as a standalone document, or bulk-imports bookmarks from a
// CSV file. It runs one pass and exits; schedule it with cron for periodic
// checking.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"wallabagsync/internal/config"
	"wallabagsync/internal/export"
	"wallabagsync/internal/importer"
	"wallabagsync/internal/readable"
	syncengine "wallabagsync/internal/sync"
	"wallabagsync/internal/wallabag"
)

const logFile = "wallabag_sync.log"

func main() {
	importCSV := flag.String("import-csv", "", "import entries from CSV `FILE` instead of syncing")
	dryRun := flag.Bool("dry-run", false, "preview CSV import without adding entries")
	configPath := flag.String("config", "wallabag_config.json", "config `FILE` path")
	watermarkPath := flag.String("watermark", syncengine.DefaultWatermarkPath, "last-check timestamp `FILE` path")
	flag.Parse()

	logger, closeLog := newLogger()
	defer closeLog()

	if err := run(logger, *configPath, *watermarkPath, *importCSV, *dryRun); err != nil {
		if errors.Is(err, config.ErrCreatedTemplate) {
			fmt.Fprintf(os.Stderr, "Created example config file: %s\n", *configPath)
			fmt.Fprintln(os.Stderr, "Please edit it with your Wallabag credentials and settings.")
		} else {
			logger.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
}

// newLogger logs to stderr and to the log file, matching what a cron-driven
// deployment wants: mail output on failure, a file to grep afterwards. Every
// line carries a run id so overlapping invocations stay distinguishable.
func newLogger() (*slog.Logger, func()) {
	sink := io.Writer(os.Stderr)
	closeLog := func() {}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err == nil {
		sink = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(sink, nil)).With("run_id", uuid.NewString())
	return logger, closeLog
}

func run(logger *slog.Logger, configPath, watermarkPath, importCSV string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := wallabag.NewClient(wallabag.Config{
		BaseURL:      cfg.WallabagURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Password:     cfg.Password,
	}, nil)

	ctx := context.Background()

	if importCSV != "" {
		_, err := importer.New(client, logger).ImportFile(ctx, importCSV, dryRun)
		return err
	}

	if err := os.MkdirAll(cfg.OutputDirectory, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logger.Info("starting check", "output_directory", cfg.OutputDirectory, "format", cfg.ExportFormat)

	writer := export.NewWriter(cfg.OutputDirectory, export.Format(cfg.ExportFormat))
	store := syncengine.NewWatermarkStore(watermarkPath)
	engine := syncengine.NewEngine(client, store, writer, readable.FetchArticle, logger)

	return engine.Run(ctx)
}
