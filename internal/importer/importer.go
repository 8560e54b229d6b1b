// Package importer bulk-creates Wallabag entries from a CSV bookmark export,
// e.g. the file Pocket hands out on account export.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"wallabagsync/internal/wallabag"
)

// entryAdder is the slice of the Wallabag client the importer needs.
type entryAdder interface {
	AddEntry(ctx context.Context, entryURL, title, tags string) (*wallabag.Entry, error)
}

// Result tallies one import run. An already-saved entry (409 from the
// service) counts as imported, not errored.
type Result struct {
	Imported int
	Errored  int
	Skipped  int
}

// Importer reads bookmark rows from CSV and saves each to the service, with a
// fixed delay between creation calls to keep the request rate down.
type Importer struct {
	adder  entryAdder
	logger *slog.Logger
	delay  time.Duration
}

func New(adder entryAdder, logger *slog.Logger) *Importer {
	return &Importer{
		adder:  adder,
		logger: logger,
		delay:  500 * time.Millisecond,
	}
}

// ImportFile imports every structurally valid row of the CSV file at path.
// Expected columns are [title, url, _, _, tags]: columns 2 and 3 exist in
// legacy bookmark exports and are ignored, tags are honored only from column
// 4. Rows with fewer than two columns or an empty URL are skipped and
// counted. In dry-run mode valid rows are counted without any network call.
// Only a file-level read failure makes the whole import fail.
func (im *Importer) ImportFile(ctx context.Context, path string, dryRun bool) (Result, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}

	im.logger.Info("starting csv import", "file", path, "dry_run", dryRun)

	reader := csv.NewReader(bytes.NewReader(fileContent))
	reader.FieldsPerRecord = -1

	if hasHeader(fileContent) {
		if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("read csv header: %w", err)
		}
	}

	var result Result
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}

		if len(row) < 2 {
			im.logger.Warn("not enough columns, skipping", "row", rowNum)
			result.Skipped++
			continue
		}

		title := strings.TrimSpace(row[0])
		entryURL := strings.TrimSpace(row[1])
		if entryURL == "" {
			im.logger.Warn("empty url, skipping", "row", rowNum)
			result.Skipped++
			continue
		}

		var tags string
		if len(row) > 4 {
			tags = strings.TrimSpace(row[4])
		}

		im.logger.Info("processing row", "row", rowNum, "title", title, "url", entryURL)

		if dryRun {
			result.Imported++
			continue
		}

		switch _, err := im.adder.AddEntry(ctx, entryURL, title, tags); {
		case err == nil:
			im.logger.Info("added entry", "title", title, "url", entryURL)
			result.Imported++
		case errors.Is(err, wallabag.ErrAlreadyExists):
			im.logger.Info("entry already exists", "title", title, "url", entryURL)
			result.Imported++
		default:
			im.logger.Error("failed to add entry", "row", rowNum, "url", entryURL, "error", err)
			result.Errored++
		}

		time.Sleep(im.delay)
	}

	im.logger.Info("csv import completed",
		"imported", result.Imported,
		"errors", result.Errored,
		"skipped", result.Skipped,
	)

	return result, nil
}

// hasHeader guesses whether the first line is a header row: it is treated as
// one when it mentions "title" or "url" in any case. A data row whose URL
// contains "url" trips this heuristic; that matches how existing bookmark
// exports are handled.
func hasHeader(fileContent []byte) bool {
	firstLine := fileContent
	if idx := bytes.IndexByte(fileContent, '\n'); idx >= 0 {
		firstLine = fileContent[:idx]
	}
	lower := strings.ToLower(string(firstLine))
	return strings.Contains(lower, "title") || strings.Contains(lower, "url")
}
