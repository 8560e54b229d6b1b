// Package sync implements the incremental check cycle: list entries saved
// since the last watermark, materialize each as a document on disk, and
// advance the watermark.
package sync

import (
	"context"
	"log/slog"
	"time"

	"wallabagsync/internal/wallabag"
)

// entryService is the slice of the Wallabag client the engine needs.
type entryService interface {
	ListEntries(ctx context.Context, since *float64) ([]wallabag.Entry, error)
	GetEntry(ctx context.Context, id int) (*wallabag.Entry, error)
}

// exporter writes a document for one entry and reports the file name used.
type exporter interface {
	Export(listed wallabag.Entry, full wallabag.Entry) (string, error)
}

// watermarkStore persists the last-check timestamp between invocations.
type watermarkStore interface {
	Load() (*float64, error)
	Save(timestamp float64) error
}

// ContentFallback produces a (title, html) rendition of a page when the
// service returned an entry with no content.
type ContentFallback func(pageURL string) (string, string, error)

// Engine runs one check cycle per invocation; looping is left to an external
// scheduler such as cron.
type Engine struct {
	entries  entryService
	store    watermarkStore
	writer   exporter
	fallback ContentFallback
	logger   *slog.Logger

	now func() time.Time
}

// NewEngine wires up a sync engine. fallback may be nil to disable the
// readable-content fallback.
func NewEngine(entries entryService, store watermarkStore, writer exporter, fallback ContentFallback, logger *slog.Logger) *Engine {
	return &Engine{
		entries:  entries,
		store:    store,
		writer:   writer,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Run performs a single check cycle. The cycle start time is captured before
// the listing request and is what gets persisted as the new watermark, so an
// entry saved remotely while a slow fetch is in flight is picked up on the
// next run instead of being skipped. The watermark is advanced even when the
// cycle found nothing or every export failed: it records how far we have
// looked, not how much succeeded.
func (e *Engine) Run(ctx context.Context) error {
	watermark, err := e.store.Load()
	if err != nil {
		return err
	}

	cycleStart := e.now()

	e.logger.Info("checking for new entries")

	entries, err := e.entries.ListEntries(ctx, watermark)
	if err != nil {
		e.logger.Error("failed to list entries", "error", err)
		entries = nil
	} else {
		e.logger.Info("retrieved entries", "count", len(entries))
	}

	newEntries := e.filterNew(entries, watermark)
	e.logger.Info("entries to export", "count", len(newEntries))

	exported := 0
	for _, entry := range newEntries {
		if e.exportEntry(ctx, entry) {
			exported++
		}
	}
	if len(newEntries) > 0 {
		e.logger.Info("export finished", "exported", exported, "failed", len(newEntries)-exported)
	}

	return e.store.Save(epochSeconds(cycleStart))
}

// filterNew re-applies the since filter client-side: the server-side filter is
// inclusive, and entries created exactly at the watermark were covered by the
// previous cycle. An entry whose timestamp does not parse is kept; exporting
// it twice beats losing it.
func (e *Engine) filterNew(entries []wallabag.Entry, watermark *float64) []wallabag.Entry {
	if watermark == nil {
		// First run: everything currently in the account gets exported once.
		return entries
	}

	var kept []wallabag.Entry
	for _, entry := range entries {
		created, err := entry.CreatedTime()
		if err != nil {
			e.logger.Warn("keeping entry with unparsable created_at", "id", entry.ID, "created_at", entry.CreatedAt)
			kept = append(kept, entry)
			continue
		}
		if float64(created.Unix()) > *watermark {
			kept = append(kept, entry)
		}
	}
	return kept
}

// exportEntry fetches the full content for one entry and writes it out. Every
// failure is entry-scoped: it is logged and the cycle moves on.
func (e *Engine) exportEntry(ctx context.Context, listed wallabag.Entry) bool {
	full, err := e.entries.GetEntry(ctx, listed.ID)
	if err != nil {
		e.logger.Error("could not retrieve full content", "id", listed.ID, "title", listed.Title, "error", err)
		return false
	}

	if full.Content == "" && e.fallback != nil {
		title, content, err := e.fallback(full.URL)
		if err != nil {
			e.logger.Warn("readable fallback failed", "id", full.ID, "url", full.URL, "error", err)
		} else {
			full.Content = content
			if full.Title == "" {
				full.Title = title
			}
		}
	}

	fileName, err := e.writer.Export(listed, *full)
	if err != nil {
		e.logger.Error("failed to export entry", "id", listed.ID, "title", listed.Title, "error", err)
		return false
	}

	e.logger.Info("exported entry", "id", listed.ID, "file", fileName)
	return true
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
