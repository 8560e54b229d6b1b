package export

import (
	"strings"

	"wallabagsync/internal/wallabag"
)

const maxFilenameRunes = 200

// SanitizeFilename makes a string safe to use as a file name: characters that
// are meaningful to common filesystems are replaced with underscores, the
// result is trimmed and capped at 200 runes, and an empty result becomes
// "untitled". Applying it twice yields the same output.
func SanitizeFilename(name string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)

	replaced = strings.TrimSpace(replaced)

	if runes := []rune(replaced); len(runes) > maxFilenameRunes {
		replaced = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}

	if replaced == "" {
		return "untitled"
	}
	return replaced
}

// Filename derives the export file name for an entry: creation date (or
// "unknown-date" when the timestamp cannot be parsed), sanitized title, and
// the format extension. Two entries sharing date and title map to the same
// name; the later write wins.
func Filename(entry wallabag.Entry, extension string) string {
	datePrefix := "unknown-date"
	if t, err := entry.CreatedTime(); err == nil {
		datePrefix = t.Format("2006-01-02")
	}
	return datePrefix + "_" + SanitizeFilename(entry.Title) + "." + extension
}
