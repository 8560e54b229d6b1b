package export

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	epub "github.com/bmaupin/go-epub"

	"wallabagsync/internal/wallabag"
)

// Format names an export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatEPUB Format = "epub"
)

// Writer materializes entries as files in a single output directory. The file
// name is derived from the listing entry (date + title); the document body
// comes from the full entry. Name collisions overwrite the previous file.
type Writer struct {
	dir    string
	format Format
}

// NewWriter returns a Writer targeting dir. Unknown formats fall back to HTML.
func NewWriter(dir string, format Format) *Writer {
	if format != FormatEPUB {
		format = FormatHTML
	}
	return &Writer{dir: dir, format: format}
}

// Export writes one document for the entry and returns the file name used.
func (w *Writer) Export(listed wallabag.Entry, full wallabag.Entry) (string, error) {
	switch w.format {
	case FormatEPUB:
		return w.exportEPUB(listed, full)
	default:
		return w.exportHTML(listed, full)
	}
}

func (w *Writer) exportHTML(listed wallabag.Entry, full wallabag.Entry) (string, error) {
	document, err := RenderHTML(full)
	if err != nil {
		return "", fmt.Errorf("render entry %d: %w", full.ID, err)
	}

	fileName := Filename(listed, "html")
	if err := os.WriteFile(filepath.Join(w.dir, fileName), []byte(document), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", fileName, err)
	}
	return fileName, nil
}

var epubSectionTemplate = template.Must(template.New("section").Parse(`<h1>{{.Title}}</h1>
<p>Saved on: {{.SavedOn}}</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
{{.Content}}
`))

func (w *Writer) exportEPUB(listed wallabag.Entry, full wallabag.Entry) (string, error) {
	title := full.Title
	if title == "" {
		title = "untitled"
	}

	savedOn := full.CreatedAt
	if t, err := full.CreatedTime(); err == nil {
		savedOn = t.Format("2006-01-02 15:04:05")
	}

	var section strings.Builder
	err := epubSectionTemplate.Execute(&section, documentData{
		Title:   title,
		URL:     full.URL,
		SavedOn: savedOn,
		Content: template.HTML(full.Content),
	})
	if err != nil {
		return "", fmt.Errorf("render entry %d: %w", full.ID, err)
	}

	book := epub.NewEpub(title)
	book.SetAuthor("wallabagsync")
	if _, err := book.AddSection(section.String(), title, "", ""); err != nil {
		return "", fmt.Errorf("build epub for entry %d: %w", full.ID, err)
	}

	fileName := Filename(listed, "epub")
	if err := book.Write(filepath.Join(w.dir, fileName)); err != nil {
		return "", fmt.Errorf("write %s: %w", fileName, err)
	}
	return fileName, nil
}
