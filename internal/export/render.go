package export

import (
	"html/template"
	"strings"

	"wallabagsync/internal/wallabag"
)

// documentTemplate produces a standalone HTML document with no external asset
// dependencies. Title and URL pass through the template engine and are
// escaped; the content fragment comes from the Wallabag instance itself and is
// embedded as-is.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            line-height: 1.6;
            color: #333;
        }
        .header {
            border-bottom: 1px solid #eee;
            padding-bottom: 20px;
            margin-bottom: 30px;
        }
        .title {
            font-size: 2em;
            font-weight: bold;
            margin-bottom: 10px;
        }
        .meta {
            color: #666;
            font-size: 0.9em;
        }
        .url {
            word-break: break-all;
            margin: 10px 0;
        }
        .content {
            margin-top: 30px;
        }
        .content img {
            max-width: 100%;
            height: auto;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">{{.Title}}</div>
        <div class="meta">
            <div>Saved on: {{.SavedOn}}</div>
            <div class="url">Original URL: <a href="{{.URL}}">{{.URL}}</a></div>
        </div>
    </div>
    <div class="content">
        {{.Content}}
    </div>
</body>
</html>
`))

type documentData struct {
	Title   string
	URL     string
	SavedOn string
	Content template.HTML
}

// RenderHTML turns a full entry into a standalone HTML document. The saved-on
// timestamp is formatted as "2006-01-02 15:04:05"; if the entry's created_at
// does not parse, the raw string is shown instead.
func RenderHTML(entry wallabag.Entry) (string, error) {
	savedOn := entry.CreatedAt
	if t, err := entry.CreatedTime(); err == nil {
		savedOn = t.Format("2006-01-02 15:04:05")
	}

	var b strings.Builder
	err := documentTemplate.Execute(&b, documentData{
		Title:   entry.Title,
		URL:     entry.URL,
		SavedOn: savedOn,
		Content: template.HTML(entry.Content),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
