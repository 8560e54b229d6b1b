// Package readable fetches a reader-view rendition of a web page. It is the
// fallback content source for entries whose stored content is empty, e.g.
// pages the Wallabag instance failed to extract.
package readable

import (
	"time"

	"github.com/go-shiori/dom"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

const fetchTimeout = 30 * time.Second

// The fetched HTML comes from arbitrary web pages, unlike entry content
// served by the Wallabag instance, so it gets a UGC sanitization pass.
var sanitizer = bluemonday.UGCPolicy()

// FetchArticle downloads pageURL and extracts the readable article from it.
// The returned HTML fragment is sanitized and safe to embed.
func FetchArticle(pageURL string) (title string, content string, err error) {
	article, err := readability.FromURL(pageURL, fetchTimeout)
	if err != nil {
		return "", "", err
	}

	// Some pages carry duplicated id/alt attributes that trip up strict
	// XHTML consumers downstream.
	if article.Node != nil {
		article.Content = cleanDuplicateAttributes(article.Node, "id")
		article.Content = cleanDuplicateAttributes(article.Node, "alt")
	}

	return article.Title, sanitizer.Sanitize(article.Content), nil
}

func cleanDuplicateAttributes(doc *html.Node, attrName string) string {
	clean := func(node *html.Node, idx int) {
		attribute := dom.GetAttribute(node, attrName)
		dom.RemoveAttribute(node, attrName)
		dom.SetAttribute(node, attrName, attribute)
	}

	nodeList := dom.QuerySelectorAll(doc, "["+attrName+"]")
	dom.ForEachNode(nodeList, clean)

	return dom.OuterHTML(doc)
}
