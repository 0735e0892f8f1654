package template

import (
	"bytes"
	"log"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
	htmlPolicy   *bluemonday.Policy
)

func initMarkdown() {
	markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	// Formatting tags only. Output lands in e-mail bodies and the
	// knowledge-base browser, so scripts and event handlers must not
	// survive.
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "strike", "del")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("p", "br", "hr")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "code", "pre")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowElements("a")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	htmlPolicy = p
}

// RenderMarkdown converts markdown to sanitized HTML. On conversion failure
// the raw text is returned sanitized, never lost.
func RenderMarkdown(content string) string {
	markdownOnce.Do(initMarkdown)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		log.Printf("markdown render failed: %v", err)
		return htmlPolicy.Sanitize(content)
	}
	return htmlPolicy.Sanitize(buf.String())
}

// SanitizeHTML strips unsafe markup from already-rendered HTML.
func SanitizeHTML(content string) string {
	markdownOnce.Do(initMarkdown)
	return htmlPolicy.Sanitize(content)
}
