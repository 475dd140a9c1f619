package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// exportMarkdown renders the Markdown export: the task table needs GFM tables
// and done tasks use ~~strikethrough~~. Headings get ids so the page can link
// to "#dependencies" and "#notes".
var exportMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, emoji.Emoji),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// exportHTML converts an exported timeline to HTML for the read-only page.
// html.WithUnsafe is never set, so raw HTML typed into notes comes out
// escaped and the result is safe to mark as template.HTML.
func exportHTML(md string) template.HTML {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	var b bytes.Buffer
	b.Grow(len(md) * 2)
	if err := exportMarkdown.Convert([]byte(md), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(b.String())
}
