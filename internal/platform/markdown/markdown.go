// Package markdown renders instrument descriptions to sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

	policy = func() *bluemonday.Policy {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"a", "blockquote", "br", "code", "em",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"hr", "li", "ol", "p", "pre", "strong", "ul",
		)
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https")
		p.RequireParseableURLs(true)
		return p
	}()
)

// Render converts markdown to HTML that is safe to embed in a page. Raw HTML
// in the source is dropped by goldmark and anything else outside the allow
// list is stripped by the sanitizer.
func Render(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}
