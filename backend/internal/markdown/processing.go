package markdown

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// TextProcessor renders post content (markdown) into sanitized HTML.
// It is safe for concurrent use.
type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
	)

	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AllowRelativeURLs(true)

	return &TextProcessor{md: md, policy: p}
}

// Render converts content to HTML. Raw HTML in the input is dropped by the
// renderer and the result is sanitized again, so the output is safe to embed.
// When rendering fails the escaped source text is returned.
func (tp *TextProcessor) Render(content string) string {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(content), &buf); err != nil {
		return tp.policy.Sanitize(content)
	}
	return strings.TrimSpace(tp.policy.Sanitize(buf.String()))
}
