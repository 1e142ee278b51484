package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown turns a user supplied body into sanitized HTML. Results are
// cached by content hash.
func RenderMarkdown(source string) template.HTML {
	if source == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])
	if cached, ok := MarkdownCache().Get(key); ok {
		return template.HTML(cached)
	}

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		// fall back to escaped text
		return template.HTML(template.HTMLEscapeString(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	out := EnhanceHTMLContent(string(sanitized))
	MarkdownCache().Set(key, out)
	return template.HTML(out)
}
