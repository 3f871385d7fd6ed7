// Package markdown converts markdown pages to HTML with unique heading IDs,
// front matter and syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/headingid"
	"github.com/chaijs/docsite/pkg/utils"
)

// Document is a rendered markdown page
type Document struct {
	HTML string
	Meta map[string]any
}

// Options selects renderer features
type Options struct {
	UnsafeHTML       bool
	Typographer      bool
	Highlight        bool
	HighlightStyle   string
	LineNumbers      bool
	HighlightClasses bool
}

// OptionsFromConfig maps the site configuration onto renderer options
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		UnsafeHTML:       cfg.Markdown.UnsafeHTML,
		Typographer:      cfg.Markdown.Typographer,
		Highlight:        config.GetEffectiveHighlightEnabled(cfg),
		HighlightStyle:   cfg.Highlight.Style,
		LineNumbers:      cfg.Highlight.LineNumbers,
		HighlightClasses: cfg.Highlight.UseClasses,
	}
}

// Renderer is safe for concurrent use; every call gets its own heading ID registry.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a goldmark pipeline for opts
func NewRenderer(opts Options) *Renderer {
	exts := []goldmark.Extender{extension.GFM, meta.Meta}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	if opts.Highlight {
		style := opts.HighlightStyle
		if style == "" {
			style = "github"
		}
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(opts.HighlightClasses),
				chromahtml.WithLineNumbers(opts.LineNumbers),
			),
		))
	}

	var rendererOpts []renderer.Option
	if opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(headingIDTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Renderer{md: md}
}

// Render converts src, returning the HTML body and its front matter
func (r *Renderer) Render(src []byte) (Document, error) {
	reg := headingid.NewRegistry()
	pc := parser.NewContext(parser.WithIDs(reg))

	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return Document{}, fmt.Errorf("%w: %w", utils.ErrRender, err)
	}

	fm, err := meta.TryGet(pc)
	if err != nil {
		return Document{}, fmt.Errorf("%w: front matter: %w", utils.ErrParsing, err)
	}
	return Document{HTML: buf.String(), Meta: normalizeMap(fm)}, nil
}

// RenderString renders an inline markdown block, as used by the paired
// markdown shortcode. Double-escaped apostrophes are restored.
func (r *Renderer) RenderString(content string) (string, error) {
	doc, err := r.Render([]byte(content))
	if err != nil {
		return "", err
	}
	return FixQuotes(doc.HTML), nil
}

// FixQuotes turns "&amp;#39;" back into an apostrophe
func FixQuotes(s string) string {
	return strings.ReplaceAll(s, "&amp;#39;", "'")
}

// normalizeMap converts YAML v2 style map[any]any values to map[string]any
// so front matter can be JSON encoded.
func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}
		return m
	case map[string]any:
		return normalizeMap(t)
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalizeValue(val)
		}
		return s
	default:
		return v
	}
}
