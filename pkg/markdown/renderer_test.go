package markdown

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/utils"
)

func headingIDs(t *testing.T, html string) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	var ids []string
	doc.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		ids = append(ids, id)
	})
	return ids
}

func TestRender_HeadingIDs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"simple", "## Getting Started\n", []string{"getting-started"}},
		{"duplicates", "## Install\n\n## Install\n\n### Install\n", []string{"install", "install-1", "install-2"}},
		{"transliterated", "## Überblick\n\n## Ærø straße\n", []string{"uberblick", "aero-strasse"}},
		{"inline markup", "## The `expect` *API*\n", []string{"the-expect-api"}},
		{"link text", "## See [the guide](/guide)\n", []string{"see-the-guide"}},
		{"symbols only", "## !!!\n\n## ???\n", []string{"section", "section-1"}},
		{"all levels", "# Title\n\n###### Deep\n", []string{"title", "deep"}},
	}

	r := NewRenderer(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Render([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, headingIDs(t, doc.HTML))
		})
	}
}

func TestRender_FreshRegistryPerDocument(t *testing.T) {
	r := NewRenderer(Options{})
	for range 3 {
		doc, err := r.Render([]byte("## Install\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"install"}, headingIDs(t, doc.HTML))
	}
}

func TestRender_TypographerDoesNotLeakEntities(t *testing.T) {
	r := NewRenderer(Options{Typographer: true})
	doc, err := r.Render([]byte("## Don't panic\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"don-t-panic"}, headingIDs(t, doc.HTML))
}

func TestRender_FrontMatter(t *testing.T) {
	src := "---\ntitle: Guide\nlayout: page.html\ntags:\n  - a\n  - b\nextra:\n  nested: true\n---\n# Body\n"
	r := NewRenderer(Options{})

	doc, err := r.Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Guide", doc.Meta["title"])
	assert.Equal(t, "page.html", doc.Meta["layout"])
	assert.Equal(t, []any{"a", "b"}, doc.Meta["tags"])
	assert.Equal(t, map[string]any{"nested": true}, doc.Meta["extra"])
	assert.NotContains(t, doc.HTML, "layout:")

	_, err = json.Marshal(doc.Meta)
	assert.NoError(t, err, "front matter must be JSON encodable")
}

func TestRender_NoFrontMatter(t *testing.T) {
	doc, err := NewRenderer(Options{}).Render([]byte("plain"))
	require.NoError(t, err)
	assert.NotNil(t, doc.Meta)
	assert.Empty(t, doc.Meta)
}

func TestRender_BadFrontMatter(t *testing.T) {
	_, err := NewRenderer(Options{}).Render([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrParsing))
}

func TestRender_UnsafeHTML(t *testing.T) {
	src := "<div class=\"note\">hi</div>\n"

	safe, err := NewRenderer(Options{}).Render([]byte(src))
	require.NoError(t, err)
	assert.NotContains(t, safe.HTML, `<div class="note">`)

	unsafe, err := NewRenderer(Options{UnsafeHTML: true}).Render([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, unsafe.HTML, `<div class="note">hi</div>`)
}

func TestRender_Highlighting(t *testing.T) {
	src := "```go\nfunc main() {}\n```\n"

	classes, err := NewRenderer(Options{Highlight: true, HighlightClasses: true}).Render([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, classes.HTML, `class="chroma"`)

	inline, err := NewRenderer(Options{Highlight: true, HighlightStyle: "monokai"}).Render([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, inline.HTML, `style="`)

	plain, err := NewRenderer(Options{}).Render([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, plain.HTML, `<code class="language-go">`)
}

func TestRender_GFM(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n"
	doc, err := NewRenderer(Options{}).Render([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "<table>")
	assert.Contains(t, doc.HTML, "<del>gone</del>")
}

func TestRenderString_FixesQuotes(t *testing.T) {
	r := NewRenderer(Options{})
	out, err := r.RenderString("It&amp;#39;s *fine*")
	require.NoError(t, err)
	assert.Contains(t, out, "It's")
	assert.NotContains(t, out, "&amp;#39;")
	assert.Contains(t, out, "<em>fine</em>")
}

func TestFixQuotes(t *testing.T) {
	assert.Equal(t, "a'b'c", FixQuotes("a&amp;#39;b&amp;#39;c"))
	assert.Equal(t, "&#39;", FixQuotes("&#39;"))
}

func TestRender_Concurrent(t *testing.T) {
	r := NewRenderer(Options{Highlight: true})
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := r.Render([]byte("## A\n\n## A\n"))
			assert.NoError(t, err)
			assert.Equal(t, []string{"a", "a-1"}, headingIDs(t, doc.HTML))
		}()
	}
	wg.Wait()
}

func TestOptionsFromConfig(t *testing.T) {
	disabled := false
	cfg := config.AppConfig{
		Markdown:  config.MarkdownConfig{UnsafeHTML: true, Typographer: true},
		Highlight: config.HighlightConfig{Enabled: &disabled, Style: "dracula", LineNumbers: true, UseClasses: true},
	}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, Options{
		UnsafeHTML:       true,
		Typographer:      true,
		Highlight:        false,
		HighlightStyle:   "dracula",
		LineNumbers:      true,
		HighlightClasses: true,
	}, opts)
}
