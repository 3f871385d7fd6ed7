package toc

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutline() Outline {
	return Build([]HeadingToken{
		{Level: 2, Text: "Installation", ID: "installation"},
		{Level: 3, Text: "npm", ID: "npm"},
		{Level: 3, Text: "Browser", ID: "browser"},
		{Level: 2, Text: "License", ID: "license"},
	})
}

func parseFragment(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestRender_EmptyOutline(t *testing.T) {
	out, err := Render(Outline{})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRender_Structure(t *testing.T) {
	out, err := Render(sampleOutline())
	require.NoError(t, err)

	doc := parseFragment(t, out)
	assert.Equal(t, 1, doc.Find("aside > details.sidebar").Length())
	assert.Equal(t, "Navigation", doc.Find("details.sidebar > summary").First().Text())

	items := doc.Find("nav > ul > li")
	require.Equal(t, 2, items.Length())

	// section with subsections gets a nested collapsible
	first := items.Eq(0)
	assert.Equal(t, 1, first.Find("details").Length())
	assert.Equal(t, "#installation", first.Find("details > summary > a").AttrOr("href", ""))
	subLinks := first.Find("details > ul > li > a")
	require.Equal(t, 2, subLinks.Length())
	assert.Equal(t, "#npm", subLinks.Eq(0).AttrOr("href", ""))
	assert.Equal(t, "Browser", subLinks.Eq(1).Text())

	// section without subsections is a bare link
	second := items.Eq(1)
	assert.Equal(t, 0, second.Find("details").Length())
	assert.Equal(t, 0, second.Find("ul").Length())
	assert.Equal(t, "#license", second.ChildrenFiltered("a").AttrOr("href", ""))
	assert.Equal(t, "License", second.ChildrenFiltered("a").Text())
}

func TestRender_LinkMarkup(t *testing.T) {
	out, err := Render(Build([]HeadingToken{{Level: 2, Text: "Usage", ID: "usage"}}))
	require.NoError(t, err)

	assert.Contains(t, out, `<a style="display: inline-block;" href="#usage">Usage</a>`)
	assert.NotContains(t, out, "<details><summary>")
}

func TestRender_Idempotent(t *testing.T) {
	outline := sampleOutline()

	first, err := Render(outline)
	require.NoError(t, err)
	second, err := Render(outline)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, sampleOutline(), outline)
}

func TestRender_EscapesTitles(t *testing.T) {
	outline := Build([]HeadingToken{{Level: 2, Text: `<script>alert("x")</script>`, ID: "x"}})

	out, err := Render(outline)
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	doc := parseFragment(t, out)
	assert.Equal(t, `<script>alert("x")</script>`, doc.Find("nav a").Text())
}

func TestRenderWithSummary(t *testing.T) {
	out, err := RenderWithSummary(sampleOutline(), "On this page")
	require.NoError(t, err)
	assert.Contains(t, out, "<summary>On this page</summary>")

	out, err = RenderWithSummary(sampleOutline(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "<summary>Navigation</summary>")
}

func TestFromHTML(t *testing.T) {
	out, err := FromHTML(`<h2 id="a">A</h2><h3 id="b">B</h3>`, "")
	require.NoError(t, err)
	assert.Contains(t, out, `href="#b"`)

	out, err = FromHTML(`<p>nothing here</p>`, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRender_PercentEncodesNonASCIIIDs(t *testing.T) {
	out, err := Render(Build([]HeadingToken{
		{Level: 2, Text: "Über", ID: "über"},
		{Level: 2, Text: "Plain", ID: "plain"},
	}))
	require.NoError(t, err)

	assert.Contains(t, out, `href="#%c3%bcber"`)
	assert.Contains(t, out, `href="#plain"`)
	assert.NotContains(t, out, `href="#über"`)

	links := parseFragment(t, out).Find("nav a")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "Über", links.First().Text())
}
