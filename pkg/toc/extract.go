package toc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chaijs/docsite/pkg/headingid"
	"github.com/chaijs/docsite/pkg/utils"
)

const headingSelector = "h2,h3,h4,h5,h6"

var headingLevels = map[string]int{
	"h2": 2,
	"h3": 3,
	"h4": 4,
	"h5": 5,
	"h6": 6,
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SimpleSlug lowercases text and replaces each whitespace run with '-'.
// It is the fallback for headings that reach the extractor without an id
// and knows nothing of the identifiers assigned during rendering, so it
// can collide with them.
func SimpleSlug(text string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(text), "-")
}

// Headings returns the h2-h6 elements of content in document order.
func Headings(content string) ([]HeadingToken, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML for outline: %w", utils.ErrParsing, err)
	}
	return HeadingsFromSelection(doc.Selection), nil
}

// HeadingsFromSelection walks an already parsed selection.
func HeadingsFromSelection(sel *goquery.Selection) []HeadingToken {
	var headings []HeadingToken
	sel.Find(headingSelector).Each(func(_ int, s *goquery.Selection) {
		level, ok := headingLevels[goquery.NodeName(s)]
		if !ok {
			return
		}
		text := strings.TrimSpace(s.Text())
		id, _ := s.Attr("id")
		if id == "" {
			id = SimpleSlug(text)
		}
		if id == "" {
			id = headingid.FallbackID
		}
		headings = append(headings, HeadingToken{Level: level, Text: text, ID: id})
	})
	return headings
}

// Extract parses rendered HTML and returns its outline.
func Extract(content string) (Outline, error) {
	headings, err := Headings(content)
	if err != nil {
		return nil, err
	}
	return Build(headings), nil
}
