package markdown

import (
	"bytes"
	stdhtml "html"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// headingIDTransformer assigns an id to every heading from the parser
// context's ID registry, replacing any id already present.
type headingIDTransformer struct{}

func (headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	ids := pc.IDs()

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		id := ids.Generate(plainText(heading, source), ast.KindHeading)
		heading.SetAttributeString("id", id)
		return ast.WalkSkipChildren, nil
	})
}

// plainText concatenates the visible text of n's inline descendants
func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				if t.IsCode() {
					buf.WriteString(stdhtml.UnescapeString(string(t.Value)))
				} else {
					buf.Write(t.Value)
				}
			case *ast.AutoLink:
				buf.Write(t.Label(source))
			case *ast.RawHTML:
				// tags carry no heading text
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.Bytes()
}
