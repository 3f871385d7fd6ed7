package toc

import (
	"fmt"

	"github.com/google/safehtml/template"

	"github.com/chaijs/docsite/pkg/utils"
)

// DefaultSummary labels the collapsible navigation container.
const DefaultSummary = "Navigation"

const navTemplate = `{{define "link"}}<a style="display: inline-block;" href="#{{.ID}}">{{.Text}}</a>{{end}}` +
	`<aside><details class="sidebar"><summary>{{.Summary}}</summary><nav><ul>` +
	`{{range .Sections}}<li>` +
	`{{if .Subsections}}<details><summary>{{template "link" .Link}}</summary><ul>` +
	`{{range .Subsections}}<li>{{template "link" .Link}}</li>{{end}}` +
	`</ul></details>{{else}}{{template "link" .Link}}{{end}}` +
	`</li>{{end}}` +
	`</ul></nav></details></aside>`

var nav = template.Must(template.New("toc").Parse(navTemplate))

type navData struct {
	Summary  string
	Sections Outline
}

// Render serializes outline as nav markup. An empty outline renders as ""
// so callers can omit the navigation entirely. Link targets are
// percent-encoded, so an id outside the URL-safe set such as "über" is
// emitted as href="#%c3%bcber"; browsers decode the fragment before
// matching it against the heading id.
func Render(outline Outline) (string, error) {
	return RenderWithSummary(outline, DefaultSummary)
}

// RenderWithSummary is Render with a custom label for the container.
func RenderWithSummary(outline Outline, summary string) (string, error) {
	if outline.Empty() {
		return "", nil
	}
	if summary == "" {
		summary = DefaultSummary
	}
	out, err := nav.ExecuteToHTML(navData{Summary: summary, Sections: outline})
	if err != nil {
		return "", fmt.Errorf("%w: navigation markup: %w", utils.ErrTemplate, err)
	}
	return out.String(), nil
}

// FromHTML extracts the outline of content and renders it in one step.
func FromHTML(content, summary string) (string, error) {
	outline, err := Extract(content)
	if err != nil {
		return "", err
	}
	return RenderWithSummary(outline, summary)
}
