// Package toc builds a two-level navigational outline from rendered HTML
// and serializes it as collapsible nav markup.
package toc

// HeadingToken is one h2-h6 element found in rendered markup.
type HeadingToken struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Link pairs a heading identifier with its display text.
type Link struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Href returns the in-page anchor target for the link.
func (l Link) Href() string {
	return "#" + l.ID
}

// Subsection is a leaf outline entry for an h3-h6 heading.
type Subsection struct {
	Title string `json:"title"`
	Link  Link   `json:"link"`
}

// Section is a top-level outline entry for an h2 heading.
type Section struct {
	Title       string       `json:"title"`
	Link        Link         `json:"link"`
	Subsections []Subsection `json:"subsections"`
}

// Outline is the ordered list of sections of one document.
type Outline []Section

// Empty reports whether the outline has no sections.
func (o Outline) Empty() bool {
	return len(o) == 0
}

// Build groups headings into sections. An h2 opens a new section; h3-h6
// attach to the most recent section and are dropped when none exists yet.
func Build(headings []HeadingToken) Outline {
	outline := Outline{}
	current := -1 // index into outline; appends may move the backing array

	for _, h := range headings {
		if h.Level < 2 || h.Level > 6 {
			continue
		}
		link := Link{ID: h.ID, Text: h.Text}
		if h.Level == 2 {
			outline = append(outline, Section{Title: h.Text, Link: link, Subsections: []Subsection{}})
			current = len(outline) - 1
			continue
		}
		if current < 0 {
			continue
		}
		outline[current].Subsections = append(outline[current].Subsections, Subsection{Title: h.Text, Link: link})
	}
	return outline
}
