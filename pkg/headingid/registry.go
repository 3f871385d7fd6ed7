// Package headingid assigns document-unique heading identifiers during
// markdown rendering.
package headingid

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
)

// Registry tracks the identifiers claimed within a single document.
// A Registry must not be reused across documents and is not safe for
// concurrent use; create one per render with NewRegistry.
type Registry struct {
	claimed map[string]bool
}

// NewRegistry returns an empty registry for one document.
func NewRegistry() *Registry {
	return &Registry{claimed: make(map[string]bool)}
}

// Assign derives an identifier from heading text, resolves collisions by
// appending -1, -2, ... and claims the result before returning it.
func (r *Registry) Assign(text string) string {
	candidate := Slugify(text)
	if candidate == "" {
		candidate = FallbackID
	}
	id := r.uncollide(candidate)
	r.claimed[id] = true
	return id
}

// Claim marks id as taken without deriving anything. Empty ids are ignored.
func (r *Registry) Claim(id string) {
	if id == "" {
		return
	}
	r.claimed[id] = true
}

// Claimed reports whether id is already taken in this document.
func (r *Registry) Claimed(id string) bool {
	return r.claimed[id]
}

// Len returns the number of claimed identifiers.
func (r *Registry) Len() int {
	return len(r.claimed)
}

func (r *Registry) uncollide(candidate string) string {
	if !r.claimed[candidate] {
		return candidate
	}
	i := 1
	for r.claimed[candidate+"-"+strconv.Itoa(i)] {
		i++
	}
	return candidate + "-" + strconv.Itoa(i)
}

// Generate implements goldmark's parser.IDs. value is the heading's plain text.
func (r *Registry) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(r.Assign(string(value)))
}

// Put implements goldmark's parser.IDs.
func (r *Registry) Put(value []byte) {
	r.Claim(string(value))
}
