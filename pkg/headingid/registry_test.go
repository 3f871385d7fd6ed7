package headingid

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

var _ parser.IDs = (*Registry)(nil)

func TestRegistry_Assign_CollisionSuffixes(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, "install", reg.Assign("Install"))
	assert.Equal(t, "install-1", reg.Assign("Install"))
	assert.Equal(t, "install-2", reg.Assign("Install"))
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_Assign_SuffixSkipsClaimedCandidates(t *testing.T) {
	reg := NewRegistry()

	// "Install 1" produces the same string a collision suffix would
	assert.Equal(t, "install-1", reg.Assign("Install 1"))
	assert.Equal(t, "install", reg.Assign("Install"))
	assert.Equal(t, "install-2", reg.Assign("Install"))
	assert.Equal(t, "install-1-1", reg.Assign("Install 1"))
}

func TestRegistry_Assign_Uniqueness(t *testing.T) {
	reg := NewRegistry()
	texts := []string{"A", "a", "A!", "B", "", "   ", "a-1", "A", "section", "?", "b", "A 1"}

	seen := make(map[string]bool)
	for _, text := range texts {
		id := reg.Assign(text)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %q for text %q", id, text)
		seen[id] = true
	}
	assert.Len(t, seen, len(texts))
}

func TestRegistry_Assign_EmptyTextFallback(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, FallbackID, reg.Assign(""))
	assert.Equal(t, FallbackID+"-1", reg.Assign("   "))
	assert.Equal(t, FallbackID+"-2", reg.Assign("¶"))
	// A real heading called "Section" shares the fallback namespace
	assert.Equal(t, FallbackID+"-3", reg.Assign("Section"))
}

func TestRegistry_ClaimReservesIdentifier(t *testing.T) {
	reg := NewRegistry()
	reg.Claim("usage")
	reg.Claim("")

	assert.True(t, reg.Claimed("usage"))
	assert.False(t, reg.Claimed(""))
	assert.Equal(t, "usage-1", reg.Assign("Usage"))
}

func TestRegistry_GoldmarkIDs(t *testing.T) {
	reg := NewRegistry()

	first := reg.Generate([]byte("API Reference"), ast.KindHeading)
	second := reg.Generate([]byte("API Reference"), ast.KindHeading)
	reg.Put([]byte("custom"))

	assert.Equal(t, "api-reference", string(first))
	assert.Equal(t, "api-reference-1", string(second))
	assert.True(t, reg.Claimed("custom"))
}

func TestRegistry_IndependentPerDocument(t *testing.T) {
	var wg sync.WaitGroup
	results := make([][]string, 8)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := NewRegistry()
			for j := 0; j < 3; j++ {
				results[i] = append(results[i], reg.Assign("Overview"))
			}
		}(i)
	}
	wg.Wait()

	for i, ids := range results {
		assert.Equal(t, []string{"overview", "overview-1", "overview-2"}, ids, fmt.Sprintf("document %d", i))
	}
}
