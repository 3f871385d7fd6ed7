package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headingsAt(levels ...int) []HeadingToken {
	tokens := make([]HeadingToken, len(levels))
	for i, level := range levels {
		tokens[i] = HeadingToken{Level: level, Text: "Heading", ID: "heading"}
	}
	return tokens
}

func TestBuild_TwoLevelGrouping(t *testing.T) {
	outline := Build(headingsAt(2, 3, 3, 2, 4))

	require.Len(t, outline, 2)
	assert.Len(t, outline[0].Subsections, 2)
	assert.Len(t, outline[1].Subsections, 1)
}

func TestBuild_OrphanSubsectionDropped(t *testing.T) {
	outline := Build(headingsAt(3, 2))

	require.Len(t, outline, 1)
	assert.Empty(t, outline[0].Subsections)
}

func TestBuild_DeepLevelsFlattened(t *testing.T) {
	outline := Build([]HeadingToken{
		{Level: 2, Text: "API", ID: "api"},
		{Level: 6, Text: "Deep", ID: "deep"},
		{Level: 3, Text: "Shallow", ID: "shallow"},
	})

	require.Len(t, outline, 1)
	assert.Equal(t, []Subsection{
		{Title: "Deep", Link: Link{ID: "deep", Text: "Deep"}},
		{Title: "Shallow", Link: Link{ID: "shallow", Text: "Shallow"}},
	}, outline[0].Subsections)
}

func TestBuild_ManySectionsKeepSubsections(t *testing.T) {
	// enough sections to force the outline slice to grow several times
	var levels []int
	for i := 0; i < 40; i++ {
		levels = append(levels, 2, 3)
	}
	outline := Build(headingsAt(levels...))

	require.Len(t, outline, 40)
	for i, section := range outline {
		assert.Len(t, section.Subsections, 1, "section %d", i)
	}
}

func TestBuild_IgnoresOutOfRangeLevels(t *testing.T) {
	outline := Build(headingsAt(1, 2, 7, 3))

	require.Len(t, outline, 1)
	assert.Len(t, outline[0].Subsections, 1)
}

func TestBuild_NoHeadings(t *testing.T) {
	outline := Build(nil)

	assert.True(t, outline.Empty())
	assert.NotNil(t, outline)
}

func TestLink_Href(t *testing.T) {
	assert.Equal(t, "#install-1", Link{ID: "install-1", Text: "Install"}.Href())
}
