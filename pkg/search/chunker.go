package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunk is one piece of a page's markdown with its heading context
type Chunk struct {
	Content          string   // Includes parent headings when split by heading hierarchy
	HeadingHierarchy []string // Headings found in the chunk, outermost first
	TokenCount       int
}

// ChunkerConfig holds chunk sizes, measured by the length function
type ChunkerConfig struct {
	MaxChunkSize int
	ChunkOverlap int
}

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// ChunkMarkdown splits markdown by headings with langchaingo, falling back to
// recursive character splitting for sections larger than MaxChunkSize.
// tok measures length; with a nil tok lengths are counted in runes.
func ChunkMarkdown(markdown string, cfg ChunkerConfig, tok *Tokenizer) ([]Chunk, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}

	lenFunc := utf8.RuneCountInString
	if tok != nil {
		lenFunc = tok.Count
	}

	recursive := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithLenFunc(lenFunc),
	)
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSecondSplitter(recursive),
		textsplitter.WithLenFunc(lenFunc),
	)

	parts, err := splitter.SplitText(markdown)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:          part,
			HeadingHierarchy: headingHierarchy(part),
			TokenCount:       tok.Count(part),
		})
	}
	return chunks, nil
}

func headingHierarchy(content string) []string {
	matches := headingRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	hierarchy := make([]string, 0, len(matches))
	for _, m := range matches {
		if h := strings.TrimSpace(m[2]); h != "" {
			hierarchy = append(hierarchy, h)
		}
	}
	return hierarchy
}
