package site

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chaijs/docsite/pkg/utils"
)

var fence = []byte("---")

// SplitFrontMatter separates a leading "---" fenced YAML block from body.
// Without a fence the whole input is the body and the map is empty.
func SplitFrontMatter(src []byte) (map[string]any, []byte, error) {
	fm := make(map[string]any)
	normalized := bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, append(fence, '\n')) {
		return fm, src, nil
	}

	rest := normalized[len(fence)+1:]
	var block, body []byte
	switch {
	case bytes.HasPrefix(rest, append(fence, '\n')):
		body = rest[len(fence)+1:]
	case bytes.Equal(rest, fence):
	default:
		end := bytes.Index(rest, []byte("\n---\n"))
		if end == -1 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return nil, nil, fmt.Errorf("%w: unterminated front matter", utils.ErrParsing)
			}
			end = len(rest) - len("\n---")
			block = rest[:end]
			break
		}
		block = rest[:end]
		body = rest[end+len("\n---\n"):]
	}

	if len(bytes.TrimSpace(block)) > 0 {
		if err := yaml.Unmarshal(block, &fm); err != nil {
			return nil, nil, fmt.Errorf("%w: front matter YAML: %w", utils.ErrParsing, err)
		}
		if fm == nil {
			fm = make(map[string]any)
		}
	}
	return fm, body, nil
}
