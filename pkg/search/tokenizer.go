package search

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is used when no token encoding is configured
const DefaultEncoding = "cl100k_base"

// Tokenizer counts tokens with a tiktoken encoding
type Tokenizer struct {
	codec    tokenizer.Codec
	encoding string
}

// NewTokenizer loads the named encoding. Common encodings: "cl100k_base",
// "o200k_base", "p50k_base". An empty name selects DefaultEncoding.
func NewTokenizer(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	var enc tokenizer.Encoding
	switch encoding {
	case "cl100k_base":
		enc = tokenizer.Cl100kBase
	case "p50k_base":
		enc = tokenizer.P50kBase
	case "p50k_edit":
		enc = tokenizer.P50kEdit
	case "r50k_base":
		enc = tokenizer.R50kBase
	case "o200k_base":
		enc = tokenizer.O200kBase
	default:
		return nil, fmt.Errorf("unknown token encoding %q", encoding)
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("load token encoding %q: %w", encoding, err)
	}
	return &Tokenizer{codec: codec, encoding: encoding}, nil
}

// Encoding returns the encoding name
func (t *Tokenizer) Encoding() string {
	return t.encoding
}

// Count returns the token count of text, or -1 if encoding fails.
// A nil Tokenizer also returns -1.
func (t *Tokenizer) Count(text string) int {
	if t == nil || t.codec == nil {
		return -1
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return -1
	}
	return len(ids)
}
