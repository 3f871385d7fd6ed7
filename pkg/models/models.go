package models

import "time"

// HeadingRecord is one heading of a built page, as listed in the search index
type HeadingRecord struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// PageRecord is one line of the search index JSONL file
type PageRecord struct {
	URL         string          `json:"url"`
	Title       string          `json:"title,omitempty"`
	Headings    []HeadingRecord `json:"headings"`
	Content     string          `json:"content"`                // Page body as markdown
	ContentHash string          `json:"content_hash,omitempty"` // SHA-256 of Content
	BuiltAt     string          `json:"built_at"`               // RFC3339
	TokenCount  int             `json:"token_count,omitempty"`
}

// ChunkRecord is one line of the chunks JSONL file
type ChunkRecord struct {
	URL              string   `json:"url"`
	ChunkIndex       int      `json:"chunk_index"`
	Content          string   `json:"content"`
	HeadingHierarchy []string `json:"heading_hierarchy,omitempty"`
	TokenCount       int      `json:"token_count"`
	PageTitle        string   `json:"page_title,omitempty"`
	BuiltAt          string   `json:"built_at"`
}

// PageResult records what the builder did with one source file
type PageResult struct {
	Source     string       `json:"source"` // Relative to input_dir
	Output     string       `json:"output"` // Relative to output_dir
	URL        string       `json:"url"`
	Status     OutputStatus `json:"status"`
	Bytes      int64        `json:"bytes"`
	ErrorType  string       `json:"error_type,omitempty"`
	RenderedAt time.Time    `json:"rendered_at"`
}
