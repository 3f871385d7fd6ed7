package search

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/utils"
)

const (
	defaultMaxResults = 10
	snippetLen        = 150
)

// Result is one page matching a query
type Result struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	Snippet       string `json:"snippet"`
	MatchLocation string `json:"match_location"` // "title", "headings" or "content"
	HeadingID     string `json:"heading_id,omitempty"`
}

// Query scans the index at path for pages whose title, headings or content
// contain query (case-insensitive). A missing index returns an error wrapping
// os.ErrNotExist.
func Query(path, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	defer file.Close()

	queryLower := strings.ToLower(query)
	results := make([]Result, 0)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() && len(results) < maxResults {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var page models.PageRecord
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			continue
		}
		if r, ok := match(page, query, queryLower); ok {
			results = append(results, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, path, err)
	}
	return results, nil
}

func match(page models.PageRecord, query, queryLower string) (Result, bool) {
	r := Result{URL: page.URL, Title: page.Title}
	switch {
	case strings.Contains(strings.ToLower(page.Title), queryLower):
		r.MatchLocation = "title"
	default:
		for _, h := range page.Headings {
			if strings.Contains(strings.ToLower(h.Text), queryLower) {
				r.MatchLocation = "headings"
				r.HeadingID = h.ID
				break
			}
		}
		if r.MatchLocation == "" {
			if !strings.Contains(strings.ToLower(page.Content), queryLower) {
				return Result{}, false
			}
			r.MatchLocation = "content"
		}
	}
	r.Snippet = ExtractSnippet(page.Content, query, snippetLen)
	return r, true
}

// ExtractSnippet returns up to maxLen runes of content around the first
// case-insensitive match of query, with "..." marking trimmed ends.
func ExtractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	lower := []rune(strings.ToLower(content))
	q := []rune(strings.ToLower(query))

	idx := -1
	if len(q) > 0 && len(lower) == len(runes) {
		for i := 0; i+len(q) <= len(lower); i++ {
			if string(lower[i:i+len(q)]) == string(q) {
				idx = i
				break
			}
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := max(idx-maxLen/2, 0)
	end := min(idx+len(q)+maxLen/2, len(runes))

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}
