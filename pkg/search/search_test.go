package search

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/toc"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func readLines[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
		out = append(out, v)
	}
	require.NoError(t, scanner.Err())
	return out
}

func indexConfig(chunking bool) *config.AppConfig {
	return &config.AppConfig{
		SearchIndex: config.SearchIndexConfig{
			Enabled:       true,
			TokenEncoding: "cl100k_base",
			Chunking: config.ChunkingConfig{
				Enabled:      chunking,
				MaxChunkSize: 64,
				ChunkOverlap: 8,
			},
		},
	}
}

func TestTokenizer(t *testing.T) {
	tok, err := NewTokenizer("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEncoding, tok.Encoding())
	assert.Greater(t, tok.Count("expect(foo).to.equal(bar)"), 0)
	assert.Equal(t, 0, tok.Count(""))

	var nilTok *Tokenizer
	assert.Equal(t, -1, nilTok.Count("anything"))

	_, err = NewTokenizer("not_an_encoding")
	assert.Error(t, err)
}

func TestChunkMarkdown(t *testing.T) {
	tok, err := NewTokenizer("cl100k_base")
	require.NoError(t, err)

	body := strings.Repeat("Chai assertions read like English sentences. ", 40)
	src := "# Guide\n\n## Install\n\n" + body + "\n\n## Usage\n\nShort section.\n"

	chunks, err := ChunkMarkdown(src, ChunkerConfig{MaxChunkSize: 64, ChunkOverlap: 8}, tok)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
		assert.Greater(t, c.TokenCount, 0)
	}
	last := chunks[len(chunks)-1]
	assert.Contains(t, last.Content, "Short section.")
	assert.Contains(t, last.Content, "Usage")
}

func TestChunkMarkdown_Empty(t *testing.T) {
	chunks, err := ChunkMarkdown("  \n", ChunkerConfig{MaxChunkSize: 64}, nil)
	assert.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestIndexer_WritesSortedRecords(t *testing.T) {
	out := t.TempDir()
	ix, err := NewIndexer(indexConfig(false), out, testLogger())
	require.NoError(t, err)
	ix.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	pages := []Page{
		{URL: "/guide/", Title: "Guide", HTML: `<h2 id="install">Install</h2><p>Run <code>npm i chai</code>.</p>`,
			Headings: []toc.HeadingToken{{Level: 2, Text: "Install", ID: "install"}}},
		{URL: "/", Title: "Home", HTML: `<p>Welcome <strong>home</strong></p>`},
		{URL: "/api/", Title: "API", HTML: `<p>expect</p>`},
	}
	var wg sync.WaitGroup
	for _, p := range pages {
		wg.Add(1)
		go func(p Page) {
			defer wg.Done()
			assert.NoError(t, ix.Add(p))
		}(p)
	}
	wg.Wait()
	assert.Equal(t, 3, ix.Len())
	require.NoError(t, ix.Close())

	assert.Equal(t, filepath.Join(out, "search-index.jsonl"), ix.IndexPath())
	records := readLines[models.PageRecord](t, ix.IndexPath())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"/", "/api/", "/guide/"}, []string{records[0].URL, records[1].URL, records[2].URL})

	home := records[0]
	assert.Equal(t, "Welcome **home**", home.Content)
	assert.Equal(t, "2024-05-01T12:00:00Z", home.BuiltAt)
	assert.Len(t, home.ContentHash, 64)
	assert.Greater(t, home.TokenCount, 0)
	assert.NotNil(t, home.Headings)

	guide := records[2]
	assert.Equal(t, []models.HeadingRecord{{Level: 2, ID: "install", Text: "Install"}}, guide.Headings)
	assert.Contains(t, guide.Content, "`npm i chai`")

	_, err = os.Stat(filepath.Join(out, "chunks.jsonl"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIndexer_Chunks(t *testing.T) {
	out := t.TempDir()
	ix, err := NewIndexer(indexConfig(true), out, testLogger())
	require.NoError(t, err)

	long := strings.Repeat("<p>Plugins extend chai with new assertions and helpers.</p>", 30)
	require.NoError(t, ix.Add(Page{URL: "/plugins/", Title: "Plugins", HTML: "<h2>Writing plugins</h2>" + long}))
	require.NoError(t, ix.Close())

	chunks := readLines[models.ChunkRecord](t, filepath.Join(out, "chunks.jsonl"))
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, "/plugins/", c.URL)
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "Plugins", c.PageTitle)
	}
}

func TestIndexer_UsesBuildTimestamp(t *testing.T) {
	out := t.TempDir()
	ix, err := NewIndexer(indexConfig(true), out, testLogger())
	require.NoError(t, err)
	calls := 0
	ix.now = func() time.Time {
		calls++
		return time.Date(2024, 5, 1, 12, 0, calls, 0, time.UTC)
	}

	start := time.Date(2024, 6, 2, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	require.NoError(t, ix.Add(Page{URL: "/a/", Title: "A", HTML: "<p>alpha</p>", BuiltAt: start}))
	require.NoError(t, ix.Add(Page{URL: "/b/", Title: "B", HTML: "<p>beta</p>", BuiltAt: start}))
	require.NoError(t, ix.Close())

	assert.Zero(t, calls)
	for _, r := range readLines[models.PageRecord](t, ix.IndexPath()) {
		assert.Equal(t, "2024-06-02T07:30:00Z", r.BuiltAt, r.URL)
	}
	for _, c := range readLines[models.ChunkRecord](t, filepath.Join(out, "chunks.jsonl")) {
		assert.Equal(t, "2024-06-02T07:30:00Z", c.BuiltAt, c.URL)
	}
}

func TestIndexer_UnknownEncoding(t *testing.T) {
	cfg := indexConfig(false)
	cfg.SearchIndex.TokenEncoding = "bogus"
	_, err := NewIndexer(cfg, t.TempDir(), testLogger())
	assert.Error(t, err)
}

func writeIndex(t *testing.T, records ...models.PageRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search-index.jsonl")
	require.NoError(t, writeJSONL(path, records))
	return path
}

func TestQuery_MatchLocations(t *testing.T) {
	path := writeIndex(t,
		models.PageRecord{URL: "/", Title: "Chai Assertion Library", Content: "Intro text"},
		models.PageRecord{URL: "/guide/", Title: "Guide", Content: "Body",
			Headings: []models.HeadingRecord{{Level: 2, ID: "assertion-styles", Text: "Assertion Styles"}}},
		models.PageRecord{URL: "/api/", Title: "API", Content: "Every assertion returns this."},
		models.PageRecord{URL: "/other/", Title: "Other", Content: "Unrelated"},
	)

	results, err := Query(path, "ASSERTION", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "title", results[0].MatchLocation)
	assert.Equal(t, "headings", results[1].MatchLocation)
	assert.Equal(t, "assertion-styles", results[1].HeadingID)
	assert.Equal(t, "content", results[2].MatchLocation)
	assert.Equal(t, "Every assertion returns this.", results[2].Snippet)
}

func TestQuery_MaxResults(t *testing.T) {
	var records []models.PageRecord
	for _, u := range []string{"/a/", "/b/", "/c/", "/d/"} {
		records = append(records, models.PageRecord{URL: u, Content: "expect"})
	}
	path := writeIndex(t, records...)

	results, err := Query(path, "expect", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	content := "{broken\n\n" + `{"url":"/ok/","content":"should match"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	results, err := Query(path, "match", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/ok/", results[0].URL)
}

func TestQuery_MissingIndex(t *testing.T) {
	_, err := Query(filepath.Join(t.TempDir(), "absent.jsonl"), "x", 5)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		maxLen  int
		want    string
	}{
		{"short content", "hello world", "world", 50, "hello world"},
		{"no match truncated", "abcdefghij", "zzz", 4, "abcd..."},
		{"no match short", "abc", "zzz", 10, "abc"},
		{"match in middle", "0123456789TARGET0123456789", "target", 10, "...56789TARGET01234..."},
		{"match at start", "TARGET and more text", "target", 4, "TARGET a..."},
		{"multibyte", "ünïcödé text here", "text", 100, "ünïcödé text here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSnippet(tt.content, tt.query, tt.maxLen))
		})
	}
}
