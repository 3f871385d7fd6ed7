package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: site
output_dir: public_html
num_workers: 2
root_dir: ..
markdown:
  template_engine: false
passthrough:
  "public/": "assets/"
  "favicon.ico": "favicon.ico"
toc:
  summary: "On this page"
plugins:
  enabled: true
  cache_duration: 1h
highlight:
  style: monokai
  use_classes: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.InputDir)
	assert.Equal(t, "public_html", cfg.OutputDir)
	assert.Equal(t, 2, cfg.NumWorkers)
	assert.Equal(t, "..", cfg.RootDir)
	require.NotNil(t, cfg.Markdown.TemplateEngine)
	assert.False(t, *cfg.Markdown.TemplateEngine)
	assert.Equal(t, "assets/", cfg.Passthrough["public/"])
	assert.Equal(t, "On this page", cfg.TOC.Summary)
	assert.True(t, cfg.Plugins.Enabled)
	assert.Equal(t, time.Hour, cfg.Plugins.CacheDuration)
	assert.Equal(t, "monokai", cfg.Highlight.Style)
	assert.True(t, cfg.Highlight.UseClasses)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_dir: [unclosed"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestGetEffectiveTOCEnabled(t *testing.T) {
	tests := []struct {
		name        string
		frontMatter map[string]any
		appCfg      AppConfig
		expected    bool
	}{
		{"page disables", map[string]any{"toc": false}, AppConfig{}, false},
		{"page enables over global", map[string]any{"toc": true}, AppConfig{TOC: TOCConfig{Enabled: boolPtr(false)}}, true},
		{"global disabled", nil, AppConfig{TOC: TOCConfig{Enabled: boolPtr(false)}}, false},
		{"non-bool page value ignored", map[string]any{"toc": "no"}, AppConfig{}, true},
		{"default enabled", nil, AppConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetEffectiveTOCEnabled(tt.frontMatter, tt.appCfg))
		})
	}
}

func TestGetEffectiveMarkdownTemplateEngine(t *testing.T) {
	off := AppConfig{Markdown: MarkdownConfig{TemplateEngine: boolPtr(false)}}

	assert.True(t, GetEffectiveMarkdownTemplateEngine(nil, AppConfig{}))
	assert.False(t, GetEffectiveMarkdownTemplateEngine(nil, off))
	assert.True(t, GetEffectiveMarkdownTemplateEngine(map[string]any{"template_engine": true}, off))
	assert.False(t, GetEffectiveMarkdownTemplateEngine(map[string]any{"template_engine": false}, AppConfig{}))
	assert.True(t, GetEffectiveMarkdownTemplateEngine(map[string]any{"template_engine": "njk"}, AppConfig{}))
}

func TestGetEffectiveTOCSummary(t *testing.T) {
	assert.Equal(t, "Contents", GetEffectiveTOCSummary(map[string]any{"toc_summary": "Contents"}, AppConfig{TOC: TOCConfig{Summary: "Global"}}))
	assert.Equal(t, "Global", GetEffectiveTOCSummary(nil, AppConfig{TOC: TOCConfig{Summary: "Global"}}))
	assert.Equal(t, "Navigation", GetEffectiveTOCSummary(nil, AppConfig{}))
}

func TestGetEffectiveHighlightEnabled(t *testing.T) {
	assert.True(t, GetEffectiveHighlightEnabled(AppConfig{}))
	assert.False(t, GetEffectiveHighlightEnabled(AppConfig{Highlight: HighlightConfig{Enabled: boolPtr(false)}}))
}

func TestGetEffectiveFilenames(t *testing.T) {
	assert.Equal(t, "search-index.jsonl", GetEffectiveSearchIndexFilename(AppConfig{}))
	assert.Equal(t, "idx.jsonl", GetEffectiveSearchIndexFilename(AppConfig{SearchIndex: SearchIndexConfig{Filename: "idx.jsonl"}}))
	assert.Equal(t, "chunks.jsonl", GetEffectiveChunksFilename(AppConfig{}))
	assert.Equal(t, "sitemap.xml", GetEffectiveSitemapFilename(AppConfig{}))
}
