package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaijs/docsite/pkg/utils"
)

const (
	defaultRegistryURL = "https://registry.npmjs.org/-/v1/search"
	defaultSearchText  = "keywords:chai-plugin"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// InputDir
	if c.InputDir == "" {
		warnings = append(warnings, "input_dir is empty, defaulting to 'pages'")
		c.InputDir = "pages"
	}

	// OutputDir
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to 'dist'")
		c.OutputDir = "dist"
	}
	if filepath.Clean(c.OutputDir) == filepath.Clean(c.InputDir) {
		return warnings, fmt.Errorf("%w: output_dir and input_dir must differ (both '%s')", utils.ErrConfigValidation, c.InputDir)
	}

	// Special directories inside InputDir
	if c.IncludesDir == "" {
		c.IncludesDir = "_includes"
	}
	if c.LayoutsDir == "" {
		c.LayoutsDir = "_layouts"
	}
	if c.DataDir == "" {
		c.DataDir = "_data"
	}
	for name, dir := range map[string]string{"includes_dir": c.IncludesDir, "layouts_dir": c.LayoutsDir, "data_dir": c.DataDir} {
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return warnings, fmt.Errorf("%w: %s must be relative to input_dir, got '%s'", utils.ErrConfigValidation, name, dir)
		}
	}

	// TemplateFormats
	if len(c.TemplateFormats) == 0 {
		c.TemplateFormats = []string{"md", "html"}
	}
	for i, format := range c.TemplateFormats {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
		if format != "md" && format != "html" {
			return warnings, fmt.Errorf("%w: unsupported template format '%s' (supported: md, html)", utils.ErrConfigValidation, c.TemplateFormats[i])
		}
		c.TemplateFormats[i] = format
	}

	// RootDir and Passthrough
	if c.RootDir == "" {
		c.RootDir = "."
	}
	if c.Passthrough == nil {
		c.Passthrough = map[string]string{"public/": "assets/"}
	}
	for src := range c.Passthrough {
		if src == "" || filepath.IsAbs(src) {
			return warnings, fmt.Errorf("%w: passthrough source must be a non-empty relative path, got '%s'", utils.ErrConfigValidation, src)
		}
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// StateDir
	if c.StateDir == "" {
		c.StateDir = ".docsite_state"
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// BuildTimeout
	if c.BuildTimeout < 0 {
		warnings = append(warnings, "build_timeout cannot be negative, disabling timeout")
		c.BuildTimeout = 0
	}

	// Highlight
	if c.Highlight.Style == "" {
		c.Highlight.Style = "github"
	}

	// Plugins
	if c.Plugins.Enabled {
		if c.Plugins.RegistryURL == "" {
			c.Plugins.RegistryURL = defaultRegistryURL
		}
		if c.Plugins.SearchText == "" {
			c.Plugins.SearchText = defaultSearchText
		}
	}
	if c.Plugins.CacheDuration < 0 {
		warnings = append(warnings, "plugins.cache_duration cannot be negative, disabling cache")
		c.Plugins.CacheDuration = 0
	} else if c.Plugins.CacheDuration == 0 && c.Plugins.Enabled {
		c.Plugins.CacheDuration = 24 * time.Hour
	}

	// Search index
	c.validateSearchIndex(&warnings)

	// Sitemap
	if c.Sitemap.Enabled {
		u, err := url.Parse(c.Sitemap.BaseURL)
		if c.Sitemap.BaseURL == "" || err != nil || !u.IsAbs() {
			warnings = append(warnings, fmt.Sprintf("sitemap.base_url '%s' is not an absolute URL, disabling sitemap", c.Sitemap.BaseURL))
			c.Sitemap.Enabled = false
		}
	}

	// Watch
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 300 * time.Millisecond
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateSearchIndex applies defaults to search index and chunking settings.
func (c *AppConfig) validateSearchIndex(warnings *[]string) {
	s := &c.SearchIndex
	if s.TokenEncoding == "" {
		s.TokenEncoding = "cl100k_base"
	}
	ch := &s.Chunking
	if ch.Enabled && !s.Enabled {
		*warnings = append(*warnings, "search_index.chunking is enabled but search_index is disabled, chunks will not be written")
	}
	if ch.MaxChunkSize <= 0 {
		ch.MaxChunkSize = 512
	}
	if ch.ChunkOverlap < 0 {
		*warnings = append(*warnings, "search_index.chunking.chunk_overlap cannot be negative, setting to 0")
		ch.ChunkOverlap = 0
	}
	if ch.ChunkOverlap == 0 {
		ch.ChunkOverlap = 50
	}
	if ch.ChunkOverlap >= ch.MaxChunkSize {
		*warnings = append(*warnings, fmt.Sprintf(
			"search_index.chunking.chunk_overlap (%d) >= max_chunk_size (%d), using max_chunk_size/10",
			ch.ChunkOverlap, ch.MaxChunkSize))
		ch.ChunkOverlap = ch.MaxChunkSize / 10
	}
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 10
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
	if h.UserAgent == "" {
		h.UserAgent = "docsite/1.0"
	}
}
