package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HighlightConfig controls syntax highlighting of fenced code blocks
type HighlightConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`      // nil = enabled
	Style       string `yaml:"style,omitempty"`        // Chroma style name
	LineNumbers bool   `yaml:"line_numbers,omitempty"` // Render line numbers in code blocks
	UseClasses  bool   `yaml:"use_classes,omitempty"`  // Emit CSS classes instead of inline styles
}

// MarkdownConfig controls the markdown renderer
type MarkdownConfig struct {
	UnsafeHTML     bool  `yaml:"unsafe_html,omitempty"`     // Pass raw HTML in markdown through to the output
	Typographer    bool  `yaml:"typographer,omitempty"`     // Smart quotes and dashes
	TemplateEngine *bool `yaml:"template_engine,omitempty"` // nil = enabled; run markdown bodies through the templates before rendering
}

// TOCConfig controls the per-page navigation fragment
type TOCConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // nil = enabled; pages can override with `toc: false`
	Summary string `yaml:"summary,omitempty"` // Label of the collapsible container
}

// PluginsConfig controls the plugin list loaded into global template data
type PluginsConfig struct {
	Enabled       bool          `yaml:"enabled,omitempty"`
	RegistryURL   string        `yaml:"registry_url,omitempty"`   // npm registry search endpoint
	SearchText    string        `yaml:"search_text,omitempty"`    // Value for the `text` query parameter
	CacheDuration time.Duration `yaml:"cache_duration,omitempty"` // How long a fetched response is reused
}

// ChunkingConfig controls chunk records written next to the search index
type ChunkingConfig struct {
	Enabled      bool   `yaml:"enabled,omitempty"`
	Filename     string `yaml:"filename,omitempty"`
	MaxChunkSize int    `yaml:"max_chunk_size,omitempty"` // In tokens
	ChunkOverlap int    `yaml:"chunk_overlap,omitempty"`  // In tokens
}

// SearchIndexConfig controls the JSONL page index of the built site
type SearchIndexConfig struct {
	Enabled       bool           `yaml:"enabled,omitempty"`
	Filename      string         `yaml:"filename,omitempty"`
	TokenEncoding string         `yaml:"token_encoding,omitempty"` // tiktoken encoding used for token counts
	Chunking      ChunkingConfig `yaml:"chunking,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
	UserAgent           string        `yaml:"user_agent,omitempty"`
}

// SitemapConfig controls sitemap.xml generation
type SitemapConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"` // Absolute site root that page URLs are resolved against
	Filename string `yaml:"filename,omitempty"`
}

// WatchConfig controls rebuilds on source changes
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"` // Quiet period after the last change before rebuilding
}

// AppConfig holds the site build configuration
type AppConfig struct {
	InputDir           string            `yaml:"input_dir"`
	OutputDir          string            `yaml:"output_dir"`
	IncludesDir        string            `yaml:"includes_dir,omitempty"` // Relative to input_dir
	LayoutsDir         string            `yaml:"layouts_dir,omitempty"`  // Relative to input_dir
	DataDir            string            `yaml:"data_dir,omitempty"`     // Relative to input_dir
	TemplateFormats    []string          `yaml:"template_formats,omitempty"`
	RootDir            string            `yaml:"root_dir,omitempty"`    // Project root; passthrough sources are relative to it
	Passthrough        map[string]string `yaml:"passthrough,omitempty"` // Source (relative to root_dir) -> destination (relative to output_dir)
	CleanOutput        bool              `yaml:"clean_output,omitempty"`
	NumWorkers         int               `yaml:"num_workers,omitempty"`
	StateDir           string            `yaml:"state_dir,omitempty"`
	StructureReport    bool              `yaml:"structure_report,omitempty"`
	MaxRetries         int               `yaml:"max_retries,omitempty"`
	InitialRetryDelay  time.Duration     `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration     `yaml:"max_retry_delay,omitempty"`
	BuildTimeout       time.Duration     `yaml:"build_timeout,omitempty"` // 0 = no timeout
	Markdown           MarkdownConfig    `yaml:"markdown,omitempty"`
	Highlight          HighlightConfig   `yaml:"highlight,omitempty"`
	TOC                TOCConfig         `yaml:"toc,omitempty"`
	Plugins            PluginsConfig     `yaml:"plugins,omitempty"`
	SearchIndex        SearchIndexConfig `yaml:"search_index,omitempty"`
	Sitemap            SitemapConfig     `yaml:"sitemap,omitempty"`
	Watch              WatchConfig       `yaml:"watch,omitempty"`
	HTTPClientSettings HTTPClientConfig  `yaml:"http_client_settings,omitempty"`
}

// Load reads and parses a YAML config file. Defaults are applied by Validate.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// GetEffectiveHighlightEnabled reports whether code blocks are highlighted
func GetEffectiveHighlightEnabled(appCfg AppConfig) bool {
	if appCfg.Highlight.Enabled != nil {
		return *appCfg.Highlight.Enabled
	}
	return true
}

// GetEffectiveMarkdownTemplateEngine resolves the page front matter
// `template_engine` key against the global markdown setting
func GetEffectiveMarkdownTemplateEngine(frontMatter map[string]any, appCfg AppConfig) bool {
	if v, ok := frontMatter["template_engine"].(bool); ok {
		return v
	}
	if appCfg.Markdown.TemplateEngine != nil {
		return *appCfg.Markdown.TemplateEngine
	}
	return true
}

// GetEffectiveTOCEnabled resolves the page front matter `toc` key against the global setting
func GetEffectiveTOCEnabled(frontMatter map[string]any, appCfg AppConfig) bool {
	if v, ok := frontMatter["toc"].(bool); ok {
		return v
	}
	if appCfg.TOC.Enabled != nil {
		return *appCfg.TOC.Enabled
	}
	return true
}

// GetEffectiveTOCSummary resolves the navigation label, page `toc_summary` first
func GetEffectiveTOCSummary(frontMatter map[string]any, appCfg AppConfig) string {
	if v, ok := frontMatter["toc_summary"].(string); ok && v != "" {
		return v
	}
	if appCfg.TOC.Summary != "" {
		return appCfg.TOC.Summary
	}
	return "Navigation"
}

// GetEffectiveSearchIndexFilename returns the index filename or its default
func GetEffectiveSearchIndexFilename(appCfg AppConfig) string {
	if appCfg.SearchIndex.Filename != "" {
		return appCfg.SearchIndex.Filename
	}
	return "search-index.jsonl"
}

// GetEffectiveChunksFilename returns the chunk output filename or its default
func GetEffectiveChunksFilename(appCfg AppConfig) string {
	if appCfg.SearchIndex.Chunking.Filename != "" {
		return appCfg.SearchIndex.Chunking.Filename
	}
	return "chunks.jsonl"
}

// GetEffectiveSitemapFilename returns the sitemap filename or its default
func GetEffectiveSitemapFilename(appCfg AppConfig) string {
	if appCfg.Sitemap.Filename != "" {
		return appCfg.Sitemap.Filename
	}
	return "sitemap.xml"
}
