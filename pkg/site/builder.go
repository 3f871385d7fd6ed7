// Package site builds the static documentation site: pages are rendered,
// wrapped in layouts with a navigation fragment and written to the output
// directory together with passthrough assets, the search index and the
// sitemap.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/markdown"
	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/search"
	"github.com/chaijs/docsite/pkg/sitemap"
	"github.com/chaijs/docsite/pkg/toc"
	"github.com/chaijs/docsite/pkg/utils"
)

// Generator identifies the tool in template data
const Generator = "docsite"

// DataLoader supplies global template data
type DataLoader interface {
	Load(ctx context.Context) (map[string]any, error)
}

// SiteInfo is exposed to templates as .Site
type SiteInfo struct {
	Generator string
	BuiltAt   time.Time
}

// PageData is the template data for layouts and HTML pages
type PageData struct {
	Page    map[string]any // Front matter plus url, title, source and output
	Content template.HTML
	TOC     template.HTML
	Outline toc.Outline
	Data    map[string]any
	Site    SiteInfo
}

// Builder renders a site from an AppConfig
type Builder struct {
	cfg      *config.AppConfig
	log      *logrus.Entry
	renderer *markdown.Renderer
	loader   DataLoader
	now      func() time.Time
}

// NewBuilder creates a Builder. loader may be nil when no global data is needed.
func NewBuilder(cfg *config.AppConfig, loader DataLoader, log *logrus.Entry) *Builder {
	return &Builder{
		cfg:      cfg,
		log:      log.WithField("component", "site"),
		renderer: markdown.NewRenderer(markdown.OptionsFromConfig(*cfg)),
		loader:   loader,
		now:      time.Now,
	}
}

// PageError is a failure to build one page. It is already counted in the
// Summary errors when Build returns it.
type PageError struct {
	Source string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Source, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// buildRun holds the shared state of one Build call
type buildRun struct {
	*Builder
	templates *Templates
	global    map[string]any
	site      SiteInfo
	indexer   *search.Indexer

	mu      sync.Mutex
	summary *Summary
	outputs map[string]string // output rel path -> source rel path
}

// Build renders every page and copies passthrough assets. The first failure
// cancels the remaining work; the returned Summary is non-nil either way.
func (b *Builder) Build(ctx context.Context) (*Summary, error) {
	start := b.now()
	summary := newSummary()

	if b.cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.BuildTimeout)
		defer cancel()
	}

	err := b.build(ctx, summary, start)
	summary.finish(start, b.now())
	if err != nil {
		var pageErr *PageError
		if !errors.As(err, &pageErr) {
			summary.fail(utils.CategorizeError(err))
		}
		return summary, err
	}
	summary.Log(b.log)
	return summary, nil
}

func (b *Builder) build(ctx context.Context, summary *Summary, start time.Time) error {
	if b.cfg.CleanOutput {
		b.log.Infof("Cleaning output directory: %s", b.cfg.OutputDir)
		if err := os.RemoveAll(b.cfg.OutputDir); err != nil {
			return fmt.Errorf("%w: cleaning output dir: %w", utils.ErrFilesystem, err)
		}
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("%w: creating output dir: %w", utils.ErrFilesystem, err)
	}

	global := map[string]any{}
	if b.loader != nil {
		loaded, err := b.loader.Load(ctx)
		if err != nil {
			return err
		}
		global = loaded
	}

	templates, err := LoadTemplates(
		filepath.Join(b.cfg.InputDir, b.cfg.IncludesDir),
		filepath.Join(b.cfg.InputDir, b.cfg.LayoutsDir),
		FuncMap(b.renderer),
	)
	if err != nil {
		return err
	}

	sources, err := Discover(b.cfg)
	if err != nil {
		return err
	}
	b.log.Infof("Discovered %d page(s) in %s", len(sources), b.cfg.InputDir)

	run := &buildRun{
		Builder:   b,
		templates: templates,
		global:    global,
		site:      SiteInfo{Generator: Generator, BuiltAt: start},
		summary:   summary,
		outputs:   make(map[string]string),
	}
	if b.cfg.SearchIndex.Enabled {
		run.indexer, err = search.NewIndexer(b.cfg, b.cfg.OutputDir, b.log)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.NumWorkers)
	for _, src := range sources {
		g.Go(func() error {
			return run.buildPage(gctx, src)
		})
	}
	for _, src := range sortedKeys(b.cfg.Passthrough) {
		dest := b.cfg.Passthrough[src]
		g.Go(func() error {
			results, err := CopyPassthrough(gctx, b.cfg.RootDir, b.cfg.OutputDir, src, dest)
			run.mu.Lock()
			defer run.mu.Unlock()
			for _, r := range results {
				run.summary.add(r)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if run.indexer != nil {
		if err := run.indexer.Close(); err != nil {
			return err
		}
	}

	if b.cfg.Sitemap.Enabled {
		set, err := sitemap.Build(b.cfg.Sitemap.BaseURL, run.summary.Results)
		if err != nil {
			return err
		}
		if err := sitemap.Write(filepath.Join(b.cfg.OutputDir, config.GetEffectiveSitemapFilename(*b.cfg)), set); err != nil {
			return err
		}
		b.log.Debugf("Wrote sitemap with %d URL(s)", len(set.URLs))
	}

	if b.cfg.StructureReport {
		reportPath := StructureReportPath(b.cfg.OutputDir)
		if err := utils.GenerateAndSaveTreeStructure(b.cfg.OutputDir, reportPath, b.log); err != nil {
			b.log.Warnf("Failed to write structure report: %v", err)
		}
	}
	return nil
}

// StructureReportPath places "<output_dir>_structure.txt" next to the output directory
func StructureReportPath(outputDir string) string {
	clean := filepath.Clean(outputDir)
	return filepath.Join(filepath.Dir(clean), utils.SanitizeFilename(filepath.Base(clean))+"_structure.txt")
}

func (r *buildRun) buildPage(ctx context.Context, src SourceFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pageLog := r.log.WithField("page", src.Rel)

	result, err := r.renderPage(src, pageLog)
	if err != nil {
		category := utils.CategorizeError(err)
		pageLog.WithField("error_type", category).Errorf("Build failed: %v", err)
		r.mu.Lock()
		r.summary.fail(category)
		r.mu.Unlock()
		return &PageError{Source: src.Rel, Err: err}
	}
	if result == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if other, dup := r.outputs[result.Output]; dup {
		return fmt.Errorf("%w: %s and %s both write %s", utils.ErrFilesystem, other, src.Rel, result.Output)
	}
	r.outputs[result.Output] = src.Rel
	r.summary.add(*result)
	return nil
}

// renderPage renders and writes one page. A nil result means the page opted
// out of output with `permalink: false`.
func (r *buildRun) renderPage(src SourceFile, pageLog *logrus.Entry) (*models.PageResult, error) {
	raw, err := os.ReadFile(src.Abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}

	frontMatter, body, err := SplitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	if v, ok := frontMatter["permalink"].(bool); ok && !v {
		pageLog.Debug("Skipping page with permalink: false")
		return nil, nil
	}
	permalink, _ := frontMatter["permalink"].(string)
	outRel, url, err := OutputPath(src.Rel, permalink)
	if err != nil {
		return nil, err
	}
	title, _ := frontMatter["title"].(string)

	page := make(map[string]any, len(frontMatter)+4)
	for k, v := range frontMatter {
		page[k] = v
	}
	page["url"] = url
	page["title"] = title
	page["source"] = src.Rel
	page["output"] = outRel

	data := PageData{Page: page, Data: r.global, Site: r.site}

	content, err := r.renderBody(src, string(body), frontMatter, data)
	if err != nil {
		return nil, err
	}

	headings, err := toc.Headings(content)
	if err != nil {
		return nil, err
	}
	data.Outline = toc.Build(headings)
	data.Content = template.HTML(content)
	if config.GetEffectiveTOCEnabled(frontMatter, *r.cfg) {
		nav, navErr := toc.RenderWithSummary(data.Outline, config.GetEffectiveTOCSummary(frontMatter, *r.cfg))
		if navErr != nil {
			return nil, navErr
		}
		data.TOC = template.HTML(nav)
	}

	final := content
	if layout, _ := frontMatter["layout"].(string); layout != "" {
		final, err = r.templates.ExecuteLayout(layout, data)
		if err != nil {
			return nil, err
		}
	}

	status, err := writeIfChanged(filepath.Join(r.cfg.OutputDir, filepath.FromSlash(outRel)), []byte(final))
	if err != nil {
		return nil, err
	}
	pageLog.WithFields(logrus.Fields{"output": outRel, "status": status}).Debug("Page built")

	if r.indexer != nil {
		indexed := search.Page{URL: url, Title: title, HTML: content, Headings: headings, BuiltAt: r.site.BuiltAt}
		if err := r.indexer.Add(indexed); err != nil {
			pageLog.Warnf("Failed to index page: %v", err)
		}
	}

	return &models.PageResult{
		Source:     src.Rel,
		Output:     outRel,
		URL:        url,
		Status:     status,
		Bytes:      int64(len(final)),
		RenderedAt: r.now(),
	}, nil
}

// renderBody turns a page body into HTML. HTML bodies are executed as
// templates; markdown bodies are executed as text templates, unless
// disabled, and then converted.
func (r *buildRun) renderBody(src SourceFile, body string, frontMatter map[string]any, data PageData) (string, error) {
	if src.Format == "html" {
		return r.templates.ExecuteString(src.Rel, body, data)
	}
	if config.GetEffectiveMarkdownTemplateEngine(frontMatter, *r.cfg) {
		expanded, err := r.templates.ExecuteText(src.Rel, body, data)
		if err != nil {
			return "", err
		}
		body = expanded
	}
	doc, err := r.renderer.Render([]byte(body))
	if err != nil {
		return "", err
	}
	return doc.HTML, nil
}

// writeIfChanged leaves an existing file with identical content untouched
func writeIfChanged(path string, content []byte) (models.OutputStatus, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return models.OutputStatusUnchanged, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.OutputStatusFailed, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return models.OutputStatusFailed, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return models.OutputStatusFailed, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	return models.OutputStatusWritten, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
