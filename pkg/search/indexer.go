// Package search writes a JSONL index of built pages and reads it back for queries.
package search

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/toc"
	"github.com/chaijs/docsite/pkg/utils"
)

// Page is the input for one index record
type Page struct {
	URL      string
	Title    string
	HTML     string // Rendered page body, before layout
	Headings []toc.HeadingToken
	BuiltAt  time.Time // Build start; the indexer clock is used when zero
}

// Indexer collects page and chunk records during a build. Records are written
// sorted by URL on Close, so file order does not depend on worker scheduling.
// Pages added with the same BuiltAt share one timestamp across the build.
type Indexer struct {
	log       *logrus.Entry
	indexPath string
	chunkPath string // Empty when chunking is disabled
	chunkCfg  ChunkerConfig
	tok       *Tokenizer
	converter *md.Converter
	now       func() time.Time

	mu     sync.Mutex
	pages  []models.PageRecord
	chunks map[string][]models.ChunkRecord
}

// NewIndexer prepares an indexer writing into outputDir
func NewIndexer(appCfg *config.AppConfig, outputDir string, log *logrus.Entry) (*Indexer, error) {
	tok, err := NewTokenizer(appCfg.SearchIndex.TokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrConfigValidation, err)
	}

	ix := &Indexer{
		log:       log.WithField("component", "search"),
		indexPath: filepath.Join(outputDir, config.GetEffectiveSearchIndexFilename(*appCfg)),
		tok:       tok,
		converter: md.NewConverter("", true, nil),
		now:       time.Now,
		chunks:    make(map[string][]models.ChunkRecord),
	}
	if appCfg.SearchIndex.Chunking.Enabled {
		ix.chunkPath = filepath.Join(outputDir, config.GetEffectiveChunksFilename(*appCfg))
		ix.chunkCfg = ChunkerConfig{
			MaxChunkSize: appCfg.SearchIndex.Chunking.MaxChunkSize,
			ChunkOverlap: appCfg.SearchIndex.Chunking.ChunkOverlap,
		}
	}
	return ix, nil
}

// IndexPath returns the path of the page index file
func (ix *Indexer) IndexPath() string {
	return ix.indexPath
}

// Add converts page to markdown and records it. Safe for concurrent use.
func (ix *Indexer) Add(page Page) error {
	content, err := ix.converter.ConvertString(page.HTML)
	if err != nil {
		return fmt.Errorf("%w: HTML to markdown for %s: %w", utils.ErrParsing, page.URL, err)
	}
	content = strings.TrimSpace(content)
	stamp := page.BuiltAt
	if stamp.IsZero() {
		stamp = ix.now()
	}
	builtAt := stamp.UTC().Format(time.RFC3339)

	headings := make([]models.HeadingRecord, 0, len(page.Headings))
	for _, h := range page.Headings {
		headings = append(headings, models.HeadingRecord{Level: h.Level, ID: h.ID, Text: h.Text})
	}

	record := models.PageRecord{
		URL:         page.URL,
		Title:       page.Title,
		Headings:    headings,
		Content:     content,
		ContentHash: utils.CalculateStringSHA256(content),
		BuiltAt:     builtAt,
		TokenCount:  ix.tok.Count(content),
	}

	var chunkRecords []models.ChunkRecord
	if ix.chunkPath != "" {
		chunks, chunkErr := ChunkMarkdown(content, ix.chunkCfg, ix.tok)
		if chunkErr != nil {
			ix.log.WithField("url", page.URL).Warnf("Failed to chunk page content: %v", chunkErr)
		}
		for i, c := range chunks {
			chunkRecords = append(chunkRecords, models.ChunkRecord{
				URL:              page.URL,
				ChunkIndex:       i,
				Content:          c.Content,
				HeadingHierarchy: c.HeadingHierarchy,
				TokenCount:       c.TokenCount,
				PageTitle:        page.Title,
				BuiltAt:          builtAt,
			})
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.pages = append(ix.pages, record)
	if len(chunkRecords) > 0 {
		ix.chunks[page.URL] = chunkRecords
	}
	return nil
}

// Len returns the number of recorded pages
func (ix *Indexer) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.pages)
}

// Close writes the index and chunk files
func (ix *Indexer) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sort.Slice(ix.pages, func(i, j int) bool { return ix.pages[i].URL < ix.pages[j].URL })

	if err := writeJSONL(ix.indexPath, ix.pages); err != nil {
		return err
	}
	ix.log.Infof("Wrote search index (%d pages) to %s", len(ix.pages), ix.indexPath)

	if ix.chunkPath == "" {
		return nil
	}
	var all []models.ChunkRecord
	for _, p := range ix.pages {
		all = append(all, ix.chunks[p.URL]...)
	}
	if err := writeJSONL(ix.chunkPath, all); err != nil {
		return err
	}
	ix.log.Infof("Wrote %d chunks to %s", len(all), ix.chunkPath)
	return nil
}

func writeJSONL[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", utils.ErrFilesystem, path, err)
	}

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			file.Close()
			return fmt.Errorf("%w: encoding record for %s: %w", utils.ErrFilesystem, path, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("%w: write %s: %w", utils.ErrFilesystem, path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("%w: sync %s: %w", utils.ErrFilesystem, path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", utils.ErrFilesystem, path, err)
	}
	return nil
}
