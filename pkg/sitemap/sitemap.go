// Package sitemap writes the sitemap.xml of a built site.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/utils"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLURLSet represents a <urlset> element in a sitemap
type XMLURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []XMLURL `xml:"url"`
}

// Build resolves the URL of every rendered page against baseURL. Assets and
// failed pages are left out; entries are sorted by location.
func Build(baseURL string, results []models.PageResult) (*XMLURLSet, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: sitemap base URL '%s' must be absolute", utils.ErrConfigValidation, baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	set := &XMLURLSet{Xmlns: xmlns}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if r.URL == "" || !isPage(r.Status) {
			continue
		}
		ref, err := url.Parse(strings.TrimPrefix(r.URL, "/"))
		if err != nil {
			return nil, fmt.Errorf("%w: page URL '%s': %w", utils.ErrParsing, r.URL, err)
		}
		loc := base.ResolveReference(ref).String()
		if seen[loc] {
			continue
		}
		seen[loc] = true

		entry := XMLURL{Loc: loc}
		if !r.RenderedAt.IsZero() {
			entry.LastMod = r.RenderedAt.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, entry)
	}
	sort.Slice(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })
	return set, nil
}

func isPage(s models.OutputStatus) bool {
	return s == models.OutputStatusWritten || s == models.OutputStatusUnchanged
}

// Write encodes set to path with an XML declaration.
func Write(path string, set *XMLURLSet) error {
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding sitemap: %w", utils.ErrParsing, err)
	}
	out := append([]byte(xml.Header), body...)
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating sitemap dir: %w", utils.ErrFilesystem, err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("%w: writing sitemap: %w", utils.ErrFilesystem, err)
	}
	return nil
}
