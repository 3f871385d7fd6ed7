package site

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/utils"
)

// SourceFile is a page found under the input directory
type SourceFile struct {
	Rel    string // Slash separated, relative to input_dir
	Abs    string
	Format string // "md" or "html"
}

// Discover lists the pages under cfg.InputDir in lexical order. Special
// directories, passthrough sources that fall inside the input directory, the
// output directory and names starting with "_" or "." are skipped.
func Discover(cfg *config.AppConfig) ([]SourceFile, error) {
	formats := make(map[string]bool, len(cfg.TemplateFormats))
	for _, f := range cfg.TemplateFormats {
		formats[f] = true
	}

	skip := map[string]bool{
		cleanRel(cfg.IncludesDir): true,
		cleanRel(cfg.LayoutsDir):  true,
		cleanRel(cfg.DataDir):     true,
	}
	copied := make(map[string]bool, len(cfg.Passthrough))
	for src := range cfg.Passthrough {
		abs, _ := filepath.Abs(filepath.Join(cfg.RootDir, filepath.FromSlash(src)))
		copied[abs] = true
	}
	absInput, _ := filepath.Abs(cfg.InputDir)
	absOutput, _ := filepath.Abs(cfg.OutputDir)

	var files []SourceFile
	err := filepath.WalkDir(cfg.InputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(cfg.InputDir, p)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()
		abs, _ := filepath.Abs(p)

		if d.IsDir() {
			if skip[rel] || copied[abs] || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || (abs == absOutput && abs != absInput) {
				return filepath.SkipDir
			}
			return nil
		}
		if skip[rel] || copied[abs] || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			return nil
		}
		format := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
		if !formats[format] {
			return nil
		}
		files = append(files, SourceFile{Rel: rel, Abs: p, Format: format})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", utils.ErrFilesystem, cfg.InputDir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

func cleanRel(p string) string {
	return strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/")
}

// OutputPath maps a page's relative source path to its output file and URL.
// "index.md" -> "index.html" at "/", "foo.md" -> "foo/index.html" at "/foo/".
// A non-empty permalink overrides the mapping; a permalink ending in "/"
// receives "index.html".
func OutputPath(rel, permalink string) (outRel, url string, err error) {
	if permalink != "" {
		clean := path.Clean("/" + permalink)
		if strings.Contains(permalink, "..") {
			return "", "", fmt.Errorf("%w: permalink %q escapes the output directory", utils.ErrParsing, permalink)
		}
		if strings.HasSuffix(permalink, "/") || clean == "/" {
			dir := strings.TrimSuffix(clean, "/")
			return strings.TrimPrefix(dir+"/index.html", "/"), dir + "/", nil
		}
		outRel = strings.TrimPrefix(clean, "/")
		url = clean
		if path.Base(clean) == "index.html" {
			url = path.Dir(clean)
			if url != "/" {
				url += "/"
			}
		}
		return outRel, url, nil
	}

	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == "index" {
		outRel = dir + "index.html"
		url = "/" + dir
	} else {
		outRel = dir + stem + "/index.html"
		url = "/" + dir + stem + "/"
	}
	return outRel, url, nil
}
