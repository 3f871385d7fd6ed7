package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/chaijs/docsite/pkg/headingid"
	"github.com/chaijs/docsite/pkg/markdown"
	"github.com/chaijs/docsite/pkg/toc"
	"github.com/chaijs/docsite/pkg/utils"
)

// Templates holds the include partials and lazily parsed layouts. The
// partials are parsed twice: as HTML templates for layouts and HTML pages,
// and as text templates for markdown sources, which are not HTML yet.
type Templates struct {
	layoutsDir string
	base       *template.Template
	text       *texttemplate.Template

	mu      sync.Mutex
	layouts map[string]*template.Template
}

// FuncMap returns the functions available to layouts, includes and HTML pages
func FuncMap(renderer *markdown.Renderer) template.FuncMap {
	return template.FuncMap{
		"jsonify": jsonify,
		"markdown": func(content string) (template.HTML, error) {
			out, err := renderer.RenderString(content)
			if err != nil {
				return "", err
			}
			return template.HTML(out), nil
		},
		"toc": func(content any) (template.HTML, error) {
			out, err := toc.FromHTML(fmt.Sprint(content), toc.DefaultSummary)
			if err != nil {
				return "", err
			}
			return template.HTML(out), nil
		},
		"slugify": headingid.Slugify,
	}
}

// jsonify encodes v as indented JSON
func jsonify(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: jsonify: %w", utils.ErrTemplate, err)
	}
	return string(b), nil
}

// LoadTemplates parses every file under includesDir as a partial named by its
// slash path relative to includesDir. A missing includes dir is allowed.
func LoadTemplates(includesDir, layoutsDir string, funcs template.FuncMap) (*Templates, error) {
	base := template.New("").Funcs(funcs)
	text := texttemplate.New("").Funcs(texttemplate.FuncMap(funcs))

	err := filepath.WalkDir(includesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(includesDir, p)
		content, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		name := filepath.ToSlash(rel)
		if _, parseErr := base.New(name).Parse(string(content)); parseErr != nil {
			return fmt.Errorf("%w: include %s: %w", utils.ErrTemplate, rel, parseErr)
		}
		if _, parseErr := text.New(name).Parse(string(content)); parseErr != nil {
			return fmt.Errorf("%w: include %s: %w", utils.ErrTemplate, rel, parseErr)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		if errors.Is(err, utils.ErrTemplate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading includes from %s: %w", utils.ErrFilesystem, includesDir, err)
	}

	return &Templates{
		layoutsDir: layoutsDir,
		base:       base,
		text:       text,
		layouts:    make(map[string]*template.Template),
	}, nil
}

// Layout returns the parsed layout for name, trying name and name+".html"
func (t *Templates) Layout(name string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.layouts[name]; ok {
		return tmpl, nil
	}
	if strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", utils.ErrLayoutNotFound, name)
	}

	var content []byte
	var err error
	for _, candidate := range []string{name, name + ".html"} {
		content, err = os.ReadFile(filepath.Join(t.layoutsDir, filepath.FromSlash(candidate)))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q in %s", utils.ErrLayoutNotFound, name, t.layoutsDir)
	}

	tmpl, err := t.parse("layout:"+name, string(content))
	if err != nil {
		return nil, err
	}
	t.layouts[name] = tmpl
	return tmpl, nil
}

// parse clones the partial set and adds one named template. Caller holds mu.
func (t *Templates) parse(name, content string) (*template.Template, error) {
	clone, err := t.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrTemplate, err)
	}
	tmpl, err := clone.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", utils.ErrTemplate, name, err)
	}
	return tmpl, nil
}

// ExecuteLayout renders data through the named layout
func (t *Templates) ExecuteLayout(name string, data any) (string, error) {
	tmpl, err := t.Layout(name)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

// ExecuteString parses content as a template with access to the partials and
// renders it with data. Used for HTML page bodies.
func (t *Templates) ExecuteString(name, content string, data any) (string, error) {
	t.mu.Lock()
	tmpl, err := t.parse("page:"+name, content)
	t.mu.Unlock()
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

// ExecuteText renders a markdown source as a text template before it is
// converted to HTML. Output is not HTML-escaped; the markdown renderer
// decides what raw HTML survives.
func (t *Templates) ExecuteText(name, content string, data any) (string, error) {
	t.mu.Lock()
	clone, err := t.text.Clone()
	t.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrTemplate, err)
	}
	name = "markdown:" + name
	tmpl, err := clone.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", utils.ErrTemplate, name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", utils.ErrTemplate, name, err)
	}
	return buf.String(), nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", utils.ErrTemplate, tmpl.Name(), err)
	}
	return buf.String(), nil
}
