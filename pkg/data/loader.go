// Package data assembles the global template data available to every page.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/utils"
)

// PluginsKey is the global data key holding the plugin list
const PluginsKey = "plugins"

// Loader builds the global data map for a site build
type Loader struct {
	cfg    *config.AppConfig
	getter BodyGetter
	log    *logrus.Entry
}

// NewLoader creates a Loader. getter may be nil when plugins are disabled.
func NewLoader(cfg *config.AppConfig, getter BodyGetter, log *logrus.Entry) *Loader {
	return &Loader{cfg: cfg, getter: getter, log: log.WithField("component", "data")}
}

// Load returns the global data. Plugin fetch failures are logged and replaced
// by an empty list; malformed data files fail the load.
func (l *Loader) Load(ctx context.Context) (map[string]any, error) {
	global := make(map[string]any)

	dataDir := filepath.Join(l.cfg.InputDir, l.cfg.DataDir)
	files, err := LoadDir(dataDir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		global[k] = v
	}
	if len(files) > 0 {
		l.log.Debugf("Loaded %d data file(s) from %s", len(files), dataDir)
	}

	if l.cfg.Plugins.Enabled {
		global[PluginsKey] = l.loadPlugins(ctx)
	}
	return global, nil
}

func (l *Loader) loadPlugins(ctx context.Context) []Plugin {
	if l.getter == nil {
		l.log.Warn("Plugin list enabled but no fetcher configured, using empty list")
		return []Plugin{}
	}
	p := l.cfg.Plugins
	plugins, err := FetchPlugins(ctx, l.getter, p.RegistryURL, p.SearchText, p.CacheDuration)
	if err != nil {
		l.log.WithField("error_type", utils.CategorizeError(err)).Warnf("Failed to load plugin list, using empty list: %v", err)
		return []Plugin{}
	}
	l.log.Infof("Loaded %d plugin(s) from registry", len(plugins))
	return plugins
}

// LoadDir reads every .json, .yaml and .yml file directly inside dir, keyed by
// base name without extension. A missing dir yields an empty map.
func LoadDir(dir string) (map[string]any, error) {
	result := make(map[string]any)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading data dir %s: %w", utils.ErrFilesystem, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		key := strings.TrimSuffix(name, filepath.Ext(name))
		path := filepath.Join(dir, name)

		var value any
		switch ext {
		case ".json":
			value, err = readJSON(path)
		case ".yaml", ".yml":
			value, err = readYAML(path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, dup := result[key]; dup {
			return nil, fmt.Errorf("%w: duplicate data key %q from %s", utils.ErrParsing, key, path)
		}
		result[key] = value
	}
	return result, nil
}

func readJSON(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: JSON data file %s: %w", utils.ErrParsing, path, err)
	}
	return v, nil
}

func readYAML(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: YAML data file %s: %w", utils.ErrParsing, path, err)
	}
	return v, nil
}
