// Package watch rebuilds the site when its sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/config"
)

// BuildFunc runs one site build and reports the number of pages rendered
type BuildFunc func(ctx context.Context) (pages int, err error)

// Watcher rebuilds the site after source changes settle
type Watcher struct {
	cfg          *config.AppConfig
	build        BuildFunc
	log          *logrus.Entry
	stateManager *StateManager
	debounce     time.Duration
	excluded     []string
}

// NewWatcher creates a watcher for cfg.InputDir
func NewWatcher(cfg *config.AppConfig, build BuildFunc, log *logrus.Entry) *Watcher {
	debounce := cfg.Watch.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		cfg:          cfg,
		build:        build,
		log:          log.WithField("component", "watch"),
		stateManager: NewStateManager(cfg.StateDir),
		debounce:     debounce,
		excluded:     excludedDirs(cfg),
	}
}

// Run builds once if the sources changed since the last recorded build, then
// blocks rebuilding on changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.stateManager.Load(); err != nil {
		w.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer fsw.Close()
	if err := w.addDirsRecursive(fsw, w.cfg.InputDir); err != nil {
		return err
	}
	for _, root := range passthroughRoots(w.cfg) {
		var err error
		if fi, statErr := os.Stat(root); statErr == nil && !fi.IsDir() {
			err = fsw.Add(filepath.Dir(root))
		} else {
			err = w.addDirsRecursive(fsw, root)
		}
		if err != nil {
			w.log.Warnf("Failed to watch passthrough source %s: %v", root, err)
		}
	}

	w.log.Infof("Watching %s (debounce %v)", w.cfg.InputDir, w.debounce)
	w.rebuildIfChanged(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watch stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name, false, w.excluded) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addDirsRecursive(fsw, ev.Name); err != nil {
						w.log.Warnf("Failed to watch new directory %s: %v", ev.Name, err)
					}
				}
			}
			w.log.Debugf("Change detected: %s (%s)", ev.Name, ev.Op)
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("Watcher error: %v", err)
		case <-timer.C:
			w.rebuildIfChanged(ctx)
		}
	}
}

// State returns the last recorded build
func (w *Watcher) State() (BuildState, bool) {
	return w.stateManager.Get()
}

func (w *Watcher) rebuildIfChanged(ctx context.Context) {
	fingerprint, err := Fingerprint(w.cfg)
	if err != nil {
		w.log.Errorf("Failed to scan sources: %v", err)
		return
	}
	if !w.stateManager.NeedsBuild(fingerprint) {
		w.log.Debug("Sources unchanged since last build")
		return
	}

	start := time.Now()
	pages, err := w.build(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		w.log.Errorf("Rebuild failed: %v", err)
		w.stateManager.Record(fingerprint, false, pages, err.Error())
	} else {
		w.log.Infof("Rebuilt %d page(s) in %v", pages, time.Since(start).Round(time.Millisecond))
		w.stateManager.Record(fingerprint, true, pages, "")
	}

	if err := w.stateManager.Save(); err != nil {
		w.log.Errorf("Failed to save watch state: %v", err)
	}
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && ignored(p, true, w.excluded) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
