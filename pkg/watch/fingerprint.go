package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/utils"
)

// Fingerprint summarizes the path, size and modification time of every file
// under the input dir and the passthrough sources outside it. Hidden entries
// and the output and state dirs are skipped.
func Fingerprint(cfg *config.AppConfig) (string, error) {
	excluded := excludedDirs(cfg)

	lines, err := scanRoot(cfg.InputDir, "", excluded)
	if err != nil {
		return "", err
	}
	for _, root := range passthroughRoots(cfg) {
		extra, err := scanRoot(root, filepath.ToSlash(root)+":", excluded)
		if err != nil {
			return "", err
		}
		lines = append(lines, extra...)
	}

	sort.Strings(lines)
	return utils.CalculateStringSHA256(strings.Join(lines, "\n")), nil
}

func scanRoot(root, prefix string, excluded []string) ([]string, error) {
	var lines []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && ignored(p, d.IsDir(), excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		lines = append(lines, fmt.Sprintf("%s%s\x00%d\x00%d", prefix, filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", utils.ErrFilesystem, root, err)
	}
	return lines, nil
}

// passthroughRoots lists the existing passthrough sources that are not
// inside the input dir, in lexical order.
func passthroughRoots(cfg *config.AppConfig) []string {
	absInput, _ := filepath.Abs(cfg.InputDir)
	var roots []string
	for src := range cfg.Passthrough {
		abs, err := filepath.Abs(filepath.Join(cfg.RootDir, filepath.FromSlash(src)))
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absInput, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		roots = append(roots, abs)
	}
	sort.Strings(roots)
	return roots
}

func excludedDirs(cfg *config.AppConfig) []string {
	var dirs []string
	absInput, _ := filepath.Abs(cfg.InputDir)
	for _, d := range []string{cfg.OutputDir, cfg.StateDir} {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil && abs != absInput {
			dirs = append(dirs, abs)
		}
	}
	return dirs
}

// ignored reports whether a path must not affect or trigger builds
func ignored(p string, isDir bool, excluded []string) bool {
	base := filepath.Base(p)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if !isDir && (strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp")) {
		return true
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range excluded {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
