package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaijs/docsite/pkg/models"
	"github.com/chaijs/docsite/pkg/utils"
)

// CopyPassthrough copies src (file or directory, relative to rootDir, the
// project root) to dest (relative to outputDir), preserving structure. A
// missing source copies nothing.
func CopyPassthrough(ctx context.Context, rootDir, outputDir, src, dest string) ([]models.PageResult, error) {
	srcRoot := filepath.Join(rootDir, filepath.FromSlash(src))
	destRoot := filepath.Join(outputDir, filepath.FromSlash(dest))

	info, err := os.Stat(srcRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}

	var results []models.PageResult
	copyOne := func(from, to string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := copyFile(from, to)
		if err != nil {
			return err
		}
		srcRel, _ := filepath.Rel(rootDir, from)
		outRel, _ := filepath.Rel(outputDir, to)
		results = append(results, models.PageResult{
			Source:     filepath.ToSlash(srcRel),
			Output:     filepath.ToSlash(outRel),
			URL:        "/" + filepath.ToSlash(outRel),
			Status:     models.OutputStatusCopied,
			Bytes:      n,
			RenderedAt: time.Now(),
		})
		return nil
	}

	if !info.IsDir() {
		target := destRoot
		if dest == "" || strings.HasSuffix(dest, "/") {
			target = filepath.Join(destRoot, info.Name())
		}
		if err := copyOne(srcRoot, target); err != nil {
			return results, err
		}
		return results, nil
	}

	err = filepath.WalkDir(srcRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(srcRoot, p)
		return copyOne(p, filepath.Join(destRoot, rel))
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, utils.ErrFilesystem) {
			return results, err
		}
		return results, fmt.Errorf("%w: copying %s: %w", utils.ErrFilesystem, src, err)
	}
	return results, nil
}

func copyFile(from, to string) (int64, error) {
	in, err := os.Open(from)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	out, err := os.Create(to)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("%w: copying to %s: %w", utils.ErrFilesystem, to, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	return n, nil
}
