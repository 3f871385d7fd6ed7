package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	indentPrefix    = "    "
	entryPrefix     = "├── "
	lastEntryPrefix = "└── "
	verticalLine    = "│   "
)

// GenerateAndSaveTreeStructure writes a text tree of targetDir (the built site) to outputFilePath.
func GenerateAndSaveTreeStructure(targetDir, outputFilePath string, log *logrus.Entry) error {
	if info, err := os.Stat(targetDir); err != nil {
		return fmt.Errorf("%w: checking target directory '%s': %w", ErrFilesystem, targetDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: '%s' is not a directory", ErrFilesystem, targetDir)
	}

	file, err := os.Create(outputFilePath)
	if err != nil {
		return fmt.Errorf("%w: creating structure file '%s': %w", ErrFilesystem, outputFilePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := WriteTreeStructure(writer, targetDir, log); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: flushing structure file '%s': %w", ErrFilesystem, outputFilePath, err)
	}
	log.Debugf("Wrote directory structure of %s to %s", targetDir, outputFilePath)
	return nil
}

// WriteTreeStructure writes the header, the root name and the recursive tree of targetDir to w.
func WriteTreeStructure(w io.Writer, targetDir string, log *logrus.Entry) error {
	header := fmt.Sprintf("Directory Structure for: %s", targetDir)
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n%s/\n", header, strings.Repeat("=", len(header)), filepath.Base(targetDir)); err != nil {
		return err
	}
	if err := walkDirRecursive(w, targetDir, "", log); err != nil {
		return fmt.Errorf("error generating tree structure for '%s': %w", targetDir, err)
	}
	return nil
}

// walkDirRecursive writes one entry per line, directories first, then files, each group case-insensitively sorted
func walkDirRecursive(w io.Writer, dirPath string, currentIndent string, log *logrus.Entry) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		log.Warnf("Failed to read directory '%s': %v", dirPath, err)
		return fmt.Errorf("%w: reading directory '%s': %w", ErrFilesystem, dirPath, err)
	}

	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})

	for i, entry := range entries {
		isLast := i == len(entries)-1

		connector := entryPrefix
		nextIndent := currentIndent + verticalLine
		if isLast {
			connector = lastEntryPrefix
			nextIndent = currentIndent + indentPrefix
		}

		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", currentIndent, connector, name); err != nil {
			return err
		}

		if entry.IsDir() {
			if err := walkDirRecursive(w, filepath.Join(dirPath, entry.Name()), nextIndent, log); err != nil {
				return err
			}
		}
	}
	return nil
}
