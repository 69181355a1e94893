// Package storage writes generated documents to the destination directory.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/frontmatter"

	"github.com/notion-mdx-sync/internal/models"
)

// Writer performs idempotent whole-file writes under one directory.
type Writer struct {
	dir string
	ext string
}

// NewWriter creates a Writer for files named <slug>.<ext> under dir.
func NewWriter(dir, ext string) *Writer {
	return &Writer{dir: dir, ext: ext}
}

// Dir returns the destination directory.
func (w *Writer) Dir() string {
	return w.dir
}

// EnsureDir creates the destination directory and any missing parents.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", w.dir, err)
	}
	return nil
}

// PathFor returns the destination path of slug.
func (w *Writer) PathFor(slug string) string {
	return filepath.Join(w.dir, slug+"."+w.ext)
}

// Write stores content at path unless the file already holds exactly these
// bytes. The outcome is created when no file existed, updated when it was
// replaced and unchanged when the write was skipped.
func (w *Writer) Write(path string, content []byte) (models.FileOutcome, error) {
	existing, err := os.ReadFile(path)
	existed := true
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		existed = false
	}

	if existed && bytes.Equal(existing, content) {
		return models.FileUnchanged, nil
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if existed {
		return models.FileUpdated, nil
	}
	return models.FileCreated, nil
}

// Header is the subset of an existing file's header the sync cares about.
type Header struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	NotionID string `yaml:"notion_id"`
}

// ReadHeader parses the header of an existing file. ok is false when the
// file does not exist.
func (w *Writer) ReadHeader(path string) (h Header, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Header{}, false, nil
		}
		return Header{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := frontmatter.Parse(f, &h); err != nil {
		return Header{}, true, fmt.Errorf("parse header of %s: %w", path, err)
	}
	return h, true, nil
}
