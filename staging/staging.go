// Package staging materialises uploaded files on disk for the extraction
// engine and removes them afterwards.
package staging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for an upload without a usable file name.
var ErrInvalidName = errors.New("staging: invalid file name")

// Batch is the set of files staged for one request. Each file lives in its
// own numbered subdirectory under its original base name, so labels in the
// extracted text match what the user uploaded and duplicates never collide.
type Batch struct {
	ID     string
	dir    string
	paths  []string
	logger *slog.Logger
}

// New creates a batch directory under root (os.TempDir() when empty).
func New(root string, logger *slog.Logger) (*Batch, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if root == "" {
		root = os.TempDir()
	}
	id := uuid.NewString()
	dir, err := os.MkdirTemp(root, "doctext-"+id[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &Batch{ID: id, dir: dir, logger: logger}, nil
}

// Stage copies r to a new file named after the base of name and returns
// its path.
func (b *Batch) Stage(name string, r io.Reader) (string, error) {
	base := SafeName(name)
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	sub := filepath.Join(b.dir, strconv.Itoa(len(b.paths)))
	if err := os.Mkdir(sub, 0o700); err != nil {
		return "", fmt.Errorf("creating staging slot: %w", err)
	}
	path := filepath.Join(sub, base)
	// Track the path before writing so Cleanup removes partial files.
	b.paths = append(b.paths, path)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating staged file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		return "", fmt.Errorf("saving uploaded file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing staged file: %w", err)
	}

	b.logger.Debug("staged upload", "batch", b.ID, "name", base, "path", path)
	return path, nil
}

// Paths returns the staged file paths in staging order.
func (b *Batch) Paths() []string {
	return append([]string(nil), b.paths...)
}

// Dir returns the batch directory.
func (b *Batch) Dir() string { return b.dir }

// Cleanup deletes every staged file and the batch directory. Failures are
// logged, never returned.
func (b *Batch) Cleanup() {
	for _, p := range b.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Error("cleaning up staged file", "batch", b.ID, "path", p, "error", err)
		}
	}
	if err := os.RemoveAll(b.dir); err != nil {
		b.logger.Error("cleaning up staging dir", "batch", b.ID, "dir", b.dir, "error", err)
	}
}

// SafeName reduces an uploaded file name to a base name that cannot
// escape the staging directory. It returns "" when nothing usable is left.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	switch base {
	case ".", "..", "/", "":
		return ""
	}
	return base
}
