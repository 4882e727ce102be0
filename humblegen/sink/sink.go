// Package sink is where humblegen writes the documents it produces.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidPath is returned for absolute, unclean or escaping paths.
	ErrInvalidPath = errors.New("invalid output path")
	// ErrExists is returned when a file exists and overwriting is off.
	ErrExists = errors.New("output file exists")
)

// Sink receives generated documents. Paths are relative and slash separated.
// Implementations are safe for concurrent use.
type Sink interface {
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Filesystem writes below Root. Files are written to a temp file and
// renamed into place.
type Filesystem struct {
	Root      string
	Mode      os.FileMode
	Overwrite bool
}

// NewFilesystem returns a sink writing 0644 files below root, replacing
// existing files.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{Root: root, Mode: 0o644, Overwrite: true}
}

func (s *Filesystem) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(s.Root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("resolving output root: %w", err)
	}
	absPath, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q escapes %s", ErrInvalidPath, path, s.Root)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".humblegen-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if s.Overwrite {
		if err := os.Rename(tmpPath, full); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("replacing %s: %w", path, err)
		}
		return nil
	}
	// Link fails if the target exists, so there is no stat/rename race.
	err = os.Link(tmpPath, full)
	_ = os.Remove(tmpPath)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// Memory keeps documents in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (s *Memory) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of the document at path, or nil.
func (s *Memory) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Paths lists the written paths in sorted order.
func (s *Memory) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Writer copies every document to W regardless of its path, for "-o -".
type Writer struct {
	mu sync.Mutex
	W  io.Writer
}

func (s *Writer) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.W.Write(content)
	return err
}

// ValidatePath rejects empty, absolute, unclean and parent-relative paths.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case filepath.IsAbs(path) || strings.HasPrefix(path, "/"):
		return fmt.Errorf("%w: %q is absolute", ErrInvalidPath, path)
	case len(path) >= 2 && path[1] == ':':
		return fmt.Errorf("%w: %q is absolute", ErrInvalidPath, path)
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q leaves the output root", ErrInvalidPath, path)
		}
	}
	if clean := filepath.ToSlash(filepath.Clean(path)); clean != path {
		return fmt.Errorf("%w: %q is not clean, want %q", ErrInvalidPath, path, clean)
	}
	return nil
}
