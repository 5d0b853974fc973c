// Package storage provides the local-disk media store. Uploaded sources live
// under uploads/ and rendered artifacts under outputs/, both relative to a
// configured root. Callers hold relative paths only; resolution back to the
// filesystem always goes through this package so traversal outside the root
// is impossible.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage errors
var (
	// ErrInvalidPath indicates a relative path that is absolute, empty, or
	// escapes the storage root.
	ErrInvalidPath = errors.New("storage path is invalid")

	// ErrFileNotFound indicates the relative path does not resolve to a stored file.
	ErrFileNotFound = errors.New("stored file not found")

	// ErrFileTooLarge indicates an upload exceeded the configured size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// Subdirectories under the storage root.
const (
	UploadsDir = "uploads"
	OutputsDir = "outputs"
)

// Store manages media files on local disk under a single root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at the given directory, creating the root
// and its uploads/ and outputs/ subdirectories if needed.
// If logger is nil, a default logger will be used.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %q: %w", root, err)
	}

	for _, dir := range []string{abs, filepath.Join(abs, UploadsDir), filepath.Join(abs, OutputsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %q: %w", dir, err)
		}
	}

	return &Store{
		root:   abs,
		logger: logger.With(slog.String("component", "storage")),
	}, nil
}

// Root returns the absolute storage root directory.
func (s *Store) Root() string {
	return s.root
}

// SaveUpload streams r into uploads/ under a fresh UUID-based name, keeping
// the original file extension. The write goes to a temp file first and is
// renamed into place only when the full copy succeeds, so a partial upload
// never appears under its final name. When maxBytes is positive, reads stop
// at the cap and ErrFileTooLarge is returned.
//
// It returns the relative path of the stored file and the number of bytes
// written.
func (s *Store) SaveUpload(filename string, r io.Reader, maxBytes int64) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	rel := filepath.Join(UploadsDir, uuid.New().String()+ext)

	size, err := s.saveTo(rel, r, maxBytes)
	if err != nil {
		return "", 0, err
	}

	s.logger.Debug("upload stored",
		"path", rel,
		"size_bytes", size)

	return rel, size, nil
}

// NewOutputPath reserves a fresh relative path under outputs/ with the given
// extension (leading dot optional). Nothing is created on disk; the caller is
// expected to hand the resolved absolute path to a renderer.
func (s *Store) NewOutputPath(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := uuid.New().String()
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(OutputsDir, name)
}

// Abs resolves a relative storage path to an absolute filesystem path,
// rejecting anything that would escape the root.
func (s *Store) Abs(rel string) (string, error) {
	return s.resolve(rel)
}

// Open opens a stored file for reading. The returned file supports seeking,
// so it can back range requests.
// Returns ErrFileNotFound if no file exists at the path.
func (s *Store) Open(rel string) (*os.File, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}

	return f, nil
}

// Stat reports the size of a stored file in bytes.
// Returns ErrFileNotFound if no file exists at the path.
func (s *Store) Stat(rel string) (int64, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return 0, fmt.Errorf("failed to stat stored file: %w", err)
	}

	return info.Size(), nil
}

// Remove deletes a stored file.
// Returns ErrFileNotFound if no file exists at the path.
func (s *Store) Remove(rel string) error {
	abs, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return fmt.Errorf("failed to remove stored file: %w", err)
	}

	s.logger.Debug("stored file removed", "path", rel)
	return nil
}

// saveTo copies r to the given relative path via a sibling temp file.
func (s *Store) saveTo(rel string, r io.Reader, maxBytes int64) (int64, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".incoming-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	var size int64
	if maxBytes > 0 {
		// Copy one byte past the cap; a full read that far means the
		// upload is over the limit.
		size, err = io.CopyN(tmp, r, maxBytes+1)
		if err == nil {
			cleanup()
			return 0, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
		}
		if !errors.Is(err, io.EOF) {
			cleanup()
			return 0, fmt.Errorf("failed to write upload: %w", err)
		}
	} else {
		size, err = io.Copy(tmp, r)
		if err != nil {
			cleanup()
			return 0, fmt.Errorf("failed to write upload: %w", err)
		}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to finalize upload: %w", err)
	}

	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to move upload into place: %w", err)
	}

	return size, nil
}

// resolve validates rel and joins it onto the root. Absolute paths and paths
// that climb out of the root are rejected.
func (s *Store) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute path %q", ErrInvalidPath, rel)
	}

	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the storage root", ErrInvalidPath, rel)
	}

	return filepath.Join(s.root, clean), nil
}
