// Package storage manages the originals directory: raw source rasters that
// every version of a collection derives from.
package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/franz/imagevault/internal/layout"
	"github.com/franz/imagevault/internal/raster"
	"github.com/franz/imagevault/internal/util"
)

// Store tracks originals under a deployment layout.
type Store struct {
	layout layout.Layout
}

// New returns a Store over the given layout.
func New(l layout.Layout) *Store {
	return &Store{layout: l}
}

// SaveOriginal stores an image under images/original/<filename> and returns
// the target path. Accepted source kinds: a file path (string), raw bytes,
// an io.Reader of encoded bytes, or a decoded image.Image. Anything else is
// ErrInvalidArgument.
func (s *Store) SaveOriginal(src any, filename string) (string, error) {
	dir := s.layout.OriginalsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	target := filepath.Join(dir, filename)

	switch v := src.(type) {
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("image file %s: %w", v, util.ErrNotFound)
			}
			return "", err
		}
		return target, os.WriteFile(target, data, 0o644)

	case []byte:
		return target, os.WriteFile(target, v, 0o644)

	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return "", err
		}
		return target, os.WriteFile(target, data, 0o644)

	case image.Image:
		return target, raster.Save(v, target)

	default:
		return "", fmt.Errorf("source type %T: %w", src, util.ErrInvalidArgument)
	}
}

// ListOriginals returns the sorted filenames present in images/original.
// A missing directory reads as empty, not as an error.
func (s *Store) ListOriginals() ([]string, error) {
	entries, err := os.ReadDir(s.layout.OriginalsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// FindOriginal resolves a collection stem to the path of its original
// raster by filename stem match.
func (s *Store) FindOriginal(stem string) (string, error) {
	names, err := s.ListOriginals()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if base := name[:len(name)-len(filepath.Ext(name))]; base == stem {
			return filepath.Join(s.layout.OriginalsDir(), name), nil
		}
	}
	return "", fmt.Errorf("original for collection %q: %w", stem, util.ErrNotFound)
}

// RemoveOriginal deletes the original matching stem. Absent files are not
// an error.
func (s *Store) RemoveOriginal(stem string) error {
	path, err := s.FindOriginal(stem)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil
		}
		return err
	}
	return os.Remove(path)
}
