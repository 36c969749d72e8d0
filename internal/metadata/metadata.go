// Package metadata stores free-form JSON documents alongside originals.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/imagevault/internal/layout"
	"github.com/franz/imagevault/internal/util"
)

// Store reads and writes metadata documents under images/metadata.
type Store struct {
	layout layout.Layout
}

// New returns a Store over the given layout.
func New(l layout.Layout) *Store {
	return &Store{layout: l}
}

// normalize appends the .json suffix when the caller left it off.
func normalize(name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}
	return name + ".json"
}

// Save writes data as an indented, key-sorted JSON document and returns the
// file path.
func (s *Store) Save(name string, data map[string]any) (string, error) {
	dir := s.layout.MetadataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	target := filepath.Join(dir, normalize(name))
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return target, os.WriteFile(target, append(body, '\n'), 0o644)
}

// Load reads the named metadata document.
func (s *Store) Load(name string) (map[string]any, error) {
	target := filepath.Join(s.layout.MetadataDir(), normalize(name))
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("metadata %s: %w", target, util.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", target, err)
	}
	return out, nil
}
