// Package index maintains the authoritative record of known collections,
// their versions, and the artifact path per version edge.
//
// The index is a single JSON document read and written whole; there are no
// partial-record updates. A DB handle owns a cached copy of the document:
// once loaded, reads return the cache unless a caller forces a reload, and
// every save refreshes it. The cache is not coherent across processes or
// external edits of the file.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Entry records one collection's known versions and edge artifacts.
// Versions stays sorted ascending with no duplicates, and every Matrices
// key's destination version appears in Versions.
type Entry struct {
	Versions []int             `json:"versions"`
	Matrices map[string]string `json:"matrices"`
}

// Document is the whole index: collection stem → entry.
type Document struct {
	Images map[string]*Entry `json:"images"`
}

// EdgeKey builds the canonical "<from>-><to>" key for a version edge.
func EdgeKey(from, to int) string {
	return fmt.Sprintf("%d->%d", from, to)
}

func emptyDocument() *Document {
	return &Document{Images: map[string]*Entry{}}
}

// DB is a handle over the index document at a fixed path. The handle is the
// unit of cache visibility: callers that must observe each other's writes
// share one handle.
type DB struct {
	path string

	mu     sync.Mutex
	cached *Document
}

// Open returns a handle for the index document at path. The file is not
// touched until the first load or save.
func Open(path string) *DB {
	return &DB{path: path}
}

// Path returns the document location.
func (db *DB) Path() string {
	return db.path
}

// Load returns the index document, creating an empty one on disk when the
// file is missing. The cached copy is returned unless force is set.
func (db *DB) Load(force bool) (*Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.loadLocked(force)
}

func (db *DB) loadLocked(force bool) (*Document, error) {
	if db.cached != nil && !force {
		return db.cached, nil
	}

	data, err := os.ReadFile(db.path)
	if os.IsNotExist(err) {
		doc := emptyDocument()
		if err := db.saveLocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, err
	}

	doc := emptyDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("index %s: %w", db.path, err)
	}
	if doc.Images == nil {
		doc.Images = map[string]*Entry{}
	}
	db.cached = doc
	return doc, nil
}

// Save persists the whole document and refreshes the cache.
func (db *DB) Save(doc *Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.saveLocked(doc)
}

func (db *DB) saveLocked(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(db.path, append(data, '\n'), 0o644); err != nil {
		return err
	}
	db.cached = doc
	return nil
}

// AddVersion ensures the collection entry exists, inserts version into its
// sorted unique version list, optionally sets or overwrites the edge→path
// mapping (both edgeKey and matrixPath must be non-empty for that), and
// persists the mutated document. Re-asserting an existing version or edge is
// idempotent. The updated document is returned.
func (db *DB) AddVersion(stem string, version int, edgeKey, matrixPath string) (*Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.loadLocked(false)
	if err != nil {
		return nil, err
	}

	entry := doc.Images[stem]
	if entry == nil {
		entry = &Entry{Versions: []int{}, Matrices: map[string]string{}}
		doc.Images[stem] = entry
	}
	if entry.Matrices == nil {
		entry.Matrices = map[string]string{}
	}

	i := sort.SearchInts(entry.Versions, version)
	if i == len(entry.Versions) || entry.Versions[i] != version {
		entry.Versions = append(entry.Versions, 0)
		copy(entry.Versions[i+1:], entry.Versions[i:])
		entry.Versions[i] = version
	}

	if edgeKey != "" && matrixPath != "" {
		entry.Matrices[edgeKey] = matrixPath
	}

	if err := db.saveLocked(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Remove deletes a collection's entry and persists the document. Removing an
// absent collection is a no-op.
func (db *DB) Remove(stem string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.loadLocked(false)
	if err != nil {
		return err
	}
	if _, ok := doc.Images[stem]; !ok {
		return nil
	}
	delete(doc.Images, stem)
	return db.saveLocked(doc)
}
