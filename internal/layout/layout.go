// Package layout computes the deterministic on-disk locations of originals,
// version artifacts, metrics, and state under a deployment root.
//
//	images/original/<filename>
//	images/metadata/<name>.json
//	transformations/<stem>/v<from>_to_v<to>_matrix.iva
//	transformations/<stem>/metrics/v<version>_rgb.json
//	transformations/<stem>/metrics/v<version>_intensity.json
//	state/index.db
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/franz/imagevault/internal/artifact"
)

// Layout resolves paths relative to a deployment root directory.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) Layout {
	return Layout{Root: root}
}

// OriginalsDir is the directory holding raw original rasters.
func (l Layout) OriginalsDir() string {
	return filepath.Join(l.Root, "images", "original")
}

// OriginalPath locates an original raster by filename.
func (l Layout) OriginalPath(filename string) string {
	return filepath.Join(l.OriginalsDir(), filename)
}

// MetadataDir is the directory holding free-form metadata documents.
func (l Layout) MetadataDir() string {
	return filepath.Join(l.Root, "images", "metadata")
}

// CollectionDir is the per-collection artifact directory. EnsureCollection
// creates it (plus the metrics subdirectory) on demand.
func (l Layout) CollectionDir(stem string) string {
	return filepath.Join(l.Root, "transformations", stem)
}

// EnsureCollection creates the collection directory tree and returns it.
func (l Layout) EnsureCollection(stem string) (string, error) {
	base := l.CollectionDir(stem)
	if err := os.MkdirAll(filepath.Join(base, "metrics"), 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// MatrixFilename names the edge artifact for a from→to version transition,
// with the canonical binary extension.
func MatrixFilename(from, to int) string {
	return fmt.Sprintf("v%d_to_v%d_matrix%s", from, to, artifact.BinaryExt)
}

// MatrixPath locates the edge artifact for a collection.
func (l Layout) MatrixPath(stem string, from, to int) string {
	return filepath.Join(l.CollectionDir(stem), MatrixFilename(from, to))
}

// MetricsPaths locates the per-version average-RGB and intensity-histogram
// files for a collection.
func (l Layout) MetricsPaths(stem string, version int) (rgb, intensity string) {
	dir := filepath.Join(l.CollectionDir(stem), "metrics")
	return filepath.Join(dir, fmt.Sprintf("v%d_rgb.json", version)),
		filepath.Join(dir, fmt.Sprintf("v%d_intensity.json", version))
}

// IndexPath locates the version index document.
func (l Layout) IndexPath() string {
	return filepath.Join(l.Root, "state", "index.db")
}
