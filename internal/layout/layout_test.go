package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	l := New("/deploy")

	testCases := []struct {
		name string
		got  string
		want string
	}{
		{"original", l.OriginalPath("cat.png"), "/deploy/images/original/cat.png"},
		{"matrix", l.MatrixPath("img_001", 1, 2), "/deploy/transformations/img_001/v1_to_v2_matrix.iva"},
		{"index", l.IndexPath(), "/deploy/state/index.db"},
		{"metadata dir", l.MetadataDir(), "/deploy/images/metadata"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != filepath.FromSlash(tc.want) {
				t.Errorf("got %s, want %s", tc.got, tc.want)
			}
		})
	}
}

func TestMetricsPaths(t *testing.T) {
	l := New("/deploy")
	rgb, intensity := l.MetricsPaths("img_001", 3)
	if rgb != filepath.FromSlash("/deploy/transformations/img_001/metrics/v3_rgb.json") {
		t.Errorf("rgb path = %s", rgb)
	}
	if intensity != filepath.FromSlash("/deploy/transformations/img_001/metrics/v3_intensity.json") {
		t.Errorf("intensity path = %s", intensity)
	}
}

func TestEnsureCollectionCreatesMetricsDir(t *testing.T) {
	l := New(t.TempDir())
	base, err := l.EnsureCollection("img_001")
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(base, "metrics"))
	if err != nil || !fi.IsDir() {
		t.Errorf("metrics dir not created: %v", err)
	}
}

func TestMatrixFilename(t *testing.T) {
	if got := MatrixFilename(3, 4); got != "v3_to_v4_matrix.iva" {
		t.Errorf("MatrixFilename = %q", got)
	}
}
