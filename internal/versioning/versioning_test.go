package versioning

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/franz/imagevault/internal/artifact"
	"github.com/franz/imagevault/internal/diff"
	"github.com/franz/imagevault/internal/index"
	"github.com/franz/imagevault/internal/layout"
	"github.com/franz/imagevault/internal/raster"
	"github.com/franz/imagevault/internal/transform"
	"github.com/franz/imagevault/internal/util"
)

// noMatches drives every estimate to the identity fallback.
type noMatches struct{}

func (noMatches) Match(a, b *image.Gray) []transform.Correspondence { return nil }

func solid(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = 0xff
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := raster.Save(img, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	l := layout.New(root)
	return New(l, index.Open(l.IndexPath()), noMatches{}), root
}

func TestRecordDiffVersion(t *testing.T) {
	engine, root := newTestEngine(t)

	original := solid(50, 30, 100, 150, 200)
	edited := solid(50, 30, 100, 150, 200)
	for y := 10; y < 15; y++ {
		for x := 10; x < 15; x++ {
			i := edited.PixOffset(x, y)
			edited.Pix[i] = 255
			edited.Pix[i+1] = 0
			edited.Pix[i+2] = 0
		}
	}
	origPath := writePNG(t, root, "img_001.png", original)
	editPath := writePNG(t, root, "edited.png", edited)

	arts, err := engine.RecordDiffVersion("img_001", 1, 2, origPath, editPath)
	if err != nil {
		t.Fatal(err)
	}

	a, err := artifact.Load(arts.MatrixPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != artifact.KindPixelDiff {
		t.Fatalf("artifact kind = %v, want pixeldiff", a.Kind)
	}
	if a.Diff.Height != 30 || a.Diff.Width != 50 {
		t.Errorf("diff shape = (%d, %d), want (30, 50)", a.Diff.Height, a.Diff.Width)
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 50; x++ {
			inBlock := x >= 10 && x < 15 && y >= 10 && y < 15
			nonZero := a.Diff.At(x, y, 0) != 0 || a.Diff.At(x, y, 1) != 0 || a.Diff.At(x, y, 2) != 0
			if nonZero != inBlock {
				t.Fatalf("pixel (%d,%d): nonZero=%v inBlock=%v", x, y, nonZero, inBlock)
			}
		}
	}

	doc, err := engine.Index().Load(false)
	if err != nil {
		t.Fatal(err)
	}
	entry := doc.Images["img_001"]
	if entry == nil {
		t.Fatal("index entry missing")
	}
	if !reflect.DeepEqual(entry.Versions, []int{2}) {
		t.Errorf("versions = %v, want [2]", entry.Versions)
	}
	if entry.Matrices["1->2"] != arts.MatrixPath {
		t.Errorf("edge path = %q, want %q", entry.Matrices["1->2"], arts.MatrixPath)
	}

	// Reconstruction replays the edit exactly.
	got, err := Reconstruct(origPath, arts.MatrixPath)
	if err != nil {
		t.Fatal(err)
	}
	rgba := raster.ToRGBA(got)
	for i := 0; i < len(edited.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			if rgba.Pix[i+c] != edited.Pix[i+c] {
				t.Fatalf("reconstructed byte %d = %d, want %d", i+c, rgba.Pix[i+c], edited.Pix[i+c])
			}
		}
	}
}

func TestRecordTransformVersionIdentityFallback(t *testing.T) {
	engine, root := newTestEngine(t)

	original := solid(16, 16, 30, 60, 90)
	origPath := writePNG(t, root, "img_001.png", original)
	editPath := writePNG(t, root, "edited.png", original)

	arts, err := engine.RecordTransformVersion("img_001", 1, 2, origPath, editPath)
	if err != nil {
		t.Fatal(err)
	}

	a, err := artifact.Load(arts.MatrixPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != artifact.KindTransform {
		t.Fatalf("artifact kind = %v, want transform", a.Kind)
	}
	if a.Transform != transform.Identity() {
		t.Errorf("matrix = %v, want identity fallback", a.Transform)
	}

	for _, p := range []string{arts.RGBMetricsPath, arts.IntensityMetricsPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("metrics artifact missing: %v", err)
		}
	}
}

func TestRecordSameEdgeTwiceIsIdempotent(t *testing.T) {
	engine, root := newTestEngine(t)

	origPath := writePNG(t, root, "img_001.png", solid(8, 8, 10, 20, 30))
	editPath := writePNG(t, root, "edited.png", solid(8, 8, 12, 22, 32))

	for i := 0; i < 2; i++ {
		if _, err := engine.RecordDiffVersion("img_001", 1, 2, origPath, editPath); err != nil {
			t.Fatal(err)
		}
	}

	doc, _ := engine.Index().Load(true)
	entry := doc.Images["img_001"]
	if !reflect.DeepEqual(entry.Versions, []int{2}) {
		t.Errorf("versions = %v, want [2]", entry.Versions)
	}
	if len(entry.Matrices) != 1 {
		t.Errorf("matrices has %d entries, want 1", len(entry.Matrices))
	}
}

func TestReconstructChainEmptyReturnsOriginal(t *testing.T) {
	root := t.TempDir()
	original := solid(12, 9, 44, 55, 66)
	origPath := writePNG(t, root, "img.png", original)

	got, err := ReconstructChain(origPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgba := raster.ToRGBA(got)
	if !reflect.DeepEqual(rgba.Pix, original.Pix) {
		t.Error("empty chain altered the raster")
	}
}

func TestReconstructChainComposesTranslations(t *testing.T) {
	root := t.TempDir()
	img := solid(10, 10, 0, 0, 0)
	// Single white pixel at (2, 2).
	i := img.PixOffset(2, 2)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
	origPath := writePNG(t, root, "img.png", img)

	shift := func(dx, dy float32) transform.Matrix {
		return transform.Matrix{{1, 0, dx}, {0, 1, dy}, {0, 0, 1}}
	}
	p1, err := artifact.Save(artifact.Transform(shift(3, 0)), filepath.Join(root, "m1.iva"), artifact.FormatBinary)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := artifact.Save(artifact.Transform(shift(0, 2)), filepath.Join(root, "m2.iva"), artifact.FormatBinary)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReconstructChain(origPath, []string{p1, p2})
	if err != nil {
		t.Fatal(err)
	}
	rgba := raster.ToRGBA(got)
	j := rgba.PixOffset(5, 4)
	if rgba.Pix[j] != 255 {
		t.Errorf("white pixel not at (5,4) after composed shift")
	}
}

func TestReconstructChainRejectsDiffArtifact(t *testing.T) {
	root := t.TempDir()
	origPath := writePNG(t, root, "img.png", solid(6, 6, 1, 2, 3))

	d := diff.New(6, 6)
	p, err := artifact.Save(artifact.PixelDiff(d), filepath.Join(root, "d.iva"), artifact.FormatBinary)
	if err != nil {
		t.Fatal(err)
	}

	_, err = ReconstructChain(origPath, []string{p, p})
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestReconstructMissingArtifact(t *testing.T) {
	root := t.TempDir()
	origPath := writePNG(t, root, "img.png", solid(6, 6, 1, 2, 3))

	_, err := Reconstruct(origPath, filepath.Join(root, "absent.iva"))
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReconstructMissingOriginal(t *testing.T) {
	_, err := Reconstruct(filepath.Join(t.TempDir(), "absent.png"), "whatever.iva")
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReconstructLegacyTextTransform(t *testing.T) {
	root := t.TempDir()
	img := solid(10, 10, 0, 0, 0)
	i := img.PixOffset(2, 2)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
	origPath := writePNG(t, root, "img.png", img)

	// Legacy untagged 3x3 text artifact routes through the transform engine.
	p := filepath.Join(root, "legacy.json")
	if err := os.WriteFile(p, []byte(`[[1,0,3],[0,1,0],[0,0,1]]`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Reconstruct(origPath, p)
	if err != nil {
		t.Fatal(err)
	}
	rgba := raster.ToRGBA(got)
	j := rgba.PixOffset(5, 2)
	if rgba.Pix[j] != 255 {
		t.Error("legacy 3x3 artifact was not applied as a transform")
	}
}
