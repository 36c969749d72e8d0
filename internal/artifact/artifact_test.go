package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/imagevault/internal/diff"
	"github.com/franz/imagevault/internal/transform"
	"github.com/franz/imagevault/internal/util"
)

func sampleTransform() transform.Matrix {
	return transform.Matrix{
		{0.9961947, -0.08715574, 12.5},
		{0.08715574, 0.9961947, -3.25},
		{0, 0, 1},
	}
}

func sampleDiff(t *testing.T, wide bool) *diff.Matrix {
	t.Helper()
	d := diff.New(4, 6)
	for i := range d.I16 {
		d.I16[i] = int16(i%61 - 30)
	}
	if wide {
		d.I16[7] = 300
		d.I16[8] = -300
	}
	return d.Narrow()
}

func diffsEqual(a, b *diff.Matrix) bool {
	if a.Height != b.Height || a.Width != b.Width || a.Depth != b.Depth {
		return false
	}
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			for c := 0; c < 3; c++ {
				if a.At(x, y, c) != b.At(x, y, c) {
					return false
				}
			}
		}
	}
	return true
}

func TestRoundTripTransform(t *testing.T) {
	for _, format := range []Format{FormatBinary, FormatText} {
		name := "binary"
		if format == FormatText {
			name = "text"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "edge.iva")
			written, err := Save(Transform(sampleTransform()), path, format)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := Load(written)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Kind != KindTransform {
				t.Fatalf("kind = %v, want transform", got.Kind)
			}
			if got.Transform != sampleTransform() {
				t.Errorf("matrix = %v, want %v", got.Transform, sampleTransform())
			}
		})
	}
}

func TestRoundTripDiff(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		wide   bool
		depth  diff.Depth
	}{
		{"binary int8", FormatBinary, false, diff.Int8},
		{"binary int16", FormatBinary, true, diff.Int16},
		{"text int8", FormatText, false, diff.Int8},
		{"text int16", FormatText, true, diff.Int16},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := sampleDiff(t, tc.wide)
			if d.Depth != tc.depth {
				t.Fatalf("fixture depth = %v, want %v", d.Depth, tc.depth)
			}

			path := filepath.Join(t.TempDir(), "edge.iva")
			written, err := Save(PixelDiff(d), path, tc.format)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := Load(written)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Kind != KindPixelDiff {
				t.Fatalf("kind = %v, want pixeldiff", got.Kind)
			}
			if !diffsEqual(got.Diff, d) {
				t.Errorf("loaded diff differs from saved diff")
			}
		})
	}
}

func TestLoadPrefersBinarySibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.iva")

	// Text sibling holds a diff, binary sibling a transform.
	if _, err := Save(PixelDiff(sampleDiff(t, false)), path, FormatText); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(Transform(sampleTransform()), path, FormatBinary); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindTransform {
		t.Errorf("kind = %v, want transform (binary sibling wins)", got.Kind)
	}
}

func TestLoadFallsBackToTextSibling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.iva")
	if _, err := Save(PixelDiff(sampleDiff(t, true)), path, FormatText); err != nil {
		t.Fatal(err)
	}

	// Requested with the binary suffix; only the text sibling exists.
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindPixelDiff {
		t.Errorf("kind = %v, want pixeldiff", got.Kind)
	}
	if got.Diff.Depth != diff.Int16 {
		t.Errorf("depth = %v, want Int16 preserved through text", got.Diff.Depth)
	}
}

func TestLoadTextRenarrows(t *testing.T) {
	// An int16-valued text artifact whose values all fit int8 loads narrow.
	path := filepath.Join(t.TempDir(), "edge.json")
	if err := os.WriteFile(path, []byte(`[[[1,2,3],[4,5,6]],[[-7,-8,-9],[0,0,0]]]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindPixelDiff || got.Diff.Depth != diff.Int8 {
		t.Errorf("got kind %v depth %v, want pixeldiff Int8", got.Kind, got.Diff.Depth)
	}
	if got.Diff.Height != 2 || got.Diff.Width != 2 {
		t.Errorf("shape = (%d,%d), want (2,2)", got.Diff.Height, got.Diff.Width)
	}
}

func TestLoadLegacyTextShapeSniff(t *testing.T) {
	// An untagged 3x3 text array reads as a transform.
	path := filepath.Join(t.TempDir(), "edge.json")
	if err := os.WriteFile(path, []byte(`[[1,0,4],[0,1,-2],[0,0,1]]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindTransform {
		t.Fatalf("kind = %v, want transform via shape sniff", got.Kind)
	}
	want := transform.Matrix{{1, 0, 4}, {0, 1, -2}, {0, 0, 1}}
	if got.Transform != want {
		t.Errorf("matrix = %v, want %v", got.Transform, want)
	}
}

func TestLoadMissingNamesBothSiblings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.iva")
	_, err := Load(path)
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, ".iva") || !strings.Contains(msg, ".json") {
		t.Errorf("error %q does not name both attempted paths", msg)
	}
}

func TestLoadCorruptBinaryIsFormatError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.iva")
	if err := os.WriteFile(path, []byte("IVA1 not a zstd frame"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, util.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

// writeContainer assembles a binary container around an arbitrary envelope,
// bypassing Save's well-formed encoding.
func writeContainer(t *testing.T, path string, env envelope) {
	t.Helper()
	raw, err := encMode.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	out := append([]byte(nil), binaryMagic...)
	if err := os.WriteFile(path, zstdEncoder.EncodeAll(raw, out), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRejectsCorruptDiffEnvelope(t *testing.T) {
	testCases := []struct {
		name string
		env  envelope
	}{
		{"negative height", envelope{Kind: "pixeldiff", Dtype: "int8", Shape: []int{-1, 2, 3}, Data: make([]byte, 6)}},
		{"zero width", envelope{Kind: "pixeldiff", Dtype: "int8", Shape: []int{2, 0, 3}, Data: make([]byte, 6)}},
		{"huge dimensions", envelope{Kind: "pixeldiff", Dtype: "int16", Shape: []int{1 << 40, 1 << 40, 3}, Data: make([]byte, 12)}},
		{"payload too short", envelope{Kind: "pixeldiff", Dtype: "int8", Shape: []int{2, 2, 3}, Data: make([]byte, 5)}},
		{"payload odd for int16", envelope{Kind: "pixeldiff", Dtype: "int16", Shape: []int{1, 1, 3}, Data: make([]byte, 7)}},
		{"bad channel count", envelope{Kind: "pixeldiff", Dtype: "int8", Shape: []int{2, 2, 4}, Data: make([]byte, 16)}},
		{"unknown dtype", envelope{Kind: "pixeldiff", Dtype: "float64", Shape: []int{1, 1, 3}, Data: make([]byte, 24)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "edge.iva")
			writeContainer(t, path, tc.env)
			_, err := Load(path)
			if !errors.Is(err, util.ErrFormat) {
				t.Fatalf("err = %v, want ErrFormat", err)
			}
		})
	}
}

func TestLoadTextRejectsOutOfRangeDiffValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.json")
	if err := os.WriteFile(path, []byte(`[[[1000000000,0,0],[0,0,0]]]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, util.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestSiblings(t *testing.T) {
	testCases := []struct {
		path     string
		bin, txt string
	}{
		{"/x/v1_to_v2_matrix.iva", "/x/v1_to_v2_matrix.iva", "/x/v1_to_v2_matrix.json"},
		{"/x/v1_to_v2_matrix.json", "/x/v1_to_v2_matrix.iva", "/x/v1_to_v2_matrix.json"},
		{"/x/v1_to_v2_matrix.dat", "/x/v1_to_v2_matrix.iva", "/x/v1_to_v2_matrix.json"},
		{"/x/v1_to_v2_matrix", "/x/v1_to_v2_matrix.iva", "/x/v1_to_v2_matrix.json"},
	}
	for _, tc := range testCases {
		bin, txt := siblings(tc.path)
		if bin != tc.bin || txt != tc.txt {
			t.Errorf("siblings(%s) = (%s, %s), want (%s, %s)", tc.path, bin, txt, tc.bin, tc.txt)
		}
	}
}
