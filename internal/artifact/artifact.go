// Package artifact persists version artifacts — transform matrices and
// pixel-diff matrices — in two interchangeable formats: a compressed tagged
// binary container (canonical) and a legacy nested-array text encoding.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/imagevault/internal/diff"
	"github.com/franz/imagevault/internal/transform"
	"github.com/franz/imagevault/internal/util"
)

// Kind tags what an artifact's payload is. Binary containers carry the kind
// explicitly; legacy text artifacts are untagged and their kind is inferred
// from array shape on load.
type Kind int

const (
	// KindTransform is a 3x3 homogeneous affine matrix.
	KindTransform Kind = iota
	// KindPixelDiff is a dense (h, w, 3) signed difference matrix.
	KindPixelDiff
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindPixelDiff:
		return "pixeldiff"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Format selects the serialization codec. The choice is explicit rather
// than inferred from the target path's suffix.
type Format int

const (
	// FormatBinary is the canonical compressed container.
	FormatBinary Format = iota
	// FormatText is the legacy nested-array JSON encoding.
	FormatText
)

const (
	// BinaryExt is the file suffix of canonical binary artifacts.
	BinaryExt = ".iva"
	// TextExt is the file suffix of legacy text artifacts.
	TextExt = ".json"
)

// Artifact is a tagged transform or pixel-diff payload.
type Artifact struct {
	Kind      Kind
	Transform transform.Matrix // valid when Kind == KindTransform
	Diff      *diff.Matrix     // valid when Kind == KindPixelDiff
}

// Transform wraps a transform matrix as an artifact.
func Transform(m transform.Matrix) Artifact {
	return Artifact{Kind: KindTransform, Transform: m}
}

// PixelDiff wraps a pixel-diff matrix as an artifact.
func PixelDiff(d *diff.Matrix) Artifact {
	return Artifact{Kind: KindPixelDiff, Diff: d}
}

// siblings maps any requested artifact path to its binary and text sibling
// paths: same stem, codec-specific suffix replacing whatever suffix the
// caller used.
func siblings(path string) (bin, text string) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + BinaryExt, stem + TextExt
}

// Save writes a to the sibling of path selected by format, creating the
// parent directory on demand, and returns the path actually written.
func Save(a Artifact, path string, format Format) (string, error) {
	bin, text := siblings(path)
	target := bin
	if format == FormatText {
		target = text
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}

	var data []byte
	var err error
	if format == FormatText {
		data, err = encodeText(a)
	} else {
		data, err = encodeBinary(a)
	}
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

// Load reads the artifact stored at path or at one of its format siblings.
// The binary sibling wins when both exist; int16 diff payloads are
// re-narrowed to int8 when they fit. When neither sibling exists the error
// wraps ErrNotFound and names both attempted paths.
func Load(path string) (Artifact, error) {
	bin, text := siblings(path)

	if data, err := os.ReadFile(bin); err == nil {
		return decodeBinary(data, bin)
	} else if !os.IsNotExist(err) {
		return Artifact{}, err
	}

	if data, err := os.ReadFile(text); err == nil {
		return decodeText(data, text)
	} else if !os.IsNotExist(err) {
		return Artifact{}, err
	}

	return Artifact{}, fmt.Errorf("artifact missing (tried %s and %s): %w", bin, text, util.ErrNotFound)
}
