package artifact

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/franz/imagevault/internal/diff"
	"github.com/franz/imagevault/internal/transform"
	"github.com/franz/imagevault/internal/util"
)

// Legacy text artifacts are uncompressed nested JSON arrays: a 2-D 3x3
// float array for transforms, a 3-D (h, w, 3) integer array for diffs. The
// encoding carries no kind tag, so loading infers the kind from array
// shape. A genuine 3x3 single-channel diff is therefore misread as a
// transform — a known ambiguity of the legacy format, kept for
// compatibility; binary containers are never ambiguous.

func encodeText(a Artifact) ([]byte, error) {
	switch a.Kind {
	case KindTransform:
		rows := make([][]float32, 3)
		for i := 0; i < 3; i++ {
			rows[i] = a.Transform[i][:]
		}
		return json.Marshal(rows)

	case KindPixelDiff:
		d := a.Diff
		rows := make([][][3]int16, d.Height)
		for y := 0; y < d.Height; y++ {
			row := make([][3]int16, d.Width)
			for x := 0; x < d.Width; x++ {
				for c := 0; c < 3; c++ {
					row[x][c] = d.At(x, y, c)
				}
			}
			rows[y] = row
		}
		return json.Marshal(rows)

	default:
		return nil, fmt.Errorf("artifact kind %v: %w", a.Kind, util.ErrUnsupported)
	}
}

func decodeText(data []byte, path string) (Artifact, error) {
	// Probe the deeper nesting first: a diff is a 3-D array.
	var cube [][][]float64
	if err := json.Unmarshal(data, &cube); err == nil {
		return textDiff(cube, path)
	}

	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err == nil {
		return textTransform(rows, path)
	}

	return Artifact{}, fmt.Errorf("%s: not a nested numeric array: %w", path, util.ErrFormat)
}

func textTransform(rows [][]float64, path string) (Artifact, error) {
	if len(rows) != 3 || len(rows[0]) != 3 || len(rows[1]) != 3 || len(rows[2]) != 3 {
		return Artifact{}, fmt.Errorf("%s: matrix is not 3x3: %w", path, util.ErrFormat)
	}
	var m transform.Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = float32(rows[i][j])
		}
	}
	return Transform(m), nil
}

func textDiff(cube [][][]float64, path string) (Artifact, error) {
	h := len(cube)
	if h == 0 || len(cube[0]) == 0 {
		return Artifact{}, fmt.Errorf("%s: empty diff array: %w", path, util.ErrFormat)
	}
	w := len(cube[0])

	d := diff.New(h, w)
	for y, row := range cube {
		if len(row) != w {
			return Artifact{}, fmt.Errorf("%s: ragged diff array at row %d: %w", path, y, util.ErrFormat)
		}
		for x, px := range row {
			if len(px) != 3 {
				return Artifact{}, fmt.Errorf("%s: diff pixel at (%d,%d) has %d channels: %w", path, x, y, len(px), util.ErrFormat)
			}
			for c := 0; c < 3; c++ {
				v := px[c]
				if v < math.MinInt16 || v > math.MaxInt16 {
					return Artifact{}, fmt.Errorf("%s: diff value %g at (%d,%d) out of range: %w", path, v, x, y, util.ErrFormat)
				}
				d.I16[(y*w+x)*3+c] = int16(v)
			}
		}
	}
	return PixelDiff(d.Narrow()), nil
}
