// Package metrics derives per-version summary metrics from a raster:
// average channel intensity and a 256-bin grayscale intensity histogram.
package metrics

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/imagevault/internal/raster"
)

// HistogramBins is the fixed grayscale histogram resolution.
const HistogramBins = 256

// AverageRGB returns the per-channel means of the RGB raster.
func AverageRGB(img image.Image) (r, g, b float64) {
	rgba := raster.ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0
	}
	var sr, sg, sb uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := rgba.PixOffset(x, y)
			sr += uint64(rgba.Pix[i])
			sg += uint64(rgba.Pix[i+1])
			sb += uint64(rgba.Pix[i+2])
		}
	}
	n := float64(w * h)
	return float64(sr) / n, float64(sg) / n, float64(sb) / n
}

// IntensityHistogram bins the luma-weighted grayscale raster into 256
// intensity counts.
func IntensityHistogram(img image.Image) [HistogramBins]int {
	gray := raster.ToGray(img)
	var hist [HistogramBins]int
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[gray.Pix[gray.PixOffset(x, y)]]++
		}
	}
	return hist
}

// WriteRGB persists the average-RGB metric in its fixed text shape.
func WriteRGB(path string, r, g, b float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	body := fmt.Sprintf("{\n  \"r\": %.6f,\n  \"g\": %.6f,\n  \"b\": %.6f\n}", r, g, b)
	return os.WriteFile(path, []byte(body), 0o644)
}

// WriteHistogram persists the histogram as a bracketed integer list.
func WriteHistogram(path string, hist [HistogramBins]int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	parts := make([]string, len(hist))
	for i, v := range hist {
		parts[i] = fmt.Sprintf("%d", v)
	}
	body := "[" + strings.Join(parts, ", ") + "]"
	return os.WriteFile(path, []byte(body), 0o644)
}
