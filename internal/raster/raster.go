// Package raster adapts on-disk image files to in-memory 8-bit RGB rasters.
//
// Decoding and encoding are delegated to the standard image codecs (PNG and
// JPEG are registered). All coordinates are 0-based with (0,0) at the
// top-left corner.
package raster

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/franz/imagevault/internal/util"
)

// Filter selects the resampling kernel used by Resize.
type Filter int

const (
	// FilterCatmullRom is the high-quality kernel used when an edited
	// raster must be brought to the original's dimensions.
	FilterCatmullRom Filter = iota

	// FilterNearest is used for the lossy diff shape-compatibility path,
	// where interpolation would smear signed difference values.
	FilterNearest
)

// Load decodes the raster at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("raster %s: %w", path, util.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img at path, choosing the codec from the file extension.
// PNG is the default; .jpg/.jpeg selects JPEG. The parent directory is
// created on demand.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, nil)
	default:
		return png.Encode(f, img)
	}
}

// ToRGBA normalizes img to an 8-bit RGBA raster. The alpha channel is
// carried but ignored by every consumer; pixel math runs on R, G, B.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

// ToGray converts img to 8-bit grayscale using the 299/587/114 integer
// luma weights.
func ToGray(img image.Image) *image.Gray {
	rgba := ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := rgba.PixOffset(x, y)
			r := int(rgba.Pix[i])
			g := int(rgba.Pix[i+1])
			b := int(rgba.Pix[i+2])
			out.Pix[out.PixOffset(x, y)] = uint8((r*299 + g*587 + b*114) / 1000)
		}
	}
	return out
}

// Resize scales img to w x h with the given filter.
func Resize(img image.Image, w, h int, filter Filter) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	var scaler xdraw.Scaler
	switch filter {
	case FilterNearest:
		scaler = xdraw.NearestNeighbor
	default:
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}
