// Package diff computes and applies dense per-pixel difference matrices
// between an original raster and an edited raster.
package diff

import (
	"image"

	"github.com/franz/imagevault/internal/raster"
)

// Depth is the storage width of a difference matrix.
type Depth int

const (
	// Int8 storage is used when every element fits in [-128, 127].
	Int8 Depth = iota
	// Int16 storage preserves the full difference range.
	Int16
)

// Matrix is a dense (Height, Width, 3) array of signed per-channel
// differences, edited minus original. Exactly one of I8/I16 is populated,
// matching Depth; the invariant is that Depth is always the narrowest width
// that loses no information versus the true int16 difference.
type Matrix struct {
	Height, Width int
	Depth         Depth
	I8            []int8
	I16           []int16
}

// New returns an all-zero int16 matrix. Narrowing it yields int8 storage.
func New(height, width int) *Matrix {
	return &Matrix{
		Height: height,
		Width:  width,
		Depth:  Int16,
		I16:    make([]int16, height*width*3),
	}
}

// At returns the difference for channel c (0=R, 1=G, 2=B) at (x, y).
func (m *Matrix) At(x, y, c int) int16 {
	i := (y*m.Width+x)*3 + c
	if m.Depth == Int8 {
		return int16(m.I8[i])
	}
	return m.I16[i]
}

// Len returns the element count, height x width x 3.
func (m *Matrix) Len() int {
	return m.Height * m.Width * 3
}

// Narrow converts storage to int8 iff every element fits in [-128, 127].
// A no-op otherwise; the logical values never change.
func (m *Matrix) Narrow() *Matrix {
	if m.Depth == Int8 {
		return m
	}
	for _, v := range m.I16 {
		if v < -128 || v > 127 {
			return m
		}
	}
	i8 := make([]int8, len(m.I16))
	for i, v := range m.I16 {
		i8[i] = int8(v)
	}
	m.Depth = Int8
	m.I8 = i8
	m.I16 = nil
	return m
}

// Widen converts storage to int16. A no-op when already wide.
func (m *Matrix) Widen() *Matrix {
	if m.Depth == Int16 {
		return m
	}
	i16 := make([]int16, len(m.I8))
	for i, v := range m.I8 {
		i16[i] = int16(v)
	}
	m.Depth = Int16
	m.I16 = i16
	m.I8 = nil
	return m
}

// Compute builds the difference matrix between original and edited. Both
// rasters are normalized to RGB; when dimensions differ the edited raster is
// resampled (Catmull-Rom) to the original's dimensions first. The
// subtraction runs in int16, then the result is narrowed to int8 storage
// when it fits.
func Compute(original, edited image.Image) *Matrix {
	orig := raster.ToRGBA(original)
	edit := raster.ToRGBA(edited)

	w, h := orig.Rect.Dx(), orig.Rect.Dy()
	if edit.Rect.Dx() != w || edit.Rect.Dy() != h {
		edit = raster.Resize(edit, w, h, raster.FilterCatmullRom)
	}

	m := New(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := orig.PixOffset(x, y)
			dst := edit.PixOffset(x, y)
			out := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				m.I16[out+c] = int16(edit.Pix[dst+c]) - int16(orig.Pix[src+c])
			}
		}
	}
	return m.Narrow()
}

// Apply reconstructs the edited raster: widen the diff, add it to the
// original in int16, clip to [0, 255], and emit an 8-bit RGB raster.
//
// If the diff's shape does not match the original's, the diff is quantized
// into a displayable raster (+128, clamped), resized with nearest-neighbor
// sampling to the original's dimensions, and mapped back (-128). That path
// loses precision; it exists for compatibility with artifacts recorded
// against a different base resolution, not as the primary path.
func Apply(original image.Image, d *Matrix) *image.RGBA {
	orig := raster.ToRGBA(original)
	w, h := orig.Rect.Dx(), orig.Rect.Dy()

	if d.Width != w || d.Height != h {
		d = resizeLossy(d, w, h)
	}
	d = d.Widen()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := orig.PixOffset(x, y)
			dst := out.PixOffset(x, y)
			di := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				v := int16(orig.Pix[src+c]) + d.I16[di+c]
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				out.Pix[dst+c] = uint8(v)
			}
			out.Pix[dst+3] = 0xff
		}
	}
	return out
}

// resizeLossy maps the diff through displayable 8-bit space and back so it
// can be resampled by the raster layer.
func resizeLossy(d *Matrix, w, h int) *Matrix {
	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := int(d.At(x, y, c)) + 128
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				img.Pix[i+c] = uint8(v)
			}
			img.Pix[i+3] = 0xff
		}
	}

	scaled := raster.Resize(img, w, h, raster.FilterNearest)
	out := New(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := scaled.PixOffset(x, y)
			di := (y*w + x) * 3
			for c := 0; c < 3; c++ {
				out.I16[di+c] = int16(scaled.Pix[i+c]) - 128
			}
		}
	}
	return out
}
