package transform

import (
	"image"
	"math"

	"github.com/franz/imagevault/internal/raster"
)

// Apply warps src through m into an output raster with the same dimensions
// as the input. Each destination pixel is mapped back through the inverse
// transform and bilinearly sampled; destinations whose source lies outside
// the raster come out black. This is a warp, not a crop or pad.
func Apply(src image.Image, m Matrix) *image.RGBA {
	in := raster.ToRGBA(src)
	w, h := in.Rect.Dx(), in.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	inv, ok := m.invert()
	if !ok {
		// Singular transform maps everything to a line; leave black.
		for i := 3; i < len(out.Pix); i += 4 {
			out.Pix[i] = 0xff
		}
		return out
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := float64(inv[0][0])*float64(x) + float64(inv[0][1])*float64(y) + float64(inv[0][2])
			sy := float64(inv[1][0])*float64(x) + float64(inv[1][1])*float64(y) + float64(inv[1][2])
			r, g, b := sample(in, sx, sy)
			i := out.PixOffset(x, y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// sample bilinearly interpolates the RGB value at (sx, sy). Neighbors
// outside the raster contribute zero, matching constant black borders.
func sample(in *image.RGBA, sx, sy float64) (uint8, uint8, uint8) {
	w, h := in.Rect.Dx(), in.Rect.Dy()
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	var acc [3]float64
	for dy := 0; dy <= 1; dy++ {
		wy := 1 - fy
		if dy == 1 {
			wy = fy
		}
		if wy == 0 {
			continue
		}
		for dx := 0; dx <= 1; dx++ {
			wx := 1 - fx
			if dx == 1 {
				wx = fx
			}
			if wx == 0 {
				continue
			}
			px, py := x0+dx, y0+dy
			if px < 0 || px >= w || py < 0 || py >= h {
				continue
			}
			i := in.PixOffset(px, py)
			wgt := wx * wy
			acc[0] += wgt * float64(in.Pix[i])
			acc[1] += wgt * float64(in.Pix[i+1])
			acc[2] += wgt * float64(in.Pix[i+2])
		}
	}
	return clamp8(acc[0]), clamp8(acc[1]), clamp8(acc[2])
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
