// Package feature provides the default feature-correspondence matcher used
// by transform estimation: Harris corner detection, raw-patch descriptors,
// and cross-checked nearest-neighbor matching. Accuracy of the matcher is an
// internal concern of this package; callers only see correspondences and
// descriptor distances.
package feature

import (
	"image"
	"sort"

	"github.com/franz/imagevault/internal/transform"
)

const (
	patchRadius  = 4 // 9x9 descriptor patch
	maxKeypoints = 200
	harrisK      = 0.04
	scoreFloor   = 1e4
	ratioMax     = 0.9 // best/second-best distance gate
	suppressDist = 3
)

// Matcher is the default transform.Matcher implementation.
type Matcher struct{}

// New returns a ready Matcher.
func New() *Matcher {
	return &Matcher{}
}

// Match finds cross-checked feature correspondences between two grayscale
// rasters. A nil or short result signals insufficient evidence.
func (m *Matcher) Match(a, b *image.Gray) []transform.Correspondence {
	ka := detect(a)
	kb := detect(b)
	if len(ka) == 0 || len(kb) == 0 {
		return nil
	}

	da := describe(a, ka)
	db := describe(b, kb)

	fwd := nearest(da, db)
	rev := nearest(db, da)

	var out []transform.Correspondence
	for i, f := range fwd {
		if f.idx < 0 || rev[f.idx].idx != i {
			continue
		}
		out = append(out, transform.Correspondence{
			From:     transform.Point{X: float64(ka[i].X), Y: float64(ka[i].Y)},
			To:       transform.Point{X: float64(kb[f.idx].X), Y: float64(kb[f.idx].Y)},
			Distance: float64(f.dist),
		})
	}
	return out
}

type keypoint struct {
	X, Y  int
	score float64
}

// detect computes a Harris corner response and keeps the strongest
// non-max-suppressed keypoints away from the patch border.
func detect(img *image.Gray) []keypoint {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	margin := patchRadius + 1
	if w <= 2*margin || h <= 2*margin {
		return nil
	}

	at := func(x, y int) float64 {
		return float64(img.Pix[img.PixOffset(x, y)])
	}

	resp := make([]float64, w*h)
	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			var sxx, syy, sxy float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ix := (at(x+dx+1, y+dy) - at(x+dx-1, y+dy)) / 2
					iy := (at(x+dx, y+dy+1) - at(x+dx, y+dy-1)) / 2
					sxx += ix * ix
					syy += iy * iy
					sxy += ix * iy
				}
			}
			tr := sxx + syy
			resp[y*w+x] = sxx*syy - sxy*sxy - harrisK*tr*tr
		}
	}

	var kps []keypoint
	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			r := resp[y*w+x]
			if r < scoreFloor {
				continue
			}
			localMax := true
			for dy := -suppressDist; dy <= suppressDist && localMax; dy++ {
				for dx := -suppressDist; dx <= suppressDist; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					if resp[ny*w+nx] > r {
						localMax = false
						break
					}
				}
			}
			if localMax {
				kps = append(kps, keypoint{X: x, Y: y, score: r})
			}
		}
	}

	sort.Slice(kps, func(i, j int) bool { return kps[i].score > kps[j].score })
	if len(kps) > maxKeypoints {
		kps = kps[:maxKeypoints]
	}
	return kps
}

// describe extracts a raw 9x9 intensity patch per keypoint.
func describe(img *image.Gray, kps []keypoint) [][]uint8 {
	side := 2*patchRadius + 1
	out := make([][]uint8, len(kps))
	for i, kp := range kps {
		d := make([]uint8, 0, side*side)
		for dy := -patchRadius; dy <= patchRadius; dy++ {
			for dx := -patchRadius; dx <= patchRadius; dx++ {
				d = append(d, img.Pix[img.PixOffset(kp.X+dx, kp.Y+dy)])
			}
		}
		out[i] = d
	}
	return out
}

type match struct {
	idx  int
	dist int
}

// nearest finds, for each descriptor in from, its closest descriptor in to
// by sum of absolute differences, gated by the best/second-best ratio.
func nearest(from, to [][]uint8) []match {
	out := make([]match, len(from))
	for i, d := range from {
		best, second := 1<<62, 1<<62
		bestIdx := -1
		for j, e := range to {
			s := sad(d, e)
			if s < best {
				second = best
				best = s
				bestIdx = j
			} else if s < second {
				second = s
			}
		}
		if bestIdx >= 0 && float64(best) > ratioMax*float64(second) && second < 1<<62 {
			bestIdx = -1
		}
		out[i] = match{idx: bestIdx, dist: best}
	}
	return out
}

func sad(a, b []uint8) int {
	var s int
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		s += d
	}
	return s
}
