package transform

import (
	"image"
	"math"
	"sort"

	"github.com/franz/imagevault/internal/raster"
)

// Point is a 2-D position in raster coordinates.
type Point struct {
	X, Y float64
}

// Correspondence pairs a feature location in the original raster with its
// match in the edited raster. Distance is the descriptor distance; lower
// means a more confident match.
type Correspondence struct {
	From, To Point
	Distance float64
}

// Matcher finds feature correspondences between two grayscale rasters. It is
// a black-box collaborator: a nil or short result means "insufficient
// evidence", never an error.
type Matcher interface {
	Match(a, b *image.Gray) []Correspondence
}

const (
	// minMatches is the minimum number of correspondences needed to
	// attempt a fit; fewer falls back to the identity transform.
	minMatches = 4

	// maxMatches caps how many of the best-ranked correspondences feed
	// the fit.
	maxMatches = 10

	// inlierRadius is the residual (in pixels) below which a
	// correspondence counts as an inlier of a candidate fit.
	inlierRadius = 3.0
)

// Estimate computes the transform mapping original onto edited. Both rasters
// are converted to grayscale and handed to the matcher; if it produces fewer
// than four correspondences the result is the identity transform. That is a
// defined fallback meaning "no reliable global transform found", not an
// error. Otherwise the correspondences are ranked by ascending distance and
// the best ten fit a similarity transform (rotation, uniform scale,
// translation; no shear) robust to outliers.
func Estimate(original, edited image.Image, m Matcher) Matrix {
	matches := m.Match(raster.ToGray(original), raster.ToGray(edited))
	if len(matches) < minMatches {
		return Identity()
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	fit, ok := fitSimilarityRobust(matches)
	if !ok {
		return Identity()
	}
	return fit
}

// fitSimilarityRobust runs a deterministic RANSAC: every pair of
// correspondences proposes an exact two-point similarity, the proposal with
// the most inliers wins, and the winner is refit by least squares over its
// inlier set. Iterating all pairs instead of random sampling keeps repeated
// runs in agreement.
func fitSimilarityRobust(matches []Correspondence) (Matrix, bool) {
	bestInliers := []Correspondence(nil)
	bestResidual := math.Inf(1)

	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			cand, ok := similarityFromPair(matches[i], matches[j])
			if !ok {
				continue
			}
			inliers, residual := evaluate(cand, matches)
			if len(inliers) > len(bestInliers) ||
				(len(inliers) == len(bestInliers) && residual < bestResidual) {
				bestInliers = inliers
				bestResidual = residual
			}
		}
	}

	if len(bestInliers) < minMatches {
		return Matrix{}, false
	}
	return fitSimilarity(bestInliers)
}

// similarityFromPair solves the similarity exactly from two point pairs.
func similarityFromPair(m1, m2 Correspondence) (sim similarity, ok bool) {
	dpx := m2.From.X - m1.From.X
	dpy := m2.From.Y - m1.From.Y
	dqx := m2.To.X - m1.To.X
	dqy := m2.To.Y - m1.To.Y

	n := dpx*dpx + dpy*dpy
	if n < 1e-9 {
		return similarity{}, false
	}
	sim.a = (dpx*dqx + dpy*dqy) / n
	sim.b = (dpx*dqy - dpy*dqx) / n
	sim.tx = m1.To.X - (sim.a*m1.From.X - sim.b*m1.From.Y)
	sim.ty = m1.To.Y - (sim.b*m1.From.X + sim.a*m1.From.Y)
	return sim, true
}

// similarity holds the 4-DOF parameters: x' = a·x − b·y + tx,
// y' = b·x + a·y + ty.
type similarity struct {
	a, b, tx, ty float64
}

func (s similarity) residual(c Correspondence) float64 {
	px := s.a*c.From.X - s.b*c.From.Y + s.tx
	py := s.b*c.From.X + s.a*c.From.Y + s.ty
	dx := px - c.To.X
	dy := py - c.To.Y
	return math.Hypot(dx, dy)
}

func evaluate(s similarity, matches []Correspondence) ([]Correspondence, float64) {
	var inliers []Correspondence
	var total float64
	for _, c := range matches {
		r := s.residual(c)
		if r <= inlierRadius {
			inliers = append(inliers, c)
			total += r
		}
	}
	return inliers, total
}

// fitSimilarity is the closed-form least-squares similarity fit over all
// given correspondences.
func fitSimilarity(matches []Correspondence) (Matrix, bool) {
	n := float64(len(matches))
	var pcx, pcy, qcx, qcy float64
	for _, c := range matches {
		pcx += c.From.X
		pcy += c.From.Y
		qcx += c.To.X
		qcy += c.To.Y
	}
	pcx /= n
	pcy /= n
	qcx /= n
	qcy /= n

	var num1, num2, den float64
	for _, c := range matches {
		px := c.From.X - pcx
		py := c.From.Y - pcy
		qx := c.To.X - qcx
		qy := c.To.Y - qcy
		num1 += px*qx + py*qy
		num2 += px*qy - py*qx
		den += px*px + py*py
	}
	if den < 1e-9 {
		return Matrix{}, false
	}
	a := num1 / den
	b := num2 / den
	tx := qcx - (a*pcx - b*pcy)
	ty := qcy - (b*pcx + a*pcy)

	return Matrix{
		{float32(a), float32(-b), float32(tx)},
		{float32(b), float32(a), float32(ty)},
		{0, 0, 1},
	}, true
}
