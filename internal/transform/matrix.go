// Package transform computes, composes, and applies 2-D affine transforms
// between versions of a raster.
package transform

// Matrix is a 3x3 homogeneous affine transform over float32. The bottom row
// is always [0, 0, 1]: rotation, scale, and translation, no projective
// component.
type Matrix [3][3]float32

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Mul returns m · n.
func (m Matrix) Mul(n Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += float64(m[i][k]) * float64(n[k][j])
			}
			out[i][j] = float32(sum)
		}
	}
	return out
}

// Compose folds an ordered sequence of transforms into one. An empty
// sequence yields the identity; callers reconstructing a chain short-circuit
// that case and return the original raster untouched. Each subsequent
// transform is left-multiplied onto the accumulator, so the last element of
// the sequence is the outermost transform.
func Compose(ms []Matrix) Matrix {
	if len(ms) == 0 {
		return Identity()
	}
	acc := ms[0]
	for _, m := range ms[1:] {
		acc = m.Mul(acc)
	}
	return acc
}

// invert returns the inverse of the affine transform. ok is false when the
// linear part is singular.
func (m Matrix) invert() (inv Matrix, ok bool) {
	a := float64(m[0][0])
	b := float64(m[0][1])
	c := float64(m[1][0])
	d := float64(m[1][1])
	tx := float64(m[0][2])
	ty := float64(m[1][2])

	det := a*d - b*c
	if det == 0 {
		return Matrix{}, false
	}
	ia := d / det
	ib := -b / det
	ic := -c / det
	id := a / det

	inv = Matrix{
		{float32(ia), float32(ib), float32(-(ia*tx + ib*ty))},
		{float32(ic), float32(id), float32(-(ic*tx + id*ty))},
		{0, 0, 1},
	}
	return inv, true
}
