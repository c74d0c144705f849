package mpm

import "math"

// polarDecomp factors m into a rotation r and a symmetric stretch s with
// m = r * s. The rotation isolates the corotated part of the deformation
// gradient for the fixed corotated stress model. A near-zero rotation
// numerator falls back to the identity rotation.
func polarDecomp(m Mat2) (r, s Mat2) {
	x := m.A + m.D
	y := m.C - m.B
	d := float32(math.Hypot(float64(x), float64(y)))
	if d < 1e-12 {
		r = Identity()
	} else {
		r = Mat2{x / d, -y / d, y / d, x / d}
	}
	s = r.Transpose().Mul(m)
	return r, s
}

// svd factors m into u * Diag(sig) * v^T with u and v rotations. It goes
// through the polar decomposition and a Jacobi rotation of the symmetric
// factor, which is exact for 2x2. Singular values are not sorted; the snow
// plasticity clamp treats them symmetrically so order does not matter.
func svd(m Mat2) (u Mat2, sig Vec2, v Mat2) {
	r, s := polarDecomp(m)
	if float32(math.Abs(float64(s.B))) < 1e-7 {
		// Stretch already diagonal.
		return r, Vec2{s.A, s.D}, Identity()
	}
	theta := 0.5 * math.Atan2(float64(2*s.B), float64(s.A-s.D))
	c := float32(math.Cos(theta))
	sn := float32(math.Sin(theta))
	v = Mat2{c, -sn, sn, c}
	sig = Vec2{
		X: c*c*s.A + 2*c*sn*s.B + sn*sn*s.D,
		Y: sn*sn*s.A - 2*c*sn*s.B + c*c*s.D,
	}
	u = r.Mul(v)
	return u, sig, v
}
