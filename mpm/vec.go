// Package mpm implements a 2-D moving-least-squares material point method
// (MLS-MPM) with APIC velocity transfer. Particles carry mass, velocity and
// a deformation state; each step scatters their momentum onto a transient
// background grid, resolves grid dynamics (gravity, wall collision) and
// gathers the result back, updating the deformation state with a
// material-specific constitutive rule.
package mpm

// Vec2 is a 2-D float32 vector.
type Vec2 struct {
	X, Y float32
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns a * s.
func (a Vec2) Scale(s float32) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Dot returns the dot product of a and b.
func (a Vec2) Dot(b Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

// Mat2 is a 2x2 float32 matrix in row-major order:
//
//	| A  B |
//	| C  D |
type Mat2 struct {
	A, B, C, D float32
}

// Identity returns the 2x2 identity matrix.
func Identity() Mat2 {
	return Mat2{A: 1, D: 1}
}

// Diag returns the diagonal matrix with entries d.
func Diag(d Vec2) Mat2 {
	return Mat2{A: d.X, D: d.Y}
}

// Add returns m + n.
func (m Mat2) Add(n Mat2) Mat2 {
	return Mat2{m.A + n.A, m.B + n.B, m.C + n.C, m.D + n.D}
}

// Sub returns m - n.
func (m Mat2) Sub(n Mat2) Mat2 {
	return Mat2{m.A - n.A, m.B - n.B, m.C - n.C, m.D - n.D}
}

// Scale returns m * s.
func (m Mat2) Scale(s float32) Mat2 {
	return Mat2{m.A * s, m.B * s, m.C * s, m.D * s}
}

// Mul returns the matrix product m * n.
func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
	}
}

// MulVec returns the matrix-vector product m * v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{m.A*v.X + m.B*v.Y, m.C*v.X + m.D*v.Y}
}

// Transpose returns the transpose of m.
func (m Mat2) Transpose() Mat2 {
	return Mat2{m.A, m.C, m.B, m.D}
}

// Det returns the determinant of m.
func (m Mat2) Det() float32 {
	return m.A*m.D - m.B*m.C
}

// Outer returns the outer product a * b^T.
func Outer(a, b Vec2) Mat2 {
	return Mat2{a.X * b.X, a.X * b.Y, a.Y * b.X, a.Y * b.Y}
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
