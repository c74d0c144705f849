package mpm

import "math"

// stencil holds the base grid node and quadratic B-spline weights for one
// particle position. Both transfer directions build their 3x3 node
// neighborhood from the same stencil, so the scatter and gather can never
// disagree on indexing.
type stencil struct {
	bx, by int     // base node (below-left corner of the 3x3 block)
	fx     Vec2    // fractional offset from the base node, in [0.5, 1.5)
	w      [3]Vec2 // per-axis weights for offsets 0, 1, 2
}

// makeStencil derives the base node and kernel weights for a position.
// invDx maps domain coordinates to grid coordinates.
func makeStencil(pos Vec2, invDx float32) stencil {
	gx := pos.X * invDx
	gy := pos.Y * invDx
	bx := int(math.Floor(float64(gx - 0.5)))
	by := int(math.Floor(float64(gy - 0.5)))
	fx := Vec2{gx - float32(bx), gy - float32(by)}
	return stencil{
		bx: bx,
		by: by,
		fx: fx,
		w: [3]Vec2{
			{0.5 * sqr(1.5-fx.X), 0.5 * sqr(1.5-fx.Y)},
			{0.75 - sqr(fx.X-1), 0.75 - sqr(fx.Y-1)},
			{0.5 * sqr(fx.X-0.5), 0.5 * sqr(fx.Y-0.5)},
		},
	}
}

// weight returns the 2-D kernel weight for grid offset (i, j).
func (st *stencil) weight(i, j int) float32 {
	return st.w[i].X * st.w[j].Y
}

// inBounds reports whether the full 3x3 neighborhood lies within a grid of
// nodes nodes per axis.
func (st *stencil) inBounds(nodes int) bool {
	return st.bx >= 0 && st.by >= 0 && st.bx+2 < nodes && st.by+2 < nodes
}

func sqr(x float32) float32 {
	return x * x
}
