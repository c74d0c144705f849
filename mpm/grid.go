package mpm

// Node is a single background grid node. During the scatter phase V
// accumulates momentum; the grid update normalizes it to a velocity in
// place. Mass is the accumulated particle mass.
type Node struct {
	V    Vec2
	Mass float32
}

// Grid is the transient background grid: (n+1) x (n+1) nodes over an n-cell
// domain. The caller owns it, sizes it once, and passes it to every Advance
// call; it is reset at the start of each step and carries no state across
// steps.
type Grid struct {
	res   int // cell resolution n; node count per axis is n+1
	nodes []Node
}

// NewGrid allocates a grid for an n-cell domain.
func NewGrid(n int) *Grid {
	return &Grid{
		res:   n,
		nodes: make([]Node, (n+1)*(n+1)),
	}
}

// Res returns the cell resolution n.
func (g *Grid) Res() int {
	return g.res
}

// NodeCount returns the node count per axis, n+1.
func (g *Grid) NodeCount() int {
	return g.res + 1
}

// At returns the node at (i, j). Indices must be in [0, n].
func (g *Grid) At(i, j int) *Node {
	return &g.nodes[i*(g.res+1)+j]
}

// Reset zeroes every node.
func (g *Grid) Reset() {
	clear(g.nodes)
}

// TotalMass returns the sum of node masses.
func (g *Grid) TotalMass() float32 {
	var total float32
	for i := range g.nodes {
		total += g.nodes[i].Mass
	}
	return total
}

// Momentum returns the sum of node momentum vectors. Only meaningful
// between the scatter phase and the grid update, while V still holds
// momentum rather than velocity.
func (g *Grid) Momentum() Vec2 {
	var total Vec2
	for i := range g.nodes {
		total = total.Add(g.nodes[i].V)
	}
	return total
}

// accumulate adds the nodes of src into g. Both grids must share the same
// resolution. Used to merge per-worker scatter grids.
func (g *Grid) accumulate(src *Grid) {
	for i := range g.nodes {
		g.nodes[i].V = g.nodes[i].V.Add(src.nodes[i].V)
		g.nodes[i].Mass += src.nodes[i].Mass
	}
}
