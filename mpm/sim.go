package mpm

import (
	"fmt"
	"math"
)

// Params holds the read-only physical configuration of a simulation. The
// zero value is not usable; fill the exported fields and pass to
// NewSimulation, which derives the internal quantities.
type Params struct {
	Res            int     // grid cell resolution n; domain is [0,1]^2
	ParticleMass   float32
	ParticleVolume float32
	YoungsModulus  float32
	PoissonRatio   float32
	Hardening      float32 // plastic hardening exponent
	Gravity        float32 // vertical acceleration; negative is down
	Boundary       float32 // wall thickness as a fraction of the domain

	StretchMin, StretchMax float32 // snow singular value clamp
	JpMin, JpMax           float32 // plastic volume ratio clamp

	Parallel bool // run the step phases on a worker pool

	// Derived.
	dx, invDx    float32
	mu0, lambda0 float32
}

func (p *Params) init() {
	p.dx = 1 / float32(p.Res)
	p.invDx = float32(p.Res)
	// Lamé parameters from Young's modulus and Poisson's ratio.
	e := p.YoungsModulus
	nu := p.PoissonRatio
	p.mu0 = e / (2 * (1 + nu))
	p.lambda0 = e * nu / ((1 + nu) * (1 - 2*nu))
}

// Simulation owns a particle set and advances it against a caller-owned
// scratch grid. Particles are created once at seeding and mutated in place;
// none are ever destroyed.
type Simulation struct {
	params    Params
	particles []Particle
	pool      *stepPool
}

// NewSimulation builds a simulation over the given particle set. The slice
// is owned by the simulation from here on.
func NewSimulation(params Params, particles []Particle) *Simulation {
	params.init()
	s := &Simulation{
		params:    params,
		particles: particles,
	}
	if params.Parallel {
		s.pool = newStepPool(s)
	}
	return s
}

// Params returns a copy of the simulation parameters.
func (s *Simulation) Params() Params {
	return s.params
}

// Particles returns the live particle set. Callers must not append or
// reorder; reading positions and colors for display is the intended use.
func (s *Simulation) Particles() []Particle {
	return s.particles
}

// TotalMass returns the summed particle mass.
func (s *Simulation) TotalMass() float32 {
	return float32(len(s.particles)) * s.params.ParticleMass
}

// Close stops the worker pool, if any. The simulation must not be advanced
// afterwards.
func (s *Simulation) Close() {
	if s.pool != nil {
		s.pool.stop()
	}
}

// Advance runs one explicit step of size dt: particle-to-grid scatter, grid
// velocity update, grid-to-particle gather with the constitutive update.
// The grid is reset first, so it may hold garbage from the previous step.
// An error means a particle's kernel support left the grid; the step is
// aborted and the particle state is no longer consistent.
func (s *Simulation) Advance(grid *Grid, dt float32) error {
	if grid.Res() != s.params.Res {
		return fmt.Errorf("advance: grid resolution %d does not match simulation resolution %d",
			grid.Res(), s.params.Res)
	}
	grid.Reset()
	if err := s.Scatter(grid, dt); err != nil {
		return err
	}
	s.UpdateGrid(grid, dt)
	return s.Gather(grid, dt)
}

// Scatter is the particle-to-grid phase: particle momentum and stress
// accumulate onto the grid. It is exported together with UpdateGrid and
// Gather so drivers can instrument each phase; they must run in that order
// on a freshly Reset grid, each completing before the next begins. Most
// callers should use Advance.
func (s *Simulation) Scatter(grid *Grid, dt float32) error {
	if s.pool != nil && len(s.particles) >= parallelThreshold {
		return s.pool.scatter(grid, dt)
	}
	return s.scatterRange(grid, 0, len(s.particles), dt)
}

// scatterRange scatters particles [i0, i1) into grid. With the worker pool
// each worker targets its own private grid, so no synchronization is needed
// on the node accumulators.
func (s *Simulation) scatterRange(grid *Grid, i0, i1 int, dt float32) error {
	pr := &s.params
	for i := i0; i < i1; i++ {
		p := &s.particles[i]
		st := makeStencil(p.Pos, pr.invDx)
		if !st.inBounds(grid.NodeCount()) {
			return fmt.Errorf("p2g: particle %d at (%g, %g) outside the grid", i, p.Pos.X, p.Pos.Y)
		}

		// Hardening: accumulated plastic compression stiffens the response.
		e := float32(math.Exp(float64(pr.Hardening * (1 - p.Jp))))
		mu := pr.mu0 * e
		lambda := pr.lambda0 * e

		j := p.F.Det()
		r, _ := polarDecomp(p.F)

		// Fixed corotated Cauchy stress, folded with dt and the grid
		// scaling of the MLS-MPM force term.
		stress := p.F.Sub(r).Mul(p.F.Transpose()).Scale(2 * mu).
			Add(Identity().Scale(lambda * (j - 1) * j)).
			Scale(-4 * dt * pr.invDx * pr.invDx * pr.ParticleVolume)
		affine := stress.Add(p.C.Scale(pr.ParticleMass))

		mv := p.Vel.Scale(pr.ParticleMass)
		for di := 0; di < 3; di++ {
			for dj := 0; dj < 3; dj++ {
				dpos := Vec2{
					X: (float32(di) - st.fx.X) * pr.dx,
					Y: (float32(dj) - st.fx.Y) * pr.dx,
				}
				w := st.weight(di, dj)
				node := grid.At(st.bx+di, st.by+dj)
				node.V = node.V.Add(mv.Add(affine.MulVec(dpos)).Scale(w))
				node.Mass += w * pr.ParticleMass
			}
		}
	}
	return nil
}

// UpdateGrid normalizes momentum to velocity, applies gravity and enforces
// the domain walls.
func (s *Simulation) UpdateGrid(grid *Grid, dt float32) {
	if s.pool != nil && len(s.particles) >= parallelThreshold {
		s.pool.gridPass(grid, dt)
		return
	}
	s.updateNodeRows(grid, 0, grid.NodeCount(), dt)
}

// updateNodeRows runs the grid velocity update on node rows [i0, i1).
// Zero-mass nodes are skipped, which also avoids dividing by zero. Side
// walls and the ceiling are sticky (absorb all momentum); the floor is
// separating (blocks penetration, allows lift-off).
func (s *Simulation) updateNodeRows(grid *Grid, i0, i1 int, dt float32) {
	pr := &s.params
	n := float32(pr.Res)
	for i := i0; i < i1; i++ {
		for j := 0; j < grid.NodeCount(); j++ {
			node := grid.At(i, j)
			if node.Mass <= 0 {
				continue
			}
			node.V = node.V.Scale(1 / node.Mass)
			node.V.Y += dt * pr.Gravity

			x := float32(i) / n
			y := float32(j) / n
			if x < pr.Boundary || x > 1-pr.Boundary || y > 1-pr.Boundary {
				node.V = Vec2{}
			}
			if y < pr.Boundary && node.V.Y < 0 {
				node.V.Y = 0
			}
		}
	}
}

// Gather is the grid-to-particle phase: grid velocities come back to the
// particles, followed by the constitutive update.
func (s *Simulation) Gather(grid *Grid, dt float32) error {
	if s.pool != nil && len(s.particles) >= parallelThreshold {
		return s.pool.gather(grid, dt)
	}
	return s.gatherRange(grid, 0, len(s.particles), dt)
}

// gatherRange processes particles [i0, i1): velocity and APIC affine field
// from the 3x3 neighborhood, advection, then the material update. Reads
// the grid only; writes only its own particles, so ranges may run
// concurrently without synchronization.
func (s *Simulation) gatherRange(grid *Grid, i0, i1 int, dt float32) error {
	pr := &s.params
	for i := i0; i < i1; i++ {
		p := &s.particles[i]
		st := makeStencil(p.Pos, pr.invDx)
		if !st.inBounds(grid.NodeCount()) {
			return fmt.Errorf("g2p: particle %d at (%g, %g) outside the grid", i, p.Pos.X, p.Pos.Y)
		}

		p.Vel = Vec2{}
		p.C = Mat2{}
		for di := 0; di < 3; di++ {
			for dj := 0; dj < 3; dj++ {
				// dpos is unscaled here, unlike the scatter.
				dpos := Vec2{float32(di) - st.fx.X, float32(dj) - st.fx.Y}
				w := st.weight(di, dj)
				gv := grid.At(st.bx+di, st.by+dj).V
				p.Vel = p.Vel.Add(gv.Scale(w))
				p.C = p.C.Add(Outer(gv.Scale(4*pr.invDx*w), dpos))
			}
		}

		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		s.updateDeformation(p, dt)
	}
	return nil
}

// updateDeformation applies the per-material deformation update. Liquid
// particles keep their initial deformation gradient and therefore never
// develop elastic stress; they ride the grid velocity field as tracers.
func (s *Simulation) updateDeformation(p *Particle, dt float32) {
	switch p.Material {
	case Liquid:
		return
	case Elastic:
		p.F = Identity().Add(p.C.Scale(dt)).Mul(p.F)
	case Snow:
		f := Identity().Add(p.C.Scale(dt)).Mul(p.F)
		u, sig, v := svd(f)
		clamped := clampStretch(sig, s.params.StretchMin, s.params.StretchMax)
		oldJ := f.Det()
		f = u.Mul(Diag(clamped)).Mul(v.Transpose())
		p.Jp = clamp32(p.Jp*oldJ/f.Det(), s.params.JpMin, s.params.JpMax)
		p.F = f
	}
}

// clampStretch bounds the singular values of the deformation gradient,
// yielding any stretch or compression beyond the limits to plasticity.
func clampStretch(sig Vec2, lo, hi float32) Vec2 {
	return Vec2{clamp32(sig.X, lo, hi), clamp32(sig.Y, lo, hi)}
}
