package mpm

import (
	"math"
	"math/rand"
	"testing"
)

const testDT = 1e-4

func testParams() Params {
	return Params{
		Res:            80,
		ParticleMass:   1,
		ParticleVolume: 1,
		YoungsModulus:  1e4,
		PoissonRatio:   0.2,
		Hardening:      10,
		Gravity:        -200,
		Boundary:       0.05,
		StretchMin:     1 - 2.5e-2,
		StretchMax:     1 + 7.5e-3,
		JpMin:          0.6,
		JpMax:          20,
	}
}

func testClusters() []Cluster {
	return []Cluster{
		{Center: Vec2{0.55, 0.45}, Count: 500, Radius: 0.08, Material: Elastic, Color: 0xED553B},
		{Center: Vec2{0.45, 0.65}, Count: 500, Radius: 0.08, Material: Snow, Color: 0xF2B134},
		{Center: Vec2{0.55, 0.85}, Count: 500, Radius: 0.08, Material: Liquid, Color: 0x068587},
	}
}

// randomParticles places particles away from the walls with random
// velocities and affine fields, so scatter totals are exercised without
// boundary interaction.
func randomParticles(rng *rand.Rand, count int) []Particle {
	particles := make([]Particle, count)
	for i := range particles {
		p := NewParticle(Vec2{
			X: 0.2 + rng.Float32()*0.6,
			Y: 0.2 + rng.Float32()*0.6,
		}, Elastic, 0xFFFFFF)
		p.Vel = Vec2{rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		p.C = Mat2{
			A: rng.Float32()*0.2 - 0.1, B: rng.Float32()*0.2 - 0.1,
			C: rng.Float32()*0.2 - 0.1, D: rng.Float32()*0.2 - 0.1,
		}
		particles[i] = p
	}
	return particles
}

func TestScatterConservesMass(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := NewSimulation(testParams(), randomParticles(rng, 200))
	grid := NewGrid(s.Params().Res)

	grid.Reset()
	if err := s.Scatter(grid, testDT); err != nil {
		t.Fatalf("scatter: %v", err)
	}

	got := float64(grid.TotalMass())
	want := float64(s.TotalMass())
	if math.Abs(got-want) > 0.01 {
		t.Errorf("grid mass after scatter = %v, want %v", got, want)
	}
}

func TestScatterPreservesMomentum(t *testing.T) {
	// Before gravity is applied, total grid momentum must equal total
	// particle momentum: the affine term has zero net contribution by the
	// kernel's vanishing first moment.
	rng := rand.New(rand.NewSource(5))
	s := NewSimulation(testParams(), randomParticles(rng, 200))
	grid := NewGrid(s.Params().Res)

	var want Vec2
	for i := range s.Particles() {
		want = want.Add(s.Particles()[i].Vel.Scale(s.Params().ParticleMass))
	}

	grid.Reset()
	if err := s.Scatter(grid, testDT); err != nil {
		t.Fatalf("scatter: %v", err)
	}

	got := grid.Momentum()
	if math.Abs(float64(got.X-want.X)) > 0.01 || math.Abs(float64(got.Y-want.Y)) > 0.01 {
		t.Errorf("grid momentum = %+v, want %+v", got, want)
	}
}

func TestElasticAtRestFeelsNoForce(t *testing.T) {
	// With F at identity the corotated stress vanishes (R = F, J = 1), so
	// an elastic particle at rest with gravity off must stay exactly put.
	params := testParams()
	params.Gravity = 0
	s := NewSimulation(params, []Particle{NewParticle(Vec2{0.5, 0.5}, Elastic, 0)})
	grid := NewGrid(params.Res)

	if err := s.Advance(grid, testDT); err != nil {
		t.Fatalf("advance: %v", err)
	}

	p := s.Particles()[0]
	if math.Abs(float64(p.Vel.X)) > 1e-7 || math.Abs(float64(p.Vel.Y)) > 1e-7 {
		t.Errorf("velocity = %+v, want zero", p.Vel)
	}
	if math.Abs(float64(p.Pos.X)-0.5) > 1e-7 || math.Abs(float64(p.Pos.Y)-0.5) > 1e-7 {
		t.Errorf("position = %+v, want (0.5, 0.5)", p.Pos)
	}
}

func TestSingleParticleGravityStep(t *testing.T) {
	// One step of free fall away from all boundaries: the particle picks
	// up exactly dt * g, since the constant grid velocity field gathers
	// back unchanged.
	params := testParams()
	s := NewSimulation(params, []Particle{NewParticle(Vec2{0.5, 0.5}, Elastic, 0)})
	grid := NewGrid(params.Res)

	if err := s.Advance(grid, testDT); err != nil {
		t.Fatalf("advance: %v", err)
	}

	p := s.Particles()[0]
	wantVy := float64(testDT) * float64(params.Gravity)
	if math.Abs(float64(p.Vel.Y)-wantVy) > 1e-6 {
		t.Errorf("vel.Y = %v, want %v", p.Vel.Y, wantVy)
	}
	if math.Abs(float64(p.Vel.X)) > 1e-6 {
		t.Errorf("vel.X = %v, want 0", p.Vel.X)
	}
	wantY := 0.5 + float64(testDT)*wantVy
	if math.Abs(float64(p.Pos.Y)-wantY) > 1e-7 {
		t.Errorf("pos.Y = %v, want %v", p.Pos.Y, wantY)
	}
}

func TestGridUpdateBoundaries(t *testing.T) {
	params := testParams()
	s := NewSimulation(params, nil)
	grid := NewGrid(params.Res)

	set := func(i, j int) {
		grid.At(i, j).V = Vec2{0.6, -1.0}
		grid.At(i, j).Mass = 2
	}
	// Left wall, right wall, ceiling, floor, interior.
	set(1, 40)
	set(79, 40)
	set(40, 79)
	set(40, 1)
	set(40, 40)

	s.UpdateGrid(grid, testDT)

	for _, n := range []struct {
		i, j int
		name string
	}{
		{1, 40, "left wall"},
		{79, 40, "right wall"},
		{40, 79, "ceiling"},
	} {
		if v := grid.At(n.i, n.j).V; v != (Vec2{}) {
			t.Errorf("%s node velocity = %+v, want zero (sticky)", n.name, v)
		}
	}

	// Floor: vertical component clamped to non-negative, horizontal kept.
	floor := grid.At(40, 1).V
	if floor.Y < 0 {
		t.Errorf("floor node vel.Y = %v, want >= 0", floor.Y)
	}
	if math.Abs(float64(floor.X)-0.3) > 1e-6 {
		t.Errorf("floor node vel.X = %v, want 0.3", floor.X)
	}

	// Interior: normalized and under gravity.
	interior := grid.At(40, 40).V
	wantY := -0.5 + float64(testDT)*float64(params.Gravity)
	if math.Abs(float64(interior.X)-0.3) > 1e-6 || math.Abs(float64(interior.Y)-wantY) > 1e-6 {
		t.Errorf("interior node velocity = %+v, want (0.3, %v)", interior, wantY)
	}

	// Zero-mass nodes are untouched.
	if v := grid.At(10, 10).V; v != (Vec2{}) {
		t.Errorf("zero-mass node velocity = %+v, want zero", v)
	}
}

func TestAdvanceReportsOutOfDomain(t *testing.T) {
	params := testParams()
	s := NewSimulation(params, []Particle{NewParticle(Vec2{0, 0.5}, Elastic, 0)})
	grid := NewGrid(params.Res)

	if err := s.Advance(grid, testDT); err == nil {
		t.Fatal("expected out-of-domain error, got nil")
	}
}

func TestAdvanceRejectsMismatchedGrid(t *testing.T) {
	s := NewSimulation(testParams(), nil)
	if err := s.Advance(NewGrid(40), testDT); err == nil {
		t.Fatal("expected resolution mismatch error, got nil")
	}
}

func TestLiquidKeepsDeformationGradient(t *testing.T) {
	s := NewSimulation(testParams(), nil)
	p := NewParticle(Vec2{0.5, 0.5}, Liquid, 0)
	p.C = Mat2{A: 0.5, B: -0.2, C: 0.1, D: 0.3}

	s.updateDeformation(&p, testDT)

	if p.F != Identity() {
		t.Errorf("liquid F = %+v, want identity", p.F)
	}
}

func TestSnowPlasticityClampAndJp(t *testing.T) {
	params := testParams()
	s := NewSimulation(params, nil)
	p := NewParticle(Vec2{0.5, 0.5}, Snow, 0)
	p.F = Mat2{A: 1.05, D: 1.0} // stretched past the plastic limit

	s.updateDeformation(&p, testDT)

	if math.Abs(float64(p.F.A)-float64(params.StretchMax)) > 1e-6 {
		t.Errorf("F.A = %v, want clamped to %v", p.F.A, params.StretchMax)
	}
	if math.Abs(float64(p.F.D)-1) > 1e-6 {
		t.Errorf("F.D = %v, want 1", p.F.D)
	}
	// Yielded volume moves into Jp: oldJ/newJ = 1.05/1.0075.
	wantJp := 1.05 / 1.0075
	if math.Abs(float64(p.Jp)-wantJp) > 1e-5 {
		t.Errorf("Jp = %v, want %v", p.Jp, wantJp)
	}
}

func TestSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	clusters := testClusters()
	particles := Seed(rng, clusters)

	if len(particles) != 1500 {
		t.Fatalf("seeded %d particles, want 1500", len(particles))
	}

	idx := 0
	for _, c := range clusters {
		for i := 0; i < c.Count; i++ {
			p := particles[idx]
			idx++
			if p.Material != c.Material || p.Color != c.Color {
				t.Fatalf("particle %d: material/color %v/%06x, want %v/%06x",
					idx-1, p.Material, p.Color, c.Material, c.Color)
			}
			if p.Vel != (Vec2{}) || p.F != Identity() || p.C != (Mat2{}) || p.Jp != 1 {
				t.Fatalf("particle %d not at rest state: %+v", idx-1, p)
			}
			dx := math.Abs(float64(p.Pos.X - c.Center.X))
			dy := math.Abs(float64(p.Pos.Y - c.Center.Y))
			if dx > float64(c.Radius) || dy > float64(c.Radius) {
				t.Fatalf("particle %d at %+v outside jitter box of %+v", idx-1, p.Pos, c.Center)
			}
		}
	}
}

func TestClustersStayInDomainAndFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	params := testParams()
	params.Parallel = false
	s := NewSimulation(params, Seed(rng, testClusters()))
	grid := NewGrid(params.Res)

	const steps = 400
	for i := 0; i < steps; i++ {
		if err := s.Advance(grid, testDT); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	finite := func(v float32) bool {
		f := float64(v)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	for i := range s.Particles() {
		p := &s.Particles()[i]
		if p.Pos.X < 0 || p.Pos.X > 1 || p.Pos.Y < 0 || p.Pos.Y > 1 {
			t.Fatalf("particle %d left the domain: %+v", i, p.Pos)
		}
		for _, v := range []float32{
			p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y,
			p.F.A, p.F.B, p.F.C, p.F.D, p.Jp,
		} {
			if !finite(v) {
				t.Fatalf("particle %d has non-finite state: %+v", i, *p)
			}
		}
		if p.Material == Snow && (p.Jp < params.JpMin || p.Jp > params.JpMax) {
			t.Fatalf("particle %d Jp = %v outside clamp", i, p.Jp)
		}
		if p.Material == Liquid && p.F != Identity() {
			t.Fatalf("liquid particle %d changed F: %+v", i, p.F)
		}
	}
}

func TestMaterialParseRoundTrip(t *testing.T) {
	for _, m := range []Material{Elastic, Snow, Liquid} {
		got, err := ParseMaterial(m.String())
		if err != nil {
			t.Fatalf("ParseMaterial(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("round trip %v -> %v", m, got)
		}
	}
	if _, err := ParseMaterial("jelly"); err == nil {
		t.Error("expected error for unknown material")
	}
}
