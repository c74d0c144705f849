package mpm

import (
	"fmt"
	"math/rand"
)

// Material selects the constitutive update a particle receives after the
// gather phase. The set is closed; a particle's material never changes.
type Material uint8

const (
	// Elastic is the plain fixed corotated material: the deformation
	// gradient integrates freely with no plastic yield.
	Elastic Material = iota
	// Snow yields plastically: singular values of the deformation gradient
	// are clamped and the absorbed volume is tracked in Jp, hardening the
	// elastic response.
	Snow
	// Liquid keeps its initial deformation gradient for the whole run and
	// so exerts no elastic stress; it is advected as a momentum-carrying
	// tracer.
	Liquid
)

// String returns the lowercase material name.
func (m Material) String() string {
	switch m {
	case Elastic:
		return "elastic"
	case Snow:
		return "snow"
	case Liquid:
		return "liquid"
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// ParseMaterial maps a lowercase material name to its tag.
func ParseMaterial(s string) (Material, error) {
	switch s {
	case "elastic":
		return Elastic, nil
	case "snow":
		return Snow, nil
	case "liquid":
		return Liquid, nil
	}
	return 0, fmt.Errorf("unknown material %q", s)
}

// Particle is a single material point. Pos lives in the normalized domain
// [0,1] x [0,1]. F is the deformation gradient accumulated since rest
// state; C is the APIC affine velocity field, fully recomputed every step.
// Jp tracks irreversible plastic volume change. Color is an opaque display
// attribute (0xRRGGBB) passed through untouched.
type Particle struct {
	Pos, Vel Vec2
	F, C     Mat2
	Jp       float32
	Material Material
	Color    uint32
}

// NewParticle returns a particle at rest: zero velocity, identity
// deformation gradient, zero affine field, Jp = 1.
func NewParticle(pos Vec2, mat Material, color uint32) Particle {
	return Particle{
		Pos:      pos,
		F:        Identity(),
		Jp:       1,
		Material: mat,
		Color:    color,
	}
}

// Cluster describes one seeded blob of particles.
type Cluster struct {
	Center   Vec2
	Count    int
	Radius   float32 // jitter half-extent around the center, per axis
	Material Material
	Color    uint32
}

// Seed places Count particles per cluster, jittered uniformly within
// Radius of the center, with zero initial velocity.
func Seed(rng *rand.Rand, clusters []Cluster) []Particle {
	total := 0
	for _, c := range clusters {
		total += c.Count
	}
	particles := make([]Particle, 0, total)
	for _, c := range clusters {
		for i := 0; i < c.Count; i++ {
			pos := Vec2{
				X: c.Center.X + (rng.Float32()*2-1)*c.Radius,
				Y: c.Center.Y + (rng.Float32()*2-1)*c.Radius,
			}
			particles = append(particles, NewParticle(pos, c.Material, c.Color))
		}
	}
	return particles
}
