// Package renderer draws the particle set with raylib. It consumes only
// particle positions and colors; the physics core has no dependency on it.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flurry/mpm"
)

// Window palette.
var (
	BackgroundColor = RGB(0x112F41)
	FrameColor      = RGB(0x4FB99F)
)

// Domain frame drawn around the simulated region, in normalized
// coordinates.
const (
	frameMin = 0.04
	frameMax = 0.96
)

// ParticleRenderer maps the normalized simulation domain onto the window
// and draws each particle in its pass-through color.
type ParticleRenderer struct {
	width, height float32
	particleSize  float32
}

// NewParticleRenderer creates a renderer for a window of the given pixel
// size.
func NewParticleRenderer(width, height int) *ParticleRenderer {
	return &ParticleRenderer{
		width:        float32(width),
		height:       float32(height),
		particleSize: 2,
	}
}

// Draw clears the background, draws the domain frame and then every
// particle. The simulation's y axis points up; screen y points down.
func (r *ParticleRenderer) Draw(particles []mpm.Particle) {
	rl.ClearBackground(BackgroundColor)

	r.drawFrame()

	half := r.particleSize / 2
	for i := range particles {
		p := &particles[i]
		x, y := r.toScreen(p.Pos.X, p.Pos.Y)
		rl.DrawRectangle(int32(x-half), int32(y-half), int32(r.particleSize), int32(r.particleSize), RGB(p.Color))
	}
}

// drawFrame outlines the walled region of the domain.
func (r *ParticleRenderer) drawFrame() {
	x0, y0 := r.toScreen(frameMin, frameMax)
	x1, y1 := r.toScreen(frameMax, frameMin)
	rect := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawRectangleLinesEx(rect, 2, FrameColor)
}

// toScreen maps normalized domain coordinates to pixels, flipping y.
func (r *ParticleRenderer) toScreen(x, y float32) (float32, float32) {
	return x * r.width, (1 - y) * r.height
}

// RGB converts a 0xRRGGBB value to an opaque raylib color.
func RGB(c uint32) rl.Color {
	return rl.Color{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 255,
	}
}
