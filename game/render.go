package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flurry/telemetry"
)

// Draw renders the current particle set and the HUD overlay.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	if g.frameOpen {
		g.perf.StartPhase(telemetry.PhaseRender)
	}

	g.renderer.Draw(g.sim.Particles())
	g.drawOverlay()

	g.closeFrame()
}

// drawOverlay draws the status line in the top-left corner.
func (g *Game) drawOverlay() {
	simTime := float64(g.tick) * g.cfg.Physics.DT
	text := fmt.Sprintf("frame %d  t=%.3fs  particles %d  fps %d",
		g.frame, simTime, len(g.sim.Particles()), rl.GetFPS())
	rl.DrawText(text, 10, 10, 18, rl.RayWhite)

	if g.failed {
		rl.DrawText("STEP FAILED - see log", 10, 34, 18, rl.Red)
	} else if g.paused {
		rl.DrawText("PAUSED (space to resume)", 10, 34, 18, rl.Yellow)
	}
}

// handleInput processes keyboard controls: space pauses, period advances a
// single frame while paused.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if g.paused && !g.failed && rl.IsKeyPressed(rl.KeyPeriod) {
		g.advanceFrame()
	}
}
