// Package game drives the simulation: it owns the particle set, the
// caller-owned scratch grid, the fixed-timestep loop and the telemetry
// hooks, and hands the particles to the renderer once per visual frame.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/flurry/config"
	"github.com/pthm-cable/flurry/mpm"
	"github.com/pthm-cable/flurry/renderer"
	"github.com/pthm-cable/flurry/telemetry"
)

// Options configures a game instance.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	OutputDir      string
	StepsPerUpdate int // visual frames advanced per update call
}

// Game holds the complete simulator state.
type Game struct {
	cfg  *config.Config
	opts Options

	sim  *mpm.Simulation
	grid *mpm.Grid // scratch grid, reset every step

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	renderer *renderer.ParticleRenderer

	tick      int // fine internal steps completed
	frame     int // visual frames completed
	paused    bool
	failed    bool // a step reported an error; the simulation is halted
	frameOpen bool // perf frame started, waiting for render/end
}

// NewGame builds a game from the global config and the given options.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}

	clusters, err := buildClusters(cfg)
	if err != nil {
		return nil, fmt.Errorf("building scene: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	particles := mpm.Seed(rng, clusters)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		sim:       mpm.NewSimulation(buildParams(cfg), particles),
		grid:      mpm.NewGrid(cfg.Physics.GridRes),
		collector: telemetry.NewCollector(cfg.Physics.ParticleMass),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:    output,
	}
	if !opts.Headless {
		g.renderer = renderer.NewParticleRenderer(cfg.Screen.Width, cfg.Screen.Height)
	}

	slog.Info("seeded scene",
		"clusters", len(clusters),
		"particles", len(particles),
		"seed", opts.Seed,
		"steps_per_frame", cfg.Derived.StepsPerFrame,
	)

	return g, nil
}

// Tick returns the number of fine internal steps completed.
func (g *Game) Tick() int {
	return g.tick
}

// Frame returns the number of visual frames completed.
func (g *Game) Frame() int {
	return g.frame
}

// Failed reports whether a step error halted the simulation.
func (g *Game) Failed() bool {
	return g.failed
}

// Update advances the simulation and handles input. Call Draw afterwards.
func (g *Game) Update() {
	g.handleInput()
	if g.paused || g.failed {
		return
	}
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		g.advanceFrame()
		if g.failed {
			break
		}
	}
}

// UpdateHeadless advances the simulation without graphics.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		g.advanceFrame()
		g.closeFrame()
		if g.failed {
			break
		}
	}
}

// advanceFrame runs one visual frame worth of fine steps, then collects
// telemetry. The perf frame stays open for the render phase; headless
// callers close it with closeFrame.
func (g *Game) advanceFrame() {
	dt := g.cfg.Derived.DT32

	g.perf.StartFrame()
	g.frameOpen = true

	for i := 0; i < g.cfg.Derived.StepsPerFrame; i++ {
		if err := g.stepOnce(dt); err != nil {
			slog.Error("simulation step failed", "error", err, "tick", g.tick)
			g.failed = true
			break
		}
		g.tick++
	}
	g.frame++

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.updateTelemetry()
}

// stepOnce runs a single fine step with per-phase timing. The phases
// mirror Simulation.Advance: scatter, grid update, gather, in strict order
// on a freshly reset grid.
func (g *Game) stepOnce(dt float32) error {
	g.grid.Reset()

	g.perf.StartPhase(telemetry.PhaseP2G)
	if err := g.sim.Scatter(g.grid, dt); err != nil {
		return err
	}

	g.perf.StartPhase(telemetry.PhaseGrid)
	g.sim.UpdateGrid(g.grid, dt)

	g.perf.StartPhase(telemetry.PhaseG2P)
	return g.sim.Gather(g.grid, dt)
}

// closeFrame ends the open perf frame, if any.
func (g *Game) closeFrame() {
	if g.frameOpen {
		g.perf.EndFrame()
		g.frameOpen = false
	}
}

// updateTelemetry records stats on the configured frame cadence.
func (g *Game) updateTelemetry() {
	every := g.cfg.Telemetry.StatsEvery
	if every <= 0 || g.frame%every != 0 {
		return
	}

	simTime := float64(g.tick) * g.cfg.Physics.DT
	stats := g.collector.Collect(g.frame, g.tick, simTime, g.sim.Particles())

	if g.opts.LogStats {
		stats.LogStats()
	}
	if stats.NonFinite > 0 {
		slog.Warn("non-finite particle state detected",
			"frame", g.frame, "count", stats.NonFinite)
	}

	if err := g.output.WriteStats(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(g.perf.Stats(), g.frame); err != nil {
		slog.Error("failed to write perf stats", "error", err)
	}
}

// Unload releases the worker pool and output files.
func (g *Game) Unload() {
	g.closeFrame()
	g.sim.Close()
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
