// Command bench runs the simulation headless for a fixed number of frames
// and reports step timing, for comparing grid resolutions and the worker
// pool against single-threaded stepping.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/flurry/config"
	"github.com/pthm-cable/flurry/mpm"
	"github.com/pthm-cable/flurry/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 500, "Visual frames to simulate")
	seed := flag.Int64("seed", 42, "RNG seed for particle seeding")
	parallel := flag.Bool("parallel", true, "Use the worker pool")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	cfg.Physics.Parallel = *parallel

	if err := run(cfg, *frames, *seed); err != nil {
		slog.Error("bench failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, frames int, seed int64) error {
	sim, grid, err := build(cfg, seed)
	if err != nil {
		return err
	}
	defer sim.Close()

	perf := telemetry.NewPerfCollector(frames)
	dt := cfg.Derived.DT32

	start := time.Now()
	ticks := 0
	for f := 0; f < frames; f++ {
		perf.StartFrame()
		for i := 0; i < cfg.Derived.StepsPerFrame; i++ {
			grid.Reset()
			perf.StartPhase(telemetry.PhaseP2G)
			if err := sim.Scatter(grid, dt); err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			perf.StartPhase(telemetry.PhaseGrid)
			sim.UpdateGrid(grid, dt)
			perf.StartPhase(telemetry.PhaseG2P)
			if err := sim.Gather(grid, dt); err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			ticks++
		}
		perf.EndFrame()
	}
	elapsed := time.Since(start)

	stats := perf.Stats()
	fmt.Printf("frames: %d  steps: %d  particles: %d  parallel: %v\n",
		frames, ticks, len(sim.Particles()), cfg.Physics.Parallel)
	fmt.Printf("wall time: %s  steps/sec: %.0f\n",
		elapsed.Round(time.Millisecond), float64(ticks)/elapsed.Seconds())
	fmt.Printf("frame avg/min/max: %s / %s / %s\n",
		stats.AvgFrame.Round(time.Microsecond),
		stats.MinFrame.Round(time.Microsecond),
		stats.MaxFrame.Round(time.Microsecond))
	fmt.Printf("phase shares: p2g %.1f%%  grid %.1f%%  g2p %.1f%%\n",
		stats.PhasePct[telemetry.PhaseP2G],
		stats.PhasePct[telemetry.PhaseGrid],
		stats.PhasePct[telemetry.PhaseG2P])
	return nil
}

func build(cfg *config.Config, seed int64) (*mpm.Simulation, *mpm.Grid, error) {
	clusters := make([]mpm.Cluster, 0, len(cfg.Scene.Clusters))
	for i, cc := range cfg.Scene.Clusters {
		mat, err := mpm.ParseMaterial(cc.Material)
		if err != nil {
			return nil, nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		clusters = append(clusters, mpm.Cluster{
			Center:   mpm.Vec2{X: float32(cc.Center[0]), Y: float32(cc.Center[1])},
			Count:    cc.Count,
			Radius:   float32(cc.Radius),
			Material: mat,
		})
	}

	rng := rand.New(rand.NewSource(seed))
	particles := mpm.Seed(rng, clusters)

	params := mpm.Params{
		Res:            cfg.Physics.GridRes,
		ParticleMass:   float32(cfg.Physics.ParticleMass),
		ParticleVolume: float32(cfg.Physics.ParticleVolume),
		YoungsModulus:  float32(cfg.Material.YoungsModulus),
		PoissonRatio:   float32(cfg.Material.PoissonRatio),
		Hardening:      float32(cfg.Material.Hardening),
		Gravity:        float32(cfg.Physics.Gravity),
		Boundary:       float32(cfg.Physics.Boundary),
		StretchMin:     float32(cfg.Material.StretchMin),
		StretchMax:     float32(cfg.Material.StretchMax),
		JpMin:          float32(cfg.Material.JpMin),
		JpMax:          float32(cfg.Material.JpMax),
		Parallel:       cfg.Physics.Parallel,
	}

	return mpm.NewSimulation(params, particles), mpm.NewGrid(params.Res), nil
}
