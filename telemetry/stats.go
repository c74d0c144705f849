// Package telemetry aggregates per-frame particle statistics and step
// timing, and writes them as structured logs and CSV files.
package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flurry/mpm"
)

// FrameStats holds aggregated particle statistics for one rendered frame.
type FrameStats struct {
	Frame     int     `csv:"frame"`
	Tick      int     `csv:"tick"`
	SimTime   float64 `csv:"sim_time"`
	Particles int     `csv:"particles"`

	// Per-material counts
	ElasticCount int `csv:"elastic"`
	SnowCount    int `csv:"snow"`
	LiquidCount  int `csv:"liquid"`

	// Bulk motion (for conservation monitoring)
	KineticEnergy float64 `csv:"kinetic_energy"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MeanSpeed     float64 `csv:"mean_speed"`
	MaxSpeed      float64 `csv:"max_speed"`

	// Plasticity state
	MinJp float64 `csv:"jp_min"`
	MaxJp float64 `csv:"jp_max"`

	// Numerical health
	NonFinite int `csv:"non_finite"`
}

// Collector computes FrameStats from a particle set, reusing its scratch
// buffers across frames.
type Collector struct {
	mass   float64 // per-particle mass
	speeds []float64
}

// NewCollector creates a collector for particles of the given mass.
func NewCollector(particleMass float64) *Collector {
	return &Collector{
		mass:   particleMass,
		speeds: make([]float64, 0, 2048),
	}
}

// Collect aggregates one frame of particle statistics.
func (c *Collector) Collect(frame, tick int, simTime float64, particles []mpm.Particle) FrameStats {
	s := FrameStats{
		Frame:     frame,
		Tick:      tick,
		SimTime:   simTime,
		Particles: len(particles),
		MinJp:     math.Inf(1),
		MaxJp:     math.Inf(-1),
	}

	c.speeds = c.speeds[:0]
	for i := range particles {
		p := &particles[i]

		switch p.Material {
		case mpm.Elastic:
			s.ElasticCount++
		case mpm.Snow:
			s.SnowCount++
		case mpm.Liquid:
			s.LiquidCount++
		}

		vx := float64(p.Vel.X)
		vy := float64(p.Vel.Y)
		speed := math.Hypot(vx, vy)
		c.speeds = append(c.speeds, speed)

		s.KineticEnergy += 0.5 * c.mass * speed * speed
		s.MomentumX += c.mass * vx
		s.MomentumY += c.mass * vy

		jp := float64(p.Jp)
		s.MinJp = math.Min(s.MinJp, jp)
		s.MaxJp = math.Max(s.MaxJp, jp)

		if !finiteParticle(p) {
			s.NonFinite++
		}
	}

	if len(c.speeds) > 0 {
		s.MeanSpeed = stat.Mean(c.speeds, nil)
		s.MaxSpeed = floats.Max(c.speeds)
	} else {
		s.MinJp, s.MaxJp = 0, 0
	}

	return s
}

// finiteParticle reports whether every scalar of the particle state is
// finite.
func finiteParticle(p *mpm.Particle) bool {
	vals := [...]float32{
		p.Pos.X, p.Pos.Y,
		p.Vel.X, p.Vel.Y,
		p.F.A, p.F.B, p.F.C, p.F.D,
		p.C.A, p.C.B, p.C.C, p.C.D,
		p.Jp,
	}
	for _, v := range vals {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Int("tick", s.Tick),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("particles", s.Particles),
		slog.Int("elastic", s.ElasticCount),
		slog.Int("snow", s.SnowCount),
		slog.Int("liquid", s.LiquidCount),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("jp_min", s.MinJp),
		slog.Float64("jp_max", s.MaxJp),
		slog.Int("non_finite", s.NonFinite),
	)
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("stats",
		"frame", s.Frame,
		"tick", s.Tick,
		"sim_time", s.SimTime,
		"particles", s.Particles,
		"elastic", s.ElasticCount,
		"snow", s.SnowCount,
		"liquid", s.LiquidCount,
		"kinetic_energy", s.KineticEnergy,
		"momentum_x", s.MomentumX,
		"momentum_y", s.MomentumY,
		"mean_speed", s.MeanSpeed,
		"max_speed", s.MaxSpeed,
		"jp_min", s.MinJp,
		"jp_max", s.MaxJp,
		"non_finite", s.NonFinite,
	)
}
