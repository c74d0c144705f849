package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm-cable/flurry/config"
	"github.com/pthm-cable/flurry/mpm"
)

// buildParams maps the loaded config onto simulation parameters.
func buildParams(cfg *config.Config) mpm.Params {
	return mpm.Params{
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
}

// buildClusters maps the scene config onto seeding clusters.
func buildClusters(cfg *config.Config) ([]mpm.Cluster, error) {
	clusters := make([]mpm.Cluster, 0, len(cfg.Scene.Clusters))
	for i, cc := range cfg.Scene.Clusters {
		mat, err := mpm.ParseMaterial(cc.Material)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		color, err := parseColor(cc.Color)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		clusters = append(clusters, mpm.Cluster{
			Center:   mpm.Vec2{X: float32(cc.Center[0]), Y: float32(cc.Center[1])},
			Count:    cc.Count,
			Radius:   float32(cc.Radius),
			Material: mat,
			Color:    color,
		})
	}
	return clusters, nil
}

// parseColor parses an RRGGBB hex color, with an optional leading '#'.
func parseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(v), nil
}
