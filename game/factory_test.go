package game

import (
	"testing"

	"github.com/pthm-cable/flurry/config"
	"github.com/pthm-cable/flurry/mpm"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func TestBuildParamsFromDefaults(t *testing.T) {
	params := buildParams(config.Cfg())

	if params.Res != 80 {
		t.Errorf("Res = %d, want 80", params.Res)
	}
	if params.Gravity != -200 {
		t.Errorf("Gravity = %v, want -200", params.Gravity)
	}
	if params.Boundary != 0.05 {
		t.Errorf("Boundary = %v, want 0.05", params.Boundary)
	}
}

func TestBuildClustersFromDefaults(t *testing.T) {
	clusters, err := buildClusters(config.Cfg())
	if err != nil {
		t.Fatalf("buildClusters: %v", err)
	}
	if len(clusters) != 3 {
		t.Fatalf("got %d clusters, want 3", len(clusters))
	}
	if clusters[0].Material != mpm.Elastic {
		t.Errorf("first cluster material = %v, want elastic", clusters[0].Material)
	}
	if clusters[0].Color != 0xED553B {
		t.Errorf("first cluster color = %06x, want ed553b", clusters[0].Color)
	}
	for i, c := range clusters {
		if c.Count != 500 {
			t.Errorf("cluster %d count = %d, want 500", i, c.Count)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint32
		wantErr bool
	}{
		{"plain", "ED553B", 0xED553B, false},
		{"hash prefix", "#068587", 0x068587, false},
		{"lowercase", "f2b134", 0xF2B134, false},
		{"too short", "FFF", 0, true},
		{"not hex", "GGGGGG", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseColor(%q) = %06x, want %06x", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildClustersRejectsBadMaterial(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Scene.Clusters[0].Material = "jelly"

	if _, err := buildClusters(cfg); err == nil {
		t.Fatal("expected error for unknown material")
	}
}
