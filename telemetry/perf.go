package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one timed section of a simulation frame. A frame is one
// visual update, covering many fine internal steps; the transfer phases
// accumulate across all of them.
type Phase int

const (
	PhaseP2G Phase = iota // particle-to-grid scatter
	PhaseGrid             // grid velocity update
	PhaseG2P              // grid-to-particle gather + constitutive update
	PhaseRender
	PhaseTelemetry
	numPhases
)

// phaseNames maps phases to their log/CSV labels.
var phaseNames = [numPhases]string{"p2g", "grid", "g2p", "render", "telemetry"}

// String returns the phase label.
func (p Phase) String() string {
	return phaseNames[p]
}

// frameSample holds timing data for a single frame.
type frameSample struct {
	frameDuration time.Duration
	phases        [numPhases]time.Duration
}

// PerfCollector tracks frame and phase timing over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []frameSample
	writeIndex  int
	sampleCount int

	current    frameSample
	frameStart time.Time
	phaseStart time.Time
	lastPhase  Phase
	inPhase    bool
}

// NewPerfCollector creates a perf collector averaging over windowSize
// frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]frameSample, windowSize),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.current = frameSample{}
	p.inPhase = false
}

// StartPhase begins timing a phase, ending the previous one if any.
// Phases may recur within a frame; their durations accumulate.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	if p.inPhase {
		p.current.phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
	p.inPhase = true
}

// EndFrame finishes the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.inPhase {
		p.current.phases[p.lastPhase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
	p.current.frameDuration = now.Sub(p.frameStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timing over the window.
type PerfStats struct {
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average frame, percent

	FramesPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	for i := 0; i < p.sampleCount; i++ {
		sample := &p.samples[i]
		total += sample.frameDuration
		if i == 0 || sample.frameDuration < s.MinFrame {
			s.MinFrame = sample.frameDuration
		}
		if sample.frameDuration > s.MaxFrame {
			s.MaxFrame = sample.frameDuration
		}
		for ph := range phaseSum {
			phaseSum[ph] += sample.phases[ph]
		}
	}

	s.AvgFrame = total / time.Duration(p.sampleCount)
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / time.Duration(p.sampleCount)
		if s.AvgFrame > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgFrame) * 100
		}
	}
	if s.AvgFrame > 0 {
		s.FramesPerSecond = float64(time.Second) / float64(s.AvgFrame)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"min_frame_us", s.MinFrame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Frame        int     `csv:"frame"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	P2GPct       float64 `csv:"p2g_pct"`
	GridPct      float64 `csv:"grid_pct"`
	G2PPct       float64 `csv:"g2p_pct"`
	RenderPct    float64 `csv:"render_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(frame int) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:        frame,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		P2GPct:       s.PhasePct[PhaseP2G],
		GridPct:      s.PhasePct[PhaseGrid],
		G2PPct:       s.PhasePct[PhaseG2P],
		RenderPct:    s.PhasePct[PhaseRender],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
