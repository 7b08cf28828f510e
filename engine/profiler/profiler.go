package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// Profiler tracks frame rate, memory statistics and light culling results.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// Culling totals since the last log line.
	interval window

	// Totals since creation, for the frame report.
	frames         int
	cullTime       time.Duration
	shadeTime      time.Duration
	overflowFrames int
	droppedLights  int
	last           *renderer.FrameResult

	now func() time.Time
	log *zap.Logger
}

// window accumulates the culling results of one logging interval.
type window struct {
	frames        int
	cullTime      time.Duration
	shadeTime     time.Duration
	avgPoints     float64
	avgSpots      float64
	avgVPLs       float64
	maxPerTile    int
	overflowTiles int
	droppedLights int
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(p *Profiler)

// WithUpdateInterval sets how often stats are logged. Default is 1 second.
//
// Parameters:
//   - d: the interval; values <= 0 log every frame
//
// Returns:
//   - ProfilerOption: option function to apply
func WithUpdateInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger replaces the component logger.
//
// Parameters:
//   - l: the logger stats are written to
//
// Returns:
//   - ProfilerOption: option function to apply
func WithLogger(l *zap.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.log = l
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		log:            logger.Component("profiler"),
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Record folds one frame's culling result into the running totals. A frame
// that dropped lights is logged as a warning straight away since the
// affected tiles shade incorrectly.
//
// Parameters:
//   - res: the renderer's output for the frame
func (p *Profiler) Record(res *renderer.FrameResult) {
	if res == nil {
		return
	}
	p.last = res
	p.frames++
	p.cullTime += res.CullTime
	p.shadeTime += res.ShadeTime

	w := &p.interval
	w.frames++
	w.cullTime += res.CullTime
	w.shadeTime += res.ShadeTime
	w.avgPoints += res.Opaque.Points.AvgPerTile
	w.avgSpots += res.Opaque.Spots.AvgPerTile
	w.avgVPLs += res.Opaque.VPLs.AvgPerTile
	w.maxPerTile = max(w.maxPerTile, maxPerTile(res.Opaque))

	overflowTiles, dropped := res.Opaque.OverflowTiles, res.Opaque.DroppedLights
	if res.Blended != nil {
		overflowTiles += res.Blended.OverflowTiles
		dropped += res.Blended.DroppedLights
		w.maxPerTile = max(w.maxPerTile, maxPerTile(*res.Blended))
	}
	w.overflowTiles += overflowTiles
	w.droppedLights += dropped

	if dropped > 0 {
		p.overflowFrames++
		p.droppedLights += dropped
		p.log.Warn("tile light lists overflowed",
			zap.String("mode", res.Opaque.Mode),
			zap.Int("tiles", overflowTiles),
			zap.Int("dropped", dropped),
		)
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times,
// total memory and the culling averages recorded since the last log line.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := max(elapsed.Seconds(), 1e-9)
	fps := float64(p.frameCount) / seconds

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / seconds

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	fields := []zap.Field{
		zap.Float64("fps", fps),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gc_last_us", lastPauseUs),
		zap.Uint64("gc_max_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	}
	if w := p.interval; w.frames > 0 {
		n := float64(w.frames)
		fields = append(fields,
			zap.Duration("cull", w.cullTime/time.Duration(w.frames)),
			zap.Duration("shade", w.shadeTime/time.Duration(w.frames)),
			zap.Float64("points_per_tile", w.avgPoints/n),
			zap.Float64("spots_per_tile", w.avgSpots/n),
			zap.Float64("vpls_per_tile", w.avgVPLs/n),
			zap.Int("max_per_tile", w.maxPerTile),
			zap.Int("overflow_tiles", w.overflowTiles),
			zap.Int("dropped", w.droppedLights),
		)
	}
	p.log.Info("frame stats", fields...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.interval = window{}
	return true
}

// Report summarizes every frame recorded so far.
type Report struct {
	Frames         int                `yaml:"frames"`
	Technique      string             `yaml:"technique"`
	AvgCullTime    time.Duration      `yaml:"avg_cull_time"`
	AvgShadeTime   time.Duration      `yaml:"avg_shade_time"`
	OverflowFrames int                `yaml:"overflow_frames"`
	DroppedLights  int                `yaml:"dropped_lights"`
	Opaque         tiling.FrameStats  `yaml:"opaque"`
	Blended        *tiling.FrameStats `yaml:"blended,omitempty"`
}

// Report returns the run totals and the statistics of the last frame.
//
// Returns:
//   - Report: the summary; zero when no frame was recorded
func (p *Profiler) Report() Report {
	if p.frames == 0 || p.last == nil {
		return Report{}
	}
	r := Report{
		Frames:         p.frames,
		Technique:      p.last.Technique.String(),
		AvgCullTime:    p.cullTime / time.Duration(p.frames),
		AvgShadeTime:   p.shadeTime / time.Duration(p.frames),
		OverflowFrames: p.overflowFrames,
		DroppedLights:  p.droppedLights,
		Opaque:         p.last.Opaque,
	}
	if p.last.Blended != nil {
		b := *p.last.Blended
		r.Blended = &b
	}
	return r
}

// Last returns the most recently recorded frame, or nil.
func (p *Profiler) Last() *renderer.FrameResult {
	return p.last
}

func maxPerTile(s tiling.FrameStats) int {
	return max(s.Points.MaxPerTile, s.Spots.MaxPerTile, s.VPLs.MaxPerTile)
}
