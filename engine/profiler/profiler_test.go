package profiler

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestProfiler() (*Profiler, *fakeClock, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithLogger(zap.New(core)), WithUpdateInterval(time.Second), withClock(clock.now))
	return p, clock, logs
}

func frame(avgPoints float64, maxPoints, dropped int) *renderer.FrameResult {
	res := &renderer.FrameResult{
		Technique: renderer.TechniqueForwardPlus,
		Opaque: tiling.FrameStats{
			Mode:   "forward_plus",
			Tiles:  8,
			Points: tiling.KindStats{Active: 100, AvgPerTile: avgPoints, MaxPerTile: maxPoints},
		},
		CullTime:  2 * time.Millisecond,
		ShadeTime: 4 * time.Millisecond,
	}
	if dropped > 0 {
		res.Opaque.OverflowTiles = 1
		res.Opaque.DroppedLights = dropped
	}
	return res
}

func TestTickLogsAtInterval(t *testing.T) {
	p, clock, logs := newTestProfiler()

	p.Record(frame(10, 20, 0))
	if p.Tick() {
		t.Error("expected no stats before the interval elapsed")
	}
	p.Record(frame(20, 40, 0))
	clock.t = clock.t.Add(time.Second)
	if !p.Tick() {
		t.Fatal("expected stats after the interval elapsed")
	}

	entries := logs.FilterMessage("frame stats").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 stats line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if got := fields["fps"].(float64); got != 2 {
		t.Errorf("expected fps 2, got %v", got)
	}
	if got := fields["points_per_tile"].(float64); got != 15 {
		t.Errorf("expected 15 points per tile, got %v", got)
	}
	if got := fields["max_per_tile"].(int64); got != 40 {
		t.Errorf("expected max 40 per tile, got %v", got)
	}
	if got := fields["cull"].(time.Duration); got != 2*time.Millisecond {
		t.Errorf("expected 2ms cull, got %v", got)
	}

	// The next interval starts empty.
	clock.t = clock.t.Add(time.Second)
	p.Tick()
	entries = logs.FilterMessage("frame stats").All()
	if _, ok := entries[1].ContextMap()["points_per_tile"]; ok {
		t.Error("an interval without frames should not report culling averages")
	}
}

func TestRecordWarnsOnOverflow(t *testing.T) {
	p, _, logs := newTestProfiler()

	res := frame(5, 272, 3)
	res.Blended = &tiling.FrameStats{Mode: "blended", OverflowTiles: 2, DroppedLights: 4}
	p.Record(res)
	p.Record(frame(5, 10, 0))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 overflow warning, got %d", len(warnings))
	}
	if got := warnings[0].ContextMap()["dropped"].(int64); got != 7 {
		t.Errorf("expected 7 dropped lights, got %d", got)
	}

	r := p.Report()
	if r.Frames != 2 || r.OverflowFrames != 1 || r.DroppedLights != 7 {
		t.Errorf("unexpected totals %+v", r)
	}
	if r.Blended != nil {
		t.Error("the last frame had no blended pass")
	}
	if r.AvgCullTime != 2*time.Millisecond || r.AvgShadeTime != 4*time.Millisecond {
		t.Errorf("unexpected timings %v %v", r.AvgCullTime, r.AvgShadeTime)
	}
	if r.Technique != "forward_plus" {
		t.Errorf("expected forward_plus, got %q", r.Technique)
	}
}

func TestReportEmpty(t *testing.T) {
	p, _, _ := newTestProfiler()
	p.Record(nil)
	if r := p.Report(); r.Frames != 0 {
		t.Errorf("expected an empty report, got %+v", r)
	}
	if p.Last() != nil {
		t.Error("expected no last frame")
	}
}
