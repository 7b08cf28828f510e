package tiling

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/tiled-lighting/common"
)

func TestProjDepthRoundTrip(t *testing.T) {
	v := newTestView(t, 64, 64)
	for _, z := range []float32{1, 2, 100, 500, 5000, 9999} {
		got := common.ProjDepthToView(v.invProj, v.projDepth(z))
		if math.Abs(float64(got-z)) > float64(z)*1e-3 {
			t.Errorf("view z %v came back as %v", z, got)
		}
	}
	if d := v.projDepth(1); math.Abs(float64(d-1)) > 1e-6 {
		t.Errorf("expected near plane depth 1, got %v", d)
	}
}

func TestPixelDepthRangeOpaque(t *testing.T) {
	v := newTestView(t, 8, 8)
	d := NewDepthBuffer(8, 8, 4)
	d.Set(2, 3, 0, v.projDepth(100))
	d.Set(2, 3, 2, v.projDepth(300))

	minZ, maxZ := PixelDepthRange(v.invProj, d, nil, 2, 3)
	if math.Abs(float64(minZ-100)) > 0.1 || math.Abs(float64(maxZ-300)) > 0.5 {
		t.Errorf("expected range [100, 300], got [%v, %v]", minZ, maxZ)
	}
	if !IsEdge(minZ, maxZ) {
		t.Error("expected a 200 unit spread to be an edge")
	}

	minZ, maxZ = PixelDepthRange(v.invProj, d, nil, 5, 5)
	if minZ != common.FltMax || maxZ != 0 {
		t.Errorf("expected background pixel to keep the empty range, got [%v, %v]", minZ, maxZ)
	}
	if IsEdge(minZ, maxZ) {
		t.Error("background pixel must not be an edge")
	}

	// outside the buffer reads as background
	minZ, maxZ = PixelDepthRange(v.invProj, d, nil, 20, 20)
	if minZ != common.FltMax || maxZ != 0 {
		t.Errorf("expected off-screen pixel to keep the empty range, got [%v, %v]", minZ, maxZ)
	}
}

func TestPixelDepthRangeBlended(t *testing.T) {
	v := newTestView(t, 8, 8)
	opaque := NewDepthBuffer(8, 8, 1)
	blended := NewDepthBuffer(8, 8, 1)
	opaque.Set(1, 1, 0, v.projDepth(800))
	opaque.Set(2, 2, 0, v.projDepth(800))
	blended.Set(1, 1, 0, v.projDepth(200))

	minZ, maxZ := PixelDepthRange(v.invProj, opaque, blended, 1, 1)
	if math.Abs(float64(minZ-200)) > 0.1 || math.Abs(float64(maxZ-800)) > 1 {
		t.Errorf("expected range [200, 800], got [%v, %v]", minZ, maxZ)
	}

	// opaque depth without blended coverage is ignored
	minZ, maxZ = PixelDepthRange(v.invProj, opaque, blended, 2, 2)
	if minZ != common.FltMax || maxZ != 0 {
		t.Errorf("expected uncovered pixel to keep the empty range, got [%v, %v]", minZ, maxZ)
	}
}

func TestDepthRangeConcurrent(t *testing.T) {
	var r depthRange
	r.reset()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.include(float32(10+i), float32(100+i))
		}()
	}
	wg.Wait()

	minZ, maxZ, halfZ := r.bounds()
	if minZ != 10 || maxZ != 163 || halfZ != 86.5 {
		t.Errorf("expected [10, 163] half 86.5, got [%v, %v] half %v", minZ, maxZ, halfZ)
	}

	r.reset()
	r.include(common.FltMax, 0)
	if minZ, maxZ, _ := r.bounds(); minZ != common.FltMax || maxZ != 0 {
		t.Errorf("expected empty range after reset, got [%v, %v]", minZ, maxZ)
	}
}

func TestDepthBufferSize(t *testing.T) {
	d := NewDepthBuffer(10, 4, 0)
	if d.Samples != 1 || len(d.Data) != 40 {
		t.Fatalf("expected 1 sample and 40 values, got %d and %d", d.Samples, len(d.Data))
	}
	if err := d.checkSize(10, 4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := d.checkSize(12, 4); !errors.Is(err, ErrDepthSizeMismatch) {
		t.Errorf("expected ErrDepthSizeMismatch, got %v", err)
	}
	d.Data = d.Data[:39]
	if err := d.checkSize(10, 4); !errors.Is(err, ErrDepthSizeMismatch) {
		t.Errorf("expected ErrDepthSizeMismatch for a short buffer, got %v", err)
	}
}

func TestEdgeMask(t *testing.T) {
	m := NewEdgeMask(4, 4)
	m.Set(1, 2, true)
	m.Set(3, 3, true)
	m.Set(3, 3, false)
	if !m.IsEdge(1, 2) || m.IsEdge(3, 3) || m.IsEdge(-1, 0) || m.IsEdge(4, 0) {
		t.Error("unexpected edge state")
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 edge, got %d", m.Count())
	}
	m.Clear()
	if m.Count() != 0 {
		t.Error("expected no edges after Clear")
	}

	var nilMask *EdgeMask
	if nilMask.IsEdge(0, 0) {
		t.Error("nil mask must report no edges")
	}
}

func TestSharedListOverflow(t *testing.T) {
	l := newSharedList(4)
	l.reset()
	for i := range 6 {
		l.appendA(uint16(i))
		l.appendB(uint16(10 + i))
	}
	if l.countA() != 4 || l.countB() != 4 {
		t.Fatalf("expected counts clamped to 4, got %d/%d", l.countA(), l.countB())
	}
	if l.overflow.Load() != 4 {
		t.Errorf("expected 4 dropped entries, got %d", l.overflow.Load())
	}
	if !equalU16(l.listA(), []uint16{0, 1, 2, 3}) || !equalU16(l.listB(), []uint16{10, 11, 12, 13}) {
		t.Errorf("unexpected lists %v / %v", l.listA(), l.listB())
	}

	stats := listStats(l, 3, true)
	if stats.CountA != 3 || stats.CountB != 3 || stats.Overflow != 6 {
		t.Errorf("expected 3/3 with 6 overflow, got %+v", stats)
	}
	if stats := listStats(l, 3, false); stats.CountA != 4 || stats.Overflow != 4 {
		t.Errorf("unwritten lists must not be clamped, got %+v", stats)
	}
}

func TestWorkgroupPhasePanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "lane 17" {
			t.Errorf("expected the lane panic to surface, got %v", r)
		}
	}()
	workgroup{laneWorkers: 4}.phase(func(lane int) {
		if lane == 17 {
			panic("lane 17")
		}
	})
}
