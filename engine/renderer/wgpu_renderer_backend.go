package renderer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer/shader"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// ErrNoDevice is returned when no WebGPU adapter or device can be created.
var ErrNoDevice = errors.New("no WebGPU device available")

// cullRoles are the bindings the backend fills, in upload order.
var cullRoles = []shader.AnnotationArg{
	shader.AnnotationArgUniforms,
	shader.AnnotationArgOpaqueDepth,
	shader.AnnotationArgBlendedDepth,
	shader.AnnotationArgPointSpheres,
	shader.AnnotationArgSpotSpheres,
	shader.AnnotationArgVPLSpheres,
	shader.AnnotationArgPointIndices,
	shader.AnnotationArgSpotIndices,
	shader.AnnotationArgVPLIndices,
	shader.AnnotationArgTileOverflow,
}

type wgpuRendererBackendImpl struct {
	mu       *sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	cull     pipeline.Pipeline
	bindings map[shader.AnnotationArg]int

	// providers own the device buffers of each pass mode so the opaque and
	// blended passes of a frame never share targets. staging holds the
	// MapRead copies of the index bindings, keyed the same way.
	providers map[tiling.Mode]bind_group_provider.BindGroupProvider
	staging   map[tiling.Mode]bind_group_provider.BindGroupProvider

	// scratch receives read-back lists for passes without CPU targets.
	scratch map[tiling.Mode]map[light.LightType]*tiling.TileIndexBuffer

	// computeFrameEncoder batches every command of one Cull into a single submission.
	computeFrameEncoder *wgpu.CommandEncoder

	log *zap.Logger
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates a headless device and the culling pipeline.
//
// Parameters:
//   - forceFallbackAdapter: request a software adapter
//
// Returns:
//   - RendererBackend: the ready backend
//   - error: ErrNoDevice when no adapter or device is available, or a pipeline error
func newWGPURendererBackend(forceFallbackAdapter bool) (RendererBackend, error) {
	w := &wgpuRendererBackendImpl{
		mu:        &sync.Mutex{},
		instance:  wgpu.CreateInstance(nil),
		providers: make(map[tiling.Mode]bind_group_provider.BindGroupProvider),
		staging:   make(map[tiling.Mode]bind_group_provider.BindGroupProvider),
		scratch:   make(map[tiling.Mode]map[light.LightType]*tiling.TileIndexBuffer),
		bindings:  make(map[shader.AnnotationArg]int),
		log:       logger.Component("wgpu"),
	}
	if w.instance == nil {
		return nil, ErrNoDevice
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil || a == nil {
		w.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrNoDevice, err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Tile Culling Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil || d == nil {
		w.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrNoDevice, err)
	}
	w.device = d
	w.queue = d.GetQueue()

	s, err := shader.NewTileCullShader()
	if err != nil {
		w.Release()
		return nil, err
	}
	for _, role := range cullRoles {
		group, binding, ok := s.BindingForRole(role)
		if !ok || group != 0 {
			w.Release()
			return nil, fmt.Errorf("shader %s: binding for %s missing from group 0", s.Key(), role)
		}
		w.bindings[role] = binding
	}

	p := pipeline.NewPipeline(shader.TileCullKey, pipeline.WithComputeShader(s))
	if err := w.RegisterComputePipeline(p); err != nil {
		w.Release()
		return nil, fmt.Errorf("register %s pipeline: %w", p.PipelineKey(), err)
	}
	w.cull = p

	w.log.Info("device ready", zap.Bool("fallback", forceFallbackAdapter))
	return w, nil
}

func (b *wgpuRendererBackendImpl) Name() string {
	return BackendTypeWGPU.String()
}

// RegisterComputePipeline creates the shader module, layouts and compute
// pipeline for p and stores them on it.
//
// Parameters:
//   - p: the pipeline holding the compute shader
//
// Returns:
//   - error: an error if any GPU object could not be created
func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader()
	if computeShader == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	s, err := b.device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return err
	}
	defer s.Release()

	desc := computeShader.BindGroupLayoutDescriptor(0)
	desc.Label = p.Label() + " Bind Group Layout"
	bgl, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return fmt.Errorf("failed to create bind group layout for group 0: %w", err)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Label(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return err
	}

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.Label() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     s,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		layout.Release()
		bgl.Release()
		return err
	}

	p.SetComputePipeline(created, layout, bgl)
	return nil
}

func (b *wgpuRendererBackendImpl) Cull(ctx context.Context, pass *tiling.Pass) (tiling.FrameStats, error) {
	if err := ctx.Err(); err != nil {
		return tiling.FrameStats{}, err
	}
	if err := pass.Validate(); err != nil {
		return tiling.FrameStats{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil || b.cull == nil {
		return tiling.FrameStats{}, ErrNoDevice
	}

	start := time.Now()
	provider := b.provider(pass.Mode)
	uploads := cullUploads(pass)
	if err := b.ensureBuffers(provider, uploads); err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
	}
	if err := b.ensureBindGroup(provider); err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
	}

	writes := make([]bind_group_provider.BufferWrite, 0, len(uploads))
	for _, role := range cullRoles {
		if data := uploads[role].data; len(data) > 0 {
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: provider,
				Binding:  b.bindings[role],
				Data:     data,
			})
		}
	}
	b.writeBuffers(writes)

	targets := b.readTargets(pass)
	staging := b.stagingProvider(pass.Mode)
	for role, buf := range targets {
		binding := b.bindings[role]
		if err := b.ensureBuffer(staging, binding, uint64(buf.SizeBytes()), wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst); err != nil {
			return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
		}
	}
	c := pass.Capacity
	overflowBinding := b.bindings[shader.AnnotationArgTileOverflow]
	if err := b.ensureBuffer(staging, overflowBinding, overflowBytes(c), wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst); err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
	}

	if err := b.beginComputeFrame(); err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
	}
	b.dispatchCompute(b.cull, provider, [3]uint32{uint32(c.TilesX), uint32(c.TilesY), 1})
	for role, buf := range targets {
		binding := b.bindings[role]
		b.computeFrameEncoder.CopyBufferToBuffer(provider.Buffer(binding), 0, staging.Buffer(binding), 0, uint64(buf.SizeBytes()))
	}
	b.computeFrameEncoder.CopyBufferToBuffer(provider.Buffer(overflowBinding), 0, staging.Buffer(overflowBinding), 0, overflowBytes(c))
	if err := b.endComputeFrame(); err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
	}

	for role, buf := range targets {
		data, err := b.readBack(staging.Buffer(b.bindings[role]), uint64(buf.SizeBytes()))
		if err != nil {
			return tiling.FrameStats{}, fmt.Errorf("%s pass: read back %s: %w", pass.Mode, role, err)
		}
		if err := buf.LoadBytes(data); err != nil {
			return tiling.FrameStats{}, fmt.Errorf("%s pass: %w", pass.Mode, err)
		}
	}

	data, err := b.readBack(staging.Buffer(overflowBinding), overflowBytes(c))
	if err != nil {
		return tiling.FrameStats{}, fmt.Errorf("%s pass: read back %s: %w", pass.Mode, shader.AnnotationArgTileOverflow, err)
	}
	overflow := decodeOverflow(data)

	points := targets[shader.AnnotationArgPointIndices]
	spots := targets[shader.AnnotationArgSpotIndices]
	vpls := targets[shader.AnnotationArgVPLIndices]
	tiles := tileStatsFromBuffers(c, points, spots, vpls, overflow)

	// the kernel skips the VPL write without VPLs; the CPU target must not
	// keep the previous frame's lists
	if pass.Mode.VPLs() && vpls == nil && pass.Targets.VPLs != nil {
		emptyLists(pass.Targets.VPLs, points)
		vpls = pass.Targets.VPLs
	}

	if pass.Shade != nil || (pass.Mode.Deferred() && pass.Depth.Samples > 1) {
		if err := shadeFromBuffers(pass, tiles, points, spots, vpls); err != nil {
			return tiling.FrameStats{}, err
		}
	}

	stats := tiling.NewFrameStats(pass, tiles, time.Since(start))
	stats.Backend = b.Name()
	b.log.Debug("dispatch complete",
		zap.Stringer("mode", pass.Mode),
		zap.Int("tiles", stats.Tiles),
		zap.Int("points", stats.Points.Active),
		zap.Int("spots", stats.Spots.Active),
		zap.Int("vpls", stats.VPLs.Active),
		zap.Duration("elapsed", stats.DispatchTime),
	)
	return stats, nil
}

// upload is the data and minimum buffer size of one binding.
type upload struct {
	data []byte
	size uint64
}

// cullUploads serializes a pass into per-binding uploads. Index bindings
// carry no data, only their size. Bindings unused by the pass still get a
// minimal buffer because every binding of the layout must be bound.
func cullUploads(pass *tiling.Pass) map[shader.AnnotationArg]upload {
	c := pass.Capacity
	numVPLs := pass.NumVPLs()

	var flags uint32
	if pass.Mode.VPLs() && numVPLs > 0 {
		flags |= light.CullFlagVPLs
	}
	if pass.Mode.Blended() {
		flags |= light.CullFlagBlended
	}
	u := light.NewGPUCullUniforms(c, pass.View, pass.InvProj, len(pass.Points), len(pass.Spots), numVPLs, flags, pass.Depth.Samples)

	out := map[shader.AnnotationArg]upload{
		shader.AnnotationArgUniforms:     sized(u.Marshal()),
		shader.AnnotationArgOpaqueDepth:  sized(common.SliceToBytes(pass.Depth.Data)),
		shader.AnnotationArgBlendedDepth: {size: 4},
		shader.AnnotationArgPointSpheres: sized(light.MarshalCenterAndRadius(pass.Points)),
		shader.AnnotationArgSpotSpheres:  sized(light.MarshalCenterAndRadius(pass.Spots)),
		shader.AnnotationArgVPLSpheres:   sized(light.MarshalCenterAndRadius(pass.VPLs[:numVPLs])),
		shader.AnnotationArgPointIndices: {size: indexBytes(c, light.LightTypePoint)},
		shader.AnnotationArgSpotIndices:  {size: indexBytes(c, light.LightTypeSpot)},
		shader.AnnotationArgVPLIndices:   {size: 4},
		shader.AnnotationArgTileOverflow: {size: overflowBytes(c)},
	}
	if pass.Mode.Blended() {
		out[shader.AnnotationArgBlendedDepth] = sized(common.SliceToBytes(pass.BlendedDepth.Data))
	}
	if pass.Mode.VPLs() {
		out[shader.AnnotationArgVPLIndices] = upload{size: indexBytes(c, light.LightTypeVPL)}
	}
	return out
}

func sized(data []byte) upload {
	return upload{data: data, size: max(align4(uint64(len(data))), 4)}
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// indexBytes is the size of a whole index buffer of one kind.
func indexBytes(c light.TileCapacity, kind light.LightType) uint64 {
	per := c.LightElementsPerTile()
	if kind == light.LightTypeVPL {
		per = c.VPLElementsPerTile()
	}
	return uint64(2 * per * c.NumTiles())
}

// overflowBytes is the size of the per-tile drop counters.
func overflowBytes(c light.TileCapacity) uint64 {
	return uint64(4 * light.OverflowWordsPerTile * c.NumTiles())
}

// decodeOverflow unpacks the read-back drop counters.
func decodeOverflow(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return out
}

// emptyLists writes a header with empty lists for every tile of dst, taking
// each tile's halfZ from headers.
func emptyLists(dst, headers *tiling.TileIndexBuffer) {
	for tile := range dst.Capacity().NumTiles() {
		var halfZ float32
		if headers != nil {
			halfZ, _, _ = headers.Header(tile)
		}
		dst.WriteTile(0, tile, halfZ, nil, nil)
	}
}

// readTargets picks the CPU buffers each index binding is read back into:
// the pass targets when set, otherwise per-mode scratch buffers. The VPL
// binding is read only when the kernel wrote it.
func (b *wgpuRendererBackendImpl) readTargets(pass *tiling.Pass) map[shader.AnnotationArg]*tiling.TileIndexBuffer {
	scratch := b.scratch[pass.Mode]
	if scratch == nil {
		scratch = make(map[light.LightType]*tiling.TileIndexBuffer)
		b.scratch[pass.Mode] = scratch
	}
	pick := func(target *tiling.TileIndexBuffer, kind light.LightType) *tiling.TileIndexBuffer {
		if target != nil {
			return target
		}
		s := scratch[kind]
		if s == nil {
			s = tiling.NewTileIndexBuffer(pass.Capacity, kind)
			scratch[kind] = s
		} else if s.Capacity() != pass.Capacity {
			s.Resize(pass.Capacity)
		}
		return s
	}

	out := map[shader.AnnotationArg]*tiling.TileIndexBuffer{
		shader.AnnotationArgPointIndices: pick(pass.Targets.Points, light.LightTypePoint),
		shader.AnnotationArgSpotIndices:  pick(pass.Targets.Spots, light.LightTypeSpot),
	}
	if pass.Mode.VPLs() && pass.NumVPLs() > 0 {
		out[shader.AnnotationArgVPLIndices] = pick(pass.Targets.VPLs, light.LightTypeVPL)
	}
	return out
}

// tileStatsFromBuffers rebuilds per-tile results from read-back headers and
// drop counters. The kernel does not export tile depth bounds, so MinZ and
// MaxZ mirror HalfZ except on background tiles. overflow holds
// OverflowWordsPerTile counters per tile and may be nil.
func tileStatsFromBuffers(c light.TileCapacity, points, spots, vpls *tiling.TileIndexBuffer, overflow []uint32) []tiling.TileStats {
	tiles := make([]tiling.TileStats, c.NumTiles())
	background := common.FltMax / 2
	dropped := func(tile, kind int) int {
		i := tile*light.OverflowWordsPerTile + kind
		if i >= len(overflow) {
			return 0
		}
		return int(overflow[i])
	}
	for i := range tiles {
		t := tiling.TileStats{Tile: i}
		if points != nil {
			var a, bl int
			t.HalfZ, a, bl = points.Header(i)
			t.Points = tiling.ListStats{CountA: a, CountB: bl, Overflow: dropped(i, 0)}
		}
		if spots != nil {
			_, a, bl := spots.Header(i)
			t.Spots = tiling.ListStats{CountA: a, CountB: bl, Overflow: dropped(i, 1)}
		}
		if vpls != nil {
			_, a, bl := vpls.Header(i)
			t.VPLs = tiling.ListStats{CountA: a, CountB: bl, Overflow: dropped(i, 2)}
		}
		t.MinZ, t.MaxZ = t.HalfZ, t.HalfZ
		if t.HalfZ == background {
			t.MinZ, t.MaxZ = common.FltMax, 0
		}
		tiles[i] = t
	}
	return tiles
}

// shadeFromBuffers runs the inline shading stage of a deferred pass on the
// CPU from read-back lists. Tile rows are shaded concurrently; every call
// writes only its own pixel. Edge flags are derived from the depth samples
// the same way the work group derives them.
func shadeFromBuffers(pass *tiling.Pass, tiles []tiling.TileStats, points, spots, vpls *tiling.TileIndexBuffer) error {
	c := pass.Capacity
	captureEdges := pass.Mode.Deferred() && pass.Depth.Samples > 1

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for ty := range c.TilesY {
		g.Go(func() error {
			for tx := range c.TilesX {
				tile := tx + ty*c.TilesX
				lights := tiling.NewTileLights(tile, points, spots, vpls)
				edges := 0
				for ly := range light.TileRes {
					for lx := range light.TileRes {
						x, y := tx*light.TileRes+lx, ty*light.TileRes+ly
						if x >= c.Width || y >= c.Height {
							continue
						}
						edge := false
						if captureEdges {
							minZ, maxZ := tiling.PixelDepthRange(pass.InvProj, pass.Depth, nil, x, y)
							edge = tiling.IsEdge(minZ, maxZ)
							if pass.Targets.Edges != nil {
								pass.Targets.Edges.Set(x, y, edge)
							}
						}
						if edge {
							edges++
						}
						if pass.Shade != nil {
							pass.Shade(x, y, edge, &lights)
						}
					}
				}
				tiles[tile].EdgePixels = edges
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *wgpuRendererBackendImpl) provider(mode tiling.Mode) bind_group_provider.BindGroupProvider {
	p := b.providers[mode]
	if p == nil {
		p = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s %s", b.cull.Label(), mode))
		b.providers[mode] = p
	}
	return p
}

func (b *wgpuRendererBackendImpl) stagingProvider(mode tiling.Mode) bind_group_provider.BindGroupProvider {
	p := b.staging[mode]
	if p == nil {
		p = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s %s staging", b.cull.Label(), mode))
		b.staging[mode] = p
	}
	return p
}

// ensureBuffers grows every binding of the provider to fit the uploads. The
// usage of each buffer follows its layout entry; writable storage is also a
// copy source for read-back.
func (b *wgpuRendererBackendImpl) ensureBuffers(provider bind_group_provider.BindGroupProvider, uploads map[shader.AnnotationArg]upload) error {
	layout := b.cull.Shader().BindGroupLayoutDescriptor(0)
	usages := make(map[int]wgpu.BufferUsage, len(layout.Entries))
	for _, entry := range layout.Entries {
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usages[int(entry.Binding)] = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeStorage:
			usages[int(entry.Binding)] = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeReadOnlyStorage:
			usages[int(entry.Binding)] = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		}
	}

	for _, role := range cullRoles {
		binding := b.bindings[role]
		if err := b.ensureBuffer(provider, binding, uploads[role].size, usages[binding]); err != nil {
			return err
		}
	}
	return nil
}

// ensureBuffer replaces a binding's buffer when it is smaller than size.
// Buffers grow to at least twice their previous size so light counts that
// creep up frame by frame do not reallocate every frame.
func (b *wgpuRendererBackendImpl) ensureBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64, usage wgpu.BufferUsage) error {
	if provider.Fits(binding, size) {
		return nil
	}
	size = max(align4(size), 2*provider.BufferSize(binding))
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return fmt.Errorf("create buffer for binding %d (%d bytes): %w", binding, size, err)
	}
	provider.SetBuffer(binding, buf, size)
	return nil
}

// ensureBindGroup rebuilds the provider's bind group after a buffer change.
func (b *wgpuRendererBackendImpl) ensureBindGroup(provider bind_group_provider.BindGroupProvider) error {
	if provider.BindGroup() != nil {
		return nil
	}
	layout := b.cull.Shader().BindGroupLayoutDescriptor(0)
	entries := make([]wgpu.BindGroupEntry, len(layout.Entries))
	for i, entry := range layout.Entries {
		buf := provider.Buffer(int(entry.Binding))
		if buf == nil {
			return fmt.Errorf("binding %d has no buffer", entry.Binding)
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  b.cull.BindGroupLayout(),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) beginComputeFrame() error {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) endComputeFrame() error {
	if b.computeFrameEncoder == nil {
		return nil
	}
	defer func() {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
	}()

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) dispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	if b.computeFrameEncoder == nil {
		return
	}
	pass := b.computeFrameEncoder.BeginComputePass(nil)
	pass.SetPipeline(p.ComputePipeline())
	pass.SetBindGroup(0, provider.BindGroup(), nil)
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
}

// readBack maps a staging buffer, blocking on the device until the map
// completes, and copies its first size bytes out before unmapping.
func (b *wgpuRendererBackendImpl) readBack(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	var (
		done   bool
		status wgpu.BufferMapAsyncStatus
	)
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	for !done {
		b.device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map async failed with status %d", status)
	}

	data := buf.GetMappedRange(0, uint(size))
	out := make([]byte, len(data))
	copy(out, data)
	buf.Unmap()
	return out, nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for mode, p := range b.providers {
		p.Release()
		delete(b.providers, mode)
	}
	for mode, p := range b.staging {
		p.Release()
		delete(b.staging, mode)
	}
	if b.cull != nil {
		b.cull.Release()
		b.cull = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
