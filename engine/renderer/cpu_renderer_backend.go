package renderer

import (
	"context"

	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

type cpuRendererBackendImpl struct {
	dispatcher tiling.Dispatcher
}

var _ RendererBackend = &cpuRendererBackendImpl{}

func newCPURendererBackend(opts ...tiling.DispatcherBuilderOption) RendererBackend {
	return &cpuRendererBackendImpl{dispatcher: tiling.NewDispatcher(opts...)}
}

func (b *cpuRendererBackendImpl) Name() string {
	return BackendTypeCPU.String()
}

func (b *cpuRendererBackendImpl) Cull(ctx context.Context, pass *tiling.Pass) (tiling.FrameStats, error) {
	return b.dispatcher.Dispatch(ctx, pass)
}

func (b *cpuRendererBackendImpl) Release() {
	b.dispatcher.Close()
}
