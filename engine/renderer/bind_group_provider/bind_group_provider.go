package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed.
	// They are populated by the backend, not by user-creation.

	// bindGroup is the GPU bind group over the current buffers, or nil when stale.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// sizes holds the allocated byte size of each buffer, keyed by binding index.
	sizes map[int]uint64
}

// BindGroupProvider owns the buffers behind one bind group of a compute
// pipeline. Buffers grow on demand; replacing a buffer drops the bind group so
// the backend rebuilds it before the next dispatch.
//
// Usage pattern:
//  1. The backend creates a provider per pipeline
//  2. Each frame it calls Fits(binding, size) and replaces undersized buffers via SetBuffer
//  3. It rebuilds the bind group when BindGroup() is nil
//  4. It uploads frame data with BufferWrite batches
type BindGroupProvider interface {
	// Release releases every buffer and the bind group.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group, or nil if it has not been built since
	// the last buffer change.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer for a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns all buffers keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: the buffers
	Buffers() map[int]*wgpu.Buffer

	// BufferSize returns the allocated size of a binding's buffer, 0 if unset.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - uint64: the size in bytes
	BufferSize(binding int) uint64

	// Fits reports whether the binding's buffer can hold size bytes.
	//
	// Parameters:
	//   - binding: the binding index
	//   - size: the required size in bytes
	//
	// Returns:
	//   - bool: true if the current buffer is large enough
	Fits(binding int, size uint64) bool

	// SetBindGroup stores a bind group built over the current buffers.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer replaces the buffer of a binding, releasing the previous buffer
	// and the bind group.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the new buffer
	//   - size: its allocated size in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
		sizes:   make(map[int]uint64),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) BufferSize(binding int) uint64 {
	return p.sizes[binding]
}

func (p *bindGroupProvider) Fits(binding int, size uint64) bool {
	return p.buffers[binding] != nil && p.sizes[binding] >= size
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
	p.sizes[binding] = size
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
		delete(p.sizes, i)
	}
}
