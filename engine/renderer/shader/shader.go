package shader

import (
	_ "embed"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// TileCullSource is the annotated WGSL source of the tile culling kernel.
//
//go:embed assets/tile_cull.wgsl
var TileCullSource string

// TileCullKey is the cache key of the tile culling kernel.
const TileCullKey = "tile_cull"

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and buffer binding.
type shader struct {
	key                        string
	source                     string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	workGroupSize              [3]uint32
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader defines the interface for a loaded and parsed WGSL compute shader. It exposes the
// shader's key, processed source, entry point, bind group layout descriptors, workgroup size,
// and the provider declarations needed for pipeline creation and buffer wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if not set
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindingForRole resolves the group and binding declared for a provider role.
	//
	// Parameters:
	//   - role: the binding role from a @tile:provider annotation
	//
	// Returns:
	//   - group, binding: the resolved indices
	//   - bool: false if no declaration names the role
	BindingForRole(role AnnotationArg) (group, binding int, ok bool)

	// EntryPoint returns the @compute entry point name.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions, [1, 1, 1] when
	// @workgroup_size is not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the wgpu.ShaderModuleDescriptor built from the processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the provider annotations parsed from the source.
	//
	// Returns:
	//   - []Annotation: provider declarations in source order
	Declarations() []Annotation

	// Compile runs the processed source through the naga front end and SPIR-V
	// back end. It catches kernel errors on hosts without a GPU device.
	//
	// Returns:
	//   - []uint32: the SPIR-V words
	//   - error: the compile error, prefixed by the failing naga stage
	Compile() ([]uint32, error)
}

var _ Shader = &shader{}

// NewComputeShader pre-processes annotated WGSL source and parses the layout
// metadata a compute pipeline needs.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - source: the annotated WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: a pre-processing error, or a source without a @compute entry point
func NewComputeShader(key, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:    key,
		source: processed,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: processed,
			},
		},
		entryPoint:    parseEntryPoint(processed),
		workGroupSize: parseWorkgroupSize(processed),
		declarations:  append([]Annotation(nil), pp.Declarations()...),
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @compute entry point", key)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed)
	return s, nil
}

// NewTileCullShader builds the tile culling kernel.
//
// Returns:
//   - Shader: the parsed kernel
//   - error: a pre-processing error
func NewTileCullShader() (Shader, error) {
	return NewComputeShader(TileCullKey, TileCullSource)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindingForRole(role AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Type == AnnotationTypeProvider && d.Args[0] == role {
			return *d.Group, *d.Binding, true
		}
	}
	return -1, -1, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Compile() ([]uint32, error) {
	spirvBytes, err := naga.Compile(s.source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", s.key, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader %s: SPIR-V output is %d bytes, not a whole number of words", s.key, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
