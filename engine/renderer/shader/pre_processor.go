// pre_processor.go implements the WGSL pre-processor. It prepends a prelude of
// constants generated from the light package, replaces @tile:include
// annotations with registered struct sources, and collects the provider
// declarations the backend uses to bind buffers by role.
package shader

import (
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps include arguments to embedded WGSL struct sources.
	structRegistry map[AnnotationArg]string

	// declarations accumulates provider annotations during a Process call.
	declarations []Annotation
}

// PreProcessor turns annotated WGSL source into compilable WGSL.
type PreProcessor interface {
	// Process prepends the constant prelude, injects included struct sources,
	// and records provider declarations. The declarations list is reset at
	// the start of each call.
	//
	// Parameters:
	//   - source: the annotated WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the provider annotations collected during the most
	// recent Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the registered struct sources.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]string{
			AnnotationArgCullUniforms: light.GPUCullUniformsSource,
		},
	}
}

// Prelude returns the WGSL constant block shared by every culling kernel. The
// list sizes are the group-shared capacities: both halves of each list.
//
// Returns:
//   - string: WGSL const declarations
func Prelude() string {
	var sb strings.Builder
	consts := []struct {
		name  string
		value string
	}{
		{"TILE_RES", fmt.Sprintf("%du", light.TileRes)},
		{"NUM_THREADS_PER_TILE", fmt.Sprintf("%du", light.NumThreadsPerTile)},
		{"MAX_NUM_LIGHTS_PER_TILE", fmt.Sprintf("%du", light.MaxNumLightsPerTileCap)},
		{"MAX_NUM_VPLS_PER_TILE", fmt.Sprintf("%du", light.MaxNumVPLsPerTileCap)},
		{"LIGHT_LIST_SIZE", fmt.Sprintf("%du", 2*light.MaxNumLightsPerTileCap)},
		{"VPL_LIST_SIZE", fmt.Sprintf("%du", 2*light.MaxNumVPLsPerTileCap)},
		{"OVERFLOW_WORDS_PER_TILE", fmt.Sprintf("%du", light.OverflowWordsPerTile)},
		{"FLT_MAX", "3.40282346638528859811704183484516925440e+38f"},
		{"FLT_MAX_BITS", fmt.Sprintf("0x%Xu", math.Float32bits(math.MaxFloat32))},
		{"CULL_FLAG_VPLS", fmt.Sprintf("%du", light.CullFlagVPLs)},
		{"CULL_FLAG_BLENDED", fmt.Sprintf("%du", light.CullFlagBlended)},
	}
	for _, c := range consts {
		fmt.Fprintf(&sb, "const %s = %s;\n", c.name, c.value)
	}
	return sb.String()
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines)+16)
	out = append(out, Prelude())

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			src, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @tile:include argument %q", i+1, a.Args[0])
			}
			out = append(out, src)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
