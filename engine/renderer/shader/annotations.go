// annotations.go defines the annotation types, arguments, and parser for the
// WGSL pre-processor. Annotations are single-line WGSL comments prefixed with
// @tile: that inject shared struct sources and name the role of each binding,
// so the backend can wire GPU buffers without matching variable names.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation within a WGSL comment line.
const annotationPrefix = "@tile:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct
	// definition at the annotation site. It is consumed entirely during
	// pre-processing.
	//
	// Syntax: //@tile:include <struct_type>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeProvider records the role of the hand-written binding
	// declared directly below it. It produces no WGSL output.
	//
	// Syntax: //@tile:provider <group> <binding> <role>
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is a single parsed @tile: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include:  [0] = struct type key
	//   - provider: [0] = binding role
	Args []AnnotationArg

	// Line is the 1-based source line, used for error reporting.
	Line int

	// Group is the @group index for provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for provider annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed annotation argument.
type AnnotationArg string

// Struct type arguments accepted by @tile:include.
const (
	// AnnotationArgCullUniforms identifies the CullUniforms struct.
	AnnotationArgCullUniforms AnnotationArg = "cull_uniforms"
)

// Binding roles accepted by @tile:provider.
const (
	AnnotationArgUniforms     AnnotationArg = "uniforms"
	AnnotationArgOpaqueDepth  AnnotationArg = "opaque_depth"
	AnnotationArgBlendedDepth AnnotationArg = "blended_depth"
	AnnotationArgPointSpheres AnnotationArg = "point_spheres"
	AnnotationArgSpotSpheres  AnnotationArg = "spot_spheres"
	AnnotationArgVPLSpheres   AnnotationArg = "vpl_spheres"
	AnnotationArgPointIndices AnnotationArg = "point_indices"
	AnnotationArgSpotIndices  AnnotationArg = "spot_indices"
	AnnotationArgVPLIndices   AnnotationArg = "vpl_indices"
	AnnotationArgTileOverflow AnnotationArg = "tile_overflow"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgCullUniforms,
}

var validBindingRoles = []AnnotationArg{
	AnnotationArgUniforms,
	AnnotationArgOpaqueDepth,
	AnnotationArgBlendedDepth,
	AnnotationArgPointSpheres,
	AnnotationArgSpotSpheres,
	AnnotationArgVPLSpheres,
	AnnotationArgPointIndices,
	AnnotationArgSpotIndices,
	AnnotationArgVPLIndices,
	AnnotationArgTileOverflow,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @tile:
// annotation. Lines without the prefix return nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @tile annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @tile include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @tile include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @tile provider annotation requires three arguments (group, binding, role)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @tile provider annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validBindingRoles, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown binding role %q in @tile provider annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @tile annotation type %q", lineNum, args[0])
	}
}
