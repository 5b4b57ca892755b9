// annotations.go defines the annotation types and parser for the WGSL pre-processor. Annotations are
// single-line WGSL comments prefixed with @pso: that declare combined texture/sampler slots. WGSL keeps
// textures and samplers in separate variables; the annotations let a shader expose one name for both
// halves so a single TextureSampler component can bind them.
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@pso:"

// SamplerSuffix is appended to a texture name to form the name of the sampler generated by a
// texture_sampler annotation, and is the fallback sampler name for unannotated TextureSampler links.
const SamplerSuffix = "_sampler"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeTextureSampler generates a texture declaration and a sampler declaration on the
	// next binding, and pairs them under the texture's name.
	//
	// Syntax: //@pso:texture_sampler <group> <binding> <name> <texture_type> [filtering|comparison]
	//
	// Example: //@pso:texture_sampler 1 0 t_Color texture_2d<f32>
	// expands to:
	//   @group(1) @binding(0) var t_Color: texture_2d<f32>;
	//   @group(1) @binding(1) var t_Color_sampler: sampler;
	AnnotationTypeTextureSampler AnnotationType = "texture_sampler"

	// AnnotationTypePair pairs a hand-written texture declaration with a hand-written sampler
	// declaration without generating any WGSL output.
	//
	// Syntax: //@pso:pair <texture_var> <sampler_var>
	//
	// Example: //@pso:pair shadowMap shadowCompare
	AnnotationTypePair AnnotationType = "pair"
)

// Annotation represents a single parsed @pso: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Texture is the texture variable name of the pair.
	Texture string

	// Sampler is the sampler variable name of the pair.
	Sampler string

	// TextureType is the WGSL texture type for texture_sampler annotations, empty for pair annotations.
	TextureType string

	// Comparison is true when a texture_sampler annotation generates a sampler_comparison.
	Comparison bool

	// Line is the 1-based line number in the original WGSL source where this annotation was found.
	Line int

	// Group is the @group index for texture_sampler annotations. Nil for pair annotations.
	Group *int

	// Binding is the texture's @binding index for texture_sampler annotations. Nil for pair annotations.
	Binding *int
}

// parseAnnotation attempts to parse a single line of WGSL source as a @pso: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or arguments.
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
		return nil, fmt.Errorf("line %d: empty @pso annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeTextureSampler:
		if len(args) != 5 && len(args) != 6 {
			return nil, fmt.Errorf("line %d: @pso texture_sampler annotation requires group, binding, name and texture type", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil || groupInt < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @pso texture_sampler annotation", lineNum, args[1])
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil || bindingInt < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @pso texture_sampler annotation", lineNum, args[2])
		}
		name := args[3]
		if !isIdentifier(name) {
			return nil, fmt.Errorf("line %d: invalid texture name %q in @pso texture_sampler annotation", lineNum, name)
		}
		textureType := args[4]
		if !strings.HasPrefix(textureType, "texture_") || strings.HasPrefix(textureType, "texture_storage_") {
			return nil, fmt.Errorf("line %d: %q is not a sampled texture type", lineNum, textureType)
		}
		comparison := false
		if len(args) == 6 {
			switch args[5] {
			case "filtering":
			case "comparison":
				comparison = true
			default:
				return nil, fmt.Errorf("line %d: unknown sampler kind %q in @pso texture_sampler annotation", lineNum, args[5])
			}
		}
		return &Annotation{
			Type:        AnnotationTypeTextureSampler,
			Texture:     name,
			Sampler:     name + SamplerSuffix,
			TextureType: textureType,
			Comparison:  comparison,
			Line:        lineNum,
			Group:       &groupInt,
			Binding:     &bindingInt,
		}, nil
	case AnnotationTypePair:
		if len(args) != 3 {
			return nil, fmt.Errorf("line %d: @pso pair annotation requires exactly two arguments (texture, sampler)", lineNum)
		}
		if !isIdentifier(args[1]) || !isIdentifier(args[2]) {
			return nil, fmt.Errorf("line %d: invalid variable name in @pso pair annotation", lineNum)
		}
		return &Annotation{
			Type:    AnnotationTypePair,
			Texture: args[1],
			Sampler: args[2],
			Line:    lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @pso annotation type %q", lineNum, args[0])
	}
}

// isIdentifier reports whether s is a valid WGSL identifier.
func isIdentifier(s string) bool {
	if s == "" || s == "_" || strings.HasPrefix(s, "__") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
