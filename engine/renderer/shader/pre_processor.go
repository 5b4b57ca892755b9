// pre_processor.go implements the WGSL shader pre-processor. It scans shader source code for
// @pso: annotations, replaces texture_sampler annotations with generated WGSL declarations and
// collects the texture/sampler pairs declared by every annotation.
package shader

import (
	"fmt"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// declarations accumulates annotations during a Process call. Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @pso: annotations,
// replacing them with generated declarations while collecting the declared texture/sampler pairs.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and pre-processes it. texture_sampler annotations
	// are replaced with a texture declaration and a sampler declaration; pair annotations produce no
	// WGSL output. Both are recorded in the declarations list.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or a texture is paired twice
	Process(source string) (string, error)

	// Declarations returns the annotations collected during the most recent call to Process, in source-order.
	// Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation

	// Pairs returns the texture to sampler variable pairs declared during the most recent call to Process.
	//
	// Returns:
	//   - map[string]string: sampler variable names keyed by texture variable name
	Pairs() map[string]string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new, empty PreProcessor.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	paired := make(map[string]int)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}
		if first, dup := paired[a.Texture]; dup {
			return "", fmt.Errorf("line %d: texture %q is already paired on line %d", i+1, a.Texture, first)
		}
		paired[a.Texture] = i + 1

		switch a.Type {
		case AnnotationTypeTextureSampler:
			samplerType := "sampler"
			if a.Comparison {
				samplerType = "sampler_comparison"
			}
			out = append(out,
				fmt.Sprintf("@group(%d) @binding(%d) var %s: %s;", *a.Group, *a.Binding, a.Texture, a.TextureType),
				fmt.Sprintf("@group(%d) @binding(%d) var %s: %s;", *a.Group, *a.Binding+1, a.Sampler, samplerType),
			)
		case AnnotationTypePair:
			out = append(out, line)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
		p.declarations = append(p.declarations, *a)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) Pairs() map[string]string {
	pairs := make(map[string]string, len(p.declarations))
	for _, d := range p.declarations {
		pairs[d.Texture] = d.Sampler
	}
	return pairs
}
