// Package resource declares the non-buffer resources a pipeline expects by name, links those declarations
// against the bind points reflected from the pipeline's shaders, and resolves runtime data into bind group entries.
//
// There are four component kinds:
//   - Sampler binds a sampler.
//   - ShaderResource binds a read-only view of a texture or buffer.
//   - TextureSampler binds a texture view and the sampler paired with it.
//   - UnorderedAccess binds a writable view of a texture or buffer. Writes through it are not ordered
//     between invocations; synchronizing them is left to the caller.
package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"
)

// Kind identifies one of the four resource components.
type Kind int

const (
	// KindSampler is a standalone sampler.
	KindSampler Kind = iota

	// KindShaderResource is a read-only texture or buffer view.
	KindShaderResource

	// KindTextureSampler is a texture view combined with a sampler under one name.
	KindTextureSampler

	// KindUnorderedAccess is a writable texture or buffer view.
	KindUnorderedAccess
)

func (k Kind) String() string {
	switch k {
	case KindSampler:
		return "Sampler"
	case KindShaderResource:
		return "ShaderResource"
	case KindTextureSampler:
		return "TextureSampler"
	case KindUnorderedAccess:
		return "UnorderedAccess"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// component is the implementation of the Component interface.
type component struct {
	name string
	kind Kind
}

// Component is a named resource declaration of a pipeline. Components hold no data; the data is
// supplied per draw through a DataSet.
type Component interface {
	// Name returns the shader variable name the component binds.
	//
	// Returns:
	//   - string: the component name
	Name() string

	// Kind returns which of the four resource components this is.
	//
	// Returns:
	//   - Kind: the component kind
	Kind() Kind

	// Link resolves the component against the bind points of a pipeline. A name the shaders never
	// declare yields an inactive Meta and no error.
	//
	// Parameters:
	//   - table: the merged binding table of the pipeline's shaders
	//
	// Returns:
	//   - Meta: the resolved slots of the component
	//   - error: ErrKindMismatch if the bind point expects another kind of resource, ErrMissingSampler if a
	//     texture sampler has no sampler to pair with
	Link(table *shader.BindingTable) (Meta, error)
}

var _ Component = &component{}

// NewSampler declares a sampler bound under name.
//
// Parameters:
//   - name: the WGSL sampler variable name
//
// Returns:
//   - Component: the sampler component
func NewSampler(name string) Component {
	return newComponent(name, KindSampler)
}

// NewShaderResource declares a read-only texture or buffer view bound under name.
//
// Parameters:
//   - name: the WGSL variable name of the texture or read-only storage buffer
//
// Returns:
//   - Component: the shader resource component
func NewShaderResource(name string) Component {
	return newComponent(name, KindShaderResource)
}

// NewTextureSampler declares a texture and its sampler bound under one name. The texture is the variable
// called name; the sampler is the one paired with it by a @pso: annotation, or else the variable called
// name + "_sampler".
//
// Parameters:
//   - name: the WGSL texture variable name
//
// Returns:
//   - Component: the texture sampler component
func NewTextureSampler(name string) Component {
	return newComponent(name, KindTextureSampler)
}

// NewUnorderedAccess declares a writable texture or buffer view bound under name.
//
// Parameters:
//   - name: the WGSL variable name of the storage texture or read_write storage buffer
//
// Returns:
//   - Component: the unordered access component
func NewUnorderedAccess(name string) Component {
	return newComponent(name, KindUnorderedAccess)
}

func newComponent(name string, kind Kind) *component {
	if name == "" {
		panic(fmt.Sprintf("resource: %s component must have a name", kind))
	}
	return &component{name: name, kind: kind}
}

func (c *component) Name() string {
	return c.name
}

func (c *component) Kind() Kind {
	return c.kind
}

func (c *component) Link(table *shader.BindingTable) (Meta, error) {
	meta := Meta{Name: c.name, Kind: c.kind}

	b, ok := table.Lookup(c.name)
	if !ok {
		return meta, nil
	}
	if !accepts(c.kind, b) {
		return Meta{}, fmt.Errorf("%w: %s %q is declared as a %s", ErrKindMismatch, c.kind, c.name, b.Type)
	}
	if c.kind == KindSampler {
		meta.Slots = append(meta.Slots, slotOf(b, RoleSampler))
		return meta, nil
	}
	meta.Slots = append(meta.Slots, slotOf(b, RoleView))
	if c.kind != KindTextureSampler {
		return meta, nil
	}

	samplerName, paired := table.PairedSampler(c.name)
	if !paired {
		samplerName = c.name + shader.SamplerSuffix
	}
	s, ok := table.Lookup(samplerName)
	if !ok {
		return Meta{}, fmt.Errorf("%w: %s %q expects sampler %q", ErrMissingSampler, c.kind, c.name, samplerName)
	}
	if !s.Type.IsSampler() {
		return Meta{}, fmt.Errorf("%w: sampler %q of %s %q is declared as a %s", ErrKindMismatch, samplerName, c.kind, c.name, s.Type)
	}
	meta.Slots = append(meta.Slots, slotOf(s, RoleSampler))
	return meta, nil
}

// accepts reports whether a bind point can hold the resource of a component kind.
func accepts(kind Kind, b shader.Binding) bool {
	switch kind {
	case KindSampler:
		return b.Type.IsSampler()
	case KindShaderResource:
		switch b.Type {
		case shader.BindingTypeSampledTexture, shader.BindingTypeDepthTexture, shader.BindingTypeReadOnlyStorageBuffer:
			return true
		case shader.BindingTypeStorageTexture:
			return !b.Writable()
		}
		return false
	case KindTextureSampler:
		return b.Type == shader.BindingTypeSampledTexture || b.Type == shader.BindingTypeDepthTexture
	case KindUnorderedAccess:
		return b.Writable()
	default:
		return false
	}
}
