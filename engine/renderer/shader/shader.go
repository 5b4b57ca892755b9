package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment stage of a render pipeline, paired with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	bindings      *BindingTable
	vertexLayouts map[int][]wgpu.VertexBufferLayout
	workGroupSize [3]uint32
	entryPoint    string
	module        *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed and reflected WGSL shader stage. It exposes the named bind points the
// stage declares along with everything needed to create its pipeline.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with annotations expanded
	Source() string

	// Bindings returns the reflected bind point table of this stage.
	//
	// Returns:
	//   - *BindingTable: every @group/@binding declaration, keyed by variable name
	Bindings() *BindingTable

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a single group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors builds the bind group layout descriptors of this stage alone.
	// Pipelines with several stages use the merged table of the pipeline instead.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if the slot is not declared
	BindGroupVarName(group, binding int) string

	// VertexLayout retrieves the vertex buffer layout for a specific key.
	//
	// Parameters:
	//   - key: the integer key identifying the vertex layout
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layout associated with the key, or nil if not set
	VertexLayout(key int) []wgpu.VertexBufferLayout

	// VertexLayouts retrieves all vertex buffer layouts parsed from a vertex shader.
	//
	// Returns:
	//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by their order in the source
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size of a compute shader, [0, 0, 0] for render stages.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the wgpu.ShaderModuleDescriptor built from the pre-processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// Declarations returns the @pso: annotations parsed from the shader source, in source order.
	//
	// Returns:
	//   - []Annotation: the texture/sampler pair declarations
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader reads, pre-processes and reflects a WGSL shader from disk. It panics if the file cannot be read
// or the shader is invalid; use ParseShader to handle those errors.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the shader is compiled for
//   - sourcePath: the file path to read WGSL source from
//
// Returns:
//   - Shader: the reflected shader
func NewShader(key string, shaderType ShaderType, sourcePath string) Shader {
	if sourcePath == "" {
		panic(fmt.Sprintf("shader: %s must have a valid source path", key))
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to read source file %q: %v", sourcePath, err))
	}
	s, err := ParseShader(key, shaderType, string(data))
	if err != nil {
		panic(fmt.Sprintf("shader: %v", err))
	}
	return s
}

// ParseShader pre-processes and reflects WGSL source held in memory.
//
// Parameters:
//   - key: a unique identifier for the shader, also used as the module label
//   - shaderType: the stage the shader is compiled for
//   - source: the raw WGSL source, @pso: annotations included
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if an annotation is malformed, the WGSL does not compile, the stage has no entry point,
//     or the declarations conflict
func ParseShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:           key,
		shaderType:    shaderType,
		vertexLayouts: make(map[int][]wgpu.VertexBufferLayout),
		pp:            NewPreProcessor(),
	}

	processed, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-process shader %s: %w", key, err)
	}
	s.source = processed

	refl, err := reflectSource(processed, shaderType)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect shader %s: %w", key, err)
	}
	s.entryPoint = refl.entryPoint
	s.workGroupSize = refl.workgroupSize

	s.bindings, err = NewBindingTable(refl.bindings, s.pp.Pairs())
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	for texture, sampler := range s.pp.Pairs() {
		if _, ok := s.bindings.Lookup(texture); !ok {
			return nil, fmt.Errorf("shader %s: paired texture %q is not declared", key, texture)
		}
		if _, ok := s.bindings.Lookup(sampler); !ok {
			return nil, fmt.Errorf("shader %s: paired sampler %q is not declared", key, sampler)
		}
	}

	if shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(processed)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: processed,
		},
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Bindings() *BindingTable {
	return s.bindings
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindings.LayoutDescriptors()[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindings.LayoutDescriptors()
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if group < 0 || binding < 0 {
		return ""
	}
	b, ok := s.bindings.At(uint32(group), uint32(binding))
	if !ok {
		return ""
	}
	return b.Name
}

func (s *shader) VertexLayout(key int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[key]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}
