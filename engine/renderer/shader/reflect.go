package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// reflection is everything the shader constructor learns from a WGSL source.
type reflection struct {
	bindings      []Binding
	entryPoint    string
	workgroupSize [3]uint32
}

// lowerWGSL parses WGSL source and lowers it to the naga IR.
//
// Parameters:
//   - source: the pre-processed WGSL source
//
// Returns:
//   - *ir.Module: the lowered module
//   - error: the parse or lowering error, with source positions when available
func lowerWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WGSL: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("failed to lower WGSL: %w", err)
	}
	return module, nil
}

// reflectSource lowers the source and reflects the bind points and the entry point of the requested stage.
// Resources are classified from the IR; the textual declarations fill in storage access, texel formats and
// sample types, and the struct layouts give buffer binding sizes.
//
// Parameters:
//   - source: the pre-processed WGSL source
//   - shaderType: the stage whose entry point is reflected and whose visibility the bindings get
//
// Returns:
//   - reflection: the reflected bindings, entry point and workgroup size
//   - error: an error if the source does not compile, the stage has no entry point, or a binding cannot be classified
func reflectSource(source string, shaderType ShaderType) (reflection, error) {
	module, err := lowerWGSL(source)
	if err != nil {
		return reflection{}, err
	}

	var out reflection
	stage, visibility := stageOf(shaderType)
	found := false
	for _, ep := range module.EntryPoints {
		if ep.Stage != stage {
			continue
		}
		out.entryPoint = ep.Name
		if shaderType == ShaderTypeCompute {
			out.workgroupSize = ep.Workgroup
			for i, v := range out.workgroupSize {
				if v == 0 {
					out.workgroupSize[i] = 1
				}
			}
		}
		found = true
		break
	}
	if !found {
		return reflection{}, fmt.Errorf("no %s entry point", shaderType)
	}

	decls := parseBindingDecls(source)
	structSizes := computeStructSizes(parseStructBlocks(stripComments(source)))

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		if int(gv.Type) >= len(module.Types) {
			return reflection{}, fmt.Errorf("binding %q refers to unknown type %d", gv.Name, gv.Type)
		}
		b := Binding{
			Name:       gv.Name,
			Group:      gv.Binding.Group,
			Binding:    gv.Binding.Binding,
			Visibility: visibility,
		}
		decl, hasDecl := decls[gv.Name]
		if err := classifyGlobal(&b, gv.Space, module.Types[gv.Type].Inner, decl, hasDecl); err != nil {
			return reflection{}, fmt.Errorf("binding %q: %w", gv.Name, err)
		}
		if b.Type.IsBuffer() {
			b.MinBindingSize = bufferBindingSize(module, gv.Type, decl, hasDecl, structSizes)
		}
		out.bindings = append(out.bindings, b)
	}
	return out, nil
}

// classifyGlobal fills the type-specific fields of a binding from its IR type and address space.
func classifyGlobal(b *Binding, space ir.AddressSpace, inner ir.TypeInner, decl bindingDecl, hasDecl bool) error {
	switch t := inner.(type) {
	case ir.SamplerType:
		b.Type = BindingTypeSampler
		if t.Comparison {
			b.Type = BindingTypeComparisonSampler
		}
		return nil
	case ir.ImageType:
		b.ViewDimension = viewDimensionOf(t.Dim, t.Arrayed)
		b.Multisampled = t.Multisampled
		switch t.Class {
		case ir.ImageClassDepth:
			b.Type = BindingTypeDepthTexture
			b.SampleType = wgpu.TextureSampleTypeDepth
		case ir.ImageClassStorage:
			if !hasDecl {
				return fmt.Errorf("storage texture declaration not found")
			}
			format, access, err := storageTexelOf(decl.typeName)
			if err != nil {
				return err
			}
			b.Type = BindingTypeStorageTexture
			b.Format, b.Access = format, access
		default:
			b.Type = BindingTypeSampledTexture
			b.SampleType = wgpu.TextureSampleTypeFloat
			if hasDecl {
				b.SampleType = sampleTypeOf(decl.typeName)
			}
		}
		return nil
	}

	switch space {
	case ir.SpaceUniform:
		b.Type = BindingTypeUniformBuffer
	case ir.SpaceStorage:
		b.Type = BindingTypeReadOnlyStorageBuffer
		if hasDecl && storageReadWrite(decl.addressSpace) {
			b.Type = BindingTypeStorageBuffer
		}
	default:
		return fmt.Errorf("unsupported resource in address space %d", space)
	}
	return nil
}

// bufferBindingSize sizes a buffer binding from the textual struct layouts, falling back to the IR span.
func bufferBindingSize(module *ir.Module, handle ir.TypeHandle, decl bindingDecl, hasDecl bool, structSizes map[string]wgslTypeLayout) uint64 {
	if hasDecl {
		if layout, ok := resolveTypeLayout(decl.typeName, structSizes); ok && layout.size > 0 {
			return layout.size
		}
	}
	switch t := module.Types[handle].Inner.(type) {
	case ir.StructType:
		return uint64(t.Span)
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return uint64(*t.Size.Constant) * uint64(t.Stride)
		}
		return uint64(t.Stride)
	}
	return 0
}

func viewDimensionOf(dim ir.ImageDimension, arrayed bool) wgpu.TextureViewDimension {
	switch dim {
	case ir.Dim1D:
		return wgpu.TextureViewDimension1D
	case ir.Dim3D:
		return wgpu.TextureViewDimension3D
	case ir.DimCube:
		if arrayed {
			return wgpu.TextureViewDimensionCubeArray
		}
		return wgpu.TextureViewDimensionCube
	default:
		if arrayed {
			return wgpu.TextureViewDimension2DArray
		}
		return wgpu.TextureViewDimension2D
	}
}

// stageOf maps a shader type to the IR stage and the wgpu visibility flag.
func stageOf(shaderType ShaderType) (ir.ShaderStage, wgpu.ShaderStage) {
	switch shaderType {
	case ShaderTypeVertex:
		return ir.StageVertex, wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return ir.StageFragment, wgpu.ShaderStageFragment
	default:
		return ir.StageCompute, wgpu.ShaderStageCompute
	}
}
