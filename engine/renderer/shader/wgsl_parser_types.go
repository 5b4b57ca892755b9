package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo pairs a wgpu vertex format with its byte size for attribute offsets.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslTypeLayout is the byte size and alignment of a host-shareable WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// bindingDecl is the textual form of one @group/@binding declaration. It carries the parts of a
// declaration the IR does not keep: the access mode of storage buffers, the texel format and access
// of storage textures, and the sampled scalar type of textures.
type bindingDecl struct {
	group        uint32
	binding      uint32
	addressSpace string
	typeName     string
}

// parsedField is a single member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}
