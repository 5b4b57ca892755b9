package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap holds the size and alignment of WGSL scalar, vector, matrix and atomic types.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},
	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},
	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},
	"vec2<f16>": {4, 4},
	"vec2h":     {4, 4},
	"vec4<f16>": {8, 8},
	"vec4h":     {8, 8},

	"mat2x2<f32>": {16, 8},
	"mat2x2f":     {16, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
	"mat2x4<f32>": {32, 16},
	"mat3x4<f32>": {48, 16},
	"mat4x3<f32>": {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a type name against the primitive table and the structs resolved so far.
// A runtime-sized array resolves to the stride of one element, which is the smallest useful binding.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "vec4f", "Globals", "array<Light, 4>" or "array<f32>"
//   - known: struct layouts resolved so far
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false if the type or one of its parts is unknown
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	parts := splitAtTopLevelCommas(strings.TrimSuffix(inner, ">"))
	elem, ok := resolveTypeLayout(strings.TrimSpace(parts[0]), known)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if len(parts) == 1 {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// isRuntimeArray reports whether a type name is an unsized array<T>.
func isRuntimeArray(typeName string) bool {
	inner, ok := strings.CutPrefix(typeName, "array<")
	return ok && len(splitAtTopLevelCommas(strings.TrimSuffix(inner, ">"))) == 1
}

// computeStructLayout lays a struct out by the WGSL rules. A trailing runtime-sized array contributes
// nothing past its offset, except when it is the only member, in which case one element is counted.
func computeStructLayout(ps parsedStruct, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)

	for i, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		maxAlign = max(maxAlign, layout.align)
		offset = roundUpAlign(layout.align, offset)
		if isRuntimeArray(field.typeName) && i == len(ps.fields)-1 && offset > 0 {
			return wgslTypeLayout{offset, maxAlign}, true
		}
		offset += layout.size
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves every struct, repeating passes until nested structs stop resolving.
//
// Parameters:
//   - structs: the struct blocks of a shader
//
// Returns:
//   - map[string]wgslTypeLayout: layouts keyed by struct name
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

// storageReadWrite reports whether a storage address space qualifier grants write access.
func storageReadWrite(addressSpace string) bool {
	_, access, _ := strings.Cut(addressSpace, ",")
	return strings.TrimSpace(access) == "read_write"
}

// sampleTypeOf reads the sample type from a texture type parameter, defaulting to float.
func sampleTypeOf(typeName string) wgpu.TextureSampleType {
	_, param := splitTypeParams(typeName)
	if st, ok := wgslSampleTypeMap[param]; ok {
		return st
	}
	return wgpu.TextureSampleTypeFloat
}

// storageTexelOf reads the texel format and access mode of a texture_storage_* type.
//
// Parameters:
//   - typeName: the storage texture type, e.g. "texture_storage_2d<rgba8unorm, write>"
//
// Returns:
//   - wgpu.TextureFormat: the texel format
//   - wgpu.StorageTextureAccess: the access mode
//   - error: an error if either parameter is missing or unknown
func storageTexelOf(typeName string) (wgpu.TextureFormat, wgpu.StorageTextureAccess, error) {
	_, params := splitTypeParams(typeName)
	formatStr, accessStr, ok := strings.Cut(params, ",")
	if !ok {
		return 0, 0, fmt.Errorf("storage texture %q needs a texel format and an access mode", typeName)
	}
	format, ok := wgslTexelFormatMap[strings.TrimSpace(formatStr)]
	if !ok {
		return 0, 0, fmt.Errorf("storage texture %q has unsupported texel format %q", typeName, strings.TrimSpace(formatStr))
	}
	access, ok := wgslStorageAccessMap[strings.TrimSpace(accessStr)]
	if !ok {
		return 0, 0, fmt.Errorf("storage texture %q has unknown access mode %q", typeName, strings.TrimSpace(accessStr))
	}
	return format, access, nil
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32"); unparameterized types return an empty parameter.
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

// stripComments removes line comments and nested block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if before, _, found := strings.Cut(line, "//"); found {
			line = before
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
					i++
					continue
				}
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits s at commas outside angle brackets, so "a: array<T, 4>, b: f32" yields two parts.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
