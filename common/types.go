// package common contains plain data types shared by the resource, renderer and example packages. They are not
// interface-wrapped structs, just values that describe GPU resources before they are created.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a shader resource texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Validate reports whether the pixel data matches the declared dimensions.
//
// Returns:
//   - error: an error if the texture is empty or the pixel slice has the wrong length
func (t TextureStagingData) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture has zero extent %dx%d", t.Width, t.Height)
	}
	if want := int(t.Width) * int(t.Height) * 4; len(t.Pixels) != want {
		return fmt.Errorf("texture %dx%d expects %d bytes of RGBA data, got %d", t.Width, t.Height, want, len(t.Pixels))
	}
	return nil
}

// FilterMethod selects how texels are filtered when a texture is sampled.
type FilterMethod int

const (
	// FilterScale uses nearest filtering for magnification, minification and mip selection.
	FilterScale FilterMethod = iota
	// FilterMipmap uses nearest texel filtering with linear blending between mip levels.
	FilterMipmap
	// FilterBilinear uses linear texel filtering and nearest mip selection.
	FilterBilinear
	// FilterTrilinear uses linear texel filtering and linear blending between mip levels.
	FilterTrilinear
	// FilterAnisotropic uses trilinear filtering with the anisotropy level given to NewAnisotropicSamplerInfo.
	FilterAnisotropic
)

// WrapMode selects how texture coordinates outside [0, 1] are resolved.
type WrapMode int

const (
	// WrapTile repeats the texture.
	WrapTile WrapMode = iota
	// WrapMirror repeats the texture, mirroring every other repetition.
	WrapMirror
	// WrapClamp clamps coordinates to the edge texels.
	WrapClamp
)

// SamplerInfo holds the configuration for a sampler binding pending GPU creation.
// Zero-valued fields fall back to the defaults applied by Descriptor.
type SamplerInfo struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping and similar techniques.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// NewSamplerInfo builds a SamplerInfo from a filter method and a wrap mode applied to all three axes.
//
// Parameters:
//   - filter: the filter method to use
//   - wrap: the wrap mode applied to U, V and W
//
// Returns:
//   - SamplerInfo: the sampler configuration
func NewSamplerInfo(filter FilterMethod, wrap WrapMode) SamplerInfo {
	address := wrapAddressMode(wrap)
	info := SamplerInfo{
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MaxAnisotropy: 1,
	}
	switch filter {
	case FilterScale:
		info.MagFilter, info.MinFilter, info.MipmapFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	case FilterMipmap:
		info.MagFilter, info.MinFilter, info.MipmapFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear
	case FilterBilinear:
		info.MagFilter, info.MinFilter, info.MipmapFilter = wgpu.FilterModeLinear, wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest
	case FilterTrilinear, FilterAnisotropic:
		info.MagFilter, info.MinFilter, info.MipmapFilter = wgpu.FilterModeLinear, wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear
	}
	return info
}

// NewAnisotropicSamplerInfo builds a trilinear SamplerInfo with the given maximum anisotropy.
// WebGPU caps anisotropy at 16; larger values are clamped.
//
// Parameters:
//   - maxAnisotropy: the anisotropy level, 1 disables anisotropic filtering
//   - wrap: the wrap mode applied to U, V and W
//
// Returns:
//   - SamplerInfo: the sampler configuration
func NewAnisotropicSamplerInfo(maxAnisotropy uint16, wrap WrapMode) SamplerInfo {
	info := NewSamplerInfo(FilterAnisotropic, wrap)
	info.MaxAnisotropy = min(max(maxAnisotropy, 1), 16)
	return info
}

// Descriptor converts the SamplerInfo into a wgpu.SamplerDescriptor with defaults applied to any zero fields
// (repeat addressing, linear filtering, LOD clamp [0, 32], anisotropy 1). The descriptor is comparable and is
// used as the sampler cache key.
//
// Parameters:
//   - label: the debug label of the sampler
//
// Returns:
//   - wgpu.SamplerDescriptor: the descriptor to create the GPU sampler with
func (s SamplerInfo) Descriptor(label string) wgpu.SamplerDescriptor {
	return wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: Coalesce(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	}
}

func wrapAddressMode(wrap WrapMode) wgpu.AddressMode {
	switch wrap {
	case WrapMirror:
		return wgpu.AddressModeMirrorRepeat
	case WrapClamp:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

// ImportedTexture represents image data used to build a shader resource texture.
// For embedded textures the Data field contains raw image bytes; otherwise Path names a file on disk.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "t_Color").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// Sampler holds sampler parameters to pair with this texture.
	// When nil, callers fall back to the default linear/repeat settings.
	Sampler *SamplerInfo
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - TextureStagingData: RGBA pixel data (4 bytes per pixel, row-major order) with its dimensions
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return TextureStagingData{}, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(t.Width),
		Height: uint32(t.Height),
	}, nil
}
