package shader

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindingType classifies a shader bind point by the kind of GPU resource it expects.
type BindingType int

const (
	// BindingTypeUniformBuffer is a var<uniform> buffer.
	BindingTypeUniformBuffer BindingType = iota

	// BindingTypeStorageBuffer is a var<storage, read_write> buffer.
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a var<storage> or var<storage, read> buffer.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeSampler is a filtering sampler.
	BindingTypeSampler

	// BindingTypeComparisonSampler is a sampler_comparison.
	BindingTypeComparisonSampler

	// BindingTypeSampledTexture is a sampled texture_* binding, including multisampled textures.
	BindingTypeSampledTexture

	// BindingTypeDepthTexture is a texture_depth_* binding.
	BindingTypeDepthTexture

	// BindingTypeStorageTexture is a texture_storage_* binding.
	BindingTypeStorageTexture
)

func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform buffer"
	case BindingTypeStorageBuffer:
		return "storage buffer"
	case BindingTypeReadOnlyStorageBuffer:
		return "read-only storage buffer"
	case BindingTypeSampler:
		return "sampler"
	case BindingTypeComparisonSampler:
		return "comparison sampler"
	case BindingTypeSampledTexture:
		return "sampled texture"
	case BindingTypeDepthTexture:
		return "depth texture"
	case BindingTypeStorageTexture:
		return "storage texture"
	default:
		return fmt.Sprintf("BindingType(%d)", int(t))
	}
}

// IsBuffer reports whether the binding type is backed by a buffer.
func (t BindingType) IsBuffer() bool {
	return t == BindingTypeUniformBuffer || t == BindingTypeStorageBuffer || t == BindingTypeReadOnlyStorageBuffer
}

// IsSampler reports whether the binding type is a sampler.
func (t BindingType) IsSampler() bool {
	return t == BindingTypeSampler || t == BindingTypeComparisonSampler
}

// IsTexture reports whether the binding type is backed by a texture view.
func (t BindingType) IsTexture() bool {
	return t == BindingTypeSampledTexture || t == BindingTypeDepthTexture || t == BindingTypeStorageTexture
}

// Binding describes a single @group/@binding resource declared by a shader.
type Binding struct {
	// Name is the WGSL variable name of the declaration.
	Name string

	// Group is the @group index.
	Group uint32

	// Binding is the @binding index within the group.
	Binding uint32

	// Type classifies the resource the bind point expects.
	Type BindingType

	// Visibility is the set of shader stages that declare the binding.
	Visibility wgpu.ShaderStage

	// ViewDimension is the texture view dimension for texture bindings.
	ViewDimension wgpu.TextureViewDimension

	// SampleType is the texture sample type for sampled and depth texture bindings.
	SampleType wgpu.TextureSampleType

	// Multisampled is true for texture_multisampled_2d and texture_depth_multisampled_2d.
	Multisampled bool

	// Access is the storage texture access mode.
	Access wgpu.StorageTextureAccess

	// Format is the storage texture texel format.
	Format wgpu.TextureFormat

	// MinBindingSize is the byte size of the bound buffer type, or the element stride for runtime-sized arrays.
	MinBindingSize uint64
}

// Writable reports whether the shader may write through the binding.
//
// Returns:
//   - bool: true for read_write storage buffers and storage textures with write or read_write access
func (b Binding) Writable() bool {
	switch b.Type {
	case BindingTypeStorageBuffer:
		return true
	case BindingTypeStorageTexture:
		return b.Access == wgpu.StorageTextureAccessWriteOnly || b.Access == wgpu.StorageTextureAccessReadWrite
	default:
		return false
	}
}

// LayoutEntry converts the binding into the bind group layout entry used to create the GPU layout.
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry with the resource-specific fields populated
func (b Binding) LayoutEntry() wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: b.Visibility,
	}
	switch b.Type {
	case BindingTypeUniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinBindingSize
	case BindingTypeStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Buffer.MinBindingSize = b.MinBindingSize
	case BindingTypeReadOnlyStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = b.MinBindingSize
	case BindingTypeSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case BindingTypeComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case BindingTypeSampledTexture, BindingTypeDepthTexture:
		entry.Texture.SampleType = b.SampleType
		entry.Texture.ViewDimension = b.ViewDimension
		entry.Texture.Multisampled = b.Multisampled
	case BindingTypeStorageTexture:
		entry.StorageTexture.Access = b.Access
		entry.StorageTexture.Format = b.Format
		entry.StorageTexture.ViewDimension = b.ViewDimension
	}
	return entry
}

// sameResource reports whether two declarations of one slot describe the same resource, ignoring visibility.
func (b Binding) sameResource(o Binding) bool {
	b.Visibility, o.Visibility = 0, 0
	return b == o
}

// slot packs a group and binding index into a single map key.
type slot struct {
	group, binding uint32
}

// BindingTable is the reflected set of named bind points of one or more shader stages.
// A table is immutable once built.
type BindingTable struct {
	bindings []Binding
	byName   map[string]int
	bySlot   map[slot]int
	pairs    map[string]string
}

// NewBindingTable builds a table from a list of bindings and the texture/sampler pairs declared by annotations.
// Names must be unique and no two bindings may share a group/binding slot.
//
// Parameters:
//   - bindings: the reflected bind points
//   - pairs: sampler variable names keyed by texture variable name, may be nil
//
// Returns:
//   - *BindingTable: the table with bindings sorted by (group, binding)
//   - error: an error if a name or a slot is declared twice
func NewBindingTable(bindings []Binding, pairs map[string]string) (*BindingTable, error) {
	t := &BindingTable{
		bindings: make([]Binding, len(bindings)),
		byName:   make(map[string]int, len(bindings)),
		bySlot:   make(map[slot]int, len(bindings)),
		pairs:    make(map[string]string, len(pairs)),
	}
	copy(t.bindings, bindings)
	sort.SliceStable(t.bindings, func(i, j int) bool {
		if t.bindings[i].Group != t.bindings[j].Group {
			return t.bindings[i].Group < t.bindings[j].Group
		}
		return t.bindings[i].Binding < t.bindings[j].Binding
	})
	for i, b := range t.bindings {
		if _, dup := t.byName[b.Name]; dup {
			return nil, fmt.Errorf("binding %q declared more than once", b.Name)
		}
		s := slot{b.Group, b.Binding}
		if j, dup := t.bySlot[s]; dup {
			return nil, fmt.Errorf("group %d binding %d declared by both %q and %q", b.Group, b.Binding, t.bindings[j].Name, b.Name)
		}
		t.byName[b.Name] = i
		t.bySlot[s] = i
	}
	for texture, sampler := range pairs {
		t.pairs[texture] = sampler
	}
	return t, nil
}

// Lookup finds the binding declared under a variable name.
//
// Parameters:
//   - name: the WGSL variable name
//
// Returns:
//   - Binding: the binding, or the zero value if absent
//   - bool: true if the name is declared
func (t *BindingTable) Lookup(name string) (Binding, bool) {
	if t == nil {
		return Binding{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return Binding{}, false
	}
	return t.bindings[i], true
}

// At finds the binding declared at a group/binding slot.
//
// Parameters:
//   - group: the @group index
//   - binding: the @binding index
//
// Returns:
//   - Binding: the binding, or the zero value if the slot is empty
//   - bool: true if the slot is declared
func (t *BindingTable) At(group, binding uint32) (Binding, bool) {
	if t == nil {
		return Binding{}, false
	}
	i, ok := t.bySlot[slot{group, binding}]
	if !ok {
		return Binding{}, false
	}
	return t.bindings[i], true
}

// Bindings returns a copy of every binding in the table sorted by (group, binding).
//
// Returns:
//   - []Binding: the bindings
func (t *BindingTable) Bindings() []Binding {
	if t == nil {
		return nil
	}
	out := make([]Binding, len(t.bindings))
	copy(out, t.bindings)
	return out
}

// Len returns the number of bindings in the table.
func (t *BindingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bindings)
}

// PairedSampler returns the sampler variable an annotation paired with a texture variable.
//
// Parameters:
//   - texture: the texture variable name
//
// Returns:
//   - string: the paired sampler variable name
//   - bool: true if an annotation declared the pair
func (t *BindingTable) PairedSampler(texture string) (string, bool) {
	if t == nil {
		return "", false
	}
	s, ok := t.pairs[texture]
	return s, ok
}

// Groups returns the distinct group indices in ascending order.
func (t *BindingTable) Groups() []uint32 {
	if t == nil {
		return nil
	}
	var groups []uint32
	for _, b := range t.bindings {
		if len(groups) == 0 || groups[len(groups)-1] != b.Group {
			groups = append(groups, b.Group)
		}
	}
	return groups
}

// LayoutDescriptors builds one bind group layout descriptor per group, entries sorted by binding.
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
func (t *BindingTable) LayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	out := make(map[int]wgpu.BindGroupLayoutDescriptor)
	if t == nil {
		return out
	}
	for _, b := range t.bindings {
		desc := out[int(b.Group)]
		desc.Entries = append(desc.Entries, b.LayoutEntry())
		out[int(b.Group)] = desc
	}
	return out
}

// MergeBindingTables combines the tables of the stages of one pipeline. A name declared in several stages at
// the same slot with the same resource type becomes one binding visible to all of those stages.
//
// Parameters:
//   - tables: the per-stage tables, nil tables are skipped
//
// Returns:
//   - *BindingTable: the merged table
//   - error: an error if a name moves between slots, a slot changes type, two names share a slot, or a texture
//     is paired with different samplers
func MergeBindingTables(tables ...*BindingTable) (*BindingTable, error) {
	var merged []Binding
	byName := make(map[string]int)
	bySlot := make(map[slot]string)
	pairs := make(map[string]string)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, b := range t.bindings {
			s := slot{b.Group, b.Binding}
			if i, ok := byName[b.Name]; ok {
				prev := merged[i]
				if prev.Group != b.Group || prev.Binding != b.Binding {
					return nil, fmt.Errorf("binding %q declared at group %d binding %d and at group %d binding %d",
						b.Name, prev.Group, prev.Binding, b.Group, b.Binding)
				}
				if !prev.sameResource(b) {
					return nil, fmt.Errorf("binding %q declared as %s and as %s", b.Name, prev.Type, b.Type)
				}
				merged[i].Visibility |= b.Visibility
				continue
			}
			if other, ok := bySlot[s]; ok {
				return nil, fmt.Errorf("group %d binding %d declared by both %q and %q", b.Group, b.Binding, other, b.Name)
			}
			byName[b.Name] = len(merged)
			bySlot[s] = b.Name
			merged = append(merged, b)
		}
		for texture, sampler := range t.pairs {
			if prev, ok := pairs[texture]; ok && prev != sampler {
				return nil, fmt.Errorf("texture %q paired with both %q and %q", texture, prev, sampler)
			}
			pairs[texture] = sampler
		}
	}
	return NewBindingTable(merged, pairs)
}
