package resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Data is the runtime value bound to a component. Data only references GPU objects; the caller keeps
// ownership and must keep them alive while bind groups built from them are in use.
type Data interface {
	// Kind returns the component kind the data is meant for.
	Kind() Kind

	entries(meta Meta) ([]wgpu.BindGroupEntry, error)
}

// SamplerData is the data of a Sampler component.
type SamplerData struct {
	Sampler *wgpu.Sampler
}

// ShaderResourceView is the data of a ShaderResource component: a texture view, or a range of a buffer.
// A Size of zero binds the rest of the buffer.
type ShaderResourceView struct {
	TextureView *wgpu.TextureView
	Buffer      *wgpu.Buffer
	Offset      uint64
	Size        uint64
}

// UnorderedAccessView is the data of an UnorderedAccess component: a storage texture view, or a range of a
// buffer. A Size of zero binds the rest of the buffer.
type UnorderedAccessView struct {
	TextureView *wgpu.TextureView
	Buffer      *wgpu.Buffer
	Offset      uint64
	Size        uint64
}

// TextureSamplerData is the data of a TextureSampler component.
type TextureSamplerData struct {
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
}

var (
	_ Data = SamplerData{}
	_ Data = ShaderResourceView{}
	_ Data = UnorderedAccessView{}
	_ Data = TextureSamplerData{}
)

func (SamplerData) Kind() Kind         { return KindSampler }
func (ShaderResourceView) Kind() Kind  { return KindShaderResource }
func (UnorderedAccessView) Kind() Kind { return KindUnorderedAccess }
func (TextureSamplerData) Kind() Kind  { return KindTextureSampler }

func (d SamplerData) entries(meta Meta) ([]wgpu.BindGroupEntry, error) {
	slot, _ := meta.Slot(RoleSampler)
	e, err := samplerEntry(slot, d.Sampler)
	if err != nil {
		return nil, err
	}
	return []wgpu.BindGroupEntry{e}, nil
}

func (d ShaderResourceView) entries(meta Meta) ([]wgpu.BindGroupEntry, error) {
	slot, _ := meta.Slot(RoleView)
	e, err := view(d).entry(slot)
	if err != nil {
		return nil, err
	}
	return []wgpu.BindGroupEntry{e}, nil
}

func (d UnorderedAccessView) entries(meta Meta) ([]wgpu.BindGroupEntry, error) {
	slot, _ := meta.Slot(RoleView)
	e, err := view(d).entry(slot)
	if err != nil {
		return nil, err
	}
	return []wgpu.BindGroupEntry{e}, nil
}

func (d TextureSamplerData) entries(meta Meta) ([]wgpu.BindGroupEntry, error) {
	viewSlot, _ := meta.Slot(RoleView)
	tex, err := view{TextureView: d.View}.entry(viewSlot)
	if err != nil {
		return nil, err
	}
	samplerSlot, _ := meta.Slot(RoleSampler)
	smp, err := samplerEntry(samplerSlot, d.Sampler)
	if err != nil {
		return nil, err
	}
	return []wgpu.BindGroupEntry{tex, smp}, nil
}

// view is the shared shape of ShaderResourceView and UnorderedAccessView.
type view struct {
	TextureView *wgpu.TextureView
	Buffer      *wgpu.Buffer
	Offset      uint64
	Size        uint64
}

func (v view) entry(slot Slot) (wgpu.BindGroupEntry, error) {
	if (v.TextureView == nil) == (v.Buffer == nil) {
		return wgpu.BindGroupEntry{}, fmt.Errorf("%w: exactly one of a texture view or a buffer must be set", ErrInvalidView)
	}
	if slot.Type.IsBuffer() {
		if v.Buffer == nil {
			return wgpu.BindGroupEntry{}, fmt.Errorf("%w: %s slot %d needs a buffer", ErrInvalidView, slot.Type, slot.Binding)
		}
		size := v.Size
		if size == 0 {
			size = wgpu.WholeSize
		}
		return wgpu.BindGroupEntry{Binding: slot.Binding, Buffer: v.Buffer, Offset: v.Offset, Size: size}, nil
	}
	if v.TextureView == nil {
		return wgpu.BindGroupEntry{}, fmt.Errorf("%w: %s slot %d needs a texture view", ErrInvalidView, slot.Type, slot.Binding)
	}
	return wgpu.BindGroupEntry{Binding: slot.Binding, TextureView: v.TextureView}, nil
}

func samplerEntry(slot Slot, s *wgpu.Sampler) (wgpu.BindGroupEntry, error) {
	if s == nil {
		return wgpu.BindGroupEntry{}, fmt.Errorf("%w: sampler slot %d has a nil sampler", ErrInvalidView, slot.Binding)
	}
	return wgpu.BindGroupEntry{Binding: slot.Binding, Sampler: s}, nil
}

// DataSet maps component names to their data for one draw or dispatch.
type DataSet map[string]Data

// SetSampler stores the sampler of a Sampler component.
//
// Parameters:
//   - name: the component name
//   - sampler: the sampler to bind
func (d DataSet) SetSampler(name string, sampler *wgpu.Sampler) {
	d[name] = SamplerData{Sampler: sampler}
}

// SetShaderResource stores the read-only view of a ShaderResource component.
//
// Parameters:
//   - name: the component name
//   - srv: the view to bind
func (d DataSet) SetShaderResource(name string, srv ShaderResourceView) {
	d[name] = srv
}

// SetTextureSampler stores the texture view and sampler of a TextureSampler component.
//
// Parameters:
//   - name: the component name
//   - view: the texture view to bind
//   - sampler: the sampler to bind next to it
func (d DataSet) SetTextureSampler(name string, view *wgpu.TextureView, sampler *wgpu.Sampler) {
	d[name] = TextureSamplerData{View: view, Sampler: sampler}
}

// SetUnorderedAccess stores the writable view of an UnorderedAccess component.
//
// Parameters:
//   - name: the component name
//   - uav: the view to bind
func (d DataSet) SetUnorderedAccess(name string, uav UnorderedAccessView) {
	d[name] = uav
}
