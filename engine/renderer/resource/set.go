package resource

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-pso/common"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Set is the resource declaration of one pipeline. Names are unique within a set.
type Set struct {
	components []Component
	byName     map[string]int
}

// NewSet builds a declaration set.
//
// Parameters:
//   - components: the resource components in declaration order
//
// Returns:
//   - *Set: the set
//   - error: ErrDuplicateName if two components share a name
func NewSet(components ...Component) (*Set, error) {
	s := &Set{
		components: make([]Component, 0, len(components)),
		byName:     make(map[string]int, len(components)),
	}
	for _, c := range components {
		if c == nil {
			continue
		}
		if _, dup := s.byName[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name())
		}
		s.byName[c.Name()] = len(s.components)
		s.components = append(s.components, c)
	}
	return s, nil
}

// Components returns the components in declaration order.
func (s *Set) Components() []Component {
	if s == nil {
		return nil
	}
	return append([]Component(nil), s.components...)
}

// Lookup finds a component by name.
func (s *Set) Lookup(name string) (Component, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.components[i], true
}

// Len returns the number of components.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.components)
}

// Link resolves every component against a pipeline's binding table. Every texture, sampler and storage
// bind point of the table must be claimed by exactly one component; uniform buffers are left to the caller.
//
// Parameters:
//   - table: the merged binding table of the pipeline's shaders
//
// Returns:
//   - *Layout: the linked layout
//   - error: the first link error of a component, ErrSlotConflict if two components claim one slot, or
//     ErrUnclaimedBinding if a bind point is left over
func (s *Set) Link(table *shader.BindingTable) (*Layout, error) {
	l := &Layout{
		table:  table,
		metas:  make([]Meta, 0, s.Len()),
		byName: make(map[string]int, s.Len()),
	}
	claims := make(map[[2]uint32]string)

	for _, c := range s.Components() {
		meta, err := c.Link(table)
		if err != nil {
			return nil, err
		}
		for _, slot := range meta.Slots {
			key := [2]uint32{slot.Group, slot.Binding}
			if other, taken := claims[key]; taken {
				return nil, fmt.Errorf("%w: group %d binding %d claimed by %q and %q", ErrSlotConflict, slot.Group, slot.Binding, other, c.Name())
			}
			claims[key] = c.Name()
		}
		l.byName[c.Name()] = len(l.metas)
		l.metas = append(l.metas, meta)
	}

	for _, b := range table.Bindings() {
		if b.Type == shader.BindingTypeUniformBuffer {
			continue
		}
		if _, ok := claims[[2]uint32{b.Group, b.Binding}]; !ok {
			return nil, fmt.Errorf("%w: %s %q at group %d binding %d", ErrUnclaimedBinding, b.Type, b.Name, b.Group, b.Binding)
		}
	}
	return l, nil
}

// Layout is a Set linked against the bind points of a pipeline.
type Layout struct {
	table  *shader.BindingTable
	metas  []Meta
	byName map[string]int
}

// Meta returns the link result of a component.
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - Meta: the resolved slots
//   - bool: true if the set declares the name
func (l *Layout) Meta(name string) (Meta, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Meta{}, false
	}
	return l.metas[i], true
}

// Metas returns the link results in declaration order.
func (l *Layout) Metas() []Meta {
	return append([]Meta(nil), l.metas...)
}

// Table returns the binding table the layout was linked against.
func (l *Layout) Table() *shader.BindingTable {
	return l.table
}

// Groups returns every group index the pipeline's shaders declare, in ascending order.
func (l *Layout) Groups() []uint32 {
	return l.table.Groups()
}

// UniformBindings returns the uniform buffer bind points of a group. They are not claimed by components.
//
// Parameters:
//   - group: the group index
//
// Returns:
//   - []shader.Binding: the uniform buffer bindings sorted by binding index
func (l *Layout) UniformBindings(group uint32) []shader.Binding {
	var out []shader.Binding
	for _, b := range l.table.Bindings() {
		if b.Group == group && b.Type == shader.BindingTypeUniformBuffer {
			out = append(out, b)
		}
	}
	return out
}

// Resolve turns per-draw data into bind group entries.
//
// Parameters:
//   - data: the data of the components, keyed by component name
//
// Returns:
//   - map[uint32][]wgpu.BindGroupEntry: entries keyed by group index, sorted by binding
//   - error: ErrUnknownName for data no component declares, ErrMissingData for an active component without data,
//     ErrKindMismatch for data of another kind, ErrInvalidView for malformed data
func (l *Layout) Resolve(data DataSet) (map[uint32][]wgpu.BindGroupEntry, error) {
	for _, name := range common.SortedKeys(data) {
		if _, ok := l.byName[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
		}
	}

	groups := make(map[uint32][]wgpu.BindGroupEntry)
	for _, meta := range l.metas {
		if !meta.Active() {
			continue
		}
		d, ok := data[meta.Name]
		if !ok || d == nil {
			return nil, fmt.Errorf("%w: %s %q", ErrMissingData, meta.Kind, meta.Name)
		}
		if d.Kind() != meta.Kind {
			return nil, fmt.Errorf("%w: %s %q given %s data", ErrKindMismatch, meta.Kind, meta.Name, d.Kind())
		}
		entries, err := d.entries(meta)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", meta.Kind, meta.Name, err)
		}
		// entries come back in slot order
		for i, e := range entries {
			group := meta.Slots[i].Group
			groups[group] = append(groups[group], e)
		}
	}
	for g := range groups {
		entries := groups[g]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
	}
	return groups, nil
}
