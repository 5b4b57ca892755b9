package resource

import "github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"

// Role distinguishes the two halves of a texture sampler slot pair.
type Role int

const (
	// RoleView is a texture view or buffer slot.
	RoleView Role = iota

	// RoleSampler is a sampler slot.
	RoleSampler
)

func (r Role) String() string {
	if r == RoleSampler {
		return "sampler"
	}
	return "view"
}

// Slot is one resolved bind point of a component.
type Slot struct {
	// Group is the @group index.
	Group uint32

	// Binding is the @binding index.
	Binding uint32

	// Role says which half of the component's data the slot receives.
	Role Role

	// Type is the bind point type the shader declared.
	Type shader.BindingType
}

func slotOf(b shader.Binding, role Role) Slot {
	return Slot{Group: b.Group, Binding: b.Binding, Role: role, Type: b.Type}
}

// Meta is the link result of a component.
type Meta struct {
	// Name is the component name.
	Name string

	// Kind is the component kind.
	Kind Kind

	// Slots are the resolved bind points; two for an active texture sampler, one for the other kinds.
	Slots []Slot
}

// Active reports whether the shaders reference the component. Inactive components bind nothing.
func (m Meta) Active() bool {
	return len(m.Slots) > 0
}

// Slot returns the slot playing a role.
//
// Parameters:
//   - role: RoleView or RoleSampler
//
// Returns:
//   - Slot: the slot, or the zero value when absent
//   - bool: true if the component has a slot with that role
func (m Meta) Slot(role Role) (Slot, bool) {
	for _, s := range m.Slots {
		if s.Role == role {
			return s, true
		}
	}
	return Slot{}, false
}
