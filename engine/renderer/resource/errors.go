package resource

import "errors"

var (
	// ErrKindMismatch is returned when a component links to a bind point, or receives data, of a different resource kind.
	ErrKindMismatch = errors.New("resource kind mismatch")

	// ErrDuplicateName is returned when two components of one set share a name.
	ErrDuplicateName = errors.New("duplicate resource name")

	// ErrUnclaimedBinding is returned when a shader declares a texture, sampler or storage bind point no component claims.
	ErrUnclaimedBinding = errors.New("unclaimed shader binding")

	// ErrSlotConflict is returned when two components resolve to the same group/binding slot.
	ErrSlotConflict = errors.New("binding slot claimed twice")

	// ErrMissingSampler is returned when a texture sampler finds its texture but no sampler to pair it with.
	ErrMissingSampler = errors.New("texture has no paired sampler")

	// ErrMissingData is returned when an active component has no data at resolve time.
	ErrMissingData = errors.New("missing resource data")

	// ErrUnknownName is returned when data is supplied for a name the set does not declare.
	ErrUnknownName = errors.New("unknown resource name")

	// ErrInvalidView is returned when a view does not carry exactly one of a texture view or a buffer, or carries
	// the wrong one for its slot.
	ErrInvalidView = errors.New("invalid resource view")
)
