package scene

// SceneBuilderOption is a functional option for configuring a Scene.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene starts active. Inactive scenes are skipped by the engine's render loop.
// Scenes are active by default.
//
// Parameters:
//   - active: true to render the scene
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithUpdateWorkers sets the number of worker goroutines running the update functions of a frame.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of update workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.updateWorkers = n
	}
}

// WithUpdate registers an update function during construction.
//
// Parameters:
//   - fn: the update function
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithUpdate(fn UpdateFunc) SceneBuilderOption {
	return func(s *scene) {
		if fn != nil {
			s.updates = append(s.updates, fn)
		}
	}
}

// WithDrawPasses records draw passes during construction.
//
// Parameters:
//   - passes: the draw calls to record, in order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawPasses(passes ...DrawPass) SceneBuilderOption {
	return func(s *scene) {
		for _, dp := range passes {
			s.passes = append(s.passes, pass{id: s.nextID, draw: &dp})
			s.nextID++
		}
	}
}
