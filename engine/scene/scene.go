package scene

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/bind_group_provider"
)

// UpdateFunc runs once per frame before any compute pass of the scene is dispatched. Update functions of a scene
// run concurrently with each other, so they must only touch state they own.
type UpdateFunc func(deltaTime float32) error

// ComputePass is a single compute dispatch recorded by a scene.
type ComputePass struct {
	// PipelineKey names a registered compute pipeline.
	PipelineKey string

	// BindGroups are the providers returned by Renderer.BindResources for the pipeline.
	BindGroups []bind_group_provider.BindGroupProvider

	// WorkGroups is the number of workgroups dispatched in X, Y and Z.
	WorkGroups [3]uint32
}

// DrawPass is a single draw call recorded by a scene.
type DrawPass struct {
	// PipelineKey names a registered render pipeline.
	PipelineKey string

	// Mesh holds the vertex buffer, the optional index buffer and the element count.
	Mesh bind_group_provider.BindGroupProvider

	// Instances is the instance count; zero is treated as one.
	Instances uint32

	// BindGroups are the providers returned by Renderer.BindResources for the pipeline.
	BindGroups []bind_group_provider.BindGroupProvider
}

// Scene is a renderable layer: an ordered list of compute and draw passes recorded against one renderer.
// Compute passes run in insertion order during the compute phase of a frame, draw passes in insertion order
// during the draw phase.
type Scene interface {
	Name() string
	Active() bool
	SetActive(active bool)
	Renderer() renderer.Renderer

	// AddUpdate registers a function called at the start of every compute phase.
	//
	// Parameters:
	//   - fn: the update function
	AddUpdate(fn UpdateFunc)

	// AddComputePass appends a compute dispatch to the scene.
	//
	// Parameters:
	//   - pass: the dispatch to record
	//
	// Returns:
	//   - uint64: an ID usable with Remove
	AddComputePass(pass ComputePass) uint64

	// AddDrawPass appends a draw call to the scene.
	//
	// Parameters:
	//   - pass: the draw call to record
	//
	// Returns:
	//   - uint64: an ID usable with Remove
	AddDrawPass(pass DrawPass) uint64

	// Remove drops the pass with the given ID. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the ID returned when the pass was added
	Remove(id uint64)

	// Count returns the number of recorded compute and draw passes.
	Count() int

	// Clear drops every pass and update function.
	Clear()

	// SetResizeCallback registers a function called when the surface the scene renders to is resized.
	//
	// Parameters:
	//   - callback: function receiving the new size in pixels
	SetResizeCallback(callback func(width, height int))

	// Compute runs the update functions on the scene's worker pool, then dispatches every compute pass.
	// Must be called between Renderer.BeginComputeFrame and Renderer.EndComputeFrame.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the first update error in registration order, or the first dispatch error
	Compute(deltaTime float32) error

	// Draw issues every draw pass. Must be called between Renderer.BeginFrame and Renderer.EndFrame.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the first draw error
	Draw(deltaTime float32) error

	// Resize forwards a surface resize to the resize callback.
	Resize(width, height int)

	// Close stops the scene's worker pool.
	Close()
}

type pass struct {
	id      uint64
	compute *ComputePass
	draw    *DrawPass
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	r      renderer.Renderer

	passes  []pass
	updates []UpdateFunc
	nextID  uint64

	onResize func(width, height int)

	// updatePool runs the update functions of a frame; workers persist across frames.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int
}

var _ Scene = &scene{}

// NewScene creates a new Scene drawing with the given renderer. Panics if the renderer is nil.
//
// Parameters:
//   - name: the name of the scene, used in error messages
//   - r: the renderer every pass is recorded against
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		name:          name,
		active:        true,
		r:             r,
		nextID:        1,
		updateWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Created after options so WithUpdateWorkers can override the default.
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) AddUpdate(fn UpdateFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, fn)
}

func (s *scene) AddComputePass(cp ComputePass) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.passes = append(s.passes, pass{id: id, compute: &cp})
	return id
}

func (s *scene) AddDrawPass(dp DrawPass) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.passes = append(s.passes, pass{id: id, draw: &dp})
	return id
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes = slices.DeleteFunc(s.passes, func(p pass) bool { return p.id == id })
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passes)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes = nil
	s.updates = nil
}

func (s *scene) SetResizeCallback(callback func(width, height int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResize = callback
}

func (s *scene) Compute(deltaTime float32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.runUpdates(deltaTime); err != nil {
		return err
	}

	for _, p := range s.passes {
		if p.compute == nil {
			continue
		}
		if err := s.r.DispatchCompute(p.compute.PipelineKey, p.compute.BindGroups, p.compute.WorkGroups); err != nil {
			return fmt.Errorf("scene %q: %w", s.name, err)
		}
	}
	return nil
}

// runUpdates fans the update functions out to the worker pool and waits for all of them. A WaitGroup is the
// per-frame barrier; the pool itself stays alive between frames.
func (s *scene) runUpdates(deltaTime float32) error {
	switch len(s.updates) {
	case 0:
		return nil
	case 1:
		if err := s.updates[0](deltaTime); err != nil {
			return fmt.Errorf("scene %q: update: %w", s.name, err)
		}
		return nil
	}

	errs := make([]error, len(s.updates))
	var wg sync.WaitGroup
	for i, fn := range s.updates {
		wg.Add(1)
		idx := i
		update := fn
		s.updatePool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				errs[idx] = update(deltaTime)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("scene %q: update: %w", s.name, err)
		}
	}
	return nil
}

func (s *scene) Draw(_ float32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.passes {
		if p.draw == nil {
			continue
		}
		instances := max(p.draw.Instances, 1)
		if err := s.r.DrawCall(p.draw.PipelineKey, p.draw.Mesh, instances, p.draw.BindGroups); err != nil {
			return fmt.Errorf("scene %q: %w", s.name, err)
		}
	}
	return nil
}

func (s *scene) Resize(width, height int) {
	s.mu.RLock()
	cb := s.onResize
	s.mu.RUnlock()
	if cb != nil {
		cb(width, height)
	}
}

func (s *scene) Close() {
	s.updatePool.Stop()
}
