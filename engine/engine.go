package engine

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pso/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pso/engine/window"
)

// Renderable is a layer drawn by the engine's render loop. scene.Scene satisfies it.
type Renderable interface {
	// Active reports whether the layer takes part in the next frame.
	Active() bool

	// Renderer returns the renderer the layer records into. The first active layer's renderer owns the frame.
	Renderer() renderer.Renderer

	// Compute records compute dispatches for the frame.
	Compute(deltaTime float32) error

	// Draw records draw calls into the frame's render pass.
	Draw(deltaTime float32) error

	// Resize is called after the layer's renderer has been resized.
	Resize(width, height int)
}

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	layersMu sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	layers map[int]Renderable

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, physics, input processing, and animation updates.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame.
	// Use this for GPU buffer updates and scene rendering.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddLayer registers a layer at the given z-index key, replacing any layer already there.
	// Layers are computed and drawn in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - l: the layer to register
	AddLayer(key int, l Renderable)

	// RemoveLayer removes the layer at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the layer to remove
	RemoveLayer(key int)

	// Layer retrieves the layer registered at the given z-index key, or nil.
	//
	// Parameters:
	//   - key: the z-index of the layer to retrieve
	//
	// Returns:
	//   - Renderable: the layer at the key, or nil if not found
	Layer(key int) Renderable

	// Layers returns a copy of all registered layers keyed by z-index.
	//
	// Returns:
	//   - map[int]Renderable: a copy of the layers map
	Layers() map[int]Renderable

	// Run starts the engine and render loops and blocks until the window closes or Quit is called.
	// Without a window, Run blocks until Quit.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Initializes message channels and profiler with sensible defaults.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		layers:           make(map[int]Renderable),
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / defaultTickRate,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

// resize resizes every distinct renderer once, then notifies the layers.
func (e *engine) resize(width, height int) {
	layers := e.sortedLayers(false)
	seen := make(map[renderer.Renderer]struct{}, len(layers))
	for _, l := range layers {
		r := l.Renderer()
		if r == nil {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		r.Resize(width, height)
	}
	for _, l := range layers {
		l.Resize(width, height)
	}
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.running.Store(true)
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each iteration renders one frame through renderFrame, then runs the render callback and the profiler.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs the two phases of a frame over the active layers in ascending z-index order.
// The first active layer's renderer owns the frame: all compute dispatches share one submission, and all
// draw calls share one render pass so layers composite in key order. Layer errors are logged and the
// remaining layers still run.
func (e *engine) renderFrame(dt float32) {
	layers := e.sortedLayers(true)
	if len(layers) == 0 {
		return
	}
	frameRenderer := layers[0].Renderer()
	if frameRenderer == nil {
		return
	}

	if err := frameRenderer.BeginComputeFrame(); err != nil {
		log.Printf("engine: failed to begin compute frame: %v", err)
	} else {
		for _, l := range layers {
			if err := l.Compute(dt); err != nil {
				log.Printf("engine: compute: %v", err)
			}
		}
		frameRenderer.EndComputeFrame()
	}

	if err := frameRenderer.BeginFrame(); err != nil {
		log.Printf("engine: failed to begin frame: %v", err)
		return
	}
	for _, l := range layers {
		if err := l.Draw(dt); err != nil {
			log.Printf("engine: draw: %v", err)
		}
	}
	frameRenderer.EndFrame()
	frameRenderer.Present()
}

// sortedLayers returns the registered layers in ascending key order, optionally only the active ones.
func (e *engine) sortedLayers(activeOnly bool) []Renderable {
	e.layersMu.RLock()
	defer e.layersMu.RUnlock()

	keys := make([]int, 0, len(e.layers))
	for k := range e.layers {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	layers := make([]Renderable, 0, len(keys))
	for _, k := range keys {
		l := e.layers[k]
		if l == nil || (activeOnly && !l.Active()) {
			continue
		}
		layers = append(layers, l)
	}
	return layers
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := interval(fps, time.Second/defaultTickRate)

	if e.running.Load() {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = interval(fps, 0)
}

func (e *engine) AddLayer(key int, l Renderable) {
	e.layersMu.Lock()
	defer e.layersMu.Unlock()
	e.layers[key] = l
}

func (e *engine) RemoveLayer(key int) {
	e.layersMu.Lock()
	defer e.layersMu.Unlock()
	delete(e.layers, key)
}

func (e *engine) Layer(key int) Renderable {
	e.layersMu.RLock()
	defer e.layersMu.RUnlock()
	return e.layers[key]
}

func (e *engine) Layers() map[int]Renderable {
	e.layersMu.RLock()
	defer e.layersMu.RUnlock()
	cp := make(map[int]Renderable, len(e.layers))
	for k, v := range e.layers {
		cp[k] = v
	}
	return cp
}
