package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pso/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pso/engine/window"
)

// EngineBuilderOption is a functional option applied to the engine by NewEngine.
type EngineBuilderOption func(*engine)

// defaultTickRate is the tick rate used when none, or a non-positive one, is given.
const defaultTickRate = 60

// interval converts a rate in frames per second to a frame duration. Non-positive rates yield fallback.
func interval(fps float64, fallback time.Duration) time.Duration {
	if fps <= 0 {
		return fallback
	}
	return time.Duration(float64(time.Second) / fps)
}

// WithProfiling turns the profiler's periodic log line on or off.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerOptions replaces the engine's profiler with one built from the given options. Profiling still has
// to be enabled with WithProfiling or EnableProfiler.
//
// Parameters:
//   - options: profiler options such as profiler.WithUpdateInterval
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerOptions(options ...profiler.ProfilerOption) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = profiler.NewProfiler(options...)
	}
}

// WithTickRate sets how many times per second the tick callback runs. Values <= 0 select 60.
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = interval(fps, time.Second/defaultTickRate)
	}
}

// WithWindow gives the engine the window it drives. Without a window Run only stops on Quit.
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithLayer registers a layer at the given z-index key during engine construction.
// Layers are rendered in ascending key order during the render loop.
//
// Parameters:
//   - key: the z-index determining render order (lower renders first)
//   - l: the layer to register, typically a scene.Scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLayer(key int, l Renderable) EngineBuilderOption {
	return func(e *engine) {
		e.layers[key] = l
	}
}

// WithRenderFrameLimit caps the render loop at fps frames per second. 0 leaves it uncapped, the default.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = interval(fps, 0)
	}
}
