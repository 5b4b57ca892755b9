package renderer

import "log"

// RendererBuilderOption configures a renderer inside NewRenderer, before the backend is created.
type RendererBuilderOption func(*renderer)

// WithSamplerCacheSize bounds how many distinct samplers CreateSampler keeps alive. Going over the bound
// releases the least recently used one. Values below 1 are ignored.
func WithSamplerCacheSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.samplerCacheSize = size
		}
	}
}

// WithPresentMode picks the present mode the surface is first configured with.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA picks the sample count of the render target. MSAA4x unless set; counts above 4 depend on the adapter.
// Counts that are not one of the MSAASampleCount constants are logged and ignored.
//
// Parameters:
//   - count: MSAAOff, MSAA4x, MSAA8x or MSAA16x
//
// Returns:
//   - RendererBuilderOption: the option
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		if !count.Valid() {
			log.Printf("renderer: ignoring unsupported MSAA sample count %d", count)
			return
		}
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer requests the fallback adapter. Needs a software Vulkan driver such as lavapipe.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
