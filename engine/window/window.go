package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the GLFW-backed surface the renderer draws into. All callbacks run on the goroutine that calls
// ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function run once per message loop iteration; nil disables it.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function run with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback and SetKeyUpCallback receive GLFW key codes.
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns the platform surface descriptor built by the wgpuglfw bridge, or nil when the
	// platform window does not exist.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor or nil
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	IsRunning() bool

	// Close destroys the platform window.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// ProcessMessages polls events until the window closes. Must run on the main thread.
	ProcessMessages()

	Title() string

	// SetTitle queues a title change; safe from any goroutine. The message loop applies it.
	SetTitle(title string)

	// Width and Height report the framebuffer size in pixels.
	Width() int
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// width and height track the framebuffer size in pixels once the window is spawned.
	width  int
	height int

	// Size limits applied while the user resizes the window.
	minWidth, minHeight int
	maxWidth, maxHeight int

	resizable    bool
	escapeCloses bool

	// pendingTitle is a title change waiting for the message loop; guarded by titleMu.
	pendingTitle *string
	titleMu      sync.Mutex

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow applies the options over the defaults and creates the platform window. It panics when GLFW cannot
// create one.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	return w
}

// newEngineWindow applies defaults and options without touching the platform layer.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:        "oxy-pso",
		width:        1280,
		height:       720,
		minWidth:     320,
		minHeight:    200,
		maxWidth:     glfwDontCare,
		maxHeight:    glfwDontCare,
		resizable:    true,
		escapeCloses: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.maxWidth != glfwDontCare && w.minWidth > w.maxWidth {
		w.minWidth = w.maxWidth
	}
	if w.maxHeight != glfwDontCare && w.minHeight > w.maxHeight {
		w.minHeight = w.maxHeight
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		w.titleMu.Lock()
		if w.pendingTitle != nil {
			w.title = *w.pendingTitle
			w.pendingTitle = nil
			platformSetTitle(w)
		}
		w.titleMu.Unlock()

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Title() string {
	w.titleMu.Lock()
	defer w.titleMu.Unlock()
	if w.pendingTitle != nil {
		return *w.pendingTitle
	}
	return w.title
}

func (w *engineWindow) SetTitle(title string) {
	w.titleMu.Lock()
	defer w.titleMu.Unlock()
	w.pendingTitle = &title
}
