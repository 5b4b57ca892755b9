package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pso/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// frameRenderer records the frame lifecycle; every other Renderer method panics on the nil embedded interface.
type frameRenderer struct {
	renderer.Renderer
	log            *callLog
	resizes        int
	failCompute    bool
	failBeginFrame bool
}

func (r *frameRenderer) BeginComputeFrame() error {
	if r.failCompute {
		return errors.New("no device")
	}
	r.log.add("begin-compute")
	return nil
}

func (r *frameRenderer) EndComputeFrame() { r.log.add("end-compute") }

func (r *frameRenderer) BeginFrame() error {
	if r.failBeginFrame {
		return errors.New("surface lost")
	}
	r.log.add("begin-frame")
	return nil
}

func (r *frameRenderer) EndFrame() { r.log.add("end-frame") }
func (r *frameRenderer) Present()  { r.log.add("present") }

func (r *frameRenderer) Resize(int, int) { r.resizes++ }

type fakeLayer struct {
	name    string
	active  bool
	r       renderer.Renderer
	log     *callLog
	drawErr error
	resized [2]int
}

func (l *fakeLayer) Active() bool                { return l.active }
func (l *fakeLayer) Renderer() renderer.Renderer { return l.r }
func (l *fakeLayer) Resize(w, h int)             { l.resized = [2]int{w, h} }

func (l *fakeLayer) Compute(float32) error {
	l.log.add("compute:" + l.name)
	return nil
}

func (l *fakeLayer) Draw(float32) error {
	l.log.add("draw:" + l.name)
	return l.drawErr
}

func newLayers(log *callLog, r renderer.Renderer) (*fakeLayer, *fakeLayer, *fakeLayer) {
	return &fakeLayer{name: "background", active: true, r: r, log: log},
		&fakeLayer{name: "hidden", active: false, r: r, log: log},
		&fakeLayer{name: "overlay", active: true, r: r, log: log}
}

func TestRenderFrameOrdersLayersByKey(t *testing.T) {
	log := &callLog{}
	r := &frameRenderer{log: log}
	bg, hidden, overlay := newLayers(log, r)

	e := NewEngine(WithLayer(10, overlay), WithLayer(-1, bg), WithLayer(5, hidden)).(*engine)
	e.renderFrame(0.016)

	assert.Equal(t, []string{
		"begin-compute", "compute:background", "compute:overlay", "end-compute",
		"begin-frame", "draw:background", "draw:overlay", "end-frame", "present",
	}, log.snapshot())
}

func TestRenderFrameContinuesAfterLayerError(t *testing.T) {
	log := &callLog{}
	r := &frameRenderer{log: log}
	bg, _, overlay := newLayers(log, r)
	bg.drawErr = errors.New("pipeline missing")

	e := NewEngine(WithLayer(0, bg), WithLayer(1, overlay)).(*engine)
	e.renderFrame(0)

	assert.Contains(t, log.snapshot(), "draw:overlay")
	assert.Contains(t, log.snapshot(), "present")
}

func TestRenderFrameSkipsComputeWhenBeginFails(t *testing.T) {
	log := &callLog{}
	r := &frameRenderer{log: log, failCompute: true}
	bg, _, _ := newLayers(log, r)

	e := NewEngine(WithLayer(0, bg)).(*engine)
	e.renderFrame(0)

	assert.Equal(t, []string{"begin-frame", "draw:background", "end-frame", "present"}, log.snapshot())
}

func TestRenderFrameWithoutActiveLayers(t *testing.T) {
	log := &callLog{}
	_, hidden, _ := newLayers(log, &frameRenderer{log: log})

	e := NewEngine(WithLayer(0, hidden)).(*engine)
	e.renderFrame(0)
	assert.Empty(t, log.snapshot())
}

func TestResizeTouchesEachRendererOnce(t *testing.T) {
	log := &callLog{}
	shared := &frameRenderer{log: log}
	other := &frameRenderer{log: log}
	bg, hidden, overlay := newLayers(log, shared)
	overlay.r = other

	e := NewEngine(WithLayer(0, bg), WithLayer(1, hidden), WithLayer(2, overlay)).(*engine)
	e.resize(800, 600)

	assert.Equal(t, 1, shared.resizes)
	assert.Equal(t, 1, other.resizes)
	assert.Equal(t, [2]int{800, 600}, hidden.resized)
	assert.Equal(t, [2]int{800, 600}, overlay.resized)
}

func TestLayerRegistry(t *testing.T) {
	e := NewEngine()
	l := &fakeLayer{name: "a"}

	e.AddLayer(3, l)
	assert.Same(t, l, e.Layer(3))
	assert.Nil(t, e.Layer(4))

	layers := e.Layers()
	delete(layers, 3)
	assert.Len(t, e.Layers(), 1)

	e.RemoveLayer(3)
	assert.Empty(t, e.Layers())
}

func TestTickRateOptions(t *testing.T) {
	e := NewEngine(WithTickRate(0)).(*engine)
	assert.Equal(t, time.Second/60, e.engineTickRate)

	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)

	e.SetRenderFrameLimit(30)
	assert.Equal(t, time.Second/30, e.renderFrameLimit)
	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit)
}

func TestRunWithoutWindowStopsOnQuit(t *testing.T) {
	ticks := make(chan struct{}, 1)
	e := NewEngine(WithTickRate(200), WithRenderFrameLimit(200))
	e.SetTickCallback(func(float32) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("tick callback never ran")
	}

	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Run did not return after Quit")
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 16666666*time.Nanosecond, interval(60, 0))
	assert.Equal(t, 400*time.Millisecond, interval(2.5, 0))
	assert.Equal(t, time.Second, interval(-3, time.Second))
}

func TestWithProfilerOptions(t *testing.T) {
	var lines int
	e := NewEngine(WithProfilerOptions(
		profiler.WithUpdateInterval(time.Nanosecond),
		profiler.WithLogger(func(string, ...any) { lines++ }),
	)).(*engine)

	time.Sleep(time.Millisecond)
	assert.True(t, e.profiler.Tick())
	assert.Equal(t, 1, lines)
}
