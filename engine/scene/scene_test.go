package scene

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-pso/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/bind_group_provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRenderer implements only the calls a scene makes; anything else panics on the nil embedded interface.
type recordingRenderer struct {
	renderer.Renderer

	mu        sync.Mutex
	calls     []string
	instances []uint32
	failKey   string
}

func (r *recordingRenderer) DispatchCompute(key string, _ []bind_group_provider.BindGroupProvider, _ [3]uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == r.failKey {
		return errors.New("pipeline " + key + " not found in cache")
	}
	r.calls = append(r.calls, "dispatch:"+key)
	return nil
}

func (r *recordingRenderer) DrawCall(key string, _ bind_group_provider.BindGroupProvider, instances uint32, _ []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == r.failKey {
		return errors.New("pipeline " + key + " not found in cache")
	}
	r.calls = append(r.calls, "draw:"+key)
	r.instances = append(r.instances, instances)
	return nil
}

func newTestScene(t *testing.T, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	t.Helper()
	s := NewScene("test", r, append([]SceneBuilderOption{WithUpdateWorkers(2)}, options...)...)
	t.Cleanup(s.Close)
	return s
}

func TestNewSceneRequiresRenderer(t *testing.T) {
	assert.PanicsWithValue(t, "scene: NewScene requires a non-nil Renderer", func() {
		NewScene("nil", nil)
	})
}

func TestSceneDefaults(t *testing.T) {
	r := &recordingRenderer{}
	s := newTestScene(t, r)

	assert.Equal(t, "test", s.Name())
	assert.True(t, s.Active())
	assert.Same(t, r, s.Renderer())
	assert.Zero(t, s.Count())

	s.SetActive(false)
	assert.False(t, s.Active())
}

func TestScenePassesRunInOrder(t *testing.T) {
	r := &recordingRenderer{}
	s := newTestScene(t, r)

	s.AddComputePass(ComputePass{PipelineKey: "simulate", WorkGroups: [3]uint32{4, 1, 1}})
	s.AddDrawPass(DrawPass{PipelineKey: "cube"})
	s.AddComputePass(ComputePass{PipelineKey: "reduce", WorkGroups: [3]uint32{1, 1, 1}})
	s.AddDrawPass(DrawPass{PipelineKey: "blit", Instances: 3})
	require.Equal(t, 4, s.Count())

	require.NoError(t, s.Compute(0.016))
	require.NoError(t, s.Draw(0.016))

	assert.Equal(t, []string{"dispatch:simulate", "dispatch:reduce", "draw:cube", "draw:blit"}, r.calls)
	assert.Equal(t, []uint32{1, 3}, r.instances)
}

func TestSceneRemoveAndClear(t *testing.T) {
	r := &recordingRenderer{}
	s := newTestScene(t, r, WithDrawPasses(DrawPass{PipelineKey: "first"}))

	id := s.AddDrawPass(DrawPass{PipelineKey: "second"})
	s.AddDrawPass(DrawPass{PipelineKey: "third"})
	s.Remove(id)
	s.Remove(999)

	require.NoError(t, s.Draw(0))
	assert.Equal(t, []string{"draw:first", "draw:third"}, r.calls)

	s.Clear()
	assert.Zero(t, s.Count())
}

func TestSceneUpdatesRunBeforeDispatch(t *testing.T) {
	r := &recordingRenderer{}
	var ran atomic.Int32
	s := newTestScene(t, r, WithUpdate(func(float32) error {
		ran.Add(1)
		return nil
	}))
	s.AddUpdate(func(dt float32) error {
		assert.InDelta(t, 0.5, dt, 1e-6)
		ran.Add(1)
		return nil
	})
	s.AddUpdate(nil)
	s.AddComputePass(ComputePass{PipelineKey: "simulate"})

	require.NoError(t, s.Compute(0.5))
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, []string{"dispatch:simulate"}, r.calls)
}

func TestSceneUpdateErrorSkipsDispatch(t *testing.T) {
	r := &recordingRenderer{}
	s := newTestScene(t, r)
	boom := errors.New("boom")
	s.AddUpdate(func(float32) error { return nil })
	s.AddUpdate(func(float32) error { return boom })
	s.AddComputePass(ComputePass{PipelineKey: "simulate"})

	err := s.Compute(0)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, `scene "test": update`)
	assert.Empty(t, r.calls)
}

func TestSceneDrawErrorNamesScene(t *testing.T) {
	r := &recordingRenderer{failKey: "missing"}
	s := newTestScene(t, r)
	s.AddDrawPass(DrawPass{PipelineKey: "missing"})
	s.AddDrawPass(DrawPass{PipelineKey: "never"})

	err := s.Draw(0)
	assert.ErrorContains(t, err, `scene "test": pipeline missing not found`)
	assert.Empty(t, r.calls)
}

func TestSceneResizeCallback(t *testing.T) {
	s := newTestScene(t, &recordingRenderer{})
	s.Resize(10, 10)

	var w, h int
	s.SetResizeCallback(func(width, height int) { w, h = width, height })
	s.Resize(800, 600)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}
