package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/assets"
	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/overlay"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/fence"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline(DefaultPipelineKey,
		pipeline.WithVertexShader(shader.Blob{
			Key:          "object3d.wgsl:vs_main",
			Stage:        shader.StageVertex,
			EntryPoint:   "vs_main",
			VertexLayout: &shader.VertexLayout{Stride: 36},
		}),
		pipeline.WithFragmentShader(shader.Blob{
			Key:        "object3d.wgsl:fs_main",
			Stage:      shader.StageFragment,
			EntryPoint: "fs_main",
		}),
	)
}

func newTestEngine(t *testing.T, simOptions []renderer.SimulatedBackendBuilderOption, options ...EngineBuilderOption) (Engine, renderer.SimulatedBackend) {
	t.Helper()
	sim := renderer.NewSimulatedBackend(simOptions...)
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil, renderer.WithBackend(sim), renderer.WithSurfaceSize(640, 480))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	s := scene.NewScene(r, scene.WithObjects(
		game_object.NewGameObject(game_object.WithName("ball"), game_object.WithSphere(3)),
		game_object.NewGameObject(game_object.WithName("badge"), game_object.WithSprite(32, 32)),
	))
	e := NewEngine(r, s, append([]EngineBuilderOption{WithPipeline(testPipeline())}, options...)...)
	require.NoError(t, e.Init())
	return e, sim
}

func TestRenderFrameRunsStagesInOrder(t *testing.T) {
	var mu sync.Mutex
	var stages []Stage
	e, sim := newTestEngine(t, nil, WithStageObserver(func(frame uint64, s Stage) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, uint64(1), frame)
		stages = append(stages, s)
	}))

	require.NoError(t, e.RenderFrame(context.Background(), 1.0/60))

	mu.Lock()
	assert.Equal(t, FrameStages, stages)
	mu.Unlock()

	executed := sim.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, uint64(1), executed[0].Frame)
	assert.Equal(t, []string{DefaultPipelineKey}, executed[0].Pipelines)
	assert.Equal(t, 2, executed[0].Draws)
	assert.Equal(t, 1, sim.Presented())
	assert.Equal(t, command.RecorderReady, e.Recorder().State())
	assert.Equal(t, fence.StateReady, e.Synchronizer().State())
}

func TestCompletionTargetsIncrease(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	for want := uint64(1); want <= 3; want++ {
		require.NoError(t, e.RenderFrame(context.Background(), 0))
		assert.Equal(t, want, e.Synchronizer().Value())
		assert.Equal(t, want, e.Recorder().InFlightValue())
		assert.GreaterOrEqual(t, e.Synchronizer().Completed(), want)
	}
	assert.Equal(t, uint64(3), e.Frame())
}

func TestSynchronizeBlocksUntilCompletion(t *testing.T) {
	e, sim := newTestEngine(t, []renderer.SimulatedBackendBuilderOption{renderer.WithManualCompletion(true)}, WithSyncTimeout(0))

	done := make(chan error, 1)
	go func() {
		done <- e.RenderFrame(context.Background(), 0)
	}()

	require.Eventually(t, func() bool { return sim.PendingSignals() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return e.Synchronizer().State() == fence.StateWaiting }, time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("frame finished before the GPU completed it: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, command.RecorderInFlight, e.Recorder().State())

	value, ok := sim.CompleteNext()
	require.True(t, ok)
	assert.Equal(t, uint64(1), value)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("frame did not finish after completion")
	}
	assert.Equal(t, command.RecorderReady, e.Recorder().State())
}

func TestSecondFrameWaitsForItsOwnCompletion(t *testing.T) {
	e, sim := newTestEngine(t, []renderer.SimulatedBackendBuilderOption{renderer.WithManualCompletion(true)}, WithSyncTimeout(0))

	renderFrame := func() <-chan error {
		done := make(chan error, 1)
		go func() { done <- e.RenderFrame(context.Background(), 0) }()
		return done
	}

	for want := uint64(1); want <= 2; want++ {
		done := renderFrame()

		require.Eventually(t, func() bool { return sim.PendingSignals() == 1 }, time.Second, time.Millisecond)
		require.Eventually(t, func() bool { return e.Synchronizer().State() == fence.StateWaiting }, time.Second, time.Millisecond)
		assert.Equal(t, want-1, e.Synchronizer().Completed(), "frame %d must not ride on the previous completion", want)

		select {
		case err := <-done:
			t.Fatalf("frame %d finished before the GPU completed it: %v", want, err)
		case <-time.After(50 * time.Millisecond):
		}

		value, ok := sim.CompleteNext()
		require.True(t, ok)
		assert.Equal(t, want, value)

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatalf("frame %d did not finish after completion", want)
		}
		assert.Equal(t, want, e.Synchronizer().Value())
		assert.Equal(t, want, e.Recorder().InFlightValue())
		assert.Equal(t, command.RecorderReady, e.Recorder().State())
	}
	assert.Len(t, sim.Executed(), 2)
}

func TestSyncTimeoutLeavesRecorderInFlight(t *testing.T) {
	e, sim := newTestEngine(t, []renderer.SimulatedBackendBuilderOption{renderer.WithManualCompletion(true)}, WithSyncTimeout(20*time.Millisecond))

	err := e.RenderFrame(context.Background(), 0)
	require.ErrorIs(t, err, common.ErrSyncTimeout)
	assert.Contains(t, err.Error(), "frame 1 Synchronize")

	// the batch is still owned by the GPU, so the next frame cannot begin
	err = e.RenderFrame(context.Background(), 0)
	assert.ErrorIs(t, err, command.ErrRecorderNotReady)

	require.Eventually(t, func() bool { return sim.PendingSignals() == 1 }, time.Second, time.Millisecond)
	_, ok := sim.CompleteNext()
	require.True(t, ok)
	require.NoError(t, e.Shutdown(context.Background()))
}

func TestRenderFrameCancelled(t *testing.T) {
	e, sim := newTestEngine(t, []renderer.SimulatedBackendBuilderOption{renderer.WithManualCompletion(true)}, WithSyncTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for sim.PendingSignals() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	assert.ErrorIs(t, e.RenderFrame(ctx, 0), context.Canceled)
	sim.CompleteNext()
}

func TestRunStopsAtMaxFramesAndReleases(t *testing.T) {
	sim := renderer.NewSimulatedBackend()
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil, renderer.WithBackend(sim))
	require.NoError(t, err)

	s := scene.NewScene(r, scene.WithObjects(game_object.NewGameObject(game_object.WithSphere(2))))
	var ticks int
	e := NewEngine(r, s,
		WithPipeline(testPipeline()),
		WithMaxFrames(3),
		WithProfiling(true),
		WithTickRate(1000),
		WithTickCallback(func(float32) { ticks++ }),
		WithRenderFrameLimit(200),
	)
	e.AddOverlay(overlay.NewStatsOverlay(e.Profiler()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Frame())
	assert.Equal(t, 3, sim.Presented())
	assert.Zero(t, r.LiveResources())
	assert.GreaterOrEqual(t, ticks, 1)

	executed := sim.Executed()
	require.Len(t, executed, 3)
	require.Len(t, executed[2].Markers, 1)
	assert.True(t, strings.HasPrefix(executed[2].Markers[0], "stats: frame"))

	// shutdown already ran
	assert.NoError(t, e.Shutdown(context.Background()))
}

func TestQuitBeforeRun(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil)
	require.NoError(t, err)

	e := NewEngine(r, scene.NewScene(r), WithPipeline(testPipeline()))
	e.Quit()
	e.Quit()
	require.NoError(t, e.Run(context.Background()))
	assert.Zero(t, e.Frame())
	assert.Zero(t, r.LiveResources())
}

func TestResizeUpdatesSurfaceAndAspect(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	assert.InDelta(t, 640.0/480.0, e.Camera().Aspect(), 1e-6)

	e.Resize(800, 400)
	w, h := e.Renderer().SurfaceSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)
	assert.InDelta(t, 2.0, e.Camera().Aspect(), 1e-6)

	e.Resize(0, 100)
	w, _ = e.Renderer().SurfaceSize()
	assert.Equal(t, 800, w)

	require.NoError(t, e.RenderFrame(context.Background(), 0))
}

type fakeWindow struct {
	polls    int
	maxPolls int
	resize   func(width, height int)
	keyDown  func(keyCode uint32)
	keyUp    func(keyCode uint32)
}

func (w *fakeWindow) PollEvents() bool {
	w.polls++
	return w.polls <= w.maxPolls
}

func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.resize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.keyDown = callback }
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.keyUp = callback }

func TestWindowEventsReachRendererAndCamera(t *testing.T) {
	win := &fakeWindow{maxPolls: 2}
	e, sim := newTestEngine(t, nil, WithWindow(win))
	require.NotNil(t, win.resize)
	require.NotNil(t, win.keyDown)

	win.resize(320, 320)
	w, h := e.Renderer().SurfaceSize()
	assert.Equal(t, 320, w)
	assert.Equal(t, 320, h)

	start := e.Camera().Transform().Translate[2]
	win.keyDown(common.KeyW)
	e.Camera().Update(0.1)
	win.keyUp(common.KeyW)
	assert.Greater(t, e.Camera().Transform().Translate[2], start)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Frame(), "run stops when the window closes")
	assert.Equal(t, 2, sim.Presented())
}

func TestInitCompilesObjectShader(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil)
	require.NoError(t, err)
	t.Cleanup(r.Release)

	cfg := scene.DefaultConfig()
	e := NewEngine(r, scene.NewScene(r), WithShaderCompiler(NewShaderCompiler(assets.FS), cfg.Shader))
	require.NoError(t, e.Init())

	p := r.Pipeline(DefaultPipelineKey)
	require.NotNil(t, p)
	vs := p.Shader(shader.StageVertex)
	require.NotNil(t, vs)
	require.NotNil(t, vs.VertexLayout)
	assert.Equal(t, uint64(36), vs.VertexLayout.Stride)

	require.NoError(t, e.RenderFrame(context.Background(), 0))
}

func TestInitFailures(t *testing.T) {
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil)
	require.NoError(t, err)
	t.Cleanup(r.Release)

	e := NewEngine(r, scene.NewScene(r))
	assert.ErrorIs(t, e.Init(), common.ErrFatalInit)
	assert.ErrorIs(t, e.RenderFrame(context.Background(), 0), common.ErrFatalInit)

	bad := NewEngine(r, scene.NewScene(r), WithShaderCompiler(NewShaderCompiler(assets.FS), scene.ShaderConfig{
		Path:            "shaders/missing.wgsl",
		VertexEntry:     "vs_main",
		VertexProfile:   "vs_6_0",
		FragmentEntry:   "fs_main",
		FragmentProfile: "ps_6_0",
	}))
	assert.ErrorIs(t, bad.Init(), common.ErrFatalInit)
}
