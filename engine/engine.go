package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/overlay"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/fence"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
)

// DefaultPipelineKey is the key the scene pipeline is registered under.
const DefaultPipelineKey = "object3d"

// Window is what the engine needs from a platform window: an event pump and the callbacks
// it routes to the renderer and camera. window.Window satisfies it.
type Window interface {
	PollEvents() bool
	SetResizeCallback(callback func(width, height int))
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))
}

// engine implements the Engine interface.
type engine struct {
	renderer renderer.Renderer
	scene    scene.Scene
	camera   camera.Camera
	window   Window

	recorder     *command.Recorder
	synchronizer fence.Synchronizer
	syncTimeout  time.Duration

	pipeline     pipeline.Pipeline
	compiler     shader.Compiler
	shaderConfig scene.ShaderConfig

	overlays   []overlay.Overlay
	clearColor [4]float32
	clearDepth float32

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration
	maxFrames        uint64
	observer         StageObserver

	frame uint64

	quitChannel  chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
	initialized  bool
}

// Engine is the render loop orchestrator. It owns the single command recorder and the
// frame synchronizer, and drives one Scene through the per-frame state machine defined
// by FrameStages. Every method is called from the goroutine that runs Run.
type Engine interface {
	// Renderer returns the GPU context the engine records for.
	Renderer() renderer.Renderer

	// Scene returns the scene drawn each frame.
	Scene() scene.Scene

	// Camera returns the camera the scene is viewed through.
	Camera() camera.Camera

	// Synchronizer returns the frame synchronizer.
	Synchronizer() fence.Synchronizer

	// Recorder returns the command recorder.
	Recorder() *command.Recorder

	// Profiler returns the frame profiler, which feeds stats overlays.
	Profiler() *profiler.Profiler

	// Frame returns the number of frames rendered so far.
	Frame() uint64

	// Init compiles and registers the scene pipeline and uploads the scene.
	//
	// Returns:
	//   - error: a *common.FatalInitError or *common.FatalResourceError
	Init() error

	// RenderFrame advances the camera and scene by dt seconds and runs one frame through
	// every stage, blocking in Synchronize until the GPU has finished it.
	//
	// Parameters:
	//   - ctx: cancels the synchronization wait
	//   - dt: elapsed time in seconds since the previous frame
	//
	// Returns:
	//   - error: the first failure, wrapped with the frame number and stage
	RenderFrame(ctx context.Context, dt float32) error

	// Run polls window events, runs the fixed-rate tick and renders frames until the
	// window closes, Quit is called, ctx is cancelled, the frame limit is reached or a
	// frame fails. It then drains the GPU and releases every resource.
	//
	// Parameters:
	//   - ctx: stops the loop when cancelled
	//
	// Returns:
	//   - error: the frame or shutdown error, nil on a clean exit
	Run(ctx context.Context) error

	// Resize reconfigures the surface and the camera aspect.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	Resize(width, height int)

	// AddOverlay appends an overlay recorded after the scene each frame.
	//
	// Parameters:
	//   - o: the overlay
	AddOverlay(o overlay.Overlay)

	// SetTickRate sets the fixed tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the fixed tick rate, between frames.
	//
	// Parameters:
	//   - callback: receives the fixed tick duration in seconds
	SetTickCallback(callback func(deltaTime float32))

	// EnableProfiler enables per-frame profiling.
	EnableProfiler()

	// DisableProfiler disables per-frame profiling.
	DisableProfiler()

	// Quit stops Run after the current frame. Safe to call multiple times.
	Quit()

	// Shutdown waits for the last submitted frame, then releases the renderer. Only the
	// first call does any work.
	//
	// Parameters:
	//   - ctx: cancels the drain
	//
	// Returns:
	//   - error: the drain error, if any
	Shutdown(ctx context.Context) error
}

var _ Engine = &engine{}

// NewEngine creates an Engine that records s through r.
//
// Parameters:
//   - r: the GPU context
//   - s: the scene to draw
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, s scene.Scene, options ...EngineBuilderOption) Engine {
	e := &engine{
		renderer:       r,
		scene:          s,
		recorder:       command.NewRecorder(),
		syncTimeout:    fence.DefaultTimeout,
		clearColor:     scene.DefaultClearColor,
		clearDepth:     1.0,
		profiler:       profiler.NewProfiler(),
		engineTickRate: time.Second / 60,
		quitChannel:    make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}

	width, height := r.SurfaceSize()
	if e.camera == nil {
		ctrl := camera.NewKeyboardController(camera.WithTextureToggle(s.SetTexturesEnabled))
		e.camera = camera.NewCamera(camera.WithController(ctrl))
	}
	if height > 0 {
		e.camera.SetAspect(float32(width) / float32(height))
	}
	e.synchronizer = fence.NewSynchronizer(r, fence.WithTimeout(e.syncTimeout))

	if e.window != nil {
		e.window.SetResizeCallback(e.Resize)
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			if ctrl := e.camera.Controller(); ctrl != nil {
				ctrl.KeyDown(keyCode)
			}
		})
		e.window.SetKeyUpCallback(func(keyCode uint32) {
			if ctrl := e.camera.Controller(); ctrl != nil {
				ctrl.KeyUp(keyCode)
			}
		})
	}

	return e
}

// NewShaderCompiler creates a compiler reading from fsys with the engine's shared WGSL
// struct definitions registered as includes.
//
// Parameters:
//   - fsys: the filesystem holding shader sources, or nil for the OS filesystem
//
// Returns:
//   - shader.Compiler: the compiler
func NewShaderCompiler(fsys fs.FS) shader.Compiler {
	opts := []shader.CompilerBuilderOption{
		shader.WithInclude("vertex", model.GPUVertexSource),
		shader.WithInclude("transform", model.GPUTransformationMatrixSource),
		shader.WithInclude("material", material.GPUMaterialSource),
		shader.WithInclude("light", light.GPUDirectionalLightSource),
	}
	if fsys != nil {
		opts = append(opts, shader.WithFS(fsys))
	}
	return shader.NewCompiler(opts...)
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Synchronizer() fence.Synchronizer {
	return e.synchronizer
}

func (e *engine) Recorder() *command.Recorder {
	return e.recorder
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Frame() uint64 {
	return e.frame
}

func (e *engine) Init() error {
	if e.initialized {
		return nil
	}
	if e.pipeline == nil {
		p, err := e.buildPipeline()
		if err != nil {
			return err
		}
		e.pipeline = p
	}
	if err := e.renderer.RegisterPipelines(e.pipeline); err != nil {
		return err
	}
	if err := e.scene.Init(); err != nil {
		return err
	}
	e.initialized = true
	log.Printf("[Engine] initialized %s backend with pipeline %s", e.renderer.BackendType(), e.pipeline.PipelineKey())
	return nil
}

// buildPipeline compiles the configured vertex and fragment entry points.
func (e *engine) buildPipeline() (pipeline.Pipeline, error) {
	if e.compiler == nil {
		return nil, &common.FatalInitError{Stage: "shader", Err: errors.New("no pipeline or shader compiler configured")}
	}
	cfg := e.shaderConfig
	vs, err := e.compiler.Compile(cfg.Path, cfg.VertexEntry, cfg.VertexProfile)
	if err != nil {
		return nil, &common.FatalInitError{Stage: "shader", Err: err}
	}
	ps, err := e.compiler.Compile(cfg.Path, cfg.FragmentEntry, cfg.FragmentProfile)
	if err != nil {
		return nil, &common.FatalInitError{Stage: "shader", Err: err}
	}
	return pipeline.NewPipeline(DefaultPipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(ps),
		pipeline.WithTopology(pipeline.TopologyTriangleList),
	), nil
}

func (e *engine) stage(s Stage) {
	if e.observer != nil {
		e.observer(e.frame, s)
	}
}

func (e *engine) RenderFrame(ctx context.Context, dt float32) error {
	if !e.initialized {
		return &common.FatalInitError{Stage: "frame", Err: errors.New("engine not initialized")}
	}
	e.frame++
	frame := e.frame
	fail := func(s Stage, err error) error {
		return fmt.Errorf("frame %d %s: %w", frame, s, err)
	}

	e.stage(StageBeginFrame)
	batch, err := e.recorder.Begin(frame)
	if err != nil {
		return fail(StageBeginFrame, err)
	}
	// constants are only rewritten once the previous frame is known to be complete
	width, height := e.renderer.SurfaceSize()
	e.camera.Update(dt)
	if err := e.scene.Update(dt, e.camera, width, height); err != nil {
		return fail(StageBeginFrame, err)
	}

	e.stage(StageTransitionToRenderTarget)
	if err := batch.Transition(command.StatePresent, command.StateRenderTarget); err != nil {
		return fail(StageTransitionToRenderTarget, err)
	}

	e.stage(StageClearColorAndDepth)
	if err := e.recordPassSetup(batch, width, height); err != nil {
		return fail(StageClearColorAndDepth, err)
	}

	e.stage(StageRecordDrawables)
	if err := e.scene.Record(batch); err != nil {
		return fail(StageRecordDrawables, err)
	}

	e.stage(StageRecordOverlay)
	for _, o := range e.overlays {
		if err := o.RecordOverlayCommands(batch); err != nil {
			return fail(StageRecordOverlay, err)
		}
	}

	e.stage(StageTransitionToPresent)
	if err := batch.Transition(command.StateRenderTarget, command.StatePresent); err != nil {
		return fail(StageTransitionToPresent, err)
	}

	e.stage(StageClose)
	if err := e.recorder.Close(); err != nil {
		return fail(StageClose, err)
	}

	e.stage(StageSubmit)
	if err := e.renderer.Submit(batch); err != nil {
		return fail(StageSubmit, err)
	}

	e.stage(StagePresent)
	if err := e.renderer.Present(); err != nil {
		return fail(StagePresent, err)
	}

	e.stage(StageSynchronize)
	target, err := e.synchronizer.Signal()
	if err != nil {
		return fail(StageSynchronize, err)
	}
	if err := e.recorder.MarkSubmitted(target); err != nil {
		return fail(StageSynchronize, err)
	}
	if err := e.synchronizer.Wait(ctx, target); err != nil {
		return fail(StageSynchronize, err)
	}

	e.stage(StageResetRecorder)
	if err := e.recorder.Reset(e.synchronizer.Completed()); err != nil {
		return fail(StageResetRecorder, err)
	}
	return nil
}

// recordPassSetup clears the targets and sets the viewport, scissor and pipeline.
func (e *engine) recordPassSetup(batch *command.Batch, width, height int) error {
	if err := batch.ClearColor(e.clearColor); err != nil {
		return err
	}
	if err := batch.ClearDepth(e.clearDepth); err != nil {
		return err
	}
	if err := batch.SetViewport(0, 0, float32(width), float32(height)); err != nil {
		return err
	}
	return batch.SetPipeline(e.pipeline.PipelineKey())
}

func (e *engine) Run(ctx context.Context) error {
	if err := e.Init(); err != nil {
		return errors.Join(err, e.Shutdown(ctx))
	}

	var runErr error
	lastFrame := time.Now()
	var accumulator time.Duration

loop:
	for {
		select {
		case <-e.quitChannel:
			break loop
		case <-ctx.Done():
			break loop
		default:
		}
		if e.window != nil && !e.window.PollEvents() {
			break
		}

		now := time.Now()
		elapsed := now.Sub(lastFrame)
		lastFrame = now

		// fixed-rate tick, bounded so a stall does not trigger a burst of catch-up ticks
		accumulator = min(accumulator+elapsed, 5*e.engineTickRate)
		for accumulator >= e.engineTickRate {
			if e.tickCallback != nil {
				e.tickCallback(float32(e.engineTickRate.Seconds()))
			}
			accumulator -= e.engineTickRate
		}

		if err := e.RenderFrame(ctx, float32(elapsed.Seconds())); err != nil {
			if !errors.Is(err, context.Canceled) {
				runErr = err
			}
			break
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}
		if e.maxFrames > 0 && e.frame >= e.maxFrames {
			break
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}

	if runErr != nil {
		log.Printf("[Engine] stopped at frame %d: %v", e.frame, runErr)
	} else {
		log.Printf("[Engine] stopped after %d frames", e.frame)
	}
	// the run context may already be cancelled; drain with a fresh one bounded by the
	// synchronizer timeout
	return errors.Join(runErr, e.Shutdown(context.WithoutCancel(ctx)))
}

func (e *engine) Shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() {
		if err := e.synchronizer.Drain(ctx); err != nil {
			e.shutdownErr = err
			log.Printf("[Engine] drain failed, releasing anyway: %v", err)
		}
		e.renderer.Release()
	})
	return e.shutdownErr
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	e.camera.SetAspect(float32(width) / float32(height))
}

func (e *engine) AddOverlay(o overlay.Overlay) {
	e.overlays = append(e.overlays, o)
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	e.engineTickRate = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// Quit closes the quit channel once; Run observes it before the next frame.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}
