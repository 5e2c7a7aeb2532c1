package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/overlay"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler, for example one with a custom clock or interval.
//
// Parameters:
//   - p: the profiler to sample each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		if p != nil {
			e.profiler = p
		}
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetTickRate(fps)
	}
}

// WithTickCallback sets the function called at the fixed tick rate.
//
// Parameters:
//   - callback: receives the tick duration in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithWindow attaches the window whose events drive Run. Resize and key callbacks are routed
// to the renderer and the camera controller.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithCamera sets the camera instead of the default keyboard-controlled one.
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithOverlay appends an overlay recorded after the scene.
//
// Parameters:
//   - o: the overlay
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOverlay(o overlay.Overlay) EngineBuilderOption {
	return func(e *engine) {
		e.overlays = append(e.overlays, o)
	}
}

// WithClearColor sets the render target clear color.
func WithClearColor(rgba [4]float32) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = rgba
	}
}

// WithPipeline sets a prebuilt scene pipeline, skipping shader compilation in Init.
//
// Parameters:
//   - p: the pipeline; its key is bound at the start of every pass
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipeline(p pipeline.Pipeline) EngineBuilderOption {
	return func(e *engine) {
		e.pipeline = p
	}
}

// WithShaderCompiler sets the compiler and entry points Init uses to build the scene pipeline.
//
// Parameters:
//   - c: the compiler, usually from NewShaderCompiler
//   - cfg: the shader path, entry points and profiles
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderCompiler(c shader.Compiler, cfg scene.ShaderConfig) EngineBuilderOption {
	return func(e *engine) {
		e.compiler = c
		e.shaderConfig = cfg
	}
}

// WithSyncTimeout bounds each frame's synchronization wait. Zero waits forever.
//
// Parameters:
//   - d: the timeout
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSyncTimeout(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.syncTimeout = d
	}
}

// WithStageObserver registers a function called as each frame stage starts.
func WithStageObserver(observer StageObserver) EngineBuilderOption {
	return func(e *engine) {
		e.observer = observer
	}
}

// WithMaxFrames stops Run after n frames. Zero runs until the window closes or Quit.
//
// Parameters:
//   - n: the frame count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithRenderFrameLimit caps the render rate. Values <= 0 leave it uncapped.
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
