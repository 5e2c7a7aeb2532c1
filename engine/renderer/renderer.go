package renderer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/fence"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource is what the WebGPU backend needs from a window: a surface descriptor and the
// initial drawable size. window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// releasable is implemented by every resource handle the renderer tracks.
type releasable interface {
	Release()
	Released() bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	resources     []releasable

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingBackend       RendererBackend
	simOptions           []SimulatedBackendBuilderOption
	width, height        int

	released bool
}

// Renderer is the GPU context object. It owns the execution backend, acts as the upload
// manager for buffers and textures, keeps the pipeline cache and exposes the queue's
// completion counter so a fence.Synchronizer can be built on top of it.
//
// The Renderer is passed explicitly to everything that creates GPU resources; there is no
// package-level device state.
type Renderer interface {
	fence.Queue

	// BackendType returns the type of the backend the renderer was created with.
	BackendType() RendererBackendType

	// Backend returns the execution backend.
	Backend() RendererBackend

	// CreateLinearBuffer allocates a CPU-writable, GPU-visible buffer of at least size bytes.
	// The buffer stays mapped until Release and is tracked for release on shutdown.
	//
	// Parameters:
	//   - label: debug label
	//   - size: requested size in bytes
	//
	// Returns:
	//   - *resource.MappedBuffer: the mapped buffer
	//   - error: a *common.FatalResourceError if the allocation failed
	CreateLinearBuffer(label string, size uint64) (*resource.MappedBuffer, error)

	// CreateTexture allocates a device-local texture sized from decoded metadata.
	//
	// Parameters:
	//   - label: debug label
	//   - metadata: the texture size, mip count and format
	//
	// Returns:
	//   - *resource.Texture: the texture handle
	//   - error: a *common.FatalResourceError if the allocation failed
	CreateTexture(label string, metadata common.TextureMetadata) (*resource.Texture, error)

	// UploadMips copies every level of chain into tex using each level's row and slice pitch.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - chain: the decoded mip chain
	//
	// Returns:
	//   - error: a *common.FatalResourceError if the chain does not fit the texture or the copy failed
	UploadMips(tex *resource.Texture, chain common.MipChain) error

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines validates each pipeline, creates its native object through the
	// backend and caches it by PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a *common.FatalInitError if validation or creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SurfaceSize returns the current surface size in pixels.
	SurfaceSize() (width, height int)

	// Submit hands a closed batch to the backend.
	Submit(batch *command.Batch) error

	// Present flips the backbuffer of the last submitted batch.
	Present() error

	// LiveResources returns the number of tracked resources that have not been released.
	LiveResources() int

	// Release releases every tracked resource exactly once, then the backend. Callers must
	// drain the synchronizer first. Later calls are no-ops.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer is the entry point to create a Renderer.
//
// Parameters:
//   - backendType: the backend to create; ignored when WithBackend is given
//   - surface: the window supplying the WebGPU surface, may be nil for the simulated backend
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: a *common.FatalInitError if the backend could not be created
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	for _, opt := range options {
		opt(r)
	}

	if surface != nil {
		r.width = common.Coalesce(r.width, surface.Width())
		r.height = common.Coalesce(r.height, surface.Height())
	}

	switch {
	case r.pendingBackend != nil:
		r.backend = r.pendingBackend
	case backendType == BackendTypeSimulated:
		r.backend = NewSimulatedBackend(r.simOptions...)
	default:
		if surface == nil {
			return nil, &common.FatalInitError{Stage: "surface", Err: errors.New("the wgpu backend needs a window")}
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.width > 0 && r.height > 0 {
		r.backend.ConfigureSurface(r.width, r.height)
	}

	w, h := r.backend.SurfaceSize()
	log.Printf("[Renderer] %s backend ready, surface %dx%d", backendType, w, h)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) track(res releasable) {
	r.mu.Lock()
	r.resources = append(r.resources, res)
	r.mu.Unlock()
}

func (r *renderer) CreateLinearBuffer(label string, size uint64) (*resource.MappedBuffer, error) {
	buf, err := r.backend.CreateLinearBuffer(label, size)
	if err != nil {
		return nil, &common.FatalResourceError{Resource: label, Size: size, Err: err}
	}
	r.track(buf)
	return buf, nil
}

func (r *renderer) CreateTexture(label string, metadata common.TextureMetadata) (*resource.Texture, error) {
	tex, err := r.backend.CreateTexture(label, metadata)
	if err != nil {
		return nil, &common.FatalResourceError{Resource: label, Err: err}
	}
	r.track(tex)
	return tex, nil
}

func (r *renderer) UploadMips(tex *resource.Texture, chain common.MipChain) error {
	if err := tex.ValidateMipChain(chain); err != nil {
		return &common.FatalResourceError{Resource: tex.Label(), Err: err}
	}
	if err := r.backend.UploadMips(tex, chain); err != nil {
		return &common.FatalResourceError{Resource: tex.Label(), Err: err}
	}
	tex.MarkUploaded()
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := p.Validate(); err != nil {
			return &common.FatalInitError{Stage: "pipeline", Err: err}
		}
		if err := r.backend.CreatePipeline(p); err != nil {
			return &common.FatalInitError{Stage: "pipeline", Err: fmt.Errorf("%s: %w", key, err)}
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) Submit(batch *command.Batch) error {
	return r.backend.Submit(batch)
}

func (r *renderer) Present() error {
	return r.backend.Present()
}

func (r *renderer) Signal(value uint64) error {
	return r.backend.Signal(value)
}

func (r *renderer) CompletedValue() uint64 {
	return r.backend.CompletedValue()
}

func (r *renderer) CompletionEvent(ctx context.Context, value uint64) <-chan struct{} {
	return r.backend.CompletionEvent(ctx, value)
}

func (r *renderer) LiveResources() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := 0
	for _, res := range r.resources {
		if !res.Released() {
			live++
		}
	}
	return live
}

func (r *renderer) Release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	resources := r.resources
	r.resources = nil
	r.mu.Unlock()

	// newest first, so nothing is freed before the objects created from it
	for i := len(resources) - 1; i >= 0; i-- {
		resources[i].Release()
	}
	r.backend.Release()
	log.Printf("[Renderer] released %d resources", len(resources))
}
