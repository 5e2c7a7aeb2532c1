package renderer

import (
	"context"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSimulated selects the in-process simulated GPU. It needs no window and
	// completes submitted work on its own goroutine.
	BackendTypeSimulated
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the execution backend behind the Renderer. It owns the device and the
// queue, creates resources, translates closed command batches into native work and exposes
// the queue's completion counter.
//
// Every method except CompletedValue and CompletionEvent is called from the render goroutine.
type RendererBackend interface {
	// CreateLinearBuffer allocates an upload-visible buffer of at least size bytes and
	// returns it persistently mapped.
	//
	// Parameters:
	//   - label: debug label
	//   - size: requested size in bytes
	//
	// Returns:
	//   - *resource.MappedBuffer: the mapped buffer
	//   - error: an error if the allocation failed
	CreateLinearBuffer(label string, size uint64) (*resource.MappedBuffer, error)

	// CreateTexture allocates a device-local texture sized from metadata.
	//
	// Parameters:
	//   - label: debug label
	//   - metadata: width, height, mip count and format of the texture
	//
	// Returns:
	//   - *resource.Texture: the texture handle
	//   - error: an error if the allocation failed
	CreateTexture(label string, metadata common.TextureMetadata) (*resource.Texture, error)

	// UploadMips copies every level of chain into tex. The chain has already been validated
	// against the texture metadata.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - chain: the decoded mip chain
	//
	// Returns:
	//   - error: an error if the copy could not be issued
	UploadMips(tex *resource.Texture, chain common.MipChain) error

	// CreatePipeline builds the native pipeline object for p and stores it with SetNative.
	//
	// Parameters:
	//   - p: a validated pipeline description
	//
	// Returns:
	//   - error: an error if the pipeline could not be created
	CreatePipeline(p pipeline.Pipeline) error

	// Submit translates a closed batch into native commands and hands it to the queue.
	//
	// Parameters:
	//   - batch: the closed command batch
	//
	// Returns:
	//   - error: an error if translation or submission failed
	Submit(batch *command.Batch) error

	// Signal enqueues a completion signal for value behind all submitted work.
	Signal(value uint64) error

	// CompletedValue returns the highest value the GPU has reached. Safe from any goroutine.
	CompletedValue() uint64

	// CompletionEvent returns a channel closed once CompletedValue reaches value. Whatever
	// the backend runs to observe completion stops when ctx is done or on Release. Safe from
	// any goroutine.
	CompletionEvent(ctx context.Context, value uint64) <-chan struct{}

	// Present flips the backbuffer recorded into by the last submitted batch.
	Present() error

	// ConfigureSurface resizes the swapchain and the depth target.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceSize returns the configured surface size in pixels.
	SurfaceSize() (width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// Release frees the device and every backend object still alive.
	Release()
}
