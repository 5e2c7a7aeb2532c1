// Package resource holds the backend-neutral handles for GPU resources created by the
// Renderer: linear buffers that stay mapped for their whole lifetime and device-local
// textures. Backends attach their native object to a handle and a release hook that runs
// exactly once.
package resource

import (
	"errors"
	"sync"
)

var (
	// ErrOutOfBounds is returned by a write that would touch bytes past the end of a buffer.
	ErrOutOfBounds = errors.New("write out of bounds")

	// ErrReleased is returned by any operation on a handle after Release.
	ErrReleased = errors.New("resource released")
)

// Usage records where a resource lives and who can write it.
type Usage int

const (
	// UsageUpload is CPU-writable, GPU-visible memory. Linear buffers are always upload memory.
	UsageUpload Usage = iota

	// UsageDeviceLocal is GPU-only memory filled through an explicit copy. Textures live here.
	UsageDeviceLocal
)

func (u Usage) String() string {
	switch u {
	case UsageUpload:
		return "upload"
	case UsageDeviceLocal:
		return "device-local"
	default:
		return "unknown"
	}
}

// handle is the shared identity and release bookkeeping of every resource.
type handle struct {
	mu sync.Mutex

	id     uint64
	label  string
	usage  Usage
	native any

	released  bool
	onRelease func()
}

// ID returns the backend-assigned identifier of the resource, unique per backend.
func (h *handle) ID() uint64 {
	return h.id
}

// Label returns the debug label the resource was created with.
func (h *handle) Label() string {
	return h.label
}

// Usage returns the memory usage state of the resource.
func (h *handle) Usage() Usage {
	return h.usage
}

// Native returns the backend object behind the handle (e.g. *wgpu.Buffer), or nil.
func (h *handle) Native() any {
	return h.native
}

// Released reports whether Release has been called.
func (h *handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release runs the backend release hook. Only the first call has any effect.
func (h *handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	hook := h.onRelease
	h.onRelease = nil
	h.mu.Unlock()

	if hook != nil {
		hook()
	}
}
