// Package command implements the CPU-side command batch that a frame is recorded into and
// the single Recorder that owns it. A batch is an ordered list of backend-neutral GPU
// operations; the execution backend translates it when it is submitted.
package command

import (
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
)

// Kind identifies the operation a Command performs.
type Kind int

const (
	// KindTransition moves the backbuffer between resource states.
	KindTransition Kind = iota
	// KindClearColor clears the render target to Color.
	KindClearColor
	// KindClearDepth clears the depth target to Depth.
	KindClearDepth
	// KindSetViewport sets the viewport and scissor rectangle to Rect.
	KindSetViewport
	// KindSetPipeline selects the pipeline named by Label.
	KindSetPipeline
	// KindBindConstants binds Buffer as the constant block for Slot.
	KindBindConstants
	// KindBindVertexBuffer binds Buffer as the vertex stream with Stride bytes per vertex.
	KindBindVertexBuffer
	// KindBindIndexBuffer binds Buffer as a 32-bit index stream.
	KindBindIndexBuffer
	// KindBindTexture binds Texture to Slot.
	KindBindTexture
	// KindDraw draws Count non-indexed vertices.
	KindDraw
	// KindDrawIndexed draws Count indices from the bound index buffer.
	KindDrawIndexed
	// KindMarker inserts a debug marker named by Label.
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindTransition:
		return "Transition"
	case KindClearColor:
		return "ClearColor"
	case KindClearDepth:
		return "ClearDepth"
	case KindSetViewport:
		return "SetViewport"
	case KindSetPipeline:
		return "SetPipeline"
	case KindBindConstants:
		return "BindConstants"
	case KindBindVertexBuffer:
		return "BindVertexBuffer"
	case KindBindIndexBuffer:
		return "BindIndexBuffer"
	case KindBindTexture:
		return "BindTexture"
	case KindDraw:
		return "Draw"
	case KindDrawIndexed:
		return "DrawIndexed"
	case KindMarker:
		return "Marker"
	default:
		return "Unknown"
	}
}

// ResourceState is the usage state of the backbuffer.
type ResourceState int

const (
	// StatePresent is the state a backbuffer must be in to be displayed.
	StatePresent ResourceState = iota
	// StateRenderTarget is the state a backbuffer must be in to be drawn into.
	StateRenderTarget
)

// Slot is a binding point shared by the recorder and the pipeline layout.
type Slot uint32

const (
	// SlotMaterial holds the material constants.
	SlotMaterial Slot = 0
	// SlotTransform holds the WVP and World matrices.
	SlotTransform Slot = 1
	// SlotTexture holds the sampled texture.
	SlotTexture Slot = 2
	// SlotLight holds the directional light constants.
	SlotLight Slot = 3
)

// Command is one recorded operation. Only the fields relevant to Kind are set.
type Command struct {
	Kind Kind

	From, To ResourceState

	Color [4]float32
	Depth float32
	Rect  [4]float32

	Slot    Slot
	Buffer  *resource.MappedBuffer
	Texture *resource.Texture
	Stride  uint32
	Count   uint32

	Label string
}
