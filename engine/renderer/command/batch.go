package command

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
)

var (
	// ErrBatchClosed is returned when recording into a batch after Close.
	ErrBatchClosed = errors.New("command batch is closed")

	// ErrNoVertexBuffer is returned by a draw recorded without a bound vertex buffer.
	ErrNoVertexBuffer = errors.New("draw without a bound vertex buffer")

	// ErrNoIndexBuffer is returned by an indexed draw recorded without a bound index buffer.
	ErrNoIndexBuffer = errors.New("indexed draw without a bound index buffer")
)

// Batch is the ordered list of commands for one frame. It is not safe for concurrent use;
// frames are recorded on a single goroutine.
type Batch struct {
	frame    uint64
	commands []Command
	closed   bool

	vertexBound bool
	indexBound  bool
}

// Frame returns the frame number the batch was begun for.
func (b *Batch) Frame() uint64 {
	return b.frame
}

// Closed reports whether Close has been called.
func (b *Batch) Closed() bool {
	return b.closed
}

// Commands returns the recorded commands. The slice must not be modified.
func (b *Batch) Commands() []Command {
	return b.commands
}

// Len returns the number of recorded commands.
func (b *Batch) Len() int {
	return len(b.commands)
}

// DrawCount returns the number of draw commands in the batch.
func (b *Batch) DrawCount() int {
	n := 0
	for _, c := range b.commands {
		if c.Kind == KindDraw || c.Kind == KindDrawIndexed {
			n++
		}
	}
	return n
}

func (b *Batch) push(c Command) error {
	if b.closed {
		return fmt.Errorf("record %s: %w", c.Kind, ErrBatchClosed)
	}
	b.commands = append(b.commands, c)
	return nil
}

// Transition records a backbuffer state change.
func (b *Batch) Transition(from, to ResourceState) error {
	return b.push(Command{Kind: KindTransition, From: from, To: to})
}

// ClearColor records a render target clear.
func (b *Batch) ClearColor(rgba [4]float32) error {
	return b.push(Command{Kind: KindClearColor, Color: rgba})
}

// ClearDepth records a depth target clear.
func (b *Batch) ClearDepth(depth float32) error {
	return b.push(Command{Kind: KindClearDepth, Depth: depth})
}

// SetViewport records the viewport and scissor rectangle (x, y, width, height) in pixels.
func (b *Batch) SetViewport(x, y, width, height float32) error {
	return b.push(Command{Kind: KindSetViewport, Rect: [4]float32{x, y, width, height}})
}

// SetPipeline records a pipeline change by key.
func (b *Batch) SetPipeline(key string) error {
	return b.push(Command{Kind: KindSetPipeline, Label: key})
}

// BindConstants records a constant buffer binding.
func (b *Batch) BindConstants(slot Slot, buf *resource.MappedBuffer) error {
	return b.push(Command{Kind: KindBindConstants, Slot: slot, Buffer: buf})
}

// BindVertexBuffer records a vertex buffer binding.
//
// Parameters:
//   - buf: the vertex buffer
//   - stride: bytes per vertex
func (b *Batch) BindVertexBuffer(buf *resource.MappedBuffer, stride uint32) error {
	if err := b.push(Command{Kind: KindBindVertexBuffer, Buffer: buf, Stride: stride}); err != nil {
		return err
	}
	b.vertexBound = true
	return nil
}

// BindIndexBuffer records a 32-bit index buffer binding.
func (b *Batch) BindIndexBuffer(buf *resource.MappedBuffer) error {
	if err := b.push(Command{Kind: KindBindIndexBuffer, Buffer: buf}); err != nil {
		return err
	}
	b.indexBound = true
	return nil
}

// BindTexture records a texture binding.
func (b *Batch) BindTexture(slot Slot, tex *resource.Texture) error {
	return b.push(Command{Kind: KindBindTexture, Slot: slot, Texture: tex})
}

// Draw records a non-indexed draw of vertexCount vertices.
func (b *Batch) Draw(vertexCount uint32) error {
	if !b.vertexBound {
		return ErrNoVertexBuffer
	}
	return b.push(Command{Kind: KindDraw, Count: vertexCount})
}

// DrawIndexed records an indexed draw of indexCount indices.
func (b *Batch) DrawIndexed(indexCount uint32) error {
	if !b.vertexBound {
		return ErrNoVertexBuffer
	}
	if !b.indexBound {
		return ErrNoIndexBuffer
	}
	return b.push(Command{Kind: KindDrawIndexed, Count: indexCount})
}

// Marker records a debug marker.
func (b *Batch) Marker(label string) error {
	return b.push(Command{Kind: KindMarker, Label: label})
}

// Close finishes recording. Closing twice returns ErrBatchClosed.
func (b *Batch) Close() error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true
	return nil
}

func (b *Batch) reset(frame uint64) {
	b.frame = frame
	b.commands = b.commands[:0]
	b.closed = false
	b.vertexBound = false
	b.indexBound = false
}
