package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// MappedBuffer is a linear buffer whose CPU mapping stays open from creation until Release.
// Callers write through bounds-checked typed writes instead of raw pointers; the CPU never
// reads the buffer back. Backends that cannot keep GPU memory persistently mapped drain the
// written range with FlushDirty before each submission.
type MappedBuffer struct {
	handle

	data []byte

	dirty            bool
	dirtyLo, dirtyHi uint64
}

// NewMappedBuffer wraps a mapping created by a backend.
//
// Parameters:
//   - id: backend-unique identifier
//   - label: debug label
//   - mapping: the CPU-visible bytes; its length is the buffer size
//   - native: the backend buffer object, may be nil
//   - onRelease: hook that frees the backend object, run at most once, may be nil
//
// Returns:
//   - *MappedBuffer: the buffer handle
func NewMappedBuffer(id uint64, label string, mapping []byte, native any, onRelease func()) *MappedBuffer {
	return &MappedBuffer{
		handle: handle{
			id:        id,
			label:     label,
			usage:     UsageUpload,
			native:    native,
			onRelease: onRelease,
		},
		data: mapping,
	}
}

// Size returns the size of the buffer in bytes.
func (b *MappedBuffer) Size() uint64 {
	return uint64(len(b.data))
}

// Write copies data into the buffer at offset.
//
// Parameters:
//   - offset: destination byte offset
//   - data: the bytes to copy
//
// Returns:
//   - error: ErrOutOfBounds if offset+len(data) exceeds Size, ErrReleased after Release
func (b *MappedBuffer) Write(offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("write %q: %w", b.label, ErrReleased)
	}
	end := offset + uint64(len(data))
	if end < offset || end > uint64(len(b.data)) {
		return fmt.Errorf("write %q [%d:%d] of %d bytes: %w", b.label, offset, end, len(b.data), ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}

	copy(b.data[offset:end], data)
	if !b.dirty {
		b.dirty = true
		b.dirtyLo, b.dirtyHi = offset, end
	} else {
		b.dirtyLo = min(b.dirtyLo, offset)
		b.dirtyHi = max(b.dirtyHi, end)
	}
	return nil
}

// Contents returns a copy of the current buffer bytes.
//
// Returns:
//   - []byte: a snapshot of the mapping, nil after Release
func (b *MappedBuffer) Contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// FlushDirty hands the range written since the last flush to fn and clears it. The range is
// widened to 4-byte alignment, as required by queue buffer writes. fn runs under the buffer
// lock and must not retain the slice.
//
// Parameters:
//   - fn: receives the aligned offset and the bytes to upload
//
// Returns:
//   - bool: true if there was a dirty range to flush
func (b *MappedBuffer) FlushDirty(fn func(offset uint64, data []byte)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty || b.released {
		return false
	}
	lo := b.dirtyLo &^ 3
	hi := min((b.dirtyHi+3)&^3, uint64(len(b.data)))
	b.dirty = false

	fn(lo, b.data[lo:hi])
	return true
}

// Release frees the backend buffer. Later writes fail with ErrReleased.
func (b *MappedBuffer) Release() {
	b.handle.Release()
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
}

// WriteValue writes the in-memory representation of v at offset. T must be a plain value
// type whose layout matches the GPU-side struct.
//
// Parameters:
//   - b: the destination buffer
//   - offset: destination byte offset
//   - v: pointer to the value to write
//
// Returns:
//   - error: any error from Write
func WriteValue[T any](b *MappedBuffer, offset uint64, v *T) error {
	return b.Write(offset, common.StructToBytes(v))
}

// WriteSlice writes the in-memory representation of a slice at offset.
//
// Parameters:
//   - b: the destination buffer
//   - offset: destination byte offset
//   - s: the values to write
//
// Returns:
//   - error: any error from Write
func WriteSlice[T any](b *MappedBuffer, offset uint64, s []T) error {
	return b.Write(offset, common.SliceToBytes(s))
}
