package resource

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// ErrMipMismatch is returned when a mip chain does not fit the texture it is uploaded into.
var ErrMipMismatch = errors.New("mip chain does not match texture")

// Texture is a device-local image sized from decoded metadata.
type Texture struct {
	handle

	metadata common.TextureMetadata
	uploaded bool
}

// NewTexture wraps a texture created by a backend.
//
// Parameters:
//   - id: backend-unique identifier
//   - label: debug label
//   - metadata: the size, format and mip count the texture was allocated with
//   - native: the backend texture object, may be nil
//   - onRelease: hook that frees the backend object, run at most once, may be nil
//
// Returns:
//   - *Texture: the texture handle
func NewTexture(id uint64, label string, metadata common.TextureMetadata, native any, onRelease func()) *Texture {
	return &Texture{
		handle: handle{
			id:        id,
			label:     label,
			usage:     UsageDeviceLocal,
			native:    native,
			onRelease: onRelease,
		},
		metadata: metadata,
	}
}

// Metadata returns the allocation metadata of the texture.
func (t *Texture) Metadata() common.TextureMetadata {
	return t.metadata
}

// Uploaded reports whether a mip chain has been copied into the texture.
func (t *Texture) Uploaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uploaded
}

// MarkUploaded records a successful mip upload.
func (t *Texture) MarkUploaded() {
	t.mu.Lock()
	t.uploaded = true
	t.mu.Unlock()
}

// ValidateMipChain checks that every level of chain has the size and pitches the texture
// expects, so a backend can copy each level blindly.
//
// Parameters:
//   - chain: the decoded mip chain
//
// Returns:
//   - error: ErrMipMismatch describing the first bad level, ErrReleased after Release
func (t *Texture) ValidateMipChain(chain common.MipChain) error {
	if t.Released() {
		return fmt.Errorf("upload %q: %w", t.label, ErrReleased)
	}
	if uint32(len(chain.Levels)) != t.metadata.MipLevels {
		return fmt.Errorf("%q has %d levels, chain has %d: %w", t.label, t.metadata.MipLevels, len(chain.Levels), ErrMipMismatch)
	}

	bpp := t.metadata.Format.BytesPerPixel()
	layers := max(t.metadata.ArraySize, 1)
	w, h := t.metadata.Width, t.metadata.Height
	for i, level := range chain.Levels {
		if level.Width != w || level.Height != h {
			return fmt.Errorf("%q level %d is %dx%d, want %dx%d: %w", t.label, i, level.Width, level.Height, w, h, ErrMipMismatch)
		}
		if level.RowPitch < w*bpp || level.SlicePitch < level.RowPitch*h {
			return fmt.Errorf("%q level %d pitch %d/%d too small: %w", t.label, i, level.RowPitch, level.SlicePitch, ErrMipMismatch)
		}
		if uint64(len(level.Pixels)) < uint64(level.SlicePitch)*uint64(layers) {
			return fmt.Errorf("%q level %d has %d bytes, want %d: %w", t.label, i, len(level.Pixels), level.SlicePitch*layers, ErrMipMismatch)
		}
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return nil
}
