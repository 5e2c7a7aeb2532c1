// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Transform is a scale, Euler rotation (radians, applied X then Y then Z) and translation.
// It is mutated by the UI/animation layer and read once per frame to derive matrices.
type Transform struct {
	Scale     [3]float32 `yaml:"scale"`
	Rotate    [3]float32 `yaml:"rotate"`
	Translate [3]float32 `yaml:"translate"`
}

// IdentityTransform returns a transform with unit scale, no rotation and no translation.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{Scale: [3]float32{1, 1, 1}}
}

// PixelFormat identifies the texel layout of a texture.
type PixelFormat int

const (
	// PixelFormatRGBA8Unorm is 4 bytes per texel, linear.
	PixelFormatRGBA8Unorm PixelFormat = iota

	// PixelFormatRGBA8UnormSrgb is 4 bytes per texel with sRGB encoding.
	PixelFormatRGBA8UnormSrgb
)

// BytesPerPixel returns the texel size of the format in bytes.
//
// Returns:
//   - uint32: bytes per texel
func (f PixelFormat) BytesPerPixel() uint32 {
	// every supported format is 8 bits per channel RGBA
	return 4
}

// TextureDimension identifies the dimensionality of a texture resource.
type TextureDimension int

const (
	// TextureDimension2D is a regular two-dimensional image.
	TextureDimension2D TextureDimension = iota

	// TextureDimension3D is a volume texture; ArraySize is its depth.
	TextureDimension3D
)

// TextureMetadata describes a decoded image so a device-local texture can be sized for it.
type TextureMetadata struct {
	// Width is the width of mip level 0 in pixels.
	Width uint32
	// Height is the height of mip level 0 in pixels.
	Height uint32
	// MipLevels is the number of levels in the chain, including level 0.
	MipLevels uint32
	// ArraySize is the number of array layers (or depth for 3D textures).
	ArraySize uint32
	// Format is the texel layout shared by every level.
	Format PixelFormat
	// Dimension is the texture dimensionality.
	Dimension TextureDimension
}

// MipLevel holds the raw texel bytes of one level of a mip chain.
type MipLevel struct {
	Width  uint32
	Height uint32
	// RowPitch is the number of bytes between the starts of two consecutive rows.
	RowPitch uint32
	// SlicePitch is the number of bytes of one full 2D slice (RowPitch * Height).
	SlicePitch uint32
	Pixels     []byte
}

// MipChain is the output of image decoding: the metadata plus every level, largest first.
type MipChain struct {
	Metadata TextureMetadata
	Levels   []MipLevel
}

// WhiteMipChain returns a single-level 1x1 opaque white chain, used as a placeholder
// texture when an image asset is missing.
//
// Returns:
//   - MipChain: the placeholder chain
func WhiteMipChain() MipChain {
	return MipChain{
		Metadata: TextureMetadata{
			Width:     1,
			Height:    1,
			MipLevels: 1,
			ArraySize: 1,
			Format:    PixelFormatRGBA8UnormSrgb,
			Dimension: TextureDimension2D,
		},
		Levels: []MipLevel{
			{Width: 1, Height: 1, RowPitch: 4, SlicePitch: 4, Pixels: []byte{255, 255, 255, 255}},
		},
	}
}
