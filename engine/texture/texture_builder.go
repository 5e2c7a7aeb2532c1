package texture

import "io/fs"

// DecoderBuilderOption is a functional option used to configure a Decoder during construction.
type DecoderBuilderOption func(*decoder)

// WithFS makes the Decoder read images from fsys instead of the OS filesystem.
//
// Parameters:
//   - fsys: the filesystem to read from
//
// Returns:
//   - DecoderBuilderOption: a function that applies the filesystem option
func WithFS(fsys fs.FS) DecoderBuilderOption {
	return func(d *decoder) {
		d.fsys = fsys
	}
}

// WithMipmaps sets whether a full mip chain is generated. When false only level 0 is produced.
//
// Parameters:
//   - enabled: true to generate mips
//
// Returns:
//   - DecoderBuilderOption: a function that applies the mipmap option
func WithMipmaps(enabled bool) DecoderBuilderOption {
	return func(d *decoder) {
		d.mipmaps = enabled
	}
}

// WithSRGB sets whether decoded chains are tagged as sRGB encoded.
//
// Parameters:
//   - srgb: true for PixelFormatRGBA8UnormSrgb, false for PixelFormatRGBA8Unorm
//
// Returns:
//   - DecoderBuilderOption: a function that applies the color space option
func WithSRGB(srgb bool) DecoderBuilderOption {
	return func(d *decoder) {
		d.srgb = srgb
	}
}

// WithWorkers sets the number of workers DecodeAll decodes on.
//
// Parameters:
//   - n: the worker count, values below 1 are treated as 1
//
// Returns:
//   - DecoderBuilderOption: a function that applies the worker count option
func WithWorkers(n int) DecoderBuilderOption {
	return func(d *decoder) {
		d.workers = n
	}
}

// WithProgress registers a callback run after each image DecodeAll finishes. Calls are serialized.
//
// Parameters:
//   - fn: receives the number of images done and the total
//
// Returns:
//   - DecoderBuilderOption: a function that applies the progress option
func WithProgress(fn func(done, total int)) DecoderBuilderOption {
	return func(d *decoder) {
		d.progress = fn
	}
}
