// Package texture decodes image assets into mip chains ready for upload. Formats are sniffed
// from the file header rather than trusted from the extension.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/h2non/filetype"
	"golang.org/x/image/draw"
)

// Result is the outcome of decoding one path in DecodeAll.
type Result struct {
	Path  string
	Chain common.MipChain
	Err   error
}

// decoder is the implementation of the Decoder interface.
type decoder struct {
	fsys     fs.FS
	mipmaps  bool
	srgb     bool
	workers  int
	progress func(done, total int)
}

// Decoder turns image files into mip chains.
type Decoder interface {
	// Decode reads and decodes the image at path.
	//
	// Parameters:
	//   - path: the image file path
	//
	// Returns:
	//   - common.MipChain: the decoded chain, largest level first
	//   - error: a *common.AssetError if the file is missing, not an image or corrupt
	Decode(path string) (common.MipChain, error)

	// DecodeReader decodes an image from r. name is used in errors only.
	//
	// Parameters:
	//   - name: a label for the stream
	//   - r: the reader providing the encoded image
	//
	// Returns:
	//   - common.MipChain: the decoded chain
	//   - error: a *common.AssetError if the stream is not a supported image
	DecodeReader(name string, r io.Reader) (common.MipChain, error)

	// DecodeAll decodes every path in parallel on a worker pool and returns once all are done.
	//
	// Parameters:
	//   - paths: the image file paths
	//
	// Returns:
	//   - []Result: one result per path, in the order of paths
	DecodeAll(paths []string) []Result
}

var _ Decoder = &decoder{}

// NewDecoder creates a Decoder. Defaults: full mip chains, sRGB format, 4 workers.
//
// Parameters:
//   - options: a variadic list of DecoderBuilderOption functions
//
// Returns:
//   - Decoder: the decoder
func NewDecoder(options ...DecoderBuilderOption) Decoder {
	d := &decoder{
		mipmaps: true,
		srgb:    true,
		workers: 4,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *decoder) Decode(path string) (common.MipChain, error) {
	var data []byte
	var err error
	if d.fsys != nil {
		data, err = fs.ReadFile(d.fsys, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return common.MipChain{}, common.NewFileNotFoundError(path, err)
	}
	return d.decode(path, data)
}

func (d *decoder) DecodeReader(name string, r io.Reader) (common.MipChain, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return common.MipChain{}, &common.AssetError{Path: name, Err: fmt.Errorf("%w: %v", common.ErrMalformedAsset, err)}
	}
	return d.decode(name, data)
}

func (d *decoder) decode(name string, data []byte) (common.MipChain, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return common.MipChain{}, &common.AssetError{Path: name, Err: fmt.Errorf("%w: unrecognized image data", common.ErrUnsupportedAsset)}
	}

	var img image.Image
	switch kind.Extension {
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	case "jpg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return common.MipChain{}, &common.AssetError{Path: name, Err: fmt.Errorf("%w: image type %s", common.ErrUnsupportedAsset, kind.MIME.Value)}
	}
	if err != nil {
		return common.MipChain{}, &common.AssetError{Path: name, Err: fmt.Errorf("%w: %v", common.ErrMalformedAsset, err)}
	}

	return d.buildChain(img), nil
}

// buildChain converts img to straight-alpha RGBA and, if enabled, halves it down to 1x1
// with a bilinear filter.
func (d *decoder) buildChain(img image.Image) common.MipChain {
	bounds := img.Bounds()
	base := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(base, base.Bounds(), img, bounds.Min, draw.Src)

	format := common.PixelFormatRGBA8Unorm
	if d.srgb {
		format = common.PixelFormatRGBA8UnormSrgb
	}
	chain := common.MipChain{
		Metadata: common.TextureMetadata{
			Width:     uint32(base.Rect.Dx()),
			Height:    uint32(base.Rect.Dy()),
			ArraySize: 1,
			Format:    format,
			Dimension: common.TextureDimension2D,
		},
	}

	level := base
	for {
		w, h := level.Rect.Dx(), level.Rect.Dy()
		chain.Levels = append(chain.Levels, common.MipLevel{
			Width:      uint32(w),
			Height:     uint32(h),
			RowPitch:   uint32(level.Stride),
			SlicePitch: uint32(level.Stride * h),
			Pixels:     level.Pix,
		})
		if !d.mipmaps || (w == 1 && h == 1) {
			break
		}
		next := image.NewNRGBA(image.Rect(0, 0, max(w/2, 1), max(h/2, 1)))
		draw.BiLinear.Scale(next, next.Bounds(), level, level.Bounds(), draw.Src, nil)
		level = next
	}
	chain.Metadata.MipLevels = uint32(len(chain.Levels))
	return chain
}

func (d *decoder) DecodeAll(paths []string) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	start := time.Now()
	pool := worker.NewDynamicWorkerPool(max(d.workers, 1), 256, 1*time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()

				chain, err := d.Decode(p)
				results[idx] = Result{Path: p, Chain: chain, Err: err}

				if d.progress != nil {
					mu.Lock()
					done++
					d.progress(done, len(paths))
					mu.Unlock()
				}
				return nil, err
			},
		})
	}
	wg.Wait()

	log.Printf("[Texture] decoded %d images in %s", len(paths), time.Since(start).Round(time.Millisecond))
	return results
}
