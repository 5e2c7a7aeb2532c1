package resource

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappedBufferBoundsCheckedWrites(t *testing.T) {
	b := NewMappedBuffer(1, "material", make([]byte, 16), nil, nil)

	require.NoError(t, b.Write(0, []byte{1, 2, 3, 4}))
	require.NoError(t, b.Write(12, []byte{9, 9, 9, 9}))
	assert.ErrorIs(t, b.Write(13, []byte{1, 2, 3, 4}), ErrOutOfBounds)
	assert.ErrorIs(t, b.Write(math.MaxUint64, []byte{1}), ErrOutOfBounds)

	contents := b.Contents()
	assert.Equal(t, []byte{1, 2, 3, 4}, contents[:4])
	assert.Equal(t, []byte{9, 9, 9, 9}, contents[12:])
}

func TestWriteValueUsesMemoryLayout(t *testing.T) {
	type constants struct {
		Color   [4]float32
		Enabled int32
		_       [3]float32
	}
	b := NewMappedBuffer(2, "constants", make([]byte, 32), nil, nil)
	v := constants{Color: [4]float32{0.5, 1, 0, 1}, Enabled: 1}

	require.NoError(t, WriteValue(b, 0, &v))
	contents := b.Contents()
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(contents[0:4])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(contents[16:20]))

	assert.ErrorIs(t, WriteValue(b, 8, &v), ErrOutOfBounds)
}

func TestWriteSlice(t *testing.T) {
	b := NewMappedBuffer(3, "indices", make([]byte, 24), nil, nil)
	require.NoError(t, WriteSlice(b, 0, []uint32{0, 1, 2, 1, 3, 2}))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b.Contents()[16:20]))
	assert.ErrorIs(t, WriteSlice(b, 4, []uint32{0, 1, 2, 1, 3, 2}), ErrOutOfBounds)
}

func TestFlushDirtyAlignsAndClears(t *testing.T) {
	b := NewMappedBuffer(4, "vb", make([]byte, 32), nil, nil)
	require.NoError(t, b.Write(5, []byte{1, 2}))
	require.NoError(t, b.Write(10, []byte{3}))

	var gotOffset uint64
	var gotLen int
	flushed := b.FlushDirty(func(offset uint64, data []byte) {
		gotOffset, gotLen = offset, len(data)
	})
	assert.True(t, flushed)
	assert.Equal(t, uint64(4), gotOffset)
	assert.Equal(t, 8, gotLen)

	assert.False(t, b.FlushDirty(func(uint64, []byte) { t.Fatal("nothing should be dirty") }))
}

func TestReleaseRunsOnce(t *testing.T) {
	calls := 0
	b := NewMappedBuffer(5, "wvp", make([]byte, 8), nil, func() { calls++ })

	b.Release()
	b.Release()
	assert.Equal(t, 1, calls)
	assert.True(t, b.Released())
	assert.ErrorIs(t, b.Write(0, []byte{1}), ErrReleased)
	assert.Nil(t, b.Contents())
}

func mipChain(w, h, levels uint32) common.MipChain {
	chain := common.MipChain{Metadata: common.TextureMetadata{
		Width: w, Height: h, MipLevels: levels, ArraySize: 1, Format: common.PixelFormatRGBA8UnormSrgb,
	}}
	for i := uint32(0); i < levels; i++ {
		chain.Levels = append(chain.Levels, common.MipLevel{
			Width: w, Height: h, RowPitch: w * 4, SlicePitch: w * 4 * h, Pixels: make([]byte, w*4*h),
		})
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return chain
}

func TestValidateMipChain(t *testing.T) {
	chain := mipChain(8, 4, 4)
	tex := NewTexture(6, "fence", chain.Metadata, nil, nil)
	assert.NoError(t, tex.ValidateMipChain(chain))

	short := chain
	short.Levels = chain.Levels[:2]
	assert.ErrorIs(t, tex.ValidateMipChain(short), ErrMipMismatch)

	bad := mipChain(8, 4, 4)
	bad.Levels[1].Pixels = bad.Levels[1].Pixels[:3]
	assert.ErrorIs(t, tex.ValidateMipChain(bad), ErrMipMismatch)

	tex.Release()
	assert.ErrorIs(t, tex.ValidateMipChain(chain), ErrReleased)
	assert.Equal(t, UsageDeviceLocal, tex.Usage())
}
