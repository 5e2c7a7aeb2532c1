package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func identity() [16]float32 {
	var m [16]float32
	Identity(m[:])
	return m
}

func TestMul4AppliesLeftOperandFirst(t *testing.T) {
	var s, tr, st, ts [16]float32
	Scale(s[:], [3]float32{2, 2, 2})
	Translate(tr[:], [3]float32{1, 0, 0})

	Mul4(st[:], s[:], tr[:])
	Mul4(ts[:], tr[:], s[:])

	p := [4]float32{1, 0, 0, 1}
	// scale then translate: (1*2)+1
	assert.InDelta(t, 3, TransformPoint(p, st[:])[0], eps)
	// translate then scale: (1+1)*2
	assert.InDelta(t, 4, TransformPoint(p, ts[:])[0], eps)
}

func TestMul4Aliasing(t *testing.T) {
	var a, b [16]float32
	Translate(a[:], [3]float32{1, 2, 3})
	Translate(b[:], [3]float32{4, 5, 6})

	Mul4(a[:], a[:], b[:])
	assert.InDeltaSlice(t, []float32{5, 7, 9}, a[12:15], eps)
}

func TestRotationsRowVector(t *testing.T) {
	var m [16]float32
	half := math32.Pi / 2

	RotateZ(m[:], half)
	out := TransformPoint([4]float32{1, 0, 0, 1}, m[:])
	assert.InDeltaSlice(t, []float32{0, 1, 0, 1}, out[:], eps)

	RotateX(m[:], half)
	out = TransformPoint([4]float32{0, 1, 0, 1}, m[:])
	assert.InDeltaSlice(t, []float32{0, 0, 1, 1}, out[:], eps)

	RotateY(m[:], half)
	out = TransformPoint([4]float32{0, 0, 1, 1}, m[:])
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, out[:], eps)
}

func TestAffineOrder(t *testing.T) {
	tf := Transform{
		Scale:     [3]float32{2, 1, 1},
		Rotate:    [3]float32{0, 0, math32.Pi / 2},
		Translate: [3]float32{10, 0, 0},
	}
	var expected, s, rz, tr, w [16]float32
	Scale(s[:], tf.Scale)
	RotateZ(rz[:], tf.Rotate[2])
	Translate(tr[:], tf.Translate)
	Mul4(expected[:], s[:], rz[:])
	Mul4(expected[:], expected[:], tr[:])

	Affine(w[:], tf)
	assert.InDeltaSlice(t, expected[:], w[:], eps)

	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), moved to (10,2,0)
	out := TransformPoint([4]float32{1, 0, 0, 1}, w[:])
	assert.InDeltaSlice(t, []float32{10, 2, 0, 1}, out[:], eps)
}

func TestUVAffineIgnoresXYRotation(t *testing.T) {
	var a, b [16]float32
	UVAffine(a[:], Transform{Scale: [3]float32{1, 1, 1}, Rotate: [3]float32{1, 2, 0.5}})
	UVAffine(b[:], Transform{Scale: [3]float32{1, 1, 1}, Rotate: [3]float32{0, 0, 0.5}})
	assert.InDeltaSlice(t, b[:], a[:], eps)
}

func TestInvert4(t *testing.T) {
	var m, inv, product [16]float32
	Affine(m[:], Transform{
		Scale:     [3]float32{1, 2, 3},
		Rotate:    [3]float32{0.3, -0.7, 1.1},
		Translate: [3]float32{4, -5, 6},
	})

	require.True(t, Invert4(inv[:], m[:]))
	Mul4(product[:], m[:], inv[:])
	id := identity()
	assert.InDeltaSlice(t, id[:], product[:], 1e-4)
}

func TestInvert4Singular(t *testing.T) {
	var zero [16]float32
	out := identity()
	assert.False(t, Invert4(out[:], zero[:]))
	id := identity()
	assert.Equal(t, id, out)
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p [16]float32
	Perspective(p[:], 0.45, 16.0/9.0, 0.1, 100)

	near := TransformPoint([4]float32{0, 0, 0.1, 1}, p[:])
	far := TransformPoint([4]float32{0, 0, 100, 1}, p[:])
	assert.InDelta(t, 0, near[2]/near[3], eps)
	assert.InDelta(t, 1, far[2]/far[3], eps)
	assert.InDelta(t, 1/math32.Tan(0.225), p[5], eps)
}

func TestOrthographicScreenCorners(t *testing.T) {
	var o [16]float32
	Orthographic(o[:], 0, 0, 1280, 720, 0, 100)

	topLeft := TransformPoint([4]float32{0, 0, 0, 1}, o[:])
	bottomRight := TransformPoint([4]float32{1280, 720, 0, 1}, o[:])
	assert.InDeltaSlice(t, []float32{-1, 1, 0, 1}, topLeft[:], eps)
	assert.InDeltaSlice(t, []float32{1, -1, 0, 1}, bottomRight[:], eps)
}

func TestWorldViewProjectionIdentityCase(t *testing.T) {
	width, height := float32(1280), float32(720)

	var world, camera, view, proj, wvp [16]float32
	Affine(world[:], IdentityTransform())
	cameraTransform := IdentityTransform()
	cameraTransform.Translate = [3]float32{0, 0, -10}
	Affine(camera[:], cameraTransform)
	require.True(t, Invert4(view[:], camera[:]))
	Perspective(proj[:], 0.45, width/height, 0.1, 100)
	Mul4(wvp[:], view[:], proj[:])
	Mul4(wvp[:], world[:], wvp[:])

	var tr, invTr, expected [16]float32
	Translate(tr[:], [3]float32{0, 0, -10})
	require.True(t, Invert4(invTr[:], tr[:]))
	id := identity()
	Mul4(expected[:], invTr[:], proj[:])
	Mul4(expected[:], id[:], expected[:])

	assert.InDeltaSlice(t, expected[:], wvp[:], eps)
	// the inverse camera pushes geometry 10 units forward
	assert.InDeltaSlice(t, []float32{0, 0, 10}, invTr[12:15], eps)
}
