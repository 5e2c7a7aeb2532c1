package model

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct.
// Matches the Vertex layout exactly (36 bytes, tightly packed).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUTransformationMatrixSource is the canonical WGSL definition of the TransformationMatrix struct.
// Matches GPUTransformationMatrix layout exactly (128 bytes).
//
//go:embed assets/transformation_matrix.wgsl
var GPUTransformationMatrixSource string

// GPUTransformationMatrix holds the per-drawable matrices uploaded each frame.
// Matrices are row-major for row vectors; the shader reads them as column-major and multiplies
// with the vector on the right, which yields the same result.
// Size: 128 bytes.
type GPUTransformationMatrix struct {
	WVP   [16]float32 // offset  0: world * view * projection
	World [16]float32 // offset 64: world only, for world-space lighting
}

// Size returns the size of the GPUTransformationMatrix struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUTransformationMatrix) Size() int {
	return int(unsafe.Sizeof(*g))
}

// IdentityTransformationMatrix returns a GPUTransformationMatrix with both matrices set to identity.
func IdentityTransformationMatrix() GPUTransformationMatrix {
	var g GPUTransformationMatrix
	common.Identity(g.WVP[:])
	common.Identity(g.World[:])
	return g
}
