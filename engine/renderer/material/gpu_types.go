package material

import (
	_ "embed"
	"unsafe"
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (96 bytes, uniform address space).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterial is the GPU-aligned representation of a material's constants.
// Size: 96 bytes; the WGSL mat4x4f member is 16-byte aligned, hence the padding.
type GPUMaterial struct {
	Color          [4]float32  // offset  0: RGBA base color (16 bytes)
	EnableLighting int32       // offset 16: non-zero applies the directional light (4 bytes)
	_              [3]float32  // offset 20: padding to 32 (12 bytes)
	UVTransform    [16]float32 // offset 32: row-major UV transform (64 bytes)
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}
