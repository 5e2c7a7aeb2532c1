package light

import (
	_ "embed"
	"unsafe"
)

// GPUDirectionalLightSource is the canonical WGSL definition of the DirectionalLight struct.
// Matches GPUDirectionalLight layout exactly (32 bytes).
//
//go:embed assets/directional_light.wgsl
var GPUDirectionalLightSource string

// GPUDirectionalLight is the GPU-aligned representation of the directional light.
// Size: 32 bytes; the vec3 direction packs with the trailing intensity.
type GPUDirectionalLight struct {
	Color     [4]float32 // offset  0: RGBA color (16 bytes)
	Direction [3]float32 // offset 16: normalized direction (12 bytes)
	Intensity float32    // offset 28: scalar intensity (4 bytes)
}

// Size returns the size of the GPUDirectionalLight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUDirectionalLight) Size() int {
	return int(unsafe.Sizeof(*g))
}
