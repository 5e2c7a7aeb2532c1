// Package assets embeds the shaders, meshes and textures the default scene is built from.
package assets

import "embed"

// FS holds shaders/, models/ and textures/. Paths are slash-separated and relative to this
// directory, e.g. "shaders/object3d.wgsl".
//
//go:embed shaders models textures
var FS embed.FS
