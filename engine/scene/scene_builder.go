package scene

import (
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/texture"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene name, used in resource labels and logs.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithObjects appends initial objects to the arena in order, assigning their IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			obj.SetID(uint64(len(s.objects)))
			s.objects = append(s.objects, obj)
			s.gpu = append(s.gpu, gpuObject{})
		}
	}
}

// WithLight sets the scene's directional light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLight(l light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.sceneLight = l
	}
}

// WithTextures registers texture files by key. They are decoded and uploaded by Init.
//
// Parameters:
//   - paths: texture key to file path
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTextures(paths map[string]string) SceneBuilderOption {
	return func(s *scene) {
		for key, p := range paths {
			s.texturePaths[key] = p
		}
	}
}

// WithDecoder sets the image decoder used by Init.
//
// Parameters:
//   - d: the decoder
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDecoder(d texture.Decoder) SceneBuilderOption {
	return func(s *scene) {
		s.decoder = d
	}
}
