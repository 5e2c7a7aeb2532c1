package scene

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-frame/engine/texture"
)

// WhiteTextureKey is the key of the 1x1 white texture bound when a drawable has no texture,
// its texture failed to load, or textures are toggled off.
const WhiteTextureKey = "__white"

// ErrNotInitialized is returned when the scene is updated or recorded before Init.
var ErrNotInitialized = errors.New("scene not initialized")

// Scene is the drawable arena. Objects are appended and never removed, so an object's ID
// is its stable index. After Init, every object owns its GPU buffers: material constants,
// transformation constants, a vertex buffer and, for indexed meshes, an index buffer.
type Scene interface {
	// Name returns the scene's name.
	Name() string

	// Add appends an object to the arena and assigns its ID. Objects added after Init are
	// uploaded immediately.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: a *common.FatalResourceError if uploading a late addition failed
	Add(obj game_object.GameObject) (uint64, error)

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Objects returns all objects in registration order.
	Objects() []game_object.GameObject

	// Count returns the number of objects in the arena.
	Count() int

	// Light returns the scene's directional light.
	Light() light.Light

	// Texture returns the uploaded texture for key, or nil.
	//
	// Parameters:
	//   - key: the texture key
	//
	// Returns:
	//   - *resource.Texture: the texture or nil
	Texture(key string) *resource.Texture

	// SetTexturesEnabled switches every drawable between its own texture and white.
	//
	// Parameters:
	//   - enabled: false to bind white for every drawable
	SetTexturesEnabled(enabled bool)

	// Init decodes the configured textures in parallel, uploads them, and creates the
	// buffers of every object. A texture that cannot be found falls back to white.
	//
	// Returns:
	//   - error: a *common.FatalResourceError on allocation failure, or the decode error of a
	//     texture that exists but is not a valid image
	Init() error

	// Update advances object spin by dt seconds, derives each object's WVP and World
	// matrices and writes all constants into their mapped buffers.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//   - cam: the camera providing the view and perspective projection
	//   - width, height: the surface size in pixels, for the sprite projection
	//
	// Returns:
	//   - error: an error if a constant write failed
	Update(dt float32, cam camera.Camera, width, height int) error

	// Record binds the light and records every enabled object, in registration order:
	// material constants, transformation constants, vertex (and index) buffer, texture,
	// then the draw.
	//
	// Parameters:
	//   - batch: the open batch for the current frame
	//
	// Returns:
	//   - error: the first recording error
	Record(batch *command.Batch) error
}

// gpuObject holds the GPU resources of one arena entry.
type gpuObject struct {
	material  *resource.MappedBuffer
	transform *resource.MappedBuffer
	vertices  *resource.MappedBuffer
	indices   *resource.MappedBuffer
}

type scene struct {
	mu *sync.Mutex

	name     string
	renderer renderer.Renderer
	decoder  texture.Decoder

	objects []game_object.GameObject
	gpu     []gpuObject

	sceneLight   light.Light
	lightBuffer  *resource.MappedBuffer
	texturePaths map[string]string
	textures     map[string]*resource.Texture
	texturesOn   bool
	initialized  bool
}

var _ Scene = &scene{}

// NewScene creates an empty scene that allocates through r.
//
// Parameters:
//   - r: the renderer used for every upload
//   - options: variadic SceneBuilderOption functions
//
// Returns:
//   - Scene: the scene
func NewScene(r renderer.Renderer, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:           &sync.Mutex{},
		name:         "scene",
		renderer:     r,
		sceneLight:   light.NewLight(),
		texturePaths: make(map[string]string),
		textures:     make(map[string]*resource.Texture),
		texturesOn:   true,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.decoder == nil {
		s.decoder = texture.NewDecoder()
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Add(obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uint64(len(s.objects))
	obj.SetID(id)
	s.objects = append(s.objects, obj)
	s.gpu = append(s.gpu, gpuObject{})

	if s.initialized {
		if err := s.uploadObject(int(id)); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.objects)) {
		return nil
	}
	return s.objects[id]
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game_object.GameObject, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *scene) Light() light.Light {
	return s.sceneLight
}

func (s *scene) Texture(key string) *resource.Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textures[key]
}

func (s *scene) SetTexturesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texturesOn = enabled
}

func (s *scene) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	if err := s.uploadTexture(WhiteTextureKey, common.WhiteMipChain()); err != nil {
		return err
	}
	if err := s.uploadTextures(); err != nil {
		return err
	}

	lb, err := s.renderer.CreateLinearBuffer(s.name+":light", uint64((&light.GPUDirectionalLight{}).Size()))
	if err != nil {
		return err
	}
	s.lightBuffer = lb

	for i := range s.objects {
		if err := s.uploadObject(i); err != nil {
			return err
		}
	}
	s.initialized = true
	log.Printf("[Scene] %s initialized: %d objects, %d textures", s.name, len(s.objects), len(s.textures))
	return nil
}

// uploadTextures decodes every configured texture on the decoder's worker pool, then
// uploads the results in key order. Caller must hold the mutex.
func (s *scene) uploadTextures() error {
	keys := make([]string, 0, len(s.texturePaths))
	for key := range s.texturePaths {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	paths := make([]string, len(keys))
	for i, key := range keys {
		paths[i] = s.texturePaths[key]
	}

	for i, res := range s.decoder.DecodeAll(paths) {
		key := keys[i]
		chain := res.Chain
		if res.Err != nil {
			if !errors.Is(res.Err, common.ErrFileNotFound) {
				return fmt.Errorf("texture %s: %w", key, res.Err)
			}
			log.Printf("[Scene] texture %s not found at %s, using white placeholder", key, res.Path)
			chain = common.WhiteMipChain()
		}
		if err := s.uploadTexture(key, chain); err != nil {
			return err
		}
	}
	return nil
}

// uploadTexture creates a texture sized for chain and copies the chain into it. Caller
// must hold the mutex.
func (s *scene) uploadTexture(key string, chain common.MipChain) error {
	tex, err := s.renderer.CreateTexture(s.name+":"+key, chain.Metadata)
	if err != nil {
		return err
	}
	if err := s.renderer.UploadMips(tex, chain); err != nil {
		return err
	}
	s.textures[key] = tex
	return nil
}

// uploadObject creates the buffers for object i and fills the vertex and index data. The
// constant buffers are written by Update. Caller must hold the mutex.
func (s *scene) uploadObject(i int) error {
	obj := s.objects[i]
	mesh := obj.Mesh()
	if mesh == nil || mesh.VertexCount() == 0 {
		return fmt.Errorf("object %d (%s): %w: no geometry", i, obj.Name(), common.ErrMalformedAsset)
	}
	label := fmt.Sprintf("%s:%d:%s", s.name, i, obj.Name())

	var g gpuObject
	var err error
	if g.material, err = s.renderer.CreateLinearBuffer(label+":material", uint64((&material.GPUMaterial{}).Size())); err != nil {
		return err
	}
	if g.transform, err = s.renderer.CreateLinearBuffer(label+":transform", uint64((&model.GPUTransformationMatrix{}).Size())); err != nil {
		return err
	}

	vertexData := mesh.VertexData()
	if g.vertices, err = s.renderer.CreateLinearBuffer(label+":vertices", uint64(len(vertexData))); err != nil {
		return err
	}
	if err := g.vertices.Write(0, vertexData); err != nil {
		return fmt.Errorf("object %d vertices: %w", i, err)
	}

	if mesh.Indexed() {
		indexData := mesh.IndexData()
		if g.indices, err = s.renderer.CreateLinearBuffer(label+":indices", uint64(len(indexData))); err != nil {
			return err
		}
		if err := g.indices.Write(0, indexData); err != nil {
			return fmt.Errorf("object %d indices: %w", i, err)
		}
	}

	s.gpu[i] = g
	return nil
}

func (s *scene) Update(dt float32, cam camera.Camera, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	lightConstants := s.sceneLight.GPU()
	if err := resource.WriteValue(s.lightBuffer, 0, &lightConstants); err != nil {
		return fmt.Errorf("light constants: %w", err)
	}

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	var screenView, screenProj [16]float32
	common.Identity(screenView[:])
	common.Orthographic(screenProj[:], 0, 0, float32(width), float32(height), 0, 100)

	for i, obj := range s.objects {
		obj.Advance(dt)

		constants := DeriveMatrices(obj.Transform(), view, proj)
		if obj.Is2D() {
			constants = DeriveMatrices(obj.Transform(), screenView, screenProj)
		}
		if err := resource.WriteValue(s.gpu[i].transform, 0, &constants); err != nil {
			return fmt.Errorf("object %d transform: %w", i, err)
		}

		mat := obj.Material().GPU()
		if err := resource.WriteValue(s.gpu[i].material, 0, &mat); err != nil {
			return fmt.Errorf("object %d material: %w", i, err)
		}
	}
	return nil
}

// DeriveMatrices computes World = S * Rx * Ry * Rz * T and WVP = World * view * proj.
//
// Parameters:
//   - t: the object's transform
//   - view: the view matrix
//   - proj: the projection matrix
//
// Returns:
//   - model.GPUTransformationMatrix: the constants for the transform slot
func DeriveMatrices(t common.Transform, view, proj [16]float32) model.GPUTransformationMatrix {
	var g model.GPUTransformationMatrix
	var worldView [16]float32
	common.Affine(g.World[:], t)
	common.Mul4(worldView[:], g.World[:], view[:])
	common.Mul4(g.WVP[:], worldView[:], proj[:])
	return g
}

func (s *scene) Record(batch *command.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	if err := batch.BindConstants(command.SlotLight, s.lightBuffer); err != nil {
		return err
	}

	white := s.textures[WhiteTextureKey]
	for i, obj := range s.objects {
		if !obj.Enabled() {
			continue
		}
		g := s.gpu[i]
		mesh := obj.Mesh()

		tex := white
		if s.texturesOn {
			if t, ok := s.textures[obj.Material().TextureKey()]; ok {
				tex = t
			}
		}

		if err := batch.BindConstants(command.SlotMaterial, g.material); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if err := batch.BindConstants(command.SlotTransform, g.transform); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if err := batch.BindVertexBuffer(g.vertices, model.VertexStride); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if g.indices != nil {
			if err := batch.BindIndexBuffer(g.indices); err != nil {
				return fmt.Errorf("object %d: %w", i, err)
			}
		}
		if err := batch.BindTexture(command.SlotTexture, tex); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}

		var err error
		if mesh.Indexed() {
			err = batch.DrawIndexed(mesh.DrawCount())
		} else {
			err = batch.Draw(mesh.DrawCount())
		}
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
	}
	return nil
}
