package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/loader"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/fence"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"gopkg.in/yaml.v3"
)

// DefaultClearColor is the backbuffer clear color used when a config does not set one.
var DefaultClearColor = [4]float32{0.1, 0.25, 0.5, 1.0}

// Config is the YAML description of a scene and the frame loop settings that go with it.
// Asset paths are relative to the directory the config was loaded from.
type Config struct {
	Name       string     `yaml:"name"`
	ClearColor [4]float32 `yaml:"clear_color"`

	// SyncTimeout bounds each frame's wait on the GPU. Unset means fence.DefaultTimeout,
	// an explicit 0 waits forever.
	SyncTimeout *time.Duration `yaml:"sync_timeout"`

	// TickRate is the fixed update rate in Hz.
	TickRate float64 `yaml:"tick_rate"`

	Shader   ShaderConfig      `yaml:"shader"`
	Camera   CameraConfig      `yaml:"camera"`
	Light    LightConfig       `yaml:"light"`
	Textures map[string]string `yaml:"textures"`

	Drawables []DrawableConfig `yaml:"drawables"`

	// dir is where the config was read from; asset paths resolve against it.
	dir string
}

// ShaderConfig names the shader source and its two entry points.
type ShaderConfig struct {
	Path            string `yaml:"path"`
	VertexEntry     string `yaml:"vertex_entry"`
	VertexProfile   string `yaml:"vertex_profile"`
	FragmentEntry   string `yaml:"fragment_entry"`
	FragmentProfile string `yaml:"fragment_profile"`
}

// CameraConfig places the camera. Zero values take the camera package defaults.
type CameraConfig struct {
	Transform *common.Transform `yaml:"transform"`
	Fov       float32           `yaml:"fov"`
	Near      float32           `yaml:"near"`
	Far       float32           `yaml:"far"`
}

// LightConfig describes the scene's directional light.
type LightConfig struct {
	Color     *[4]float32 `yaml:"color"`
	Direction *[3]float32 `yaml:"direction"`
	Intensity *float32    `yaml:"intensity"`
}

// DrawableConfig describes one drawable. Geometry is "mesh", "sprite" or "sphere".
type DrawableConfig struct {
	Name     string `yaml:"name"`
	Geometry string `yaml:"geometry"`
	Enabled  *bool  `yaml:"enabled"`

	// Mesh is the .obj path for mesh geometry.
	Mesh string `yaml:"mesh"`
	// Size is the sprite size in pixels.
	Size [2]float32 `yaml:"size"`
	// Subdivision is the sphere band count.
	Subdivision uint32 `yaml:"subdivision"`

	// Texture is a key into Config.Textures. Empty or unknown keys sample white.
	Texture  string      `yaml:"texture"`
	Color    *[4]float32 `yaml:"color"`
	Lighting *bool       `yaml:"lighting"`

	Transform     *common.Transform `yaml:"transform"`
	UVTransform   *common.Transform `yaml:"uv_transform"`
	RotationSpeed [3]float32        `yaml:"rotation_speed"`
}

// ParseConfig decodes a YAML scene config and applies defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the decoded config
//   - error: a *common.AssetError wrapping ErrMalformedAsset if decoding or validation fails
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &common.AssetError{Path: "scene config", Err: fmt.Errorf("%w: %v", common.ErrMalformedAsset, err)}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, &common.AssetError{Path: "scene config", Err: err}
	}
	return cfg, nil
}

// LoadConfig reads and parses a scene config. With a nil fsys the OS filesystem is used.
//
// Parameters:
//   - fsys: the filesystem to read from, or nil
//   - name: the config path
//
// Returns:
//   - Config: the decoded config
//   - error: an error if the file is missing or malformed
func LoadConfig(fsys fs.FS, name string) (Config, error) {
	var data []byte
	var err error
	if fsys != nil {
		data, err = fs.ReadFile(fsys, name)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return Config{}, common.NewFileNotFoundError(name, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		var assetErr *common.AssetError
		if errors.As(err, &assetErr) {
			assetErr.Path = name
		}
		return Config{}, err
	}
	cfg.dir = path.Dir(name)
	return cfg, nil
}

// DefaultConfig returns the config used when no file is given: a textured sphere, a lit
// plane mesh and an unlit sprite.
//
// Returns:
//   - Config: the built-in scene
func DefaultConfig() Config {
	lit, unlit := true, false
	cfg := Config{
		Name:     "default",
		Textures: map[string]string{"uvChecker": "textures/uvChecker.png"},
		Drawables: []DrawableConfig{
			{
				Name:          "sphere",
				Geometry:      "sphere",
				Subdivision:   16,
				Texture:       "uvChecker",
				Lighting:      &lit,
				RotationSpeed: [3]float32{0, 0.5, 0},
			},
			{
				Name:     "plane",
				Geometry: "mesh",
				Mesh:     "models/plane.obj",
				Texture:  "uvChecker",
				Lighting: &lit,
				Transform: &common.Transform{
					Scale:     [3]float32{1, 1, 1},
					Translate: [3]float32{0, -1.5, 0},
				},
			},
			{
				Name:     "sprite",
				Geometry: "sprite",
				Size:     [2]float32{320, 180},
				Texture:  "uvChecker",
				Lighting: &unlit,
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Timeout returns the frame synchronization timeout.
//
// Returns:
//   - time.Duration: the timeout, 0 for unbounded
func (c Config) Timeout() time.Duration {
	if c.SyncTimeout == nil {
		return fence.DefaultTimeout
	}
	return *c.SyncTimeout
}

// Resolve joins an asset path with the config's directory.
//
// Parameters:
//   - p: a path relative to the config
//
// Returns:
//   - string: the path to open
func (c Config) Resolve(p string) string {
	if c.dir == "" || path.IsAbs(p) {
		return p
	}
	return path.Join(c.dir, p)
}

// TexturePaths returns every configured texture key mapped to its resolved path.
func (c Config) TexturePaths() map[string]string {
	out := make(map[string]string, len(c.Textures))
	for key, p := range c.Textures {
		out[key] = c.Resolve(p)
	}
	return out
}

// BuildLight creates the directional light described by the config.
//
// Returns:
//   - light.Light: the light
func (c Config) BuildLight() light.Light {
	var opts []light.LightBuilderOption
	if c.Light.Color != nil {
		opts = append(opts, light.WithColor(*c.Light.Color))
	}
	if d := c.Light.Direction; d != nil {
		opts = append(opts, light.WithDirection(d[0], d[1], d[2]))
	}
	if c.Light.Intensity != nil {
		opts = append(opts, light.WithIntensity(*c.Light.Intensity))
	}
	return light.NewLight(opts...)
}

// BuildCamera creates the configured camera driven by ctrl.
//
// Parameters:
//   - ctrl: the camera controller, may be nil
//
// Returns:
//   - camera.Camera: the camera
func (c Config) BuildCamera(ctrl camera.CameraController) camera.Camera {
	var opts []camera.CameraBuilderOption
	if c.Camera.Transform != nil {
		opts = append(opts, camera.WithTransform(withUnitScale(*c.Camera.Transform)))
	}
	if c.Camera.Fov > 0 {
		opts = append(opts, camera.WithFov(c.Camera.Fov))
	}
	if c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near {
		opts = append(opts, camera.WithDepthRange(c.Camera.Near, c.Camera.Far))
	}
	if ctrl != nil {
		opts = append(opts, camera.WithController(ctrl))
	}
	return camera.NewCamera(opts...)
}

// BuildObjects creates the configured drawables, loading meshes through l.
//
// Parameters:
//   - l: the mesh loader
//
// Returns:
//   - []game_object.GameObject: the drawables in config order
//   - error: the first mesh load error
func (c Config) BuildObjects(l loader.Loader) ([]game_object.GameObject, error) {
	objects := make([]game_object.GameObject, 0, len(c.Drawables))
	for i, d := range c.Drawables {
		matOpts := []material.MaterialBuilderOption{
			material.WithName(d.Name),
			material.WithTextureKey(d.Texture),
		}
		if d.Color != nil {
			matOpts = append(matOpts, material.WithColor(*d.Color))
		}
		if d.Lighting != nil {
			matOpts = append(matOpts, material.WithLighting(*d.Lighting))
		}
		if d.UVTransform != nil {
			matOpts = append(matOpts, material.WithUVTransform(withUnitScale(*d.UVTransform)))
		}

		opts := []game_object.GameObjectBuilderOption{
			game_object.WithName(d.Name),
			game_object.WithMaterial(material.NewMaterial(matOpts...)),
			game_object.WithRotationSpeed(d.RotationSpeed),
		}
		if d.Enabled != nil {
			opts = append(opts, game_object.WithEnabled(*d.Enabled))
		}
		if d.Transform != nil {
			opts = append(opts, game_object.WithTransform(withUnitScale(*d.Transform)))
		}

		switch d.Geometry {
		case "mesh":
			m, err := l.Load(c.dir, d.Mesh)
			if err != nil {
				return nil, fmt.Errorf("drawable %d (%s): %w", i, d.Name, err)
			}
			opts = append(opts, game_object.WithMesh(m))
		case "sprite":
			opts = append(opts, game_object.WithSprite(d.Size[0], d.Size[1]))
		case "sphere":
			opts = append(opts, game_object.WithSphere(d.Subdivision))
		}
		objects = append(objects, game_object.NewGameObject(opts...))
	}
	return objects, nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "scene"
	}
	if c.ClearColor == [4]float32{} {
		c.ClearColor = DefaultClearColor
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	c.Shader.Path = common.Coalesce(c.Shader.Path, "shaders/object3d.wgsl")
	c.Shader.VertexEntry = common.Coalesce(c.Shader.VertexEntry, "vs_main")
	c.Shader.VertexProfile = common.Coalesce(c.Shader.VertexProfile, "vs_6_0")
	c.Shader.FragmentEntry = common.Coalesce(c.Shader.FragmentEntry, "fs_main")
	c.Shader.FragmentProfile = common.Coalesce(c.Shader.FragmentProfile, "ps_6_0")
	for i := range c.Drawables {
		d := &c.Drawables[i]
		d.Geometry = common.Coalesce(d.Geometry, "mesh")
		if d.Geometry == "sphere" && d.Subdivision == 0 {
			d.Subdivision = 16
		}
	}
}

func (c *Config) validate() error {
	for i, d := range c.Drawables {
		switch d.Geometry {
		case "mesh":
			if d.Mesh == "" {
				return fmt.Errorf("%w: drawable %d (%s) has mesh geometry but no mesh path", common.ErrMalformedAsset, i, d.Name)
			}
		case "sprite":
			if d.Size[0] <= 0 || d.Size[1] <= 0 {
				return fmt.Errorf("%w: drawable %d (%s) needs a positive sprite size", common.ErrMalformedAsset, i, d.Name)
			}
		case "sphere":
		default:
			return fmt.Errorf("%w: drawable %d (%s) has unknown geometry %q", common.ErrMalformedAsset, i, d.Name, d.Geometry)
		}
	}
	return nil
}

// withUnitScale gives an omitted scale the identity value.
func withUnitScale(t common.Transform) common.Transform {
	if t.Scale == [3]float32{} {
		t.Scale = [3]float32{1, 1, 1}
	}
	return t
}
