package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/loader"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/fence"
	"github.com/Carmen-Shannon/oxy-frame/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneYAML = `
name: test
sync_timeout: 250ms
textures:
  checker: textures/checker.png
  gone: textures/missing.png
drawables:
  - name: tri
    mesh: models/tri.obj
    texture: checker
    transform:
      translate: [0, 0, 2]
  - name: ball
    geometry: sphere
    subdivision: 4
    texture: gone
    lighting: false
  - name: hud
    geometry: sprite
    size: [64, 32]
`

const triOBJ = `v 0 1 0
v 1 0 0
v -1 0 0
vt 0 0
vn 0 0 -1
f 1/1/1 2/1/1 3/1/1
`

func checkerPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range 16 {
		img.Set(i%4, i/4, color.NRGBA{R: uint8(i * 16), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"scenes/test.yaml":            {Data: []byte(sceneYAML)},
		"scenes/models/tri.obj":       {Data: []byte(triOBJ)},
		"scenes/textures/checker.png": {Data: checkerPNG(t)},
	}
}

func newTestScene(t *testing.T) (Scene, renderer.Renderer) {
	t.Helper()
	fsys := testFS(t)
	cfg, err := LoadConfig(fsys, "scenes/test.yaml")
	require.NoError(t, err)

	objects, err := cfg.BuildObjects(loader.NewLoader(loader.BackendTypeOBJ, loader.WithFS(fsys)))
	require.NoError(t, err)

	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil, renderer.WithSurfaceSize(640, 480))
	require.NoError(t, err)
	t.Cleanup(r.Release)

	s := NewScene(r,
		WithName(cfg.Name),
		WithObjects(objects...),
		WithLight(cfg.BuildLight()),
		WithTextures(cfg.TexturePaths()),
		WithDecoder(texture.NewDecoder(texture.WithFS(fsys), texture.WithWorkers(2))),
	)
	return s, r
}

func TestParseConfigDefaultsAndDurations(t *testing.T) {
	cfg, err := ParseConfig([]byte(sceneYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout())
	assert.Equal(t, DefaultClearColor, cfg.ClearColor)
	assert.Equal(t, 60.0, cfg.TickRate)
	assert.Equal(t, "vs_main", cfg.Shader.VertexEntry)
	assert.Equal(t, "ps_6_0", cfg.Shader.FragmentProfile)
	require.Len(t, cfg.Drawables, 3)
	assert.Equal(t, "mesh", cfg.Drawables[0].Geometry)

	unbounded, err := ParseConfig([]byte("sync_timeout: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, unbounded.Timeout())

	empty, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, fence.DefaultTimeout, empty.Timeout())
}

func TestParseConfigRejectsBadDrawables(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"mesh without path", "drawables:\n  - geometry: mesh\n"},
		{"sprite without size", "drawables:\n  - geometry: sprite\n"},
		{"unknown geometry", "drawables:\n  - geometry: torus\n"},
		{"not yaml", "drawables: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.ErrorIs(t, err, common.ErrMalformedAsset)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(fstest.MapFS{}, "nope.yaml")
	assert.ErrorIs(t, err, common.ErrFileNotFound)
}

func TestInitUploadsAndFallsBackToWhite(t *testing.T) {
	s, r := newTestScene(t)
	require.Equal(t, 3, s.Count())
	assert.Equal(t, uint64(2), s.Get(2).ID())
	assert.Nil(t, s.Get(3))

	require.NoError(t, s.Init())
	require.NoError(t, s.Init(), "second Init is a no-op")

	checker := s.Texture("checker")
	require.NotNil(t, checker)
	assert.Equal(t, uint32(4), checker.Metadata().Width)
	assert.Equal(t, uint32(3), checker.Metadata().MipLevels)
	assert.True(t, checker.Uploaded())

	gone := s.Texture("gone")
	require.NotNil(t, gone)
	assert.Equal(t, uint32(1), gone.Metadata().Width, "missing texture uses the placeholder")

	// 3 textures, 1 light, 3 objects with material, transform and vertices, 2 indexed meshes
	assert.Equal(t, 3+1+3*3+2, r.LiveResources())
}

func TestRecordOrder(t *testing.T) {
	s, _ := newTestScene(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Update(0, camera.NewCamera(), 640, 480))

	rec := command.NewRecorder()
	batch, err := rec.Begin(1)
	require.NoError(t, err)
	require.NoError(t, s.Record(batch))

	var kinds []command.Kind
	for _, c := range batch.Commands() {
		kinds = append(kinds, c.Kind)
	}
	perDrawable := []command.Kind{
		command.KindBindConstants, command.KindBindConstants, command.KindBindVertexBuffer,
	}
	want := []command.Kind{command.KindBindConstants}
	want = append(want, perDrawable...)
	want = append(want, command.KindBindTexture, command.KindDraw)
	for range 2 {
		want = append(want, perDrawable...)
		want = append(want, command.KindBindIndexBuffer, command.KindBindTexture, command.KindDrawIndexed)
	}
	assert.Equal(t, want, kinds)

	cmds := batch.Commands()
	assert.Equal(t, command.SlotLight, cmds[0].Slot)
	assert.Equal(t, command.SlotMaterial, cmds[1].Slot)
	assert.Equal(t, command.SlotTransform, cmds[2].Slot)
	assert.Equal(t, uint32(36), cmds[3].Stride)
	assert.Same(t, s.Texture("checker"), cmds[4].Texture)
	assert.Equal(t, uint32(3), cmds[5].Count)
	assert.Equal(t, 3, batch.DrawCount())
}

func TestRecordSkipsDisabledAndHonorsTextureToggle(t *testing.T) {
	s, _ := newTestScene(t)
	require.NoError(t, s.Init())
	s.Get(1).SetEnabled(false)
	s.SetTexturesEnabled(false)

	batch, err := command.NewRecorder().Begin(1)
	require.NoError(t, err)
	require.NoError(t, s.Record(batch))
	assert.Equal(t, 2, batch.DrawCount())

	white := s.Texture(WhiteTextureKey)
	for _, c := range batch.Commands() {
		if c.Kind == command.KindBindTexture {
			assert.Same(t, white, c.Texture)
		}
	}
}

func TestUpdateBeforeInit(t *testing.T) {
	s, _ := newTestScene(t)
	assert.ErrorIs(t, s.Update(0, camera.NewCamera(), 640, 480), ErrNotInitialized)
	batch, err := command.NewRecorder().Begin(1)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Record(batch), ErrNotInitialized)
}

func TestDeriveMatricesIdentityObject(t *testing.T) {
	cam := camera.NewCamera(camera.WithAspect(640.0 / 480.0))
	got := DeriveMatrices(common.IdentityTransform(), cam.ViewMatrix(), cam.ProjectionMatrix())

	var translate, view, proj, want [16]float32
	common.Translate(translate[:], [3]float32{0, 0, -10})
	require.True(t, common.Invert4(view[:], translate[:]))
	common.Perspective(proj[:], 0.45, 640.0/480.0, 0.1, 100)
	common.Mul4(want[:], view[:], proj[:])

	assert.InDeltaSlice(t, want[:], got.WVP[:], 1e-5)
	var identity [16]float32
	common.Identity(identity[:])
	assert.Equal(t, identity, got.World)
}

func TestUpdateWritesConstantsAndSpins(t *testing.T) {
	obj := game_object.NewGameObject(
		game_object.WithSphere(3),
		game_object.WithRotationSpeed([3]float32{0, 1, 0}),
	)
	r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil)
	require.NoError(t, err)
	t.Cleanup(r.Release)

	s := NewScene(r, WithObjects(obj))
	require.NoError(t, s.Init())
	require.NoError(t, s.Update(0.5, camera.NewCamera(), 1280, 720))
	assert.Equal(t, float32(0.5), obj.Transform().Rotate[1])

	batch, err := command.NewRecorder().Begin(1)
	require.NoError(t, err)
	require.NoError(t, s.Record(batch))

	cam := camera.NewCamera()
	want := DeriveMatrices(obj.Transform(), cam.ViewMatrix(), cam.ProjectionMatrix())
	transformBuf := batch.Commands()[2].Buffer
	assert.Equal(t, common.StructToBytes(&want), transformBuf.Contents()[:128])
}

func TestSpriteUsesScreenProjection(t *testing.T) {
	sprite := game_object.NewGameObject(game_object.WithSprite(100, 50))
	assert.True(t, sprite.Is2D())

	var ortho, identity [16]float32
	common.Orthographic(ortho[:], 0, 0, 200, 100, 0, 100)
	common.Identity(identity[:])
	g := DeriveMatrices(sprite.Transform(), identity, ortho)

	// the far corner of the quad maps to the bottom-right of clip space
	corner := common.TransformPoint([4]float32{100, 50, 0, 1}, g.WVP[:])
	assert.InDelta(t, 0, corner[0], 1e-5)
	assert.InDelta(t, 0, corner[1], 1e-5)
	origin := common.TransformPoint([4]float32{0, 0, 0, 1}, g.WVP[:])
	assert.InDelta(t, -1, origin[0], 1e-5)
	assert.InDelta(t, 1, origin[1], 1e-5)
}

func TestBuildCameraFromConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
camera:
  fov: 0.8
  near: 0.5
  far: 50
  transform:
    translate: [0, 2, -20]
`))
	require.NoError(t, err)

	ctrl := camera.NewKeyboardController()
	cam := cfg.BuildCamera(ctrl)
	assert.Equal(t, float32(0.8), cam.Fov())
	assert.Equal(t, float32(0.5), cam.Near())
	assert.Equal(t, float32(50), cam.Far())
	assert.Equal(t, [3]float32{1, 1, 1}, cam.Transform().Scale)
	assert.Equal(t, [3]float32{0, 2, -20}, cam.Transform().Translate)
	assert.Same(t, ctrl, cam.Controller())

	// bad depth range keeps the defaults
	cfg.Camera.Far = 0.1
	assert.Equal(t, float32(100), cfg.BuildCamera(nil).Far())
}
