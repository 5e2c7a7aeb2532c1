package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredFSPrefersFirstLayer(t *testing.T) {
	l := layeredFS{
		fstest.MapFS{"models/plane.obj": {Data: []byte("override")}},
		fstest.MapFS{"models/plane.obj": {Data: []byte("builtin")}, "models/cube.obj": {Data: []byte("cube")}},
	}

	data, err := fs.ReadFile(l, "models/plane.obj")
	require.NoError(t, err)
	assert.Equal(t, "override", string(data))

	data, err = fs.ReadFile(l, "models/cube.obj")
	require.NoError(t, err)
	assert.Equal(t, "cube", string(data))

	_, err = l.Open("models/none.obj")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadSceneConfigFallsBackToBuiltinAssets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: tiny\ndrawables:\n  - mesh: models/cube.obj\n"), 0o644))

	cfg, fsys, err := loadSceneConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", cfg.Name)

	_, err = fs.Stat(fsys, "models/cube.obj")
	assert.NoError(t, err, "built-in meshes resolve under a user scene")

	_, _, err = loadSceneConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, common.ErrFileNotFound)
}

func TestHeadlessRendersDefaultScene(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"headless", "--frames", "3", "--sync-timeout", "2s", "--profile"})
	require.NoError(t, root.Execute())
}

func TestHeadlessRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drawables:\n  - geometry: torus\n"), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"headless", "--config", path})
	assert.ErrorIs(t, root.Execute(), common.ErrMalformedAsset)
}
