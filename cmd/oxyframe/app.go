package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-frame/assets"
	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/loader"
	"github.com/Carmen-Shannon/oxy-frame/engine/overlay"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
	"github.com/Carmen-Shannon/oxy-frame/engine/texture"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// layeredFS opens a name from the first layer that has it, so a scene directory can override
// the built-in shaders, meshes and textures one file at a time.
type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, layer := range l {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}

// loadSceneConfig reads the config at configPath, or returns the built-in scene when the
// path is empty, together with the filesystem its assets resolve against.
func loadSceneConfig(configPath string) (scene.Config, fs.FS, error) {
	if configPath == "" {
		return scene.DefaultConfig(), assets.FS, nil
	}
	dir, name := filepath.Split(configPath)
	if dir == "" {
		dir = "."
	}
	fsys := layeredFS{os.DirFS(dir), assets.FS}
	cfg, err := scene.LoadConfig(os.DirFS(dir), name)
	if err != nil {
		return scene.Config{}, nil, err
	}
	return cfg, fsys, nil
}

// buildEngine assembles the scene, camera and engine on top of r.
func buildEngine(cmd *cobra.Command, opts *appOptions, r renderer.Renderer, extra ...engine.EngineBuilderOption) (engine.Engine, error) {
	cfg, fsys, err := loadSceneConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout()
	if cmd.Flags().Changed("sync-timeout") {
		timeout = opts.syncTimeout
	}

	decoderOpts := []texture.DecoderBuilderOption{texture.WithFS(fsys)}
	if opts.progress && len(cfg.Textures) > 0 {
		bar := progressbar.Default(int64(len(cfg.Textures)), "decoding textures")
		defer bar.Close()
		decoderOpts = append(decoderOpts, texture.WithProgress(func(done, total int) {
			_ = bar.Set(done)
		}))
	}

	objects, err := cfg.BuildObjects(loader.NewLoader(loader.BackendTypeOBJ, loader.WithFS(fsys)))
	if err != nil {
		return nil, err
	}

	s := scene.NewScene(r,
		scene.WithName(cfg.Name),
		scene.WithObjects(objects...),
		scene.WithLight(cfg.BuildLight()),
		scene.WithTextures(cfg.TexturePaths()),
		scene.WithDecoder(texture.NewDecoder(decoderOpts...)),
	)
	cam := cfg.BuildCamera(camera.NewKeyboardController(camera.WithTextureToggle(s.SetTexturesEnabled)))

	options := []engine.EngineBuilderOption{
		engine.WithCamera(cam),
		engine.WithClearColor(cfg.ClearColor),
		engine.WithTickRate(cfg.TickRate),
		engine.WithSyncTimeout(timeout),
		engine.WithShaderCompiler(engine.NewShaderCompiler(fsys), cfg.Shader),
		engine.WithProfiling(opts.profile),
	}
	e := engine.NewEngine(r, s, append(options, extra...)...)
	if opts.profile {
		e.AddOverlay(overlay.NewStatsOverlay(e.Profiler()))
	}

	if err := e.Init(); err != nil {
		return nil, errors.Join(err, e.Shutdown(cmd.Context()))
	}
	log.Printf("[oxyframe] scene %s: %d drawables, %d textures, sync timeout %s", cfg.Name, s.Count(), len(cfg.Textures), timeout)
	return e, nil
}

// recoverFatal turns a constructor panic into a returned error.
func recoverFatal(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("fatal: %v", r)
	}
}
