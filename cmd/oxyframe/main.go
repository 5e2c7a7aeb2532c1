// Command oxyframe renders a scene described by a YAML config, either in a window through
// WebGPU or headless on the simulated backend.
package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// appOptions are the flags shared by every subcommand.
type appOptions struct {
	configPath  string
	syncTimeout time.Duration
	profile     bool
	progress    bool
	width       int
	height      int
}

func newRootCommand() *cobra.Command {
	opts := &appOptions{}
	root := &cobra.Command{
		Use:           "oxyframe",
		Short:         "Render a scene with frame-accurate CPU/GPU synchronization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "scene YAML file (default: the built-in scene)")
	flags.DurationVar(&opts.syncTimeout, "sync-timeout", 0, "bound on each frame's GPU wait, overrides the config (0 waits forever)")
	flags.BoolVar(&opts.profile, "profile", false, "log frame statistics and draw the stats overlay")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar while textures decode")
	flags.IntVar(&opts.width, "width", 1280, "surface width in pixels")
	flags.IntVar(&opts.height, "height", 720, "surface height in pixels")

	root.AddCommand(newRunCommand(opts), newHeadlessCommand(opts))
	return root
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := newRootCommand().Execute(); err != nil {
		log.Printf("[oxyframe] %v", err)
		os.Exit(1)
	}
}
