package main

import (
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/window"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *appOptions) *cobra.Command {
	var (
		uncapped bool
		software bool
		fpsLimit float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and render the scene through WebGPU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer recoverFatal(&err)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			win := window.NewWindow(
				window.WithTitle("oxy-frame"),
				window.WithSize(opts.width, opts.height),
			)
			defer win.Close()

			mode := renderer.PresentModeVSync
			if uncapped {
				mode = renderer.PresentModeUncapped
			}
			r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
				renderer.WithPresentMode(mode),
				renderer.WithForceSoftwareRenderer(software),
			)
			if err != nil {
				return err
			}

			e, err := buildEngine(cmd, opts, r,
				engine.WithWindow(win),
				engine.WithRenderFrameLimit(fpsLimit),
			)
			if err != nil {
				return err
			}
			return e.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&uncapped, "uncapped", false, "present without waiting for vertical blank")
	cmd.Flags().BoolVar(&software, "software", false, "force the software WebGPU adapter")
	cmd.Flags().Float64Var(&fpsLimit, "fps", 0, "cap the render rate (0 for no cap)")
	return cmd
}
