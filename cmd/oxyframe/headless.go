package main

import (
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/spf13/cobra"
)

func newHeadlessCommand(opts *appOptions) *cobra.Command {
	var (
		frames  uint64
		latency time.Duration
	)
	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Render a fixed number of frames on the simulated GPU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sim := renderer.NewSimulatedBackend(
				renderer.WithSimulatedLatency(latency),
				renderer.WithSimulatedSurfaceSize(opts.width, opts.height),
			)
			r, err := renderer.NewRenderer(renderer.BackendTypeSimulated, nil, renderer.WithBackend(sim))
			if err != nil {
				return err
			}

			e, err := buildEngine(cmd, opts, r, engine.WithMaxFrames(frames))
			if err != nil {
				return err
			}

			start := time.Now()
			if err := e.Run(ctx); err != nil {
				return err
			}

			var draws int
			executed := sim.Executed()
			for _, b := range executed {
				draws += b.Draws
			}
			log.Printf("[oxyframe] %d frames, %d batches executed, %d presented, %d draws in %s",
				e.Frame(), len(executed), sim.Presented(), draws, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&frames, "frames", "n", 120, "number of frames to render")
	cmd.Flags().DurationVar(&latency, "latency", 0, "simulated GPU time per batch")
	return cmd
}
