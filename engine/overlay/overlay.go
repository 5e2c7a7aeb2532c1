// Package overlay records UI passes drawn on top of the scene each frame.
package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
)

// Overlay appends its commands to the frame batch after the scene's drawables and before
// the backbuffer is transitioned for present.
type Overlay interface {
	// RecordOverlayCommands records the overlay into batch.
	//
	// Parameters:
	//   - batch: the open batch for the current frame
	//
	// Returns:
	//   - error: the first recording error
	RecordOverlayCommands(batch *command.Batch) error
}

// StatsSource supplies the numbers a stats overlay shows.
type StatsSource interface {
	Stats() profiler.Stats
}

// statsOverlay renders profiler statistics as debug markers, which graphics debuggers show
// in the frame timeline.
type statsOverlay struct {
	source  StatsSource
	visible bool
	prefix  string
}

// StatsOverlay is an Overlay reporting frame statistics. It can be hidden without being
// removed from the engine.
type StatsOverlay interface {
	Overlay

	// Visible reports whether the overlay records anything.
	Visible() bool

	// SetVisible shows or hides the overlay.
	//
	// Parameters:
	//   - visible: false to record nothing
	SetVisible(visible bool)

	// Line formats the current statistics.
	//
	// Returns:
	//   - string: the stats line
	Line() string
}

var _ StatsOverlay = &statsOverlay{}

// NewStatsOverlay creates a visible stats overlay reading from source.
//
// Parameters:
//   - source: typically the engine's *profiler.Profiler
//   - options: variadic StatsOverlayBuilderOption functions
//
// Returns:
//   - StatsOverlay: the overlay
func NewStatsOverlay(source StatsSource, options ...StatsOverlayBuilderOption) StatsOverlay {
	o := &statsOverlay{
		source:  source,
		visible: true,
		prefix:  "stats",
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *statsOverlay) Visible() bool {
	return o.visible
}

func (o *statsOverlay) SetVisible(visible bool) {
	o.visible = visible
}

func (o *statsOverlay) Line() string {
	s := o.source.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "%s: frame %d", o.prefix, s.Frames)
	if s.FPS > 0 {
		fmt.Fprintf(&b, " | %.1f fps | %s | heap %.1f MB", s.FPS, s.FrameTime.Round(time.Microsecond), s.HeapMB)
	}
	return b.String()
}

func (o *statsOverlay) RecordOverlayCommands(batch *command.Batch) error {
	if !o.visible || o.source == nil {
		return nil
	}
	return batch.Marker(o.Line())
}

// StatsOverlayBuilderOption is a functional option for configuring a StatsOverlay.
type StatsOverlayBuilderOption func(*statsOverlay)

// WithPrefix sets the label the stats line starts with.
//
// Parameters:
//   - prefix: the label
//
// Returns:
//   - StatsOverlayBuilderOption: option function to apply
func WithPrefix(prefix string) StatsOverlayBuilderOption {
	return func(o *statsOverlay) {
		o.prefix = prefix
	}
}

// WithVisible sets whether the overlay starts visible.
func WithVisible(visible bool) StatsOverlayBuilderOption {
	return func(o *statsOverlay) {
		o.visible = visible
	}
}
