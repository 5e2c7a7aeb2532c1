package overlay

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats profiler.Stats

func (f fixedStats) Stats() profiler.Stats {
	return profiler.Stats(f)
}

func TestStatsOverlayRecordsMarker(t *testing.T) {
	o := NewStatsOverlay(fixedStats{FPS: 59.94, FrameTime: 16683 * time.Microsecond, HeapMB: 3.3, Frames: 120}, WithPrefix("hud"))

	batch, err := command.NewRecorder().Begin(1)
	require.NoError(t, err)
	require.NoError(t, o.RecordOverlayCommands(batch))

	require.Equal(t, 1, batch.Len())
	c := batch.Commands()[0]
	assert.Equal(t, command.KindMarker, c.Kind)
	assert.Equal(t, "hud: frame 120 | 59.9 fps | 16.683ms | heap 3.3 MB", c.Label)
}

func TestStatsOverlayBeforeFirstSample(t *testing.T) {
	o := NewStatsOverlay(fixedStats{Frames: 3})
	assert.Equal(t, "stats: frame 3", o.Line())
}

func TestHiddenOverlayRecordsNothing(t *testing.T) {
	o := NewStatsOverlay(fixedStats{}, WithVisible(false))
	assert.False(t, o.Visible())

	batch, err := command.NewRecorder().Begin(1)
	require.NoError(t, err)
	require.NoError(t, o.RecordOverlayCommands(batch))
	assert.Zero(t, batch.Len())

	o.SetVisible(true)
	require.NoError(t, o.RecordOverlayCommands(batch))
	assert.Equal(t, 1, batch.Len())
}
