package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRecordsInOrder(t *testing.T) {
	r := NewRecorder()
	b, err := r.Begin(1)
	require.NoError(t, err)

	vb := resource.NewMappedBuffer(1, "vb", make([]byte, 36*3), nil, nil)
	ib := resource.NewMappedBuffer(2, "ib", make([]byte, 12), nil, nil)

	require.NoError(t, b.Transition(StatePresent, StateRenderTarget))
	require.NoError(t, b.ClearColor([4]float32{0.1, 0.25, 0.5, 1}))
	require.NoError(t, b.ClearDepth(1))
	require.NoError(t, b.BindVertexBuffer(vb, 36))
	require.NoError(t, b.Draw(3))
	require.NoError(t, b.BindIndexBuffer(ib))
	require.NoError(t, b.DrawIndexed(3))
	require.NoError(t, b.Transition(StateRenderTarget, StatePresent))

	want := []Kind{
		KindTransition, KindClearColor, KindClearDepth,
		KindBindVertexBuffer, KindDraw, KindBindIndexBuffer, KindDrawIndexed, KindTransition,
	}
	got := make([]Kind, 0, b.Len())
	for _, c := range b.Commands() {
		got = append(got, c.Kind)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 2, b.DrawCount())
	assert.Equal(t, uint64(1), b.Frame())
}

func TestBatchRejectsDrawWithoutBuffers(t *testing.T) {
	r := NewRecorder()
	b, err := r.Begin(1)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Draw(3), ErrNoVertexBuffer)
	require.NoError(t, b.BindVertexBuffer(resource.NewMappedBuffer(1, "vb", make([]byte, 36), nil, nil), 36))
	assert.ErrorIs(t, b.DrawIndexed(3), ErrNoIndexBuffer)
	assert.Zero(t, b.DrawCount())
}

func TestBatchClosedRejectsRecording(t *testing.T) {
	r := NewRecorder()
	b, err := r.Begin(1)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.True(t, b.Closed())
	assert.ErrorIs(t, b.Marker("late"), ErrBatchClosed)
	assert.ErrorIs(t, b.Close(), ErrBatchClosed)
}

func TestRecorderLifecycle(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, RecorderReady, r.State())

	b, err := r.Begin(1)
	require.NoError(t, err)
	require.NoError(t, b.Marker("frame"))

	_, err = r.Begin(2)
	assert.ErrorIs(t, err, ErrRecorderNotReady)
	assert.ErrorIs(t, r.MarkSubmitted(1), ErrRecorderState)

	require.NoError(t, r.Close())
	require.NoError(t, r.MarkSubmitted(7))
	assert.Equal(t, RecorderInFlight, r.State())
	assert.Equal(t, uint64(7), r.InFlightValue())

	_, err = r.Begin(2)
	assert.ErrorIs(t, err, ErrRecorderNotReady)
	assert.ErrorIs(t, r.Reset(6), ErrRecorderInFlight)
	assert.Equal(t, RecorderInFlight, r.State())

	require.NoError(t, r.Reset(7))
	assert.Equal(t, RecorderReady, r.State())

	b, err = r.Begin(2)
	require.NoError(t, err)
	assert.Zero(t, b.Len())
	assert.False(t, b.Closed())
}

func TestRecorderResetBeforeSubmitIsRejected(t *testing.T) {
	r := NewRecorder()
	_, err := r.Begin(1)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Reset(100), ErrRecorderState)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Reset(100), ErrRecorderState)
}
