package fence

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualQueue completes signaled values only when the test calls complete.
type manualQueue struct {
	mu        sync.Mutex
	signaled  []uint64
	completed uint64
	waiters   map[uint64][]chan struct{}
	eventCtxs []context.Context
	signalErr error
}

func newManualQueue() *manualQueue {
	return &manualQueue{waiters: map[uint64][]chan struct{}{}}
}

func (q *manualQueue) Signal(value uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.signalErr != nil {
		return q.signalErr
	}
	q.signaled = append(q.signaled, value)
	return nil
}

func (q *manualQueue) CompletedValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

func (q *manualQueue) CompletionEvent(ctx context.Context, value uint64) <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.eventCtxs = append(q.eventCtxs, ctx)
	ch := make(chan struct{})
	if q.completed >= value {
		close(ch)
		return ch
	}
	q.waiters[value] = append(q.waiters[value], ch)
	return ch
}

func (q *manualQueue) complete(value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = value
	for v, chs := range q.waiters {
		if v <= value {
			for _, ch := range chs {
				close(ch)
			}
			delete(q.waiters, v)
		}
	}
}

func (q *manualQueue) lastEventCtx() context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.eventCtxs) == 0 {
		return nil
	}
	return q.eventCtxs[len(q.eventCtxs)-1]
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSignalTargetsStrictlyIncrease(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q)

	first, err := s.Signal()
	require.NoError(t, err)
	second, err := s.Signal()
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first)
	assert.Greater(t, second, first)
	assert.Equal(t, []uint64{1, 2}, q.signaled)
	assert.Equal(t, second, s.Value())
	assert.Equal(t, StateSubmitted, s.State())
}

func TestWaitReturnsImmediatelyWhenComplete(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q)

	target, err := s.Signal()
	require.NoError(t, err)
	q.complete(target)

	require.NoError(t, s.Wait(context.Background(), target))
	assert.Equal(t, StateReady, s.State())
}

func TestSynchronizeBlocksUntilCompletion(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(0))

	done := make(chan error, 1)
	go func() {
		_, err := s.Synchronize(context.Background())
		done <- err
	}()

	assert.Eventually(t, func() bool { return s.State() == StateWaiting }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	q.complete(1)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("synchronize did not return after completion")
	}
	assert.Equal(t, StateReady, s.State())
}

func TestWaitTimesOut(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(20*time.Millisecond), WithLogger(quietLogger()))

	_, err := s.Synchronize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSyncTimeout)

	var timeout *common.SyncTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, uint64(1), timeout.Target)
	assert.Equal(t, uint64(0), timeout.Completed)
	assert.Equal(t, 20*time.Millisecond, timeout.Timeout)
}

func TestWaitHonorsContext(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	target, err := s.Signal()
	require.NoError(t, err)
	cancel()

	assert.ErrorIs(t, s.Wait(ctx, target), context.Canceled)
}

func TestSignalErrorIsWrapped(t *testing.T) {
	q := newManualQueue()
	q.signalErr = errors.New("device lost")
	s := NewSynchronizer(q)

	_, err := s.Synchronize(context.Background())
	assert.ErrorIs(t, err, q.signalErr)
	assert.Equal(t, StateIdle, s.State())
}

func TestFailedSignalDoesNotAdvanceCounter(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(0))

	first, err := s.Signal()
	require.NoError(t, err)
	q.complete(first)

	q.signalErr = errors.New("device lost")
	_, err = s.Signal()
	require.ErrorIs(t, err, q.signalErr)
	assert.Equal(t, first, s.Value(), "a rejected signal is not an issued target")

	done := make(chan error, 1)
	go func() { done <- s.Drain(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("drain waited on a target the queue never accepted")
	}

	q.signalErr = nil
	next, err := s.Signal()
	require.NoError(t, err)
	assert.Equal(t, first+1, next)
	assert.Equal(t, []uint64{1, 2}, q.signaled)
}

func TestWaitTimeoutReleasesCompletionEvent(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(10*time.Millisecond), WithLogger(quietLogger()))

	_, err := s.Synchronize(context.Background())
	require.ErrorIs(t, err, common.ErrSyncTimeout)

	eventCtx := q.lastEventCtx()
	require.NotNil(t, eventCtx)
	select {
	case <-eventCtx.Done():
		assert.ErrorIs(t, eventCtx.Err(), context.Canceled)
	default:
		t.Fatal("completion event still tracked after the wait timed out")
	}
}

func TestWaitCancelReleasesCompletionEvent(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(0))

	target, err := s.Signal()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Wait(ctx, target) }()

	require.Eventually(t, func() bool { return q.lastEventCtx() != nil }, time.Second, time.Millisecond)
	eventCtx := q.lastEventCtx()
	assert.NoError(t, eventCtx.Err())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after cancel")
	}
	assert.ErrorIs(t, eventCtx.Err(), context.Canceled)
}

func TestCompletedWaitReleasesCompletionEvent(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q, WithTimeout(0))

	done := make(chan error, 1)
	go func() {
		_, err := s.Synchronize(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return q.lastEventCtx() != nil }, time.Second, time.Millisecond)
	q.complete(1)
	require.NoError(t, <-done)
	assert.ErrorIs(t, q.lastEventCtx().Err(), context.Canceled)
}

func TestDrain(t *testing.T) {
	q := newManualQueue()
	s := NewSynchronizer(q)

	require.NoError(t, s.Drain(context.Background()))

	_, err := s.Signal()
	require.NoError(t, err)
	_, err = s.Signal()
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.complete(2)
	}()
	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, uint64(2), s.Completed())
}

func TestWithTimeoutClampsNegative(t *testing.T) {
	s := NewSynchronizer(newManualQueue(), WithTimeout(-time.Second))
	assert.Equal(t, time.Duration(0), s.Timeout())
	assert.Equal(t, DefaultTimeout, NewSynchronizer(newManualQueue()).Timeout())
}
