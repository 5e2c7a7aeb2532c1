// Package fence implements the frame synchronizer: a process-wide monotonic completion
// counter and the protocol the CPU follows to wait on the GPU before reusing a command
// recorder.
package fence

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// DefaultTimeout bounds a single completion wait unless overridden with WithTimeout.
const DefaultTimeout = 5 * time.Second

// Queue is the execution-queue side of the completion counter.
type Queue interface {
	// Signal asks the GPU to write value into the completion slot once every batch
	// submitted before the call has finished.
	Signal(value uint64) error

	// CompletedValue returns the largest value the GPU has written so far.
	CompletedValue() uint64

	// CompletionEvent returns a channel closed once CompletedValue reaches value. The queue
	// stops tracking the event once ctx is done; the channel is then never closed.
	CompletionEvent(ctx context.Context, value uint64) <-chan struct{}
}

// State is the per-use state of the Synchronizer.
type State int32

const (
	// StateIdle means no signal has been issued since the last wait resolved.
	StateIdle State = iota
	// StateSubmitted means a target was signaled and not yet waited on.
	StateSubmitted
	// StateWaiting means the CPU is blocked on the completion event.
	StateWaiting
	// StateReady means the GPU reached the last target.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSubmitted:
		return "Submitted"
	case StateWaiting:
		return "Waiting"
	case StateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Synchronizer owns the monotonic completion counter.
type Synchronizer interface {
	// Signal signals the next target on the queue. The counter only advances once the queue
	// accepts the signal, so a failed signal leaves Value and Drain unchanged.
	Signal() (uint64, error)

	// Wait blocks until the queue reports target as complete, the timeout expires or ctx is done.
	Wait(ctx context.Context, target uint64) error

	// Synchronize is Signal followed by Wait on the returned target.
	Synchronize(ctx context.Context) (uint64, error)

	// Drain waits for the last issued target. It returns immediately if nothing was signaled.
	Drain(ctx context.Context) error

	// Value returns the last issued target.
	Value() uint64

	// Completed returns the queue's current completed value.
	Completed() uint64

	// State returns the current state.
	State() State

	// Timeout returns the bound applied to each wait, 0 if unbounded.
	Timeout() time.Duration
}

type synchronizer struct {
	mu sync.Mutex

	queue   Queue
	counter atomic.Uint64
	state   atomic.Int32
	timeout time.Duration
	logger  *log.Logger
}

var _ Synchronizer = &synchronizer{}

// NewSynchronizer creates a Synchronizer over queue. The counter starts at 0 so the first
// target is 1.
//
// Parameters:
//   - queue: the execution queue completion values are signaled on
//   - options: variadic SynchronizerBuilderOption functions
//
// Returns:
//   - Synchronizer: the synchronizer
func NewSynchronizer(queue Queue, options ...SynchronizerBuilderOption) Synchronizer {
	s := &synchronizer{
		queue:   queue,
		timeout: DefaultTimeout,
		logger:  log.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *synchronizer) Signal() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.counter.Load() + 1
	if err := s.queue.Signal(target); err != nil {
		return target, fmt.Errorf("signal completion value %d: %w", target, err)
	}
	s.counter.Store(target)
	s.state.Store(int32(StateSubmitted))
	return target, nil
}

func (s *synchronizer) Wait(ctx context.Context, target uint64) error {
	if s.queue.CompletedValue() >= target {
		s.state.Store(int32(StateReady))
		return nil
	}

	s.state.Store(int32(StateWaiting))
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := s.queue.CompletionEvent(waitCtx, target)

	var expired <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
		s.state.Store(int32(StateReady))
		return nil
	case <-expired:
		completed := s.queue.CompletedValue()
		if completed >= target {
			s.state.Store(int32(StateReady))
			return nil
		}
		s.logger.Printf("[Fence] wait for %d expired after %s (completed %d)", target, s.timeout, completed)
		return &common.SyncTimeoutError{Target: target, Completed: completed, Timeout: s.timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *synchronizer) Synchronize(ctx context.Context) (uint64, error) {
	target, err := s.Signal()
	if err != nil {
		return target, err
	}
	return target, s.Wait(ctx, target)
}

func (s *synchronizer) Drain(ctx context.Context) error {
	target := s.counter.Load()
	if target == 0 {
		return nil
	}
	if err := s.Wait(ctx, target); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	s.state.Store(int32(StateIdle))
	return nil
}

func (s *synchronizer) Value() uint64 {
	return s.counter.Load()
}

func (s *synchronizer) Completed() uint64 {
	return s.queue.CompletedValue()
}

func (s *synchronizer) State() State {
	return State(s.state.Load())
}

func (s *synchronizer) Timeout() time.Duration {
	return s.timeout
}
