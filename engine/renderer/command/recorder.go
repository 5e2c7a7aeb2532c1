package command

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrRecorderNotReady is returned by Begin when the previous batch has not been reset.
	ErrRecorderNotReady = errors.New("command recorder is not ready")

	// ErrRecorderInFlight is returned by Reset while the GPU may still reference the batch.
	ErrRecorderInFlight = errors.New("command recorder is still in flight")

	// ErrRecorderState is returned when a recorder transition is called out of order.
	ErrRecorderState = errors.New("command recorder transition out of order")
)

// RecorderState is the lifecycle state of the Recorder.
type RecorderState int

const (
	// RecorderReady means the batch is reset and may be begun.
	RecorderReady RecorderState = iota
	// RecorderRecording means commands are being appended.
	RecorderRecording
	// RecorderClosed means the batch is complete but not yet submitted.
	RecorderClosed
	// RecorderInFlight means the batch was submitted and is waiting on a completion value.
	RecorderInFlight
)

func (s RecorderState) String() string {
	switch s {
	case RecorderReady:
		return "Ready"
	case RecorderRecording:
		return "Recording"
	case RecorderClosed:
		return "Closed"
	case RecorderInFlight:
		return "InFlight"
	default:
		return "Unknown"
	}
}

// Recorder owns the single command batch a frame is recorded into. The batch is reused
// every frame, so it may only be reset once the GPU has reported completion of the
// submission that last used it.
type Recorder struct {
	mu sync.Mutex

	batch    Batch
	state    RecorderState
	inFlight uint64
}

// NewRecorder creates a recorder in the Ready state.
func NewRecorder() *Recorder {
	return &Recorder{state: RecorderReady}
}

// State returns the current lifecycle state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// InFlightValue returns the completion value the last submitted batch waits on, 0 if
// nothing has been submitted.
func (r *Recorder) InFlightValue() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Begin opens the batch for a new frame.
//
// Parameters:
//   - frame: the frame number, kept on the batch for diagnostics
//
// Returns:
//   - *Batch: the empty batch to record into
//   - error: ErrRecorderNotReady if the previous batch has not been reset
func (r *Recorder) Begin(frame uint64) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderReady {
		return nil, fmt.Errorf("begin frame %d in state %s: %w", frame, r.state, ErrRecorderNotReady)
	}
	r.batch.reset(frame)
	r.state = RecorderRecording
	return &r.batch, nil
}

// Close finishes recording the open batch.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return fmt.Errorf("close in state %s: %w", r.state, ErrRecorderState)
	}
	if err := r.batch.Close(); err != nil {
		return err
	}
	r.state = RecorderClosed
	return nil
}

// MarkSubmitted records that the closed batch was handed to the queue and will be
// complete once the completion counter reaches value.
//
// Parameters:
//   - value: the completion counter target signaled after the submission
//
// Returns:
//   - error: ErrRecorderState if the batch is not closed
func (r *Recorder) MarkSubmitted(value uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderClosed {
		return fmt.Errorf("submit in state %s: %w", r.state, ErrRecorderState)
	}
	r.inFlight = value
	r.state = RecorderInFlight
	return nil
}

// Reset returns the recorder to Ready once completed has reached the value of the
// submission that last used the batch.
//
// Parameters:
//   - completed: the completion counter value currently reported by the GPU
//
// Returns:
//   - error: ErrRecorderInFlight if completed is below the in-flight value
func (r *Recorder) Reset(completed uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case RecorderReady:
		return nil
	case RecorderInFlight:
		if completed < r.inFlight {
			return fmt.Errorf("reset at %d, batch waits on %d: %w", completed, r.inFlight, ErrRecorderInFlight)
		}
	default:
		return fmt.Errorf("reset in state %s: %w", r.state, ErrRecorderState)
	}
	r.batch.reset(r.batch.frame)
	r.state = RecorderReady
	return nil
}
