package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/resource"
)

var (
	// ErrOutOfDeviceMemory is returned by the simulated backend when an allocation exceeds its memory limit.
	ErrOutOfDeviceMemory = errors.New("out of device memory")

	// ErrInvalidBatch is returned by Submit when a batch breaks the recording rules the GPU relies on.
	ErrInvalidBatch = errors.New("invalid command batch")

	// ErrNothingToPresent is returned by Present when no submitted frame is waiting to be shown.
	ErrNothingToPresent = errors.New("no frame to present")

	// ErrBackendReleased is returned by any backend call after Release.
	ErrBackendReleased = errors.New("backend released")
)

// ExecutedBatch is the record the simulated GPU keeps of a batch it has executed.
type ExecutedBatch struct {
	Frame     uint64
	Commands  int
	Draws     int
	Vertices  uint64
	Pipelines []string
	Markers   []string
}

// SimulatedBackend is a RendererBackend that executes batches on a goroutine standing in for
// the GPU. Completion signals are posted in submission order, either automatically after an
// optional latency or by hand through CompleteNext.
type SimulatedBackend interface {
	RendererBackend

	// Executed returns a copy of the log of executed batches, oldest first.
	Executed() []ExecutedBatch

	// Presented returns the number of frames presented so far.
	Presented() int

	// PendingSignals returns how many signals reached the GPU and wait for CompleteNext.
	// Always 0 unless manual completion is on.
	PendingSignals() int

	// CompleteNext posts the oldest pending signal in manual completion mode.
	//
	// Returns:
	//   - uint64: the value that was completed
	//   - bool: false if no signal was pending
	CompleteNext() (uint64, bool)

	// MemoryInUse returns the bytes held by live buffers and textures.
	MemoryInUse() uint64
}

type simWork struct {
	batch  *ExecutedBatch
	signal uint64
}

type simTexture struct {
	levels [][]byte
}

// simRendererBackendImpl is the implementation of the SimulatedBackend interface.
type simRendererBackendImpl struct {
	mu sync.Mutex
	// sendMu is held shared while sending on work and exclusively while closing it.
	sendMu sync.RWMutex

	nextID    atomic.Uint64
	completed atomic.Uint64

	width, height int
	presentMode   PresentMode

	latency     time.Duration
	manual      bool
	memoryLimit uint64
	memoryInUse uint64

	work     chan simWork
	gpuDone  chan struct{}
	waiters  map[uint64][]chan struct{}
	pending  []uint64
	executed []ExecutedBatch

	framePending bool
	presented    int
	released     bool
}

var _ SimulatedBackend = &simRendererBackendImpl{}

// NewSimulatedBackend is the entry point to create a simulated GPU backend. The GPU goroutine
// starts immediately and stops on Release.
//
// Parameters:
//   - options: a variadic list of SimulatedBackendBuilderOption functions
//
// Returns:
//   - SimulatedBackend: the running backend
func NewSimulatedBackend(options ...SimulatedBackendBuilderOption) SimulatedBackend {
	b := &simRendererBackendImpl{
		width:   1280,
		height:  720,
		work:    make(chan simWork, 64),
		gpuDone: make(chan struct{}),
		waiters: make(map[uint64][]chan struct{}),
	}
	for _, opt := range options {
		opt(b)
	}
	go b.run()
	return b
}

// run is the GPU loop: it drains work in order, so a signal completes only after every batch
// submitted before it.
func (b *simRendererBackendImpl) run() {
	defer close(b.gpuDone)
	for w := range b.work {
		if w.batch != nil {
			if b.latency > 0 {
				time.Sleep(b.latency)
			}
			b.mu.Lock()
			b.executed = append(b.executed, *w.batch)
			b.mu.Unlock()
			continue
		}
		if b.manual {
			b.mu.Lock()
			b.pending = append(b.pending, w.signal)
			b.mu.Unlock()
			continue
		}
		b.complete(w.signal)
	}
}

func (b *simRendererBackendImpl) complete(value uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if value > b.completed.Load() {
		b.completed.Store(value)
	}
	done := b.completed.Load()
	for target, chans := range b.waiters {
		if target > done {
			continue
		}
		for _, ch := range chans {
			close(ch)
		}
		delete(b.waiters, target)
	}
}

func (b *simRendererBackendImpl) allocate(label string, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrBackendReleased
	}
	if size == 0 {
		return fmt.Errorf("%q: zero-sized allocation", label)
	}
	if b.memoryLimit > 0 && b.memoryInUse+size > b.memoryLimit {
		return fmt.Errorf("%q needs %d bytes, %d of %d in use: %w", label, size, b.memoryInUse, b.memoryLimit, ErrOutOfDeviceMemory)
	}
	b.memoryInUse += size
	return nil
}

func (b *simRendererBackendImpl) free(size uint64) {
	b.mu.Lock()
	b.memoryInUse -= min(size, b.memoryInUse)
	b.mu.Unlock()
}

func (b *simRendererBackendImpl) CreateLinearBuffer(label string, size uint64) (*resource.MappedBuffer, error) {
	if err := b.allocate(label, size); err != nil {
		return nil, err
	}
	return resource.NewMappedBuffer(b.nextID.Add(1), label, make([]byte, size), nil, func() { b.free(size) }), nil
}

func (b *simRendererBackendImpl) CreateTexture(label string, metadata common.TextureMetadata) (*resource.Texture, error) {
	if metadata.Width == 0 || metadata.Height == 0 || metadata.MipLevels == 0 {
		return nil, fmt.Errorf("%q: invalid texture size %dx%d with %d mips", label, metadata.Width, metadata.Height, metadata.MipLevels)
	}

	var size uint64
	w, h := metadata.Width, metadata.Height
	for i := uint32(0); i < metadata.MipLevels; i++ {
		size += uint64(w) * uint64(h) * uint64(metadata.Format.BytesPerPixel()) * uint64(max(metadata.ArraySize, 1))
		w, h = max(w/2, 1), max(h/2, 1)
	}
	if err := b.allocate(label, size); err != nil {
		return nil, err
	}

	native := &simTexture{levels: make([][]byte, metadata.MipLevels)}
	return resource.NewTexture(b.nextID.Add(1), label, metadata, native, func() { b.free(size) }), nil
}

func (b *simRendererBackendImpl) UploadMips(tex *resource.Texture, chain common.MipChain) error {
	native, ok := tex.Native().(*simTexture)
	if !ok {
		return fmt.Errorf("texture %q was not created by the simulated backend", tex.Label())
	}
	for i, level := range chain.Levels {
		pixels := make([]byte, len(level.Pixels))
		copy(pixels, level.Pixels)
		native.levels[i] = pixels
	}
	return nil
}

func (b *simRendererBackendImpl) CreatePipeline(p pipeline.Pipeline) error {
	p.SetNative(p.PipelineKey())
	return nil
}

// Submit checks the batch the way a GPU validation layer would and queues it for execution.
func (b *simRendererBackendImpl) Submit(batch *command.Batch) error {
	if batch == nil || !batch.Closed() {
		return fmt.Errorf("submit: batch is not closed: %w", ErrInvalidBatch)
	}

	exec := &ExecutedBatch{Frame: batch.Frame(), Commands: batch.Len()}
	inPass := false
	pipelineSet := false
	for i, c := range batch.Commands() {
		switch c.Kind {
		case command.KindTransition:
			switch {
			case c.From == command.StatePresent && c.To == command.StateRenderTarget && !inPass:
				inPass = true
			case c.From == command.StateRenderTarget && c.To == command.StatePresent && inPass:
				inPass = false
			default:
				return fmt.Errorf("command %d: unexpected transition %d->%d: %w", i, c.From, c.To, ErrInvalidBatch)
			}
			continue
		case command.KindMarker:
			exec.Markers = append(exec.Markers, c.Label)
			continue
		}

		if !inPass {
			return fmt.Errorf("command %d: %s outside the render target state: %w", i, c.Kind, ErrInvalidBatch)
		}
		switch c.Kind {
		case command.KindSetPipeline:
			pipelineSet = true
			exec.Pipelines = append(exec.Pipelines, c.Label)
		case command.KindBindConstants, command.KindBindVertexBuffer, command.KindBindIndexBuffer:
			if c.Buffer == nil || c.Buffer.Released() {
				return fmt.Errorf("command %d: %s references a released buffer: %w", i, c.Kind, ErrInvalidBatch)
			}
		case command.KindBindTexture:
			if c.Texture == nil || c.Texture.Released() {
				return fmt.Errorf("command %d: texture slot %d references a released texture: %w", i, c.Slot, ErrInvalidBatch)
			}
		case command.KindDraw, command.KindDrawIndexed:
			if !pipelineSet {
				return fmt.Errorf("command %d: draw without a pipeline: %w", i, ErrInvalidBatch)
			}
			exec.Draws++
			exec.Vertices += uint64(c.Count)
		}
	}
	if inPass {
		return fmt.Errorf("submit: batch leaves the backbuffer in the render target state: %w", ErrInvalidBatch)
	}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ErrBackendReleased
	}
	b.framePending = true
	b.mu.Unlock()

	b.work <- simWork{batch: exec}
	return nil
}

func (b *simRendererBackendImpl) Signal(value uint64) error {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if released {
		return ErrBackendReleased
	}
	b.work <- simWork{signal: value}
	return nil
}

func (b *simRendererBackendImpl) CompletedValue() uint64 {
	return b.completed.Load()
}

func (b *simRendererBackendImpl) CompletionEvent(ctx context.Context, value uint64) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{})
	if b.completed.Load() >= value {
		close(ch)
		return ch
	}
	b.waiters[value] = append(b.waiters[value], ch)
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ch:
			case <-ctx.Done():
				b.dropWaiter(value, ch)
			}
		}()
	}
	return ch
}

// dropWaiter forgets ch if it is still registered for value.
func (b *simRendererBackendImpl) dropWaiter(value uint64, ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	chans := b.waiters[value]
	for i, c := range chans {
		if c == ch {
			chans = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(chans) == 0 {
		delete(b.waiters, value)
		return
	}
	b.waiters[value] = chans
}

// waiterCount returns how many completion events are still registered.
func (b *simRendererBackendImpl) waiterCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	for _, chans := range b.waiters {
		n += len(chans)
	}
	return n
}

func (b *simRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.framePending {
		return ErrNothingToPresent
	}
	b.framePending = false
	b.presented++
	return nil
}

func (b *simRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

func (b *simRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *simRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	b.presentMode = mode
	b.mu.Unlock()
}

func (b *simRendererBackendImpl) Release() {
	b.sendMu.Lock()
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		b.sendMu.Unlock()
		return
	}
	b.released = true
	b.mu.Unlock()

	close(b.work)
	b.sendMu.Unlock()
	<-b.gpuDone
}

func (b *simRendererBackendImpl) Executed() []ExecutedBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ExecutedBatch, len(b.executed))
	copy(out, b.executed)
	return out
}

func (b *simRendererBackendImpl) Presented() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presented
}

func (b *simRendererBackendImpl) PendingSignals() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *simRendererBackendImpl) CompleteNext() (uint64, bool) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return 0, false
	}
	value := b.pending[0]
	b.pending = b.pending[1:]
	b.mu.Unlock()

	b.complete(value)
	return value, true
}

func (b *simRendererBackendImpl) MemoryInUse() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.memoryInUse
}
