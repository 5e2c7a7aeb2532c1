package renderer

import "time"

// SimulatedBackendBuilderOption is a functional option applied to the simulated backend during construction.
type SimulatedBackendBuilderOption func(*simRendererBackendImpl)

// WithSimulatedLatency makes the simulated GPU spend d on every batch before it is marked executed.
//
// Parameters:
//   - d: per-batch execution time
//
// Returns:
//   - SimulatedBackendBuilderOption: a function that applies the latency option
func WithSimulatedLatency(d time.Duration) SimulatedBackendBuilderOption {
	return func(b *simRendererBackendImpl) {
		b.latency = max(d, 0)
	}
}

// WithManualCompletion holds every signal that reaches the simulated GPU until CompleteNext
// is called, so tests can observe a blocked wait.
//
// Parameters:
//   - manual: true to post completions by hand
//
// Returns:
//   - SimulatedBackendBuilderOption: a function that applies the manual completion option
func WithManualCompletion(manual bool) SimulatedBackendBuilderOption {
	return func(b *simRendererBackendImpl) {
		b.manual = manual
	}
}

// WithMemoryLimit caps the bytes the simulated device can allocate. 0 means unlimited.
//
// Parameters:
//   - bytes: the device memory budget
//
// Returns:
//   - SimulatedBackendBuilderOption: a function that applies the memory limit option
func WithMemoryLimit(bytes uint64) SimulatedBackendBuilderOption {
	return func(b *simRendererBackendImpl) {
		b.memoryLimit = bytes
	}
}

// WithSimulatedSurfaceSize sets the initial surface size reported by the simulated backend.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - SimulatedBackendBuilderOption: a function that applies the surface size option
func WithSimulatedSurfaceSize(width, height int) SimulatedBackendBuilderOption {
	return func(b *simRendererBackendImpl) {
		b.width, b.height = width, height
	}
}
