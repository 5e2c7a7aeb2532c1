package fence

import (
	"log"
	"time"
)

// SynchronizerBuilderOption is a functional option applied to a synchronizer during construction via NewSynchronizer.
type SynchronizerBuilderOption func(*synchronizer)

// WithTimeout bounds every completion wait. A zero duration waits without a bound.
//
// Parameters:
//   - d: the maximum time a single wait may block
//
// Returns:
//   - SynchronizerBuilderOption: a function that applies the timeout option to a synchronizer
func WithTimeout(d time.Duration) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		s.timeout = max(d, 0)
	}
}

// WithLogger sets the logger used for timeout diagnostics. Defaults to log.Default().
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SynchronizerBuilderOption: a function that applies the logger option to a synchronizer
func WithLogger(l *log.Logger) SynchronizerBuilderOption {
	return func(s *synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}
