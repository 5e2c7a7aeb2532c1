package common

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure categories of the renderer core. The typed errors below
// match them through errors.Is so callers can branch on the category without caring about
// the concrete type.
var (
	// ErrFatalInit reports that the device, backend, surface or swapchain could not be created.
	ErrFatalInit = errors.New("fatal init error")

	// ErrFatalResource reports that a GPU buffer or image allocation failed.
	ErrFatalResource = errors.New("fatal resource error")

	// ErrFileNotFound reports that a mesh or texture file could not be opened.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedAsset reports an asset whose format no backend understands.
	ErrUnsupportedAsset = errors.New("unsupported asset")

	// ErrMalformedAsset reports an asset file that could be read but not parsed.
	ErrMalformedAsset = errors.New("malformed asset")

	// ErrSyncTimeout reports that a bounded completion-counter wait expired.
	ErrSyncTimeout = errors.New("sync timeout")
)

// FatalInitError wraps a startup failure of the execution backend.
type FatalInitError struct {
	// Stage names the initialization step that failed (e.g. "adapter", "device").
	Stage string
	Err   error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Stage, e.Err)
}

func (e *FatalInitError) Unwrap() error { return e.Err }

func (e *FatalInitError) Is(target error) bool { return target == ErrFatalInit }

// FatalResourceError wraps a GPU allocation or upload failure.
type FatalResourceError struct {
	// Resource is the label of the buffer or texture being created.
	Resource string
	// Size is the requested size in bytes, or 0 when not applicable.
	Size uint64
	Err  error
}

func (e *FatalResourceError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("resource %q (%d bytes): %v", e.Resource, e.Size, e.Err)
	}
	return fmt.Sprintf("resource %q: %v", e.Resource, e.Err)
}

func (e *FatalResourceError) Unwrap() error { return e.Err }

func (e *FatalResourceError) Is(target error) bool { return target == ErrFatalResource }

// AssetError reports a mesh or texture file that is missing or of an unsupported format.
// Err is ErrFileNotFound or ErrUnsupportedAsset, optionally joined with the OS error.
type AssetError struct {
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// NewFileNotFoundError builds an AssetError for a path that could not be opened.
//
// Parameters:
//   - path: the asset path
//   - cause: the underlying OS error, may be nil
//
// Returns:
//   - *AssetError: the wrapped error
func NewFileNotFoundError(path string, cause error) *AssetError {
	if cause == nil {
		return &AssetError{Path: path, Err: ErrFileNotFound}
	}
	return &AssetError{Path: path, Err: errors.Join(ErrFileNotFound, cause)}
}

// ParseErrorKind classifies a malformed line in a mesh asset.
type ParseErrorKind int

const (
	// ParseErrorFaceArity is a face directive without exactly three vertex definitions.
	ParseErrorFaceArity ParseErrorKind = iota

	// ParseErrorIndexToken is a vertex definition with a missing or non-numeric index.
	ParseErrorIndexToken

	// ParseErrorIndexRange is an index that is zero, negative or refers past the end of
	// the list accumulated so far.
	ParseErrorIndexRange

	// ParseErrorNumber is a coordinate token that is not a valid float.
	ParseErrorNumber

	// ParseErrorComponentCount is a v, vt or vn directive with the wrong number of values.
	ParseErrorComponentCount
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorFaceArity:
		return "face arity"
	case ParseErrorIndexToken:
		return "index token"
	case ParseErrorIndexRange:
		return "index range"
	case ParseErrorNumber:
		return "number"
	case ParseErrorComponentCount:
		return "component count"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError reports a malformed line of a mesh asset. Line is 1-based.
type ParseError struct {
	Kind  ParseErrorKind
	Line  int
	Token string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Kind, e.Token)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Kind)
}

func (e *ParseError) Is(target error) bool { return target == ErrMalformedAsset }

// SyncTimeoutError reports a completion-counter wait that did not resolve in time.
type SyncTimeoutError struct {
	Target    uint64
	Completed uint64
	Timeout   time.Duration
}

func (e *SyncTimeoutError) Error() string {
	return fmt.Sprintf("waited %s for completion value %d, gpu reached %d", e.Timeout, e.Target, e.Completed)
}

func (e *SyncTimeoutError) Is(target error) bool { return target == ErrSyncTimeout }
