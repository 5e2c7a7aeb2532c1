package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-frame/engine/model"
)

// loaderBackend defines the generic interface for parsing a mesh from a stream.
// Concrete implementations (e.g., objLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Extensions returns the lower-case file extensions, dot included, this backend parses.
	//
	// Returns:
	//   - []string: the handled extensions
	Extensions() []string

	// Parse reads a complete mesh file from r.
	//
	// Parameters:
	//   - r: the reader providing the file contents
	//
	// Returns:
	//   - []model.Vertex: the non-indexed triangle list
	//   - error: a *common.ParseError if the contents are malformed
	Parse(r io.Reader) ([]model.Vertex, error)
}
