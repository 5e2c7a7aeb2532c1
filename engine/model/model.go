package model

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name     string
	vertices []Vertex
	indices  []uint32
}

// Mesh is an immutable triangle list produced by the Loader or the procedural geometry
// builders. Non-indexed meshes group vertices in runs of three; indexed meshes group
// indices in runs of three.
type Mesh interface {
	// Name retrieves the mesh identifier, usually the asset path.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Vertex returns the vertex at index i.
	//
	// Parameters:
	//   - i: the vertex index, 0 <= i < VertexCount()
	//
	// Returns:
	//   - Vertex: a copy of the vertex
	Vertex(i int) Vertex

	// Vertices returns a copy of every vertex in order.
	//
	// Returns:
	//   - []Vertex: the vertices
	Vertices() []Vertex

	// Indexed reports whether the mesh carries an index list.
	//
	// Returns:
	//   - bool: true if IndexCount is non-zero
	Indexed() bool

	// IndexCount returns the number of indices, 0 for a non-indexed mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// Indices returns a copy of the index list.
	//
	// Returns:
	//   - []uint32: the indices, nil for a non-indexed mesh
	Indices() []uint32

	// DrawCount returns the vertex count for a non-indexed mesh or the index count for an
	// indexed one.
	//
	// Returns:
	//   - uint32: the count passed to the draw call
	DrawCount() uint32

	// VertexData returns the vertex buffer bytes.
	//
	// Returns:
	//   - []byte: VertexCount()*VertexStride bytes
	VertexData() []byte

	// IndexData returns the 32-bit index buffer bytes.
	//
	// Returns:
	//   - []byte: IndexCount()*4 bytes, nil for a non-indexed mesh
	IndexData() []byte
}

var _ Mesh = &mesh{}

// NewMesh creates a new Mesh. The option slices are copied so the result cannot be mutated
// through them.
//
// Parameters:
//   - options: variadic MeshBuilderOption functions
//
// Returns:
//   - Mesh: the immutable mesh
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) VertexCount() int {
	return len(m.vertices)
}

func (m *mesh) Vertex(i int) Vertex {
	return m.vertices[i]
}

func (m *mesh) Vertices() []Vertex {
	return slices.Clone(m.vertices)
}

func (m *mesh) Indexed() bool {
	return len(m.indices) > 0
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) Indices() []uint32 {
	return slices.Clone(m.indices)
}

func (m *mesh) DrawCount() uint32 {
	if m.Indexed() {
		return uint32(len(m.indices))
	}
	return uint32(len(m.vertices))
}

func (m *mesh) VertexData() []byte {
	return slices.Clone(common.SliceToBytes(m.vertices))
}

func (m *mesh) IndexData() []byte {
	if !m.Indexed() {
		return nil
	}
	return slices.Clone(common.SliceToBytes(m.indices))
}
