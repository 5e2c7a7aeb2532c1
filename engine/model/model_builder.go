package model

import "slices"

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName is an option builder that sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithVertices is an option builder that sets the vertex list of the Mesh.
//
// Parameters:
//   - vertices: the vertices, copied
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices option to a mesh
func WithVertices(vertices []Vertex) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = slices.Clone(vertices)
	}
}

// WithIndices is an option builder that sets the 32-bit index list of the Mesh.
//
// Parameters:
//   - indices: the indices, copied
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = slices.Clone(indices)
	}
}
