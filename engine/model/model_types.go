package model

// VertexStride is the size of a Vertex in bytes as laid out in a vertex buffer.
const VertexStride = 36

// Vertex is one corner of a triangle. Its memory layout is the vertex buffer layout:
// position at offset 0, texcoord at 16, normal at 24, with no padding.
type Vertex struct {
	// Position is homogeneous; W is always 1.
	Position [4]float32
	TexCoord [2]float32
	Normal   [3]float32
}

// NewVertex builds a Vertex with W forced to 1.
//
// Parameters:
//   - position: the x, y, z position
//   - texCoord: the u, v texture coordinate
//   - normal: the x, y, z normal
//
// Returns:
//   - Vertex: the vertex
func NewVertex(position [3]float32, texCoord [2]float32, normal [3]float32) Vertex {
	return Vertex{
		Position: [4]float32{position[0], position[1], position[2], 1},
		TexCoord: texCoord,
		Normal:   normal,
	}
}
