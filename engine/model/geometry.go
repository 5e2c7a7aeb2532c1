package model

import (
	"fmt"

	"github.com/chewxy/math32"
)

// NewSpriteQuad builds an indexed screen-space quad covering (0,0)-(width,height) in pixels.
// Vertex 0 is the bottom-left corner; the two triangles are 0,1,2 and 1,3,2.
//
// Parameters:
//   - width: quad width in pixels
//   - height: quad height in pixels
//
// Returns:
//   - Mesh: a 4-vertex, 6-index mesh
func NewSpriteQuad(width, height float32) Mesh {
	normal := [3]float32{0, 0, -1}
	return NewMesh(
		WithName(fmt.Sprintf("sprite:%gx%g", width, height)),
		WithVertices([]Vertex{
			NewVertex([3]float32{0, height, 0}, [2]float32{0, 1}, normal),
			NewVertex([3]float32{0, 0, 0}, [2]float32{0, 0}, normal),
			NewVertex([3]float32{width, height, 0}, [2]float32{1, 1}, normal),
			NewVertex([3]float32{width, 0, 0}, [2]float32{1, 0}, normal),
		}),
		WithIndices([]uint32{0, 1, 2, 1, 3, 2}),
	)
}

// NewSphere builds an indexed unit sphere split into subdivision latitude and longitude
// bands. Each band cell contributes 4 vertices and 6 indices; normals equal positions.
//
// Parameters:
//   - subdivision: bands per axis, clamped to at least 3
//
// Returns:
//   - Mesh: a mesh with subdivision*subdivision*6 indices
func NewSphere(subdivision uint32) Mesh {
	sub := max(subdivision, 3)
	lonEvery := 2 * math32.Pi / float32(sub)
	latEvery := math32.Pi / float32(sub)

	point := func(lat, lon float32, u, v float32) Vertex {
		sinLat, cosLat := math32.Sincos(lat)
		sinLon, cosLon := math32.Sincos(lon)
		p := [3]float32{cosLat * cosLon, sinLat, cosLat * sinLon}
		return NewVertex(p, [2]float32{u, v}, p)
	}

	vertices := make([]Vertex, 0, sub*sub*4)
	indices := make([]uint32, 0, sub*sub*6)
	for latIndex := uint32(0); latIndex < sub; latIndex++ {
		lat := -math32.Pi/2 + latEvery*float32(latIndex)
		v0 := 1 - float32(latIndex)/float32(sub)
		v1 := 1 - float32(latIndex+1)/float32(sub)
		for lonIndex := uint32(0); lonIndex < sub; lonIndex++ {
			lon := lonEvery * float32(lonIndex)
			u0 := float32(lonIndex) / float32(sub)
			u1 := float32(lonIndex+1) / float32(sub)

			base := uint32(len(vertices))
			vertices = append(vertices,
				point(lat, lon, u0, v0),
				point(lat+latEvery, lon, u0, v1),
				point(lat, lon+lonEvery, u1, v0),
				point(lat+latEvery, lon+lonEvery, u1, v1),
			)
			indices = append(indices, base, base+1, base+2, base+2, base+1, base+3)
		}
	}

	return NewMesh(
		WithName(fmt.Sprintf("sphere:%d", sub)),
		WithVertices(vertices),
		WithIndices(indices),
	)
}
