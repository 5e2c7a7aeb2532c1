package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// All matrices in this package are 4x4, stored as 16 row-major floats and used with
// row vectors (v' = v * M). Composition reads left to right: A * B applies A first.
// The memory layout is identical to a column-major column-vector matrix, so the bytes
// can be uploaded to a WGSL mat4x4<f32> as-is and multiplied as `m * v` in the shader.

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m[:16] {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Mul4 multiplies two 4x4 row-major matrices and stores the result in out.
// Result: out = a * b, so a is applied to a row vector before b.
// out may alias a or b.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[row*4+k] * b[k*4+col]
			}
			buf[row*4+col] = sum
		}
	}
	copy(out, buf[:])
}

// Scale writes a scaling matrix into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - s: scale factors along x, y and z
func Scale(out []float32, s [3]float32) {
	Identity(out)
	out[0], out[5], out[10] = s[0], s[1], s[2]
}

// Translate writes a translation matrix into out. The offset lives in the bottom row.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation along x, y and z
func Translate(out []float32, t [3]float32) {
	Identity(out)
	out[12], out[13], out[14] = t[0], t[1], t[2]
}

// RotateX writes a rotation about the x axis into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - radians: rotation angle
func RotateX(out []float32, radians float32) {
	s, c := math32.Sincos(radians)
	Identity(out)
	out[5], out[6] = c, s
	out[9], out[10] = -s, c
}

// RotateY writes a rotation about the y axis into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - radians: rotation angle
func RotateY(out []float32, radians float32) {
	s, c := math32.Sincos(radians)
	Identity(out)
	out[0], out[2] = c, -s
	out[8], out[10] = s, c
}

// RotateZ writes a rotation about the z axis into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - radians: rotation angle
func RotateZ(out []float32, radians float32) {
	s, c := math32.Sincos(radians)
	Identity(out)
	out[0], out[1] = c, s
	out[4], out[5] = -s, c
}

// Affine builds the world matrix Scale * RotateX * RotateY * RotateZ * Translate for the
// given transform.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: the transform to convert
func Affine(out []float32, t Transform) {
	var s, rx, ry, rz, tr, acc [16]float32
	Scale(s[:], t.Scale)
	RotateX(rx[:], t.Rotate[0])
	RotateY(ry[:], t.Rotate[1])
	RotateZ(rz[:], t.Rotate[2])
	Translate(tr[:], t.Translate)

	Mul4(acc[:], s[:], rx[:])
	Mul4(acc[:], acc[:], ry[:])
	Mul4(acc[:], acc[:], rz[:])
	Mul4(out, acc[:], tr[:])
}

// UVAffine builds a texture coordinate transform: Scale * RotateZ * Translate.
// Only the z rotation of the transform is used.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: the uv transform
func UVAffine(out []float32, t Transform) {
	var s, rz, tr, acc [16]float32
	Scale(s[:], t.Scale)
	RotateZ(rz[:], t.Rotate[2])
	Translate(tr[:], t.Translate)

	Mul4(acc[:], s[:], rz[:])
	Mul4(out, acc[:], tr[:])
}

// Perspective creates a left-handed perspective projection matrix that maps view-space
// depth [near, far] to clip-space depth [0, 1].
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
func Perspective(out []float32, fovY, aspect, near, far float32) {
	cot := 1.0 / math32.Tan(fovY/2.0)
	for i := range out[:16] {
		out[i] = 0
	}

	out[0] = cot / aspect
	out[5] = cot
	out[10] = far / (far - near)
	out[11] = 1.0
	out[14] = -near * far / (far - near)
}

// Orthographic creates an orthographic projection for screen-space pixel coordinates.
// With top=0 and bottom=height, y grows downward on screen.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, top, right, bottom: the view volume edges in pixels
//   - near, far: depth range mapped to [0, 1]
func Orthographic(out []float32, left, top, right, bottom, near, far float32) {
	Identity(out)
	out[0] = 2.0 / (right - left)
	out[5] = 2.0 / (top - bottom)
	out[10] = 1.0 / (far - near)
	out[12] = (left + right) / (left - right)
	out[13] = (top + bottom) / (bottom - top)
	out[14] = near / (near - far)
}

// Invert4 computes the inverse of a 4x4 matrix using the Laplace expansion (cofactor)
// method. The expansion is layout-agnostic, so it serves row-major matrices unchanged.
// If the matrix is singular the output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return false
	}

	invDet := 1.0 / det
	var buf [16]float32

	buf[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	buf[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	buf[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	buf[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	buf[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	buf[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	buf[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	buf[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	buf[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	buf[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	buf[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	buf[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	buf[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	buf[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	buf[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	buf[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	copy(out, buf[:])
	return true
}

// TransformPoint multiplies the row vector v by m.
//
// Parameters:
//   - v: the homogeneous input vector
//   - m: the matrix (16 elements)
//
// Returns:
//   - [4]float32: v * m
func TransformPoint(v [4]float32, m []float32) [4]float32 {
	var out [4]float32
	for col := 0; col < 4; col++ {
		out[col] = v[0]*m[col] + v[1]*m[4+col] + v[2]*m[8+col] + v[3]*m[12+col]
	}
	return out
}
