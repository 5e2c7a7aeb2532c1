package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = `# one triangle
o tri
v 0 1 0
v 1 0 0
v -1 0 0
vt 0.5 0
vt 1 1
vt 0 1
vn 0 1 0
vn 0 0 -1
s off
usemtl none
f 1/1/2 2/2/2 3/3/1
`

const quadOBJ = `v -1 1 0
v 1 1 0
v 1 -1 0
v -1 -1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 -1
f 1/1/1 2/2/1 3/3/1
f 1/1/1 3/3/1 4/4/1
`

func TestLoadSingleTriangle(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)
	m, err := l.LoadReader("tri.obj", strings.NewReader(triangleOBJ))
	require.NoError(t, err)
	require.Equal(t, 3, m.VertexCount())
	assert.False(t, m.Indexed())

	// emitted third, second, first with position and normal Y negated
	assert.Equal(t, model.NewVertex([3]float32{-1, 0, 0}, [2]float32{0, 1}, [3]float32{0, -1, 0}), m.Vertex(0))
	assert.Equal(t, model.NewVertex([3]float32{1, 0, 0}, [2]float32{1, 1}, [3]float32{0, 0, -1}), m.Vertex(1))
	assert.Equal(t, model.NewVertex([3]float32{0, -1, 0}, [2]float32{0.5, 0}, [3]float32{0, 0, -1}), m.Vertex(2))
	for _, v := range m.Vertices() {
		assert.Equal(t, float32(1), v.Position[3])
	}
}

func TestIndicesResolveAgainstListsSeenSoFar(t *testing.T) {
	src := `v 1 1 1
vt 0 0
vn 1 0 0
f 1/1/1 1/1/1 1/1/1
v 2 2 2
vt 1 1
vn 0 1 0
f 2/2/2 1/1/1 2/2/2
`
	m, err := NewLoader(BackendTypeOBJ).LoadReader("grow.obj", strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 6, m.VertexCount())
	assert.Equal(t, [4]float32{2, -2, 2, 1}, m.Vertex(3).Position)
	assert.Equal(t, [4]float32{1, -1, 1, 1}, m.Vertex(4).Position)
	assert.Equal(t, [2]float32{1, 1}, m.Vertex(5).TexCoord)
	assert.Equal(t, [3]float32{0, -1, 0}, m.Vertex(5).Normal)
}

func TestQuadYieldsSixReversedVertices(t *testing.T) {
	m, err := NewLoader(BackendTypeOBJ).LoadReader("quad.obj", strings.NewReader(quadOBJ))
	require.NoError(t, err)
	require.Equal(t, 6, m.VertexCount())
	assert.Equal(t, uint32(6), m.DrawCount())

	want := [][4]float32{
		{1, 1, 0, 1}, {1, -1, 0, 1}, {-1, -1, 0, 1},
		{-1, 1, 0, 1}, {1, 1, 0, 1}, {-1, -1, 0, 1},
	}
	for i, w := range want {
		assert.Equal(t, w, m.Vertex(i).Position, "vertex %d", i)
	}
}

func TestMalformedInput(t *testing.T) {
	header := "v 0 0 0\nvt 0 0\nvn 0 0 1\n"
	tests := []struct {
		name  string
		src   string
		kind  common.ParseErrorKind
		line  int
		token string
	}{
		{"quad face", header + "f 1/1/1 1/1/1 1/1/1 1/1/1\n", common.ParseErrorFaceArity, 4, "f 1/1/1 1/1/1 1/1/1 1/1/1"},
		{"two vertices", header + "f 1/1/1 1/1/1\n", common.ParseErrorFaceArity, 4, "f 1/1/1 1/1/1"},
		{"missing texcoord", header + "f 1//1 1/1/1 1/1/1\n", common.ParseErrorIndexToken, 4, "1//1"},
		{"position only", header + "f 1 1 1\n", common.ParseErrorIndexToken, 4, "1"},
		{"text index", header + "f a/1/1 1/1/1 1/1/1\n", common.ParseErrorIndexToken, 4, "a/1/1"},
		{"zero index", header + "f 0/1/1 1/1/1 1/1/1\n", common.ParseErrorIndexRange, 4, "0/1/1"},
		{"negative index", header + "f -1/1/1 1/1/1 1/1/1\n", common.ParseErrorIndexRange, 4, "-1/1/1"},
		{"forward reference", header + "f 1/1/1 1/2/1 1/1/1\n", common.ParseErrorIndexRange, 4, "1/2/1"},
		{"bad coordinate", "v 0 x 0\n", common.ParseErrorNumber, 1, "x"},
		{"short position", "\n\nv 0 0\n", common.ParseErrorComponentCount, 3, "v 0 0"},
		{"long normal", "vn 0 0 1 1\n", common.ParseErrorComponentCount, 1, "vn 0 0 1 1"},
		{"short texcoord", "vt 0\n", common.ParseErrorComponentCount, 1, "vt 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(BackendTypeOBJ).LoadReader("bad.obj", strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedAsset)

			var parseErr *common.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.kind, parseErr.Kind)
			assert.Equal(t, tt.line, parseErr.Line)
			assert.Equal(t, tt.token, parseErr.Token)
		})
	}
}

func TestLoadFromDiskAndCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(triangleOBJ), 0o644))

	l := NewLoader(BackendTypeOBJ)
	first, err := l.Load(dir, "tri.obj")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tri.obj"), first.Name())

	require.NoError(t, os.Remove(filepath.Join(dir, "tri.obj")))
	second, err := l.Load(dir+"/.", "tri.obj")
	require.NoError(t, err, "cached by cleaned path")
	assert.Same(t, first, second)
	assert.Len(t, l.Meshes(), 1)
	assert.NotNil(t, l.Get(first.Name()))
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeOBJ)

	_, err := l.Load(t.TempDir(), "missing.obj")
	var assetErr *common.AssetError
	require.ErrorAs(t, err, &assetErr)
	assert.ErrorIs(t, err, common.ErrFileNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = l.Load(t.TempDir(), "model.gltf")
	assert.ErrorIs(t, err, common.ErrUnsupportedAsset)
}

func TestLoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{"models/quad.obj": {Data: []byte(quadOBJ)}}
	l := NewLoader(BackendTypeOBJ, WithFS(fsys), WithMesh("sprite", model.NewSpriteQuad(2, 2)))

	m, err := l.Load("models", "quad.obj")
	require.NoError(t, err)
	assert.Equal(t, "models/quad.obj", m.Name())
	assert.Equal(t, 6, m.VertexCount())
	assert.NotNil(t, l.Get("sprite"))
}
