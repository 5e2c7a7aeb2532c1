package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
)

// maxOBJLine is the longest line the tokenizer accepts.
const maxOBJLine = 1 << 20

// objLoaderBackend parses the triangulated subset of Wavefront OBJ: v, vt, vn and f with
// exactly three position/texcoord/normal definitions per face. Every other directive is skipped.
//
// The source assets are authored for a left-handed, Y-down convention. Position and normal Y
// are negated and each triangle is emitted in reverse order so the winding stays clockwise
// after the flip.
type objLoaderBackend struct{}

var _ loaderBackend = &objLoaderBackend{}

func newOBJLoaderBackend() loaderBackend {
	return &objLoaderBackend{}
}

func (b *objLoaderBackend) Extensions() []string {
	return []string{".obj"}
}

// objState holds the attribute lists accumulated so far; faces index into them.
type objState struct {
	positions [][4]float32
	texcoords [][2]float32
	normals   [][3]float32
	vertices  []model.Vertex
}

func (b *objLoaderBackend) Parse(r io.Reader) ([]model.Vertex, error) {
	state := &objState{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOBJLine)
	line := 0
	for scanner.Scan() {
		line++
		fields := tokenize(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			err = state.position(line, fields[1:])
		case "vt":
			err = state.texcoord(line, fields[1:])
		case "vn":
			err = state.normal(line, fields[1:])
		case "f":
			err = state.face(line, fields[1:])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", line+1, err)
	}
	return state.vertices, nil
}

// tokenize splits a line on whitespace and drops everything from the first '#'.
func tokenize(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}

func (s *objState) position(line int, args []string) error {
	// an optional fourth (w) component is accepted and ignored; w is always 1
	if len(args) != 3 && len(args) != 4 {
		return &common.ParseError{Kind: common.ParseErrorComponentCount, Line: line, Token: "v " + strings.Join(args, " ")}
	}
	var p [4]float32
	for i := 0; i < 3; i++ {
		v, err := parseFloat(line, args[i])
		if err != nil {
			return err
		}
		p[i] = v
	}
	p[3] = 1
	s.positions = append(s.positions, p)
	return nil
}

func (s *objState) texcoord(line int, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return &common.ParseError{Kind: common.ParseErrorComponentCount, Line: line, Token: "vt " + strings.Join(args, " ")}
	}
	var t [2]float32
	for i := 0; i < 2; i++ {
		v, err := parseFloat(line, args[i])
		if err != nil {
			return err
		}
		t[i] = v
	}
	s.texcoords = append(s.texcoords, t)
	return nil
}

func (s *objState) normal(line int, args []string) error {
	if len(args) != 3 {
		return &common.ParseError{Kind: common.ParseErrorComponentCount, Line: line, Token: "vn " + strings.Join(args, " ")}
	}
	var n [3]float32
	for i := 0; i < 3; i++ {
		v, err := parseFloat(line, args[i])
		if err != nil {
			return err
		}
		n[i] = v
	}
	s.normals = append(s.normals, n)
	return nil
}

func (s *objState) face(line int, args []string) error {
	if len(args) != 3 {
		return &common.ParseError{Kind: common.ParseErrorFaceArity, Line: line, Token: "f " + strings.Join(args, " ")}
	}

	var triangle [3]model.Vertex
	for i, def := range args {
		parts := strings.Split(def, "/")
		if len(parts) != 3 {
			return &common.ParseError{Kind: common.ParseErrorIndexToken, Line: line, Token: def}
		}

		pi, err := resolveIndex(line, def, parts[0], len(s.positions))
		if err != nil {
			return err
		}
		ti, err := resolveIndex(line, def, parts[1], len(s.texcoords))
		if err != nil {
			return err
		}
		ni, err := resolveIndex(line, def, parts[2], len(s.normals))
		if err != nil {
			return err
		}

		p := s.positions[pi]
		n := s.normals[ni]
		triangle[i] = model.NewVertex(
			[3]float32{p[0], -p[1], p[2]},
			s.texcoords[ti],
			[3]float32{n[0], -n[1], n[2]},
		)
	}

	s.vertices = append(s.vertices, triangle[2], triangle[1], triangle[0])
	return nil
}

// resolveIndex converts a 1-based OBJ index into a 0-based index into a list of length n.
func resolveIndex(line int, def, token string, n int) (int, error) {
	index, err := strconv.Atoi(token)
	if err != nil {
		return 0, &common.ParseError{Kind: common.ParseErrorIndexToken, Line: line, Token: def}
	}
	if index < 1 || index > n {
		return 0, &common.ParseError{Kind: common.ParseErrorIndexRange, Line: line, Token: def}
	}
	return index - 1, nil
}

func parseFloat(line int, token string) (float32, error) {
	v, err := strconv.ParseFloat(token, 32)
	if err != nil {
		return 0, &common.ParseError{Kind: common.ParseErrorNumber, Line: line, Token: token}
	}
	return float32(v), nil
}
