package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormatMap maps WGSL type names to their vertex format
var wgslVertexFormatMap = map[string]VertexFormat{
	"f32":       VertexFormatFloat32,
	"vec2f":     VertexFormatFloat32x2,
	"vec2<f32>": VertexFormatFloat32x2,
	"vec3f":     VertexFormatFloat32x3,
	"vec3<f32>": VertexFormatFloat32x3,
	"vec4f":     VertexFormatFloat32x4,
	"vec4<f32>": VertexFormatFloat32x4,
	"i32":       VertexFormatSint32,
	"u32":       VertexFormatUint32,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`@vertex\s+fn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`@fragment\s+fn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> material: Material;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parseEntryPoints returns every entry point declared for stage, in source order.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - stage: the stage attribute to look for
//
// Returns:
//   - []string: the entry point function names
func parseEntryPoints(source string, stage Stage) []string {
	var re *regexp.Regexp
	switch stage {
	case StageVertex:
		re = vertexEntryRegex
	case StageFragment:
		re = fragmentEntryRegex
	default:
		return nil
	}

	matches := re.FindAllStringSubmatch(source, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// parseVertexLayout finds the first pure vertex input struct (@location fields, no @builtin)
// and converts it into a tightly packed VertexLayout.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - *VertexLayout: the layout, or nil if no vertex input struct with known field types exists
func parseVertexLayout(source string) *VertexLayout {
	for _, ps := range parseStructBlocks(source) {
		if !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexLayout(ps); ok {
			return &layout
		}
	}
	return nil
}

// parseBindings extracts every @group(N) @binding(M) declaration, sorted by group then binding.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []Binding: the declared resource bindings
func parseBindings(source string) []Binding {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	out := make([]Binding, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		out = append(out, Binding{
			Group:   uint32(group),
			Binding: uint32(binding),
			Name:    strings.TrimSpace(m[4]),
			Kind:    classifyBinding(strings.TrimSpace(m[3]), strings.TrimSpace(m[5])),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

func classifyBinding(addressSpace, typeName string) BindingKind {
	switch {
	case addressSpace == "uniform":
		return BindingKindUniform
	case strings.HasPrefix(addressSpace, "storage"):
		return BindingKindStorage
	case typeName == "sampler" || typeName == "sampler_comparison":
		return BindingKindSampler
	case strings.HasPrefix(typeName, "texture_"):
		return BindingKindTexture
	default:
		return BindingKindUnknown
	}
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}

func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

func buildVertexLayout(ps parsedStruct) (VertexLayout, bool) {
	attrs := make([]VertexAttribute, 0, len(ps.fields))
	var offset uint64

	for _, f := range ps.fields {
		format, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return VertexLayout{}, false
		}
		attrs = append(attrs, VertexAttribute{
			Name:     f.name,
			Location: uint32(f.location),
			Format:   format,
			Offset:   offset,
		})
		offset += format.Size()
	}
	return VertexLayout{Stride: offset, Attributes: attrs}, true
}

func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes /* */ comments. WGSL block comments nest.
func stripBlockComments(source string) string {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			pair := source[i : i+2]
			if pair == "/*" {
				depth++
				i++
				continue
			}
			if pair == "*/" && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
