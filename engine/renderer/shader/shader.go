package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

var (
	// ErrUnknownProfile is returned for a profile string whose prefix names no stage.
	ErrUnknownProfile = errors.New("unknown shader profile")

	// ErrEntryPointNotFound is returned when the source declares no entry point of that
	// name for the requested stage.
	ErrEntryPointNotFound = errors.New("entry point not found")
)

// Stage identifies the pipeline stage a shader blob runs in.
type Stage int

const (
	// StageVertex is the vertex stage, profile prefix "vs_".
	StageVertex Stage = iota

	// StageFragment is the fragment stage, profile prefix "ps_" or "fs_".
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// StageFromProfile resolves a profile string such as "vs_6_0" or "ps_6_0" to a Stage.
//
// Parameters:
//   - profile: the target profile
//
// Returns:
//   - Stage: the stage the profile selects
//   - error: ErrUnknownProfile if the prefix is not recognized
func StageFromProfile(profile string) (Stage, error) {
	prefix, _, _ := strings.Cut(strings.ToLower(profile), "_")
	switch prefix {
	case "vs":
		return StageVertex, nil
	case "ps", "fs":
		return StageFragment, nil
	default:
		return 0, fmt.Errorf("%q: %w", profile, ErrUnknownProfile)
	}
}

// VertexFormat is the format of one vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatSint32
	VertexFormatUint32
)

// Size returns the size of the format in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	default:
		return 4
	}
}

// VertexAttribute is one field of the vertex input struct.
type VertexAttribute struct {
	Name     string
	Location uint32
	Format   VertexFormat
	Offset   uint64
}

// VertexLayout describes a tightly packed vertex stream.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// BindingKind classifies a declared resource binding.
type BindingKind int

const (
	BindingKindUnknown BindingKind = iota
	BindingKindUniform
	BindingKindStorage
	BindingKindTexture
	BindingKindSampler
)

// Binding is a @group/@binding resource declaration.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	Kind    BindingKind
}

// Blob is a compiled shader stage. For WGSL it carries the validated, include-expanded
// source that the backend turns into a shader module.
type Blob struct {
	// Key identifies the blob as "<sourcePath>:<entryPoint>".
	Key        string
	Stage      Stage
	EntryPoint string
	Profile    string
	Source     string

	// VertexLayout is the parsed vertex input layout, set for vertex blobs only.
	VertexLayout *VertexLayout

	// Bindings lists the resource declarations visible in the source.
	Bindings []Binding

	// Includes lists the include names expanded into Source.
	Includes []string
}

// Compiler turns shader source into a blob for one stage.
type Compiler interface {
	// Compile reads sourcePath, expands includes and validates that entryPoint is declared
	// for the stage selected by profile. Results are cached by path, entry point and profile.
	//
	// Parameters:
	//   - sourcePath: the WGSL file to read
	//   - entryPoint: the entry point function name
	//   - profile: the target profile, e.g. "vs_6_0"
	//
	// Returns:
	//   - Blob: the compiled stage
	//   - error: an AssetError if the file cannot be read, ErrUnknownProfile, ErrEntryPointNotFound,
	//     or a pre-processor error
	Compile(sourcePath, entryPoint, profile string) (Blob, error)

	// PreProcessor returns the include pass used by the compiler.
	PreProcessor() PreProcessor
}

type compiler struct {
	mu    sync.Mutex
	cache map[string]Blob

	fsys fs.FS
	pp   PreProcessor
}

var _ Compiler = &compiler{}

// NewCompiler creates a WGSL Compiler.
//
// Parameters:
//   - options: variadic CompilerBuilderOption functions
//
// Returns:
//   - Compiler: the compiler
func NewCompiler(options ...CompilerBuilderOption) Compiler {
	c := &compiler{
		cache: make(map[string]Blob),
		pp:    NewPreProcessor(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *compiler) PreProcessor() PreProcessor {
	return c.pp
}

func (c *compiler) Compile(sourcePath, entryPoint, profile string) (Blob, error) {
	cacheKey := sourcePath + ":" + entryPoint + ":" + profile

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.cache[cacheKey]; ok {
		return b, nil
	}

	blob, err := c.compile(sourcePath, entryPoint, profile)
	if err != nil {
		log.Printf("[Shader] compile %s (%s, %s) failed: %v", sourcePath, entryPoint, profile, err)
		return Blob{}, err
	}
	c.cache[cacheKey] = blob
	return blob, nil
}

func (c *compiler) compile(sourcePath, entryPoint, profile string) (Blob, error) {
	stage, err := StageFromProfile(profile)
	if err != nil {
		return Blob{}, err
	}

	data, err := c.readSource(sourcePath)
	if err != nil {
		return Blob{}, common.NewFileNotFoundError(sourcePath, err)
	}

	source, includes, err := c.pp.Process(string(data))
	if err != nil {
		return Blob{}, fmt.Errorf("pre-process %s: %w", sourcePath, err)
	}

	cleaned := stripComments(source)
	if !slices.Contains(parseEntryPoints(cleaned, stage), entryPoint) {
		return Blob{}, fmt.Errorf("%s entry point %q in %s: %w", stage, entryPoint, sourcePath, ErrEntryPointNotFound)
	}

	blob := Blob{
		Key:        sourcePath + ":" + entryPoint,
		Stage:      stage,
		EntryPoint: entryPoint,
		Profile:    profile,
		Source:     source,
		Bindings:   parseBindings(cleaned),
		Includes:   includes,
	}
	if stage == StageVertex {
		blob.VertexLayout = parseVertexLayout(cleaned)
	}
	return blob, nil
}

func (c *compiler) readSource(path string) ([]byte, error) {
	if c.fsys != nil {
		return fs.ReadFile(c.fsys, path)
	}
	return os.ReadFile(path)
}
