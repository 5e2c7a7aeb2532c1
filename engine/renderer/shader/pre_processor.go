// pre_processor.go implements the WGSL include pass. A line of the form
//
//	//@oxy:include <name>
//
// is replaced by the struct source registered under name, so the GPU-side declarations
// of the vertex and constant layouts live next to the Go types that mirror them.
package shader

import (
	"fmt"
	"strings"
)

// includePrefix marks an include directive inside a WGSL line comment.
const includePrefix = "//@oxy:include"

// PreProcessor expands include directives in WGSL source.
type PreProcessor interface {
	// Register adds or replaces the source injected for name.
	//
	// Parameters:
	//   - name: the include argument, e.g. "vertex"
	//   - source: the WGSL text to inject
	Register(name, source string)

	// Process replaces every include directive in source with its registered text.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - []string: the include names used, in source order
	//   - error: an error naming the line of a malformed or unknown include
	Process(source string) (string, []string, error)
}

type preProcessor struct {
	registry map[string]string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with an empty registry.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{registry: make(map[string]string)}
}

func (p *preProcessor) Register(name, source string) {
	p.registry[name] = source
}

func (p *preProcessor) Process(source string) (string, []string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var used []string

	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		args := strings.Fields(rest)
		if len(args) != 1 {
			return "", nil, fmt.Errorf("line %d: include takes exactly one argument, got %d", i+1, len(args))
		}
		src, ok := p.registry[args[0]]
		if !ok {
			return "", nil, fmt.Errorf("line %d: unknown include %q", i+1, args[0])
		}
		out = append(out, src)
		used = append(used, args[0])
	}
	return strings.Join(out, "\n"), used, nil
}
