package shader

import "io/fs"

// CompilerBuilderOption is a functional option applied to a compiler during construction via NewCompiler.
type CompilerBuilderOption func(*compiler)

// WithFS makes the compiler read sources from fsys instead of the OS filesystem.
//
// Parameters:
//   - fsys: the filesystem source paths are resolved against
//
// Returns:
//   - CompilerBuilderOption: a function that applies the filesystem option to a compiler
func WithFS(fsys fs.FS) CompilerBuilderOption {
	return func(c *compiler) {
		c.fsys = fsys
	}
}

// WithInclude registers a source fragment for the //@oxy:include directive.
//
// Parameters:
//   - name: the include argument
//   - source: the WGSL text injected in place of the directive
//
// Returns:
//   - CompilerBuilderOption: a function that registers the include on the compiler's pre-processor
func WithInclude(name, source string) CompilerBuilderOption {
	return func(c *compiler) {
		c.pp.Register(name, source)
	}
}
