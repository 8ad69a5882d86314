package config

import "context"

// Extension is forge's plugin unit: a named, tagged struct of optional
// hook functions. Unlike the MCP server's map[string]ToolHandler, where
// presence in the map IS the dispatch key, an Extension's hooks dispatch
// on field-non-nil the same way — a hook absent from an Extension simply
// never runs for it — but every Extension carries the full set of fields
// so the driver in internal/plugin can range over a []Extension once per
// hook name instead of per-extension type-switching.
type Extension struct {
	Name string

	// Options rewrites RawInput before normalization. Every extension's
	// Options hook runs in order, each seeing the previous one's result;
	// returning nil leaves the RawInput unchanged (sequential dispatch).
	Options func(RawInput) (*RawInput, error)

	// BuildStart runs once per build after normalization succeeds.
	// All extensions run concurrently, even if one fails (the first error
	// wins but the rest still observe build start).
	BuildStart func(ctx context.Context, input *InputConfig) error

	// ResolveID lets an extension override module resolution for a
	// given (importer, specifier) pair. First non-empty result wins.
	ResolveID func(ctx context.Context, specifier, importer string) (id string, external bool, ok bool, err error)

	// Load lets an extension supply a module's source directly instead
	// of reading it from disk. First non-empty result wins.
	Load func(ctx context.Context, id string) (src []byte, ok bool, err error)

	// Transform rewrites a module's source after it is loaded. Every
	// extension with a Transform hook runs, each seeing the previous
	// one's output (sequential dispatch).
	Transform func(ctx context.Context, id string, src []byte) ([]byte, error)

	// BuildEnd runs once per build, whether or not the build
	// succeeded; err is nil on success.
	BuildEnd func(ctx context.Context, err error) error

	// RenderError runs once per generate call that failed before
	// generateBundle; it must not replace the identity of the error it
	// is given. The orchestrator rethrows the original error.
	RenderError func(ctx context.Context, err error) error

	// RenderStart runs once per generate/write call, after output
	// normalization.
	RenderStart func(ctx context.Context, output *OutputConfig) error

	// RenderChunk lets an extension rewrite a chunk's rendered code
	// before it is added to the bundle. Sequential: each extension
	// sees the previous one's output.
	RenderChunk func(ctx context.Context, code string, chunkFileName string) (string, error)

	// GenerateBundle runs once per generate/write call with the
	// finished OutputBundle, keyed by file name. Extensions run in order,
	// each seeing the previous one's mutations; the first error stops the
	// rest (sequential dispatch).
	GenerateBundle func(ctx context.Context, bundle map[string]interface{}) error

	// OnWrite runs once per chunk/asset actually written to disk.
	OnWrite func(ctx context.Context, fileName string) error

	// OnGenerate is the deprecated predecessor of GenerateBundle: it runs
	// once per chunk, immediately after that chunk renders. An extension
	// still defining it triggers a PLUGIN_WARNING naming its position in
	// the extension list; forge still invokes the hook for compatibility.
	OnGenerate func(ctx context.Context, chunkFileName string) error
}
