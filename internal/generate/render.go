package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"forge/internal/cache"
	"forge/internal/chunk"
	"forge/internal/config"
	ferrors "forge/internal/errors"
	"forge/internal/graph"
	"forge/internal/plugin"
	"forge/internal/sourcemap"
)

// bodyFor concatenates a chunk's rendered modules' executable statements,
// stripped of their import/export syntax, in the module order Partition
// already settled on.
func bodyFor(c *chunk.Chunk) (string, error) {
	parts := make([]string, 0, len(c.RenderedModules))
	for _, mod := range c.RenderedModules {
		body, err := chunk.ExtractBody(mod.Source)
		if err != nil {
			return "", err
		}
		if body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// importBindingsFor derives a chunk's import binding list: one entry per
// other chunk it statically imports (by chunk id), plus one entry per
// external (unresolvable) specifier any of its modules import directly.
func importBindingsFor(ctx context.Context, g *graph.Graph, c *chunk.Chunk) []chunk.ImportBinding {
	var out []chunk.ImportBinding

	for _, id := range c.GetImportIds() {
		out = append(out, chunk.ImportBinding{Source: id})
	}

	seenExternal := make(map[string]bool)
	for _, mod := range c.RenderedModules {
		for _, imp := range mod.Imports {
			if imp.Kind == graph.ImportDynamic {
				continue
			}
			_, external, err := g.Resolve(ctx, mod.ID, imp.Specifier)
			if err != nil || !external {
				continue
			}
			if seenExternal[imp.Specifier] {
				continue
			}
			seenExternal[imp.Specifier] = true
			out = append(out, chunk.ImportBinding{Source: imp.Specifier, IsExternal: true, Names: imp.Names})
		}
	}

	return out
}

// buildSourceMap produces a line-granular source map for a chunk's
// rendered body: every generated line of a module's contribution maps to
// the matching line of that module's original source. forge does not
// track column-level positions through body extraction, so this is a
// best-effort, per-line mapping rather than a token-exact one.
func buildSourceMap(c *chunk.Chunk, fileName string) *sourcemap.Map {
	b := sourcemap.NewBuilder(fileName)
	sourcesContent := make(map[string]string, len(c.RenderedModules))

	for _, mod := range c.RenderedModules {
		sourcesContent[mod.ID] = string(mod.Source)
		lines := strings.Count(string(mod.Source), "\n") + 1
		for line := 0; line < lines; line++ {
			b.AddMapping(0, mod.ID, line, 0, "")
			b.EndLine()
		}
	}

	return b.Build(sourcesContent)
}

type renderResult struct {
	id     string
	code   string
	mapObj *sourcemap.Map
	err    error
}

// moduleContentsFor returns a chunk's rendered modules' sources in their
// settled order, the input cache.Key hashes to form a render cache key.
func moduleContentsFor(c *chunk.Chunk) [][]byte {
	contents := make([][]byte, len(c.RenderedModules))
	for i, mod := range c.RenderedModules {
		contents[i] = mod.Source
	}
	return contents
}

func renderChunk(ctx context.Context, extensions []config.Extension, g *graph.Graph, c *chunk.Chunk, opts chunk.RenderOptions, withMap bool, db *cache.DB, onWarn func(config.Warning)) renderResult {
	var cacheKey string
	if db != nil {
		cacheKey = cache.Key(string(opts.Dialect), withMap, moduleContentsFor(c))
		if entry, err := db.Get(cacheKey); err == nil {
			m, mapErr := decodeCachedMap(entry.Map)
			if mapErr == nil {
				return renderResult{id: c.ID, code: string(entry.Code), mapObj: m}
			}
		}
	}

	body, err := bodyFor(c)
	if err != nil {
		return renderResult{err: err}
	}

	imports := importBindingsFor(ctx, g, c)
	for _, w := range missingGlobalWarnings(opts, imports) {
		onWarn(w)
	}

	code, err := c.Render(opts, body, imports)
	if err != nil {
		return renderResult{err: err}
	}

	code, err = plugin.RenderChunk(ctx, extensions, code, c.ID)
	if err != nil {
		return renderResult{err: err}
	}

	var m *sourcemap.Map
	if withMap {
		m = buildSourceMap(c, c.ID)
	}

	if err := plugin.OnGenerate(ctx, extensions, c.ID); err != nil {
		return renderResult{err: err}
	}

	if db != nil {
		mapBytes, _ := encodeCachedMap(m)
		_ = db.Put(cacheKey, cache.Entry{FileName: c.ID, Code: []byte(code), Map: mapBytes})
	}

	return renderResult{id: c.ID, code: code, mapObj: m}
}

// missingGlobalWarnings reports, for IIFE/UMD dialects only, every
// external import the chunk references that has no entry in
// output.globals — the renderer still falls back to a generated
// variable name for these (chunk.iifeGlobalsArgs), but spec.md §8
// scenario 5 requires the caller be warned which external name it
// guessed.
func missingGlobalWarnings(opts chunk.RenderOptions, imports []chunk.ImportBinding) []config.Warning {
	if opts.Dialect != chunk.DialectIIFE && opts.Dialect != chunk.DialectUMD {
		return nil
	}
	var warnings []config.Warning
	for _, imp := range imports {
		if !imp.IsExternal {
			continue
		}
		if _, ok := opts.Globals[imp.Source]; ok {
			continue
		}
		warnings = append(warnings, config.Warning{
			Code:    ferrors.MissingNameForFormat,
			Message: fmt.Sprintf("Missing global variable name for external import %q. Use output.globals to specify browser global variable names corresponding to external modules", imp.Source),
		})
	}
	return warnings
}

func decodeCachedMap(raw []byte) (*sourcemap.Map, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m sourcemap.Map
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func encodeCachedMap(m *sourcemap.Map) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
