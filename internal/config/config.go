// Package config normalizes caller-supplied build and output options into
// the immutable InputConfig and OutputConfig the rest of the pipeline
// consumes, enforcing the mutual-exclusion invariants between
// preserveModules, inlineDynamicImports, manualChunks and multi-chunk
// output.
package config

import (
	"fmt"

	"forge/internal/chunk"
	ferrors "forge/internal/errors"
)

// SourcemapMode controls whether and how a source map is emitted.
type SourcemapMode string

const (
	SourcemapOff      SourcemapMode = "off"
	SourcemapExternal SourcemapMode = "external"
	SourcemapInline   SourcemapMode = "inline"
)

// RawInput is the caller-facing shape of the input options, before
// normalization: Input may be a single string, a []string, or a
// map[string]string naming each entry's chunk.
type RawInput struct {
	Input                interface{}
	Plugins              []Extension
	Cache                bool
	CacheSnapshot        map[string][]byte
	PreserveModules      bool
	InlineDynamicImports bool
	ManualChunks         map[string][]string
	ChunkGroupingSize    int
	OnWarn               func(Warning)
	Perf                 bool
	Output               RawOutput
}

// Warning is a non-fatal diagnostic surfaced through OnWarn. PluginCode
// further qualifies a PluginWarning by naming the specific deprecated or
// misused hook, mirroring the pluginCode rollup attaches to its own
// plugin-originated warnings.
type Warning struct {
	Code       ferrors.Code
	PluginCode string
	Message    string
}

// InputConfig is the normalized, immutable build configuration.
type InputConfig struct {
	Input                map[string]string
	Plugins              []Extension
	Cache                bool
	CacheSnapshot        map[string][]byte
	PreserveModules      bool
	InlineDynamicImports bool
	ManualChunks         map[string][]string
	ChunkGroupingSize    int
	OnWarn               func(Warning)
	Perf                 bool
	Output               OutputConfig
}

// RawOutput is the caller-facing shape of per-generate/write output
// options.
type RawOutput struct {
	Dialect         string
	File            string
	Dir             string
	EntryFileNames  string
	ChunkFileNames  string
	AssetFileNames  string
	Sourcemap       SourcemapMode
	SourcemapFile   string
	Globals         map[string]string
	Name            string
	EmitSymbolIndex bool
}

// OutputConfig is the normalized, immutable per-generate/write config.
type OutputConfig struct {
	Dialect         chunk.Dialect
	File            string
	Dir             string
	EntryFileNames  string
	ChunkFileNames  string
	AssetFileNames  string
	Sourcemap       SourcemapMode
	SourcemapFile   string
	Globals         map[string]string
	Name            string
	EmitSymbolIndex bool
}

var validDialects = map[string]chunk.Dialect{
	"amd":    chunk.DialectAMD,
	"cjs":    chunk.DialectCJS,
	"system": chunk.DialectSystem,
	"esm":    chunk.DialectESM,
	"iife":   chunk.DialectIIFE,
	"umd":    chunk.DialectUMD,
}

const defaultEntryFileNames = "[name].js"
const defaultChunkFileNames = "chunk-[hash].js"
const defaultAssetFileNames = "assets/[name]-[hash][extname]"

// NormalizeInput validates raw and produces an InputConfig.
func NormalizeInput(raw RawInput) (*InputConfig, error) {
	if raw.Input == nil {
		return nil, ferrors.MissingOptionsError("input")
	}

	entries, err := normalizeEntries(raw.Input)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ferrors.New(ferrors.InvalidOption, "at least one input must be supplied")
	}

	if raw.InlineDynamicImports {
		if len(entries) != 1 {
			return nil, ferrors.New(ferrors.InvalidOption, "inlineDynamicImports requires exactly one entry point")
		}
		if len(raw.ManualChunks) > 0 {
			return nil, ferrors.New(ferrors.InvalidOption, "inlineDynamicImports and manualChunks cannot be used together")
		}
	}

	if raw.PreserveModules {
		if raw.InlineDynamicImports {
			return nil, ferrors.New(ferrors.InvalidOption, "preserveModules and inlineDynamicImports cannot be used together")
		}
		if len(raw.ManualChunks) > 0 {
			return nil, ferrors.New(ferrors.InvalidOption, "preserveModules and manualChunks cannot be used together")
		}
	}

	out, err := NormalizeOutput(raw.Output, len(entries) > 1, raw.PreserveModules)
	if err != nil {
		return nil, err
	}

	onWarn := raw.OnWarn
	if onWarn == nil {
		onWarn = func(Warning) {}
	}

	return &InputConfig{
		Input:                entries,
		Plugins:              raw.Plugins,
		Cache:                raw.Cache,
		CacheSnapshot:        raw.CacheSnapshot,
		PreserveModules:      raw.PreserveModules,
		InlineDynamicImports: raw.InlineDynamicImports,
		ManualChunks:         raw.ManualChunks,
		ChunkGroupingSize:    raw.ChunkGroupingSize,
		OnWarn:               onWarn,
		Perf:                 raw.Perf,
		Output:               *out,
	}, nil
}

func normalizeEntries(input interface{}) (map[string]string, error) {
	switch v := input.(type) {
	case string:
		return map[string]string{entryNameFor(v): v}, nil
	case []string:
		entries := make(map[string]string, len(v))
		for _, spec := range v {
			entries[entryNameFor(spec)] = spec
		}
		return entries, nil
	case map[string]string:
		out := make(map[string]string, len(v))
		for name, spec := range v {
			out[name] = spec
		}
		return out, nil
	default:
		return nil, ferrors.New(ferrors.InvalidOption, fmt.Sprintf("input must be a string, a list of strings, or a name-to-specifier map, got %T", input))
	}
}

func entryNameFor(specifier string) string {
	base := specifier
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

// NormalizeOutput validates raw output options against the shape of the
// build (multiEntry, preserveModules) and fills in defaults.
func NormalizeOutput(raw RawOutput, multiEntry, preserveModules bool) (*OutputConfig, error) {
	dialectKey := raw.Dialect
	if dialectKey == "" {
		dialectKey = "esm"
	}
	if dialectKey == "es6" {
		return nil, ferrors.New(ferrors.DeprecatedFormat, "The \"es6\" output format is deprecated and will be removed in a future version. Use \"esm\" instead.")
	}

	dialect, ok := validDialects[dialectKey]
	if !ok {
		return nil, ferrors.New(ferrors.InvalidOption, fmt.Sprintf("invalid output format %q", dialectKey))
	}

	if raw.File != "" && raw.Dir != "" {
		return nil, ferrors.New(ferrors.InvalidOption, "output.file and output.dir cannot both be set")
	}

	if raw.File != "" {
		if preserveModules {
			return nil, ferrors.InvalidOptionError("preserveModules does not support a single output.file; use output.dir instead")
		}
		if multiEntry {
			return nil, ferrors.InvalidOptionError("output.file can only be used with a single entry; use output.dir for multiple inputs")
		}
	}

	isMultiChunk := multiEntry || preserveModules

	if isMultiChunk {
		if raw.File != "" {
			return nil, ferrors.InvalidOptionError("output.file cannot be used when the build produces multiple chunks; use output.dir")
		}
		if dialect == chunk.DialectUMD || dialect == chunk.DialectIIFE {
			return nil, ferrors.InvalidOptionError("UMD and IIFE output require a single chunk; set output.file with a single entry or disable code splitting")
		}
		if raw.SourcemapFile != "" {
			return nil, ferrors.InvalidOptionError("output.sourcemapFile cannot be used when the build produces multiple chunks")
		}
	}

	entryNames := raw.EntryFileNames
	if entryNames == "" {
		entryNames = defaultEntryFileNames
	}
	chunkNames := raw.ChunkFileNames
	if chunkNames == "" {
		chunkNames = defaultChunkFileNames
	}
	assetNames := raw.AssetFileNames
	if assetNames == "" {
		assetNames = defaultAssetFileNames
	}

	sourcemap := raw.Sourcemap
	if sourcemap == "" {
		sourcemap = SourcemapOff
	}

	return &OutputConfig{
		Dialect:         dialect,
		File:            raw.File,
		Dir:             raw.Dir,
		EntryFileNames:  entryNames,
		ChunkFileNames:  chunkNames,
		AssetFileNames:  assetNames,
		Sourcemap:       sourcemap,
		SourcemapFile:   raw.SourcemapFile,
		Globals:         raw.Globals,
		Name:            raw.Name,
		EmitSymbolIndex: raw.EmitSymbolIndex,
	}, nil
}

// MergeOutputDefaults layers the input's own normalized output defaults
// beneath a call-site RawOutput: any field callSite leaves at its zero
// value falls back to base's corresponding value. This is what lets
// InputConfig.Output (set once, at rollup time) actually reach every
// later generate/write call instead of being normalized and discarded.
func MergeOutputDefaults(callSite RawOutput, base OutputConfig) RawOutput {
	merged := callSite
	if merged.Dialect == "" {
		merged.Dialect = string(base.Dialect)
	}
	if merged.File == "" {
		merged.File = base.File
	}
	if merged.Dir == "" {
		merged.Dir = base.Dir
	}
	if merged.EntryFileNames == "" {
		merged.EntryFileNames = base.EntryFileNames
	}
	if merged.ChunkFileNames == "" {
		merged.ChunkFileNames = base.ChunkFileNames
	}
	if merged.AssetFileNames == "" {
		merged.AssetFileNames = base.AssetFileNames
	}
	if merged.Sourcemap == "" {
		merged.Sourcemap = base.Sourcemap
	}
	if merged.SourcemapFile == "" {
		merged.SourcemapFile = base.SourcemapFile
	}
	if merged.Globals == nil {
		merged.Globals = base.Globals
	}
	if merged.Name == "" {
		merged.Name = base.Name
	}
	if !merged.EmitSymbolIndex {
		merged.EmitSymbolIndex = base.EmitSymbolIndex
	}
	return merged
}
