// Package forge is a JavaScript module bundler: it resolves the static and
// dynamic import graph of a set of entry modules, tree-shakes unreachable
// exports, partitions what remains into output chunks that preserve every
// dynamic-import boundary, and renders each chunk into a chosen output
// module dialect.
//
// Rollup builds the pipeline once per call and returns a Handle; the
// Handle's Generate and Write methods can be called repeatedly against the
// same build, matching the watch-mode workflow where a single build is
// rendered to several output configurations without re-resolving the
// graph each time.
package forge

import (
	"context"
	"time"

	"forge/internal/build"
	"forge/internal/cache"
	"forge/internal/chunk"
	"forge/internal/config"
	ferrors "forge/internal/errors"
	"forge/internal/fsutil"
	"forge/internal/generate"
	"forge/internal/graph"
	"forge/internal/logging"
	"forge/internal/plugin"
	"forge/internal/writer"
)

// Rollup runs the Build Orchestrator against raw, caller-supplied input,
// normalizing options, dispatching the options/buildStart/buildEnd hooks,
// and partitioning the result into chunks. The returned Handle's Generate
// and Write methods then run the Generate Orchestrator as many times as
// the caller likes against that one build.
func Rollup(ctx context.Context, raw config.RawInput, resolver graph.Resolver, loader graph.Loader, parser graph.Parser) (*Handle, error) {
	rewritten, err := plugin.Options(ctx, raw.Plugins, raw)
	if err != nil {
		return nil, err
	}

	input, err := config.NormalizeInput(rewritten)
	if err != nil {
		return nil, err
	}

	result, err := build.Run(ctx, input, resolver, loader, parser)
	if err != nil {
		return nil, err
	}

	orch := generate.New(input.Plugins)

	var cacheDB *cache.DB
	if input.Cache {
		home, homeErr := fsutil.EnsureForgeHome()
		if homeErr == nil {
			logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel}).WithBuildID(result.BuildID)
			if db, openErr := cache.Open(home, logger); openErr == nil {
				cacheDB = db
				orch = orch.WithCache(db)
			}
		}
	}

	return &Handle{
		input:   input,
		buildID: result.BuildID,
		graph:   result.Graph,
		chunks:  result.Chunks,
		orch:    orch,
		cacheDB: cacheDB,
	}, nil
}

// Handle is the Public Handle (spec.md §4.6): the caller-facing value a
// successful build returns. cache and watchFiles are borrowed views into
// the build's own state; generate and write run the Generate Orchestrator
// and Writer respectively and may be called more than once.
type Handle struct {
	input   *config.InputConfig
	buildID string
	graph   *graph.Graph
	chunks  []*chunk.Chunk
	orch    *generate.Orchestrator
	cacheDB *cache.DB
}

// BuildID returns the correlation id assigned to this build, for log
// lines and error reports that span several Generate/Write calls.
func (h *Handle) BuildID() string {
	return h.buildID
}

// Cache returns a snapshot of every module's source the build read,
// in the shape of RawInput.CacheSnapshot. The build phase clears
// CacheSnapshot without reading it, so a later Rollup call still re-reads
// and re-parses every module. When the build was opened
// with RawInput.Cache, every module's read time is also recorded in the
// local build cache database, so a future `forge build` invocation (or
// `forge cache clear`) has something to report on.
func (h *Handle) Cache() map[string][]byte {
	snapshot := make(map[string][]byte)
	now := time.Now()
	for _, m := range h.graph.Modules() {
		snapshot[m.ID] = m.Source
		if h.cacheDB != nil {
			_ = h.cacheDB.RecordModuleMTime(m.ID, now)
		}
	}
	return snapshot
}

// Close releases the handle's local build cache connection, if one was
// opened. Safe to call on a handle that never opened a cache.
func (h *Handle) Close() error {
	if h.cacheDB == nil {
		return nil
	}
	return h.cacheDB.Close()
}

// WatchFiles returns the resolved ids of every module the build read, the
// set a watch-mode caller should watch for rebuild triggers.
func (h *Handle) WatchFiles() []string {
	return h.graph.WatchFiles()
}

// GenerateResult wraps a finished OutputBundle. Code and Map are
// deprecated direct accessors preserved for callers migrating off an
// older single-chunk-only API; both return ErrDeprecatedAccessor for any
// build that produced more than one chunk, since there is no longer a
// single answer.
type GenerateResult struct {
	Bundle *generate.Bundle
}

// ErrDeprecatedAccessor is returned by GenerateResult.Code/.Map when the
// bundle has more than one chunk and the caller used the single-chunk
// accessor instead of iterating output.
var ErrDeprecatedAccessor = ferrors.New(ferrors.InvalidOption, "bundle.code and bundle.map are deprecated for multi-chunk output; use output.Entries() instead")

// Code returns the sole chunk's rendered code for a single-entry-chunk
// bundle, or ErrDeprecatedAccessor otherwise.
func (r *GenerateResult) Code() (string, error) {
	entries := r.Bundle.Entries()
	if len(entries) != 1 {
		return "", ErrDeprecatedAccessor
	}
	return entries[0].Code, nil
}

// Map returns the sole chunk's source map for a single-entry-chunk
// bundle, or ErrDeprecatedAccessor otherwise.
func (r *GenerateResult) Map() (interface{}, error) {
	entries := r.Bundle.Entries()
	if len(entries) != 1 {
		return nil, ErrDeprecatedAccessor
	}
	return entries[0].Map, nil
}

// Generate runs the Generate Orchestrator once against this build's
// chunks and a single output configuration, without writing anything to
// disk. Per spec.md §9's resolved Open Question, an output list is the
// caller's responsibility to iterate; Generate itself only ever accepts
// one.
func (h *Handle) Generate(ctx context.Context, raw config.RawOutput) (*GenerateResult, error) {
	bundle, err := h.orch.Generate(ctx, h.chunks, h.graph, h.input, raw, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Bundle: bundle}, nil
}

// Write runs Generate and then writes every resulting bundle entry to
// disk under raw.Dir or raw.File, dispatching onwrite per file.
func (h *Handle) Write(ctx context.Context, raw config.RawOutput, opts writer.Options) (*GenerateResult, error) {
	bundle, err := h.orch.Generate(ctx, h.chunks, h.graph, h.input, raw, true, false, nil)
	if err != nil {
		return nil, err
	}

	out, err := config.NormalizeOutput(raw, len(h.chunks) > 1, h.input.PreserveModules)
	if err != nil {
		return nil, err
	}

	if err := writer.Write(ctx, bundle, out, h.input.Plugins, opts); err != nil {
		return nil, err
	}

	return &GenerateResult{Bundle: bundle}, nil
}

// WriteAll iterates raws and calls Write for each, matching the
// caller-iterates contract for an output-as-array configuration.
func (h *Handle) WriteAll(ctx context.Context, raws []config.RawOutput, opts writer.Options) ([]*GenerateResult, error) {
	results := make([]*GenerateResult, 0, len(raws))
	for _, raw := range raws {
		r, err := h.Write(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
