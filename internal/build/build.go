// Package build implements the one-shot build phase of the pipeline: it
// drives module resolution and tree-shaking through the dependency
// graph and produces the ordered chunk list a Handle's later generate
// calls render from.
package build

import (
	"context"

	"github.com/google/uuid"

	"forge/internal/chunk"
	"forge/internal/config"
	ferrors "forge/internal/errors"
	"forge/internal/graph"
	"forge/internal/plugin"
)

// Result is everything a Build call hands to the Public Handle: the
// finished graph (for watch files and asset finalization), the ordered
// chunk list, and the set of module ids tree-shaking kept (every module in
// the graph; per-export usage is on each graph.Module's UsedExports).
// BuildID is a correlation id for logs and error reports
// spanning this one build, the same role a request id plays across a
// server's middleware and handlers.
type Result struct {
	BuildID     string
	Graph       *graph.Graph
	Chunks      []*chunk.Chunk
	UsedExports map[string]bool
}

// Run executes the Build Orchestrator's linear state machine: instantiate
// the Graph, clear the cache snapshot, dispatch buildStart, build the
// graph, dispatch buildEnd. Failure from buildStart rejects with that
// error; failure from Graph.Build still dispatches buildEnd (with the
// error) before rejecting; buildEnd's own failure shadows the build
// error, matching the orchestrator's documented failure policy.
func Run(ctx context.Context, input *config.InputConfig, resolver graph.Resolver, loader graph.Loader, parser graph.Parser) (*Result, error) {
	g := graph.New(resolver, loader, parser)

	if w := takeWatcher(); w != nil {
		defer func() {
			w.SetWatchFiles(g.WatchFiles())
		}()
	}

	input.CacheSnapshot = nil

	if err := plugin.BuildStart(ctx, input.Plugins, input); err != nil {
		return nil, err
	}

	buildErr := g.Build(ctx, input.Input)

	if hookErr := plugin.BuildEnd(ctx, input.Plugins, buildErr); hookErr != nil {
		return nil, hookErr
	}
	if buildErr != nil {
		return nil, ferrors.Wrap(ferrors.InternalError, "graph build failed", buildErr)
	}

	usedExports := g.TreeShake()

	chunks, err := chunk.Partition(g, input.ManualChunks, input.PreserveModules, input.InlineDynamicImports)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.InternalError, "chunk partition failed", err)
	}

	return &Result{BuildID: uuid.New().String(), Graph: g, Chunks: chunks, UsedExports: usedExports}, nil
}
