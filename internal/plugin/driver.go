// Package plugin dispatches forge's extension hooks across the list of
// registered config.Extension values. Each hook name has one of three
// dispatch modes: parallel (all extensions run concurrently, first error
// wins), sequential (each extension rewrites the previous one's output),
// or first-non-empty (extensions are tried in order until one returns a
// result).
package plugin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"forge/internal/config"
)

// RunParallel runs fn for every extension concurrently and returns the
// first error encountered, canceling the shared context the way the
// semantic classifier's errgroup-backed fan-out does for its concurrent
// store lookups.
func RunParallel(ctx context.Context, extensions []config.Extension, fn func(ctx context.Context, ext config.Extension) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ext := range extensions {
		ext := ext
		g.Go(func() error {
			return fn(gctx, ext)
		})
	}
	return g.Wait()
}

// RunSequential threads value through fn for every extension in order,
// each seeing the previous extension's output. It stops and returns the
// error from the first extension that fails.
func RunSequential[T any](ctx context.Context, extensions []config.Extension, value T, fn func(ctx context.Context, ext config.Extension, value T) (T, error)) (T, error) {
	current := value
	for _, ext := range extensions {
		next, err := fn(ctx, ext, current)
		if err != nil {
			var zero T
			return zero, err
		}
		current = next
	}
	return current, nil
}

// RunFirstNonEmpty tries fn against each extension in order and returns
// the first result for which ok is true. If no extension produces a
// result, it returns the zero value and ok=false.
func RunFirstNonEmpty[T any](ctx context.Context, extensions []config.Extension, fn func(ctx context.Context, ext config.Extension) (T, bool, error)) (T, bool, error) {
	for _, ext := range extensions {
		result, ok, err := fn(ctx, ext)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	var zero T
	return zero, false, nil
}
