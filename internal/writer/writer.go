// Package writer implements the Writer collaborator (spec.md §4.5): it
// takes a finished generate.Bundle and writes every entry to disk under
// output.dir or output.file, handling external and inline source maps and
// dispatching the onwrite extension hook after each file lands.
package writer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"forge/internal/config"
	ferrors "forge/internal/errors"
	"forge/internal/generate"
	"forge/internal/plugin"
	"forge/internal/symbolindex"
	"forge/internal/version"
)

// Options controls how a Write call lays files out on disk.
type Options struct {
	// Gzip additionally writes a gzip-compressed ".gz" sibling of every
	// chunk and asset.
	Gzip bool
}

// Write resolves every bundle entry's output path under dir (or
// filepath.Dir(file) when dir is empty), writes its contents, appends a
// source map reference comment when the chunk carries one, and dispatches
// onwrite once per file. Writes proceed concurrently; the first error
// observed is returned after every in-flight write completes.
func Write(ctx context.Context, bundle *generate.Bundle, out *config.OutputConfig, extensions []config.Extension, opts Options) error {
	if out.File == "" && out.Dir == "" {
		return ferrors.MissingOptionsError("write")
	}

	dir := out.Dir
	if dir == "" {
		dir = filepath.Dir(out.File)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to create output directory", err)
	}

	entries := bundle.Entries()
	errs := make([]error, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		i, e := i, e
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = writeEntry(ctx, dir, e, out, extensions, opts)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if out.EmitSymbolIndex {
		if err := writeSymbolIndex(dir, entries); err != nil {
			return err
		}
	}
	return nil
}

// writeSymbolIndex emits a SCIP-shaped protobuf index describing every
// rendered chunk's exports and dependencies alongside the bundle, for
// downstream tooling that wants to answer "which chunk defines export X"
// without re-parsing the written output.
func writeSymbolIndex(dir string, entries []*generate.BundleEntry) error {
	chunks := make([]symbolindex.ChunkSymbols, 0, len(entries))
	for _, e := range entries {
		if e.IsAsset {
			continue
		}
		deps := append([]string{}, e.Imports...)
		deps = append(deps, e.DynamicImports...)
		chunks = append(chunks, symbolindex.ChunkSymbols{
			FileName: e.FileName,
			Exports:  e.Exports,
			Imports:  deps,
		})
	}

	idx := symbolindex.Build(dir, version.Version, chunks)
	if err := symbolindex.Write(filepath.Join(dir, "index.scip"), idx); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to write symbol index", err)
	}
	return nil
}

func writeEntry(ctx context.Context, dir string, e *generate.BundleEntry, out *config.OutputConfig, extensions []config.Extension, opts Options) error {
	path := filepath.Join(dir, e.FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to create output directory", err)
	}

	var content []byte
	if e.IsAsset {
		content = e.Source
	} else {
		code := e.Code
		if e.Map != nil && out.Sourcemap != config.SourcemapOff {
			ref, err := sourceMapReference(e, out, path)
			if err != nil {
				return err
			}
			code = appendSourceMapComment(code, ref)
		}
		content = []byte(ensureTrailingNewline(code))
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to write "+e.FileName, err)
	}

	if !e.IsAsset && e.Map != nil && out.Sourcemap == config.SourcemapExternal {
		mapBytes, err := e.Map.Marshal()
		if err != nil {
			return ferrors.Wrap(ferrors.InternalError, "failed to marshal source map", err)
		}
		if err := os.WriteFile(path+".map", mapBytes, 0o644); err != nil {
			return ferrors.Wrap(ferrors.InternalError, "failed to write "+e.FileName+".map", err)
		}
	}

	if opts.Gzip {
		if err := writeGzipSibling(path, content); err != nil {
			return err
		}
	}

	return plugin.OnWrite(ctx, extensions, e.FileName)
}

// sourceMapReference returns the `//# sourceMappingURL=` comment body: a
// sibling file name for external maps, a base64 data URL for inline ones.
func sourceMapReference(e *generate.BundleEntry, out *config.OutputConfig, path string) (string, error) {
	switch out.Sourcemap {
	case config.SourcemapExternal:
		return filepath.Base(path) + ".map", nil
	case config.SourcemapInline:
		return e.Map.ToDataURL()
	default:
		return "", nil
	}
}

func appendSourceMapComment(code, ref string) string {
	if ref == "" {
		return code
	}
	return strings.TrimRight(code, "\n") + "\n//# sourceMappingURL=" + ref + "\n"
}

func ensureTrailingNewline(code string) string {
	if strings.HasSuffix(code, "\n") {
		return code
	}
	return code + "\n"
}

func writeGzipSibling(path string, content []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to gzip "+filepath.Base(path), err)
	}
	if err := zw.Close(); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to gzip "+filepath.Base(path), err)
	}
	if err := os.WriteFile(path+".gz", buf.Bytes(), 0o644); err != nil {
		return ferrors.Wrap(ferrors.InternalError, "failed to write "+filepath.Base(path)+".gz", err)
	}
	return nil
}
