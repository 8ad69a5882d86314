// Package resolve implements forge's default, extension-free module
// resolution and loading: relative and absolute specifiers resolve to a
// file on disk with a recognized JavaScript extension; anything else
// (bare package specifiers) is treated as external.
package resolve

import (
	"context"
	"os"
	"path/filepath"

	"forge/internal/fsutil"
)

var extensions = []string{"", ".js", ".mjs", ".jsx"}

// FS resolves and loads modules directly off the local filesystem. It
// implements graph.Resolver and graph.Loader.
type FS struct {
	// Root is not consulted by Resolve: bare (non-relative) import
	// specifiers are always external.
	Root string
}

// Resolve implements graph.Resolver.
func (f FS) Resolve(_ context.Context, importer, specifier string) (string, bool, error) {
	var base string
	switch {
	case filepath.IsAbs(specifier):
		base = specifier
	case len(specifier) > 0 && (specifier[0] == '.' || specifier[0] == '/'):
		base = filepath.Join(filepath.Dir(importer), specifier)
	default:
		return "", true, nil // bare specifier: external
	}

	for _, ext := range extensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return fsutil.NormalizePath(candidate), false, nil
		}
	}
	return "", true, nil
}

// Load implements graph.Loader.
func (f FS) Load(_ context.Context, id string) ([]byte, error) {
	return os.ReadFile(id)
}
