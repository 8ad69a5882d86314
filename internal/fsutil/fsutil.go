// Package fsutil provides the small set of path and hashing helpers the
// build pipeline needs: computing inputBase (the longest common directory
// of all entry modules), normalizing paths to forward slashes for chunk
// ids, and content-hashing chunk/asset bytes for the [hash] placeholder.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath converts path separators to forward slashes, the form
// chunk and asset file name patterns are expressed in regardless of host OS.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// LongestCommonDir returns the longest common directory prefix of the
// resolved paths, matching spec.md's inputBase definition. The empty
// string is returned for zero-element input and for a set with no common
// leading directory (e.g. different volumes); paths with no directory
// component share the directory ".".
func LongestCommonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	dirs := make([][]string, len(paths))
	for i, p := range paths {
		dirs[i] = strings.Split(NormalizePath(filepath.Dir(p)), "/")
	}

	common := dirs[0]
	for _, d := range dirs[1:] {
		common = commonPrefix(common, d)
		if len(common) == 0 {
			return ""
		}
	}

	return strings.Join(common, "/")
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// ContentHash returns a short, stable hex digest of data, used to fill the
// [hash] placeholder in chunk and asset file name patterns.
func ContentHash(data []byte, length int) string {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if length <= 0 || length > len(digest) {
		return digest
	}
	return digest[:length]
}

const (
	// DefaultForgeHome is the default directory for forge's global data
	// (remote-cache credentials, the local build cache database).
	DefaultForgeHome = ".forge"

	// ForgeHomeEnvVar overrides the default forge home directory.
	ForgeHomeEnvVar = "FORGE_HOME"
)

// ForgeHome returns forge's global data directory, preferring $FORGE_HOME
// and falling back to ~/.forge.
func ForgeHome() (string, error) {
	if envHome := os.Getenv(ForgeHomeEnvVar); envHome != "" {
		return envHome, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DefaultForgeHome), nil
}

// EnsureForgeHome creates and returns forge's global data directory.
func EnsureForgeHome() (string, error) {
	dir, err := ForgeHome()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
