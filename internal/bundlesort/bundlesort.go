// Package bundlesort orders the files of a finished output bundle so that
// repeated generates of the same build are byte-for-byte reproducible in
// listing order, regardless of map or goroutine iteration order upstream.
package bundlesort

import "sort"

// Kind classifies a bundle entry for sorting purposes.
type Kind int

const (
	// KindEntry is an entry-facade chunk.
	KindEntry Kind = iota
	// KindSecondary is a non-entry (shared or dynamic-import) chunk.
	KindSecondary
	// KindAsset is a finalized asset.
	KindAsset
)

// Entry is the minimal shape bundlesort needs to order bundle files.
type Entry struct {
	FileName string
	Kind     Kind
}

// Sort orders entries by Kind (entries, then secondaries, then assets),
// preserving relative order within each Kind — a stable sort, matching
// spec.md's "equal kinds preserve insertion order" requirement.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Kind < entries[j].Kind
	})
}
