// Package generate implements the Generate Orchestrator: it turns a built
// Graph and its partitioned Chunks into an OutputBundle by rendering every
// chunk in the caller's chosen dialect, finalizing any pending assets, and
// dispatching the render/generate extension hooks in the documented order.
package generate

import (
	"forge/internal/bundlesort"
	"forge/internal/sourcemap"
)

// BundleEntry is one member of the finished OutputBundle, keyed by its
// final file name.
type BundleEntry struct {
	FileName       string
	IsEntryChunk   bool
	IsAsset        bool
	Code           string
	Map            *sourcemap.Map
	Imports        []string
	DynamicImports []string
	Exports        []string
	Modules        []string
	Source         []byte
}

// Bundle is the ordered set of rendered chunks and finalized assets a
// Generate call produces. Ordering is entries first, then secondary
// chunks, then assets, stable within each class — the order a Public
// Handle's write step and any generateBundle extension observe.
type Bundle struct {
	entries map[string]*BundleEntry
	order   []string
}

func newBundle() *Bundle {
	return &Bundle{entries: make(map[string]*BundleEntry)}
}

// New creates an empty Bundle. Exported for callers (writer, tests)
// assembling a Bundle outside of Generate, e.g. from a cached build.
func New() *Bundle {
	return newBundle()
}

func (b *Bundle) set(e *BundleEntry) {
	if _, exists := b.entries[e.FileName]; !exists {
		b.order = append(b.order, e.FileName)
	}
	b.entries[e.FileName] = e
}

// Set inserts or replaces a bundle entry, keyed by its FileName.
func (b *Bundle) Set(e *BundleEntry) {
	b.set(e)
}

// Get returns the entry for fileName, or nil if there is none.
func (b *Bundle) Get(fileName string) *BundleEntry {
	return b.entries[fileName]
}

// SortedFileNames returns every file name in the bundle, entries before
// secondary chunks before assets, stable within each class.
func (b *Bundle) SortedFileNames() []string {
	sortable := make([]bundlesort.Entry, len(b.order))
	for i, name := range b.order {
		e := b.entries[name]
		kind := bundlesort.KindSecondary
		switch {
		case e.IsAsset:
			kind = bundlesort.KindAsset
		case e.IsEntryChunk:
			kind = bundlesort.KindEntry
		}
		sortable[i] = bundlesort.Entry{FileName: name, Kind: kind}
	}
	bundlesort.Sort(sortable)

	names := make([]string, len(sortable))
	for i, e := range sortable {
		names[i] = e.FileName
	}
	return names
}

// Entries returns every entry in SortedFileNames order.
func (b *Bundle) Entries() []*BundleEntry {
	out := make([]*BundleEntry, 0, len(b.order))
	for _, name := range b.SortedFileNames() {
		out = append(out, b.entries[name])
	}
	return out
}

// AsMap converts the bundle to the neutral map shape the GenerateBundle
// extension hook receives, keyed by file name.
func (b *Bundle) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(b.entries))
	for name, e := range b.entries {
		if e.IsAsset {
			out[name] = map[string]interface{}{
				"fileName": e.FileName,
				"isAsset":  true,
				"source":   e.Source,
			}
			continue
		}
		out[name] = map[string]interface{}{
			"fileName":       e.FileName,
			"isEntry":        e.IsEntryChunk,
			"code":           e.Code,
			"imports":        e.Imports,
			"dynamicImports": e.DynamicImports,
			"exports":        e.Exports,
			"modules":        e.Modules,
		}
	}
	return out
}

// Asset is a standing asset emitted outside the module graph (a copied
// file, an extension-generated artifact) awaiting a finalized file name.
type Asset struct {
	Name     string
	Source   []byte
	FileName string
}
