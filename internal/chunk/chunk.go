// Package chunk partitions a built module graph into output chunks —
// preserving every dynamic-import boundary — and renders each chunk's
// final source text in the caller's chosen output dialect.
package chunk

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"forge/internal/fsutil"
	"forge/internal/graph"
)

// Dialect is one of the six output module formats forge can emit.
type Dialect string

const (
	DialectAMD    Dialect = "amd"
	DialectCJS    Dialect = "cjs"
	DialectSystem Dialect = "system"
	DialectESM    Dialect = "esm"
	DialectIIFE   Dialect = "iife"
	DialectUMD    Dialect = "umd"
)

// RenderOptions is the subset of OutputConfig a chunk needs to render and
// to name itself.
type RenderOptions struct {
	Dialect         Dialect
	Name            string            // bundle name, required for IIFE/UMD with exports
	Globals         map[string]string // external module id -> global variable name
	PreserveModules bool
	EntryFileNames  string
	ChunkFileNames  string
}

// ExportMode describes how a chunk's top-level exports are surfaced to the
// dialect wrapper: "none" (no exports), "default" (a single default export
// assigned directly, as IIFE/UMD allow), or "named".
type ExportMode string

const (
	ExportNone    ExportMode = "none"
	ExportDefault ExportMode = "default"
	ExportNamed   ExportMode = "named"
)

// Chunk is one renderable output unit: either an entry facade (corresponds
// 1:1 with a caller-supplied or dynamically-imported entry module) or a
// secondary chunk shared by two or more importers.
type Chunk struct {
	ID string

	EntryModule         *graph.Module // nil for a pure secondary chunk
	IsEntryModuleFacade bool
	RenderedModules     []*graph.Module

	ExportMode ExportMode

	importIds   []string // ids of other chunks this chunk statically depends on
	dynamicIds  []string // ids of chunks reached only via import()
	exportNames []string
}

// Partition groups a built graph's modules into chunks.
//
//   - preserveModules: one chunk per module, no merging.
//   - manualChunks: modules named by the grouping function are pulled into
//     a chunk named after the group before automatic grouping runs.
//   - inlineDynamicImports: a dynamic import() is treated as an ordinary
//     static edge for partitioning purposes, so the one entry point
//     (NormalizeInput enforces exactly one when this is set) absorbs
//     every module otherwise reachable only through import() instead of
//     splitting them into their own chunks.
//   - otherwise: one chunk per entry module (static or dynamic), with any
//     module imported by more than one chunk's module set promoted to its
//     own shared chunk.
func Partition(g *graph.Graph, manualChunks map[string][]string, preserveModules, inlineDynamicImports bool) ([]*Chunk, error) {
	modules := g.Modules()
	if len(modules) == 0 {
		return nil, nil
	}

	if preserveModules {
		return partitionPreserveModules(modules), nil
	}

	assigned := make(map[string]string) // module id -> chunk name
	var chunkOrder []string
	chunkModules := make(map[string][]*graph.Module)

	assign := func(name string, mod *graph.Module) {
		if _, ok := chunkModules[name]; !ok {
			chunkOrder = append(chunkOrder, name)
		}
		if existing, ok := assigned[mod.ID]; ok && existing != name {
			return
		}
		assigned[mod.ID] = name
		chunkModules[name] = append(chunkModules[name], mod)
	}

	names := make([]string, 0, len(manualChunks))
	for name := range manualChunks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, id := range manualChunks[name] {
			if mod, ok := g.Module(id); ok {
				assign(name, mod)
			}
		}
	}

	// Every entry (static or dynamic) seeds its own chunk, unless dynamic
	// imports are being inlined, in which case only the true entry point
	// seeds a chunk and every dynamically-reached module folds into it.
	for _, mod := range modules {
		if mod.IsEntry || (mod.IsDynamicEntry && !inlineDynamicImports) {
			if _, taken := assigned[mod.ID]; !taken {
				name := entryChunkName(mod)
				assign(name, mod)
			}
		}
	}

	// Walk each entry's reachable, not-yet-assigned modules into its chunk,
	// unless a module is reachable from more than one entry, in which case
	// it is promoted into its own shared chunk.
	owner := make(map[string]string) // module id -> sole owning entry chunk, "" = shared
	var assignTransitive func(entryName, id string)
	assignTransitive = func(entryName, id string) {
		mod, ok := g.Module(id)
		if !ok {
			return
		}
		if existing, seen := owner[id]; seen {
			if existing != entryName {
				owner[id] = ""
			}
			return
		}
		owner[id] = entryName

		for _, imp := range mod.Imports {
			if imp.Kind == graph.ImportDynamic && !inlineDynamicImports {
				continue // dynamic imports are their own chunk boundary
			}
			depID := resolveSibling(g, id, imp.Specifier)
			if depID == "" {
				continue
			}
			if _, manuallyAssigned := assigned[depID]; manuallyAssigned {
				continue
			}
			assignTransitive(entryName, depID)
		}
	}

	for _, mod := range modules {
		if mod.IsEntry || (mod.IsDynamicEntry && !inlineDynamicImports) {
			assignTransitive(entryChunkName(mod), mod.ID)
		}
	}

	for id, entryName := range owner {
		if _, manuallyAssigned := assigned[id]; manuallyAssigned {
			continue
		}
		mod, _ := g.Module(id)
		if entryName == "" {
			assign(sharedChunkName(mod), mod)
		} else {
			assign(entryName, mod)
		}
	}

	chunks := make([]*Chunk, 0, len(chunkOrder))
	byName := make(map[string]*Chunk, len(chunkOrder))
	for _, name := range chunkOrder {
		mods := chunkModules[name]
		sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })

		c := &Chunk{RenderedModules: mods}
		for _, m := range mods {
			if m.IsEntry || (m.IsDynamicEntry && !inlineDynamicImports) {
				c.EntryModule = m
				c.IsEntryModuleFacade = true
				break
			}
		}
		chunks = append(chunks, c)
		byName[name] = c
	}

	linkChunkDependencies(g, chunkOrder, chunkModules, byName)

	return chunks, nil
}

func partitionPreserveModules(modules []*graph.Module) []*Chunk {
	chunks := make([]*Chunk, 0, len(modules))
	for _, mod := range modules {
		c := &Chunk{
			RenderedModules:     []*graph.Module{mod},
			EntryModule:         mod,
			IsEntryModuleFacade: mod.IsEntry || mod.IsDynamicEntry,
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func entryChunkName(mod *graph.Module) string {
	if mod.EntryName != "" {
		return mod.EntryName
	}
	base := filepath.Base(mod.ID)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sharedChunkName(mod *graph.Module) string {
	base := filepath.Base(mod.ID)
	return "chunk-" + fsutil.ContentHash([]byte(base+mod.ID), 8)
}

// resolveSibling looks up an import specifier against the graph's already
// resolved module set by checking every module id for a plausible suffix
// match — the graph itself owns specifier resolution, and at partition
// time every import has already been followed once by Graph.Build.
func resolveSibling(g *graph.Graph, importer, specifier string) string {
	if _, ok := g.Module(specifier); ok {
		return specifier
	}
	dir := filepath.Dir(importer)
	joined := fsutil.NormalizePath(filepath.Join(dir, specifier))
	if _, ok := g.Module(joined); ok {
		return joined
	}
	return ""
}

func linkChunkDependencies(g *graph.Graph, order []string, modsByChunk map[string][]*graph.Module, byName map[string]*Chunk) {
	moduleChunk := make(map[string]string)
	for name, mods := range modsByChunk {
		for _, m := range mods {
			moduleChunk[m.ID] = name
		}
	}

	for _, name := range order {
		c := byName[name]
		staticSeen := make(map[string]bool)
		dynSeen := make(map[string]bool)

		for _, mod := range c.RenderedModules {
			for _, imp := range mod.Imports {
				depID := resolveSibling(g, mod.ID, imp.Specifier)
				if depID == "" {
					continue
				}
				depChunk, ok := moduleChunk[depID]
				if !ok || depChunk == name {
					continue
				}
				if imp.Kind == graph.ImportDynamic {
					if !dynSeen[depChunk] {
						dynSeen[depChunk] = true
						c.dynamicIds = append(c.dynamicIds, depChunk)
					}
				} else {
					if !staticSeen[depChunk] {
						staticSeen[depChunk] = true
						c.importIds = append(c.importIds, depChunk)
					}
				}
			}
		}
		sort.Strings(c.importIds)
		sort.Strings(c.dynamicIds)
	}
}

// GetImportIds returns the ids of other chunks this chunk statically
// depends on (excluding dynamic-import-only dependencies).
func (c *Chunk) GetImportIds() []string { return c.importIds }

// GetDynamicImportIds returns the ids of chunks reached only via import().
func (c *Chunk) GetDynamicImportIds() []string { return c.dynamicIds }

// GetExportNames returns the export names this chunk's facade surfaces.
func (c *Chunk) GetExportNames() []string { return c.exportNames }

// GenerateInternalExports computes the export-name list this chunk
// surfaces to importers: for an entry facade, every used export of the
// entry module; for a secondary chunk, every export any other chunk
// references.
func (c *Chunk) GenerateInternalExports() {
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		c.exportNames = append(c.exportNames, name)
	}

	if c.EntryModule != nil {
		for name, used := range c.EntryModule.UsedExports {
			if used {
				add(name)
			}
		}
		if len(c.exportNames) == 0 && c.EntryModule.HasDefault {
			add("*default*")
		}
	} else {
		// A secondary chunk has no facade of its own; what it must
		// surface is whichever of its modules' exports some other
		// chunk's import bindings actually reference. UsedExports
		// already carries that cross-module reachability from
		// Graph.TreeShake, so every module in the chunk contributes.
		for _, mod := range c.RenderedModules {
			for name, used := range mod.UsedExports {
				if used {
					add(name)
				}
			}
		}
	}

	if len(c.exportNames) == 0 {
		c.ExportMode = ExportNone
	} else if len(c.exportNames) == 1 && c.exportNames[0] == "*default*" {
		c.ExportMode = ExportDefault
	} else {
		c.ExportMode = ExportNamed
	}
	sort.Strings(c.exportNames)
}

// GenerateIdPreserveModules derives a chunk's output file name from its
// sole module's path relative to inputBase, for preserveModules builds.
func (c *Chunk) GenerateIdPreserveModules(inputBase string) string {
	if len(c.RenderedModules) == 0 {
		return ""
	}
	id := c.RenderedModules[0].ID
	rel := strings.TrimPrefix(fsutil.NormalizePath(id), inputBase+"/")
	return withJSExtension(rel)
}

// GenerateId derives the chunk's output file name from the entry or chunk
// file-name pattern, filling [name], [hash] and [extname], and resolving
// collisions against usedIds by appending a numeric suffix.
func (c *Chunk) GenerateId(pattern string, usedIds map[string]bool) string {
	name := c.name()

	var contentSeed strings.Builder
	for _, m := range c.RenderedModules {
		contentSeed.Write(m.Source)
	}
	hash := fsutil.ContentHash([]byte(contentSeed.String()), 8)

	id := pattern
	id = strings.ReplaceAll(id, "[name]", name)
	id = strings.ReplaceAll(id, "[hash]", hash)
	id = strings.ReplaceAll(id, "[extname]", ".js")

	candidate := id
	for i := 2; usedIds[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d%s", strings.TrimSuffix(id, filepath.Ext(id)), i, filepath.Ext(id))
	}
	usedIds[candidate] = true
	c.ID = candidate
	return candidate
}

func (c *Chunk) name() string {
	if c.EntryModule != nil && c.EntryModule.EntryName != "" {
		return c.EntryModule.EntryName
	}
	if c.EntryModule != nil {
		base := filepath.Base(c.EntryModule.ID)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "chunk"
}

func withJSExtension(path string) string {
	if strings.HasSuffix(path, ".js") {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".js"
}
