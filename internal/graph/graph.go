// Package graph builds and tree-shakes the module dependency graph: each
// entry point is resolved and parsed, its static and dynamic imports are
// followed until the graph is closed, then every export reachable from a
// used import is retained and everything else is dropped.
package graph

import (
	"context"
	"fmt"
	"sort"
)

// ImportKind distinguishes a static `import` from a dynamic `import()`.
// Dynamic imports are chunk boundaries: the imported module and everything
// it alone depends on is split into its own chunk rather than inlined.
type ImportKind int

const (
	ImportStatic ImportKind = iota
	ImportDynamic
)

// Import is a single import statement found in a module's source.
type Import struct {
	Specifier string
	Kind      ImportKind
	// Names lists the imported bindings ("*default*", "*namespace*", or a
	// named export). Empty means a bare side-effect import.
	Names []string
}

// Resolver turns an import specifier written in an importing module into
// the canonical id of the module it points to. External (unresolvable,
// e.g. bare npm specifiers with no match) modules return External=true.
type Resolver interface {
	Resolve(ctx context.Context, importer, specifier string) (id string, external bool, err error)
}

// Parser extracts the import and export declarations of a module's source.
type Parser interface {
	Parse(id string, src []byte) (imports []Import, exports []string, hasDefault bool, err error)
}

// Loader reads a module's source bytes given its resolved id.
type Loader interface {
	Load(ctx context.Context, id string) ([]byte, error)
}

// Module is one node of the dependency graph.
type Module struct {
	ID         string
	Source     []byte
	Imports    []Import
	Exports    []string
	HasDefault bool

	IsEntry        bool
	IsDynamicEntry bool
	EntryName      string // caller-supplied name, for entry facades

	// UsedExports is populated by TreeShake: the subset of Exports actually
	// reachable from some importer. Nil before TreeShake runs.
	UsedExports map[string]bool

	importers        map[string]bool
	dynamicImporters map[string]bool
}

func newModule(id string) *Module {
	return &Module{
		ID:               id,
		importers:        make(map[string]bool),
		dynamicImporters: make(map[string]bool),
	}
}

// Graph is the full set of resolved modules reachable from a build's entry
// points, in first-discovered order.
type Graph struct {
	resolver Resolver
	loader   Loader
	parser   Parser

	modules map[string]*Module
	order   []string
}

// New creates an empty Graph bound to the given resolver, loader and parser.
func New(resolver Resolver, loader Loader, parser Parser) *Graph {
	return &Graph{
		resolver: resolver,
		loader:   loader,
		parser:   parser,
		modules:  make(map[string]*Module),
	}
}

// entryPoint pairs a resolved entry id with the caller-supplied output name.
type entryPoint struct {
	id   string
	name string
}

// Build resolves every entry point and transitively follows its static and
// dynamic imports until the graph is closed. Entries is a map of output
// chunk name to input specifier, matching InputConfig's input field.
func (g *Graph) Build(ctx context.Context, entries map[string]string) error {
	entryIDs := make([]entryPoint, 0, len(entries))

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := entries[name]
		id, external, err := g.resolver.Resolve(ctx, "", spec)
		if err != nil {
			return fmt.Errorf("could not resolve entry %q: %w", spec, err)
		}
		if external {
			return fmt.Errorf("entry %q resolved to an external module", spec)
		}
		entryIDs = append(entryIDs, entryPoint{id: id, name: name})
	}

	var queue []string
	for _, e := range entryIDs {
		mod, err := g.fetch(ctx, e.id)
		if err != nil {
			return err
		}
		mod.IsEntry = true
		if mod.EntryName == "" {
			mod.EntryName = e.name
		}
		queue = append(queue, e.id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		mod := g.modules[id]
		for _, imp := range mod.Imports {
			depID, external, err := g.resolver.Resolve(ctx, id, imp.Specifier)
			if err != nil {
				return fmt.Errorf("%s: could not resolve %q: %w", id, imp.Specifier, err)
			}
			if external {
				continue
			}

			first := g.modules[depID] == nil
			dep, err := g.fetch(ctx, depID)
			if err != nil {
				return err
			}

			dep.importers[id] = true
			if imp.Kind == ImportDynamic {
				dep.dynamicImporters[id] = true
				if len(dep.importers) == 0 || allDynamic(dep) {
					dep.IsDynamicEntry = true
				}
			}

			if first {
				queue = append(queue, depID)
			}
		}
	}

	return nil
}

func allDynamic(m *Module) bool {
	for importer := range m.importers {
		if !m.dynamicImporters[importer] {
			return false
		}
	}
	return true
}

func (g *Graph) fetch(ctx context.Context, id string) (*Module, error) {
	if existing, ok := g.modules[id]; ok {
		return existing, nil
	}

	src, err := g.loader.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not load %q: %w", id, err)
	}

	imports, exports, hasDefault, err := g.parser.Parse(id, src)
	if err != nil {
		return nil, fmt.Errorf("could not parse %q: %w", id, err)
	}

	mod := newModule(id)
	mod.Source = src
	mod.Imports = imports
	mod.Exports = exports
	mod.HasDefault = hasDefault

	g.modules[id] = mod
	g.order = append(g.order, id)
	return mod, nil
}

// Modules returns every module in the graph, in first-discovered order.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.modules[id])
	}
	return out
}

// Module looks up a single module by resolved id.
func (g *Graph) Module(id string) (*Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Resolve exposes the graph's bound Resolver so callers outside the
// package (the chunk renderer, distinguishing external specifiers from
// sibling modules) can reuse the exact resolution Build already performed
// rather than re-implementing specifier matching.
func (g *Graph) Resolve(ctx context.Context, importer, specifier string) (id string, external bool, err error) {
	return g.resolver.Resolve(ctx, importer, specifier)
}

// WatchFiles returns the resolved ids of every module in the graph (external
// modules are never fetched, so never appear here), the set a watch-mode
// rebuild re-reads mtimes for.
func (g *Graph) WatchFiles() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// TreeShake marks, for every module, which of its exports are reachable
// from some importer's named bindings, and stores that set in the module's
// UsedExports. Entry modules always retain every export since the caller's
// consumer of the bundle may reference any of them. The returned map holds
// every module id in the graph, each mapped to true.
func (g *Graph) TreeShake() map[string]bool {
	used := make(map[string]map[string]bool)
	for id := range g.modules {
		used[id] = make(map[string]bool)
	}

	var markAll func(id string)
	markAll = func(id string) {
		mod, ok := g.modules[id]
		if !ok {
			return
		}
		allMarked := len(used[id]) == len(mod.Exports) && len(mod.Exports) > 0
		for _, name := range mod.Exports {
			if used[id][name] {
				continue
			}
			used[id][name] = true
			allMarked = false
		}
		_ = allMarked
	}

	for _, id := range g.order {
		mod := g.modules[id]
		if mod.IsEntry {
			markAll(id)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, id := range g.order {
			mod := g.modules[id]
			for _, imp := range mod.Imports {
				depID, external, err := g.resolver.Resolve(context.Background(), id, imp.Specifier)
				if err != nil || external {
					continue
				}
				if _, ok := g.modules[depID]; !ok {
					continue
				}
				for _, name := range imp.Names {
					if name == "*namespace*" {
						before := len(used[depID])
						markAll(depID)
						if len(used[depID]) != before {
							changed = true
						}
						continue
					}
					if !used[depID][name] {
						used[depID][name] = true
						changed = true
					}
				}
			}
		}
	}

	// Every module in the graph was already discovered by following imports
	// from an entry point (Build never fetches an unreachable module), so
	// module-level reachability is trivial here; what TreeShake contributes
	// is the per-module UsedExports set a chunk renderer consults to drop
	// declarations nothing imports.
	reachable := make(map[string]bool, len(g.order))
	for _, id := range g.order {
		g.modules[id].UsedExports = used[id]
		reachable[id] = true
	}

	return reachable
}
