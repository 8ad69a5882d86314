package graph

import (
	"context"
	"testing"
)

// fakeModule describes one file in an in-memory fixture module graph.
type fakeModule struct {
	src     []byte
	imports []Import
	exports []string
}

type fakeFS struct {
	files map[string]fakeModule
}

func (f *fakeFS) Resolve(ctx context.Context, importer, specifier string) (string, bool, error) {
	if specifier == "external-lib" {
		return specifier, true, nil
	}
	if _, ok := f.files[specifier]; ok {
		return specifier, false, nil
	}
	return specifier, false, nil
}

func (f *fakeFS) Load(ctx context.Context, id string) ([]byte, error) {
	return f.files[id].src, nil
}

func (f *fakeFS) Parse(id string, src []byte) ([]Import, []string, bool, error) {
	m := f.files[id]
	return m.imports, m.exports, false, nil
}

func TestGraph_BuildFollowsStaticImports(t *testing.T) {
	fs := &fakeFS{files: map[string]fakeModule{
		"main.js": {
			src:     []byte("import {helper} from 'util.js'"),
			imports: []Import{{Specifier: "util.js", Kind: ImportStatic, Names: []string{"helper"}}},
			exports: nil,
		},
		"util.js": {
			src:     []byte("export function helper(){}\nexport function unused(){}"),
			exports: []string{"helper", "unused"},
		},
	}}

	g := New(fs, fs, fs)
	if err := g.Build(context.Background(), map[string]string{"main": "main.js"}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(g.Modules()) != 2 {
		t.Fatalf("len(Modules()) = %d, want 2", len(g.Modules()))
	}

	mainMod, ok := g.Module("main.js")
	if !ok || !mainMod.IsEntry {
		t.Fatalf("main.js should be a resolved entry module")
	}
}

func TestGraph_DynamicImportMarksDynamicEntry(t *testing.T) {
	fs := &fakeFS{files: map[string]fakeModule{
		"main.js": {
			imports: []Import{{Specifier: "lazy.js", Kind: ImportDynamic}},
		},
		"lazy.js": {
			exports: []string{"value"},
		},
	}}

	g := New(fs, fs, fs)
	if err := g.Build(context.Background(), map[string]string{"main": "main.js"}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	lazy, ok := g.Module("lazy.js")
	if !ok {
		t.Fatal("lazy.js not found in graph")
	}
	if !lazy.IsDynamicEntry {
		t.Error("lazy.js should be marked as a dynamic entry")
	}
}

func TestGraph_ExternalImportsAreNotFetched(t *testing.T) {
	fs := &fakeFS{files: map[string]fakeModule{
		"main.js": {
			imports: []Import{{Specifier: "external-lib", Kind: ImportStatic, Names: []string{"thing"}}},
		},
	}}

	g := New(fs, fs, fs)
	if err := g.Build(context.Background(), map[string]string{"main": "main.js"}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(g.Modules()) != 1 {
		t.Fatalf("len(Modules()) = %d, want 1 (external-lib must not be fetched)", len(g.Modules()))
	}
}

func TestGraph_TreeShakeDropsUnusedExports(t *testing.T) {
	fs := &fakeFS{files: map[string]fakeModule{
		"main.js": {
			imports: []Import{{Specifier: "util.js", Kind: ImportStatic, Names: []string{"helper"}}},
		},
		"util.js": {
			exports: []string{"helper", "unused"},
		},
	}}

	g := New(fs, fs, fs)
	if err := g.Build(context.Background(), map[string]string{"main": "main.js"}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	g.TreeShake()

	util, _ := g.Module("util.js")
	if !util.UsedExports["helper"] {
		t.Error("helper should be marked used")
	}
	if util.UsedExports["unused"] {
		t.Error("unused should not be marked used")
	}
}

func TestGraph_WatchFilesExcludesExternal(t *testing.T) {
	fs := &fakeFS{files: map[string]fakeModule{
		"main.js": {
			imports: []Import{{Specifier: "external-lib", Kind: ImportStatic}},
		},
	}}

	g := New(fs, fs, fs)
	if err := g.Build(context.Background(), map[string]string{"main": "main.js"}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	watch := g.WatchFiles()
	if len(watch) != 1 || watch[0] != "main.js" {
		t.Errorf("WatchFiles() = %v, want [main.js]", watch)
	}
}
