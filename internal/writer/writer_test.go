package writer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"forge/internal/config"
	"forge/internal/generate"
	"forge/internal/sourcemap"
)

func buildSingleEntryBundle(fileName, code string) *generate.Bundle {
	b := generate.New()
	b.Set(&generate.BundleEntry{FileName: fileName, IsEntryChunk: true, Code: code})
	return b
}

func TestWrite_MissingFileAndDirRejected(t *testing.T) {
	out := &config.OutputConfig{}
	err := Write(context.Background(), (*generate.Bundle)(nil), out, nil, Options{})
	if err == nil {
		t.Fatal("expected MISSING_OPTIONS error")
	}
}

func TestWrite_WritesChunkWithTrailingNewline(t *testing.T) {
	dir := t.TempDir()

	bundle := buildSingleEntryBundle("main.js", "console.log(1)")
	out := &config.OutputConfig{Dir: dir, Sourcemap: config.SourcemapOff}

	if err := Write(context.Background(), bundle, out, nil, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "main.js"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasSuffix(string(got), "\n") {
		t.Errorf("written file does not end in newline: %q", got)
	}
}

func TestWrite_ExternalSourcemapWritesSibling(t *testing.T) {
	dir := t.TempDir()

	bundle := buildSingleEntryBundle("main.js", "console.log(1)")
	entry := bundle.Get("main.js")
	entry.Map = sourcemap.NewBuilder("main.js").Build(nil)

	out := &config.OutputConfig{Dir: dir, Sourcemap: config.SourcemapExternal}
	if err := Write(context.Background(), bundle, out, nil, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "main.js"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(code), "//# sourceMappingURL=main.js.map") {
		t.Errorf("missing sourceMappingURL comment: %q", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "main.js.map")); err != nil {
		t.Errorf("expected sibling .map file: %v", err)
	}
}

func TestWrite_InlineSourcemapEmbedsDataURL(t *testing.T) {
	dir := t.TempDir()

	bundle := buildSingleEntryBundle("main.js", "console.log(1)")
	entry := bundle.Get("main.js")
	entry.Map = sourcemap.NewBuilder("main.js").Build(nil)

	out := &config.OutputConfig{Dir: dir, Sourcemap: config.SourcemapInline}
	if err := Write(context.Background(), bundle, out, nil, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "main.js"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(code), "data:application/json") {
		t.Errorf("missing inline data URL: %q", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "main.js.map")); err == nil {
		t.Error("inline sourcemap should not also write a sibling .map file")
	}
}

func TestWrite_GzipSiblingWhenRequested(t *testing.T) {
	dir := t.TempDir()

	bundle := buildSingleEntryBundle("main.js", "console.log(1)")
	out := &config.OutputConfig{Dir: dir}

	if err := Write(context.Background(), bundle, out, nil, Options{Gzip: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "main.js.gz")); err != nil {
		t.Errorf("expected gzip sibling: %v", err)
	}
}

func TestWrite_DispatchesOnWriteHook(t *testing.T) {
	dir := t.TempDir()
	bundle := buildSingleEntryBundle("main.js", "console.log(1)")
	out := &config.OutputConfig{Dir: dir}

	var gotName string
	ext := config.Extension{
		OnWrite: func(_ context.Context, fileName string) error {
			gotName = fileName
			return nil
		},
	}

	if err := Write(context.Background(), bundle, out, []config.Extension{ext}, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if gotName != "main.js" {
		t.Errorf("onwrite fileName = %q, want main.js", gotName)
	}
}
