package symbolindex

import (
	"path/filepath"
	"testing"
)

func TestBuild_EmitsOneDocumentPerChunk(t *testing.T) {
	idx := Build("/repo", "0.1.0", []ChunkSymbols{
		{FileName: "main.js", Exports: []string{"run"}, Imports: []string{"dep.js"}},
		{FileName: "dep.js", Exports: []string{"helper"}},
	})

	if len(idx.Documents) != 2 {
		t.Fatalf("len(Documents) = %d, want 2", len(idx.Documents))
	}
	if idx.Metadata.ToolInfo.Name != "forge" {
		t.Errorf("ToolInfo.Name = %q, want forge", idx.Metadata.ToolInfo.Name)
	}

	main := idx.Documents[0]
	if len(main.Symbols) != 1 || main.Symbols[0].Symbol != chunkSymbolID("main.js", "run") {
		t.Errorf("main.js symbols = %+v", main.Symbols)
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	idx := Build("/repo", "0.1.0", []ChunkSymbols{
		{FileName: "main.js", Exports: []string{"run"}},
	})

	path := filepath.Join(t.TempDir(), "forge.scip")
	if err := Write(path, idx); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Documents) != 1 || got.Documents[0].RelativePath != "main.js" {
		t.Errorf("Load() = %+v", got)
	}
}
