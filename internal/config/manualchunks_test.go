package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManualChunks_MissingFileReturnsNil(t *testing.T) {
	got, err := LoadManualChunks(t.TempDir())
	if err != nil {
		t.Fatalf("LoadManualChunks: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestLoadManualChunks_ParsesDeclarations(t *testing.T) {
	dir := t.TempDir()
	content := `version = 1

[[chunk]]
name = "vendor"
modules = ["lodash", "react"]

[[chunk]]
name = "utils"
modules = ["src/utils.js"]
`
	if err := os.WriteFile(filepath.Join(dir, "chunks.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadManualChunks(dir)
	if err != nil {
		t.Fatalf("LoadManualChunks: %v", err)
	}
	if len(got["vendor"]) != 2 || got["vendor"][0] != "lodash" {
		t.Errorf("vendor = %+v", got["vendor"])
	}
	if len(got["utils"]) != 1 || got["utils"][0] != "src/utils.js" {
		t.Errorf("utils = %+v", got["utils"])
	}
}

func TestLoadManualChunks_ParsesYAMLWhenNoTOMLPresent(t *testing.T) {
	dir := t.TempDir()
	content := `version: 1
chunk:
  - name: vendor
    modules: ["lodash", "react"]
`
	if err := os.WriteFile(filepath.Join(dir, "chunks.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadManualChunks(dir)
	if err != nil {
		t.Fatalf("LoadManualChunks: %v", err)
	}
	if len(got["vendor"]) != 2 || got["vendor"][0] != "lodash" {
		t.Errorf("vendor = %+v", got["vendor"])
	}
}

func TestLoadManualChunks_TOMLTakesPriorityOverYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "chunks.toml"), []byte(`version = 1

[[chunk]]
name = "fromtoml"
modules = ["a"]
`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "chunks.yaml"), []byte(`version: 1
chunk:
  - name: fromyaml
    modules: ["b"]
`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadManualChunks(dir)
	if err != nil {
		t.Fatalf("LoadManualChunks: %v", err)
	}
	if _, ok := got["fromtoml"]; !ok {
		t.Errorf("expected chunks.toml to take priority, got %+v", got)
	}
}
