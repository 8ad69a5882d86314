package config

import (
	"os"
	"path/filepath"
	"testing"

	ferrors "forge/internal/errors"
)

func TestLoadProject_NoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	result, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if !result.UsedDefaults {
		t.Error("UsedDefaults = false, want true")
	}
	if result.Defaults.Dialect != "esm" {
		t.Errorf("Dialect = %q, want esm", result.Defaults.Dialect)
	}
}

func TestLoadProject_ReadsForgeToml(t *testing.T) {
	dir := t.TempDir()
	content := "dialect = \"cjs\"\ndir = \"dist\"\npreserveModules = true\n"
	if err := os.WriteFile(filepath.Join(dir, "forge.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if result.UsedDefaults {
		t.Error("UsedDefaults = true, want false")
	}
	if result.Defaults.Dialect != "cjs" || result.Defaults.Dir != "dist" || !result.Defaults.PreserveModules {
		t.Errorf("Defaults = %+v", result.Defaults)
	}
}

func TestLoadProject_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORGE_DIALECT", "umd")

	result, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if result.Defaults.Dialect != "umd" {
		t.Errorf("Dialect = %q, want umd", result.Defaults.Dialect)
	}
	if len(result.EnvOverrides) != 1 || result.EnvOverrides[0].EnvVar != "FORGE_DIALECT" {
		t.Errorf("EnvOverrides = %+v", result.EnvOverrides)
	}
}

func TestLoadProject_WarnsOnUnknownKey(t *testing.T) {
	dir := t.TempDir()
	content := "dialect = \"cjs\"\nbogusOption = true\n"
	if err := os.WriteFile(filepath.Join(dir, "forge.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Warnings = %+v, want exactly one", result.Warnings)
	}
	if result.Warnings[0].Code != ferrors.UnknownOption {
		t.Errorf("Warnings[0].Code = %v, want UnknownOption", result.Warnings[0].Code)
	}
}

func TestLoadProject_NoWarningsForRecognizedKeys(t *testing.T) {
	dir := t.TempDir()
	content := "dialect = \"cjs\"\ndir = \"dist\"\npreserveModules = true\ncache = true\n"
	if err := os.WriteFile(filepath.Join(dir, "forge.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %+v, want none", result.Warnings)
	}
}

func TestProjectDefaults_ToRawInput_FallsBackToEntries(t *testing.T) {
	d := &ProjectDefaults{Dialect: "esm"}
	raw := d.ToRawInput([]string{"src/main.js"})
	if raw.Input != "src/main.js" {
		t.Errorf("Input = %v, want src/main.js", raw.Input)
	}
}

func TestProjectDefaults_ToRawInput_PrefersDeclaredInput(t *testing.T) {
	d := &ProjectDefaults{Dialect: "esm", Input: []string{"a.js", "b.js"}}
	raw := d.ToRawInput([]string{"fallback.js"})
	got, ok := raw.Input.([]string)
	if !ok || len(got) != 2 {
		t.Errorf("Input = %v, want [a.js b.js]", raw.Input)
	}
}
