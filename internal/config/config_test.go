package config

import (
	"testing"

	"forge/internal/chunk"
	ferrors "forge/internal/errors"
)

func TestNormalizeInput_MissingInput(t *testing.T) {
	_, err := NormalizeInput(RawInput{})
	if err == nil {
		t.Fatal("expected error for nil input")
	}
	var fe *ferrors.Error
	if !errorsAs(err, &fe) || fe.Code != ferrors.MissingOptions {
		t.Errorf("error = %v, want MISSING_OPTIONS", err)
	}
}

func TestNormalizeInput_StringShape(t *testing.T) {
	cfg, err := NormalizeInput(RawInput{Input: "src/main.js"})
	if err != nil {
		t.Fatalf("NormalizeInput: %v", err)
	}
	if cfg.Input["main"] != "src/main.js" {
		t.Errorf("Input = %+v, want entry named main", cfg.Input)
	}
}

func TestNormalizeInput_SliceShape(t *testing.T) {
	cfg, err := NormalizeInput(RawInput{Input: []string{"src/a.js", "src/b.js"}})
	if err != nil {
		t.Fatalf("NormalizeInput: %v", err)
	}
	if cfg.Input["a"] != "src/a.js" || cfg.Input["b"] != "src/b.js" {
		t.Errorf("Input = %+v", cfg.Input)
	}
}

func TestNormalizeInput_MapShape(t *testing.T) {
	cfg, err := NormalizeInput(RawInput{Input: map[string]string{"app": "src/app.js"}})
	if err != nil {
		t.Fatalf("NormalizeInput: %v", err)
	}
	if cfg.Input["app"] != "src/app.js" {
		t.Errorf("Input = %+v", cfg.Input)
	}
}

func TestNormalizeInput_InlineDynamicImportsRequiresSingleEntry(t *testing.T) {
	_, err := NormalizeInput(RawInput{
		Input:                []string{"a.js", "b.js"},
		InlineDynamicImports: true,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeInput_InlineDynamicImportsForbidsManualChunks(t *testing.T) {
	_, err := NormalizeInput(RawInput{
		Input:                "a.js",
		InlineDynamicImports: true,
		ManualChunks:         map[string][]string{"vendor": {"lodash"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeInput_PreserveModulesForbidsInlineDynamicImports(t *testing.T) {
	_, err := NormalizeInput(RawInput{
		Input:                "a.js",
		PreserveModules:      true,
		InlineDynamicImports: true,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeInput_PreserveModulesForbidsManualChunks(t *testing.T) {
	_, err := NormalizeInput(RawInput{
		Input:           "a.js",
		PreserveModules: true,
		ManualChunks:    map[string][]string{"vendor": {"lodash"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_DefaultsToESM(t *testing.T) {
	out, err := NormalizeOutput(RawOutput{}, false, false)
	if err != nil {
		t.Fatalf("NormalizeOutput: %v", err)
	}
	if out.Dialect != chunk.DialectESM {
		t.Errorf("Dialect = %q, want esm", out.Dialect)
	}
	if out.EntryFileNames != defaultEntryFileNames {
		t.Errorf("EntryFileNames = %q", out.EntryFileNames)
	}
}

func TestNormalizeOutput_ES6Deprecated(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{Dialect: "es6"}, false, false)
	var fe *ferrors.Error
	if !errorsAs(err, &fe) || fe.Code != ferrors.DeprecatedFormat {
		t.Errorf("error = %v, want DEPRECATED_FORMAT", err)
	}
}

func TestNormalizeOutput_UnknownDialect(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{Dialect: "bogus"}, false, false)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_FileAndDirMutuallyExclusive(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{File: "out.js", Dir: "dist"}, false, false)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_FileRejectedWithPreserveModules(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{File: "out.js"}, false, true)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_FileRejectedWithMultipleEntries(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{File: "out.js"}, true, false)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_MultiChunkRejectsUMD(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{Dialect: "umd"}, true, false)
	if err == nil {
		t.Fatal("expected error for multi-chunk UMD")
	}
}

func TestNormalizeOutput_MultiChunkRejectsIIFE(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{Dialect: "iife"}, false, true)
	if err == nil {
		t.Fatal("expected error for multi-chunk IIFE via preserveModules")
	}
}

func TestNormalizeOutput_MultiChunkRejectsSourcemapFile(t *testing.T) {
	_, err := NormalizeOutput(RawOutput{SourcemapFile: "out.js.map"}, true, false)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNormalizeOutput_SingleChunkAllowsUMDWithFile(t *testing.T) {
	out, err := NormalizeOutput(RawOutput{Dialect: "umd", File: "out.js", Name: "MyLib"}, false, false)
	if err != nil {
		t.Fatalf("NormalizeOutput: %v", err)
	}
	if out.File != "out.js" {
		t.Errorf("File = %q", out.File)
	}
}

func TestMergeOutputDefaults_FillsZeroValuedFields(t *testing.T) {
	base := OutputConfig{Dialect: chunk.DialectCJS, Dir: "dist", Name: "MyLib"}
	callSite := RawOutput{Dialect: "esm"}

	merged := MergeOutputDefaults(callSite, base)

	if merged.Dialect != "esm" {
		t.Errorf("Dialect = %q, want esm (call site wins)", merged.Dialect)
	}
	if merged.Dir != "dist" {
		t.Errorf("Dir = %q, want dist (from base)", merged.Dir)
	}
	if merged.Name != "MyLib" {
		t.Errorf("Name = %q, want MyLib (from base)", merged.Name)
	}
}

func TestMergeOutputDefaults_CallSiteWinsOverBase(t *testing.T) {
	base := OutputConfig{Dialect: chunk.DialectCJS, Dir: "dist"}
	callSite := RawOutput{Dialect: "umd", Dir: "build"}

	merged := MergeOutputDefaults(callSite, base)

	if merged.Dir != "build" {
		t.Errorf("Dir = %q, want build (call site should win)", merged.Dir)
	}
}

func TestEntryNameFor(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"src/main.js", "main"},
		{"main.js", "main"},
		{"src/deep/nested/entry.mjs", "entry"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := entryNameFor(tt.specifier); got != tt.want {
			t.Errorf("entryNameFor(%q) = %q, want %q", tt.specifier, got, tt.want)
		}
	}
}

func errorsAs(err error, target **ferrors.Error) bool {
	fe, ok := err.(*ferrors.Error)
	if !ok {
		return false
	}
	*target = fe
	return true
}
