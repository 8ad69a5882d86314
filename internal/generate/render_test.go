package generate

import (
	"testing"

	"forge/internal/chunk"
	ferrors "forge/internal/errors"
)

func TestMissingGlobalWarnings_IIFEWithoutGlobalsEntry(t *testing.T) {
	opts := chunk.RenderOptions{Dialect: chunk.DialectIIFE, Globals: map[string]string{}}
	imports := []chunk.ImportBinding{
		{Source: "lodash", IsExternal: true},
	}

	warnings := missingGlobalWarnings(opts, imports)
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
	if warnings[0].Code != ferrors.MissingNameForFormat {
		t.Errorf("Code = %v, want MissingNameForFormat", warnings[0].Code)
	}
}

func TestMissingGlobalWarnings_NoWarningWhenGlobalsProvided(t *testing.T) {
	opts := chunk.RenderOptions{Dialect: chunk.DialectUMD, Globals: map[string]string{"lodash": "_"}}
	imports := []chunk.ImportBinding{
		{Source: "lodash", IsExternal: true},
	}

	if warnings := missingGlobalWarnings(opts, imports); len(warnings) != 0 {
		t.Errorf("warnings = %+v, want none", warnings)
	}
}

func TestMissingGlobalWarnings_IgnoredForESM(t *testing.T) {
	opts := chunk.RenderOptions{Dialect: chunk.DialectESM}
	imports := []chunk.ImportBinding{
		{Source: "lodash", IsExternal: true},
	}

	if warnings := missingGlobalWarnings(opts, imports); len(warnings) != 0 {
		t.Errorf("warnings = %+v, want none (ESM has no globals concept)", warnings)
	}
}

func TestMissingGlobalWarnings_IgnoresNonExternalImports(t *testing.T) {
	opts := chunk.RenderOptions{Dialect: chunk.DialectIIFE}
	imports := []chunk.ImportBinding{
		{Source: "chunk-b.js", IsExternal: false},
	}

	if warnings := missingGlobalWarnings(opts, imports); len(warnings) != 0 {
		t.Errorf("warnings = %+v, want none (chunk-to-chunk import, not external)", warnings)
	}
}
