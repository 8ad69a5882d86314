package chunk

import (
	"strings"
	"testing"
)

func TestRender_ESMNamedExport(t *testing.T) {
	c := &Chunk{ExportMode: ExportNamed, exportNames: []string{"x"}}
	code, err := c.Render(RenderOptions{Dialect: DialectESM}, "const x = function () {};", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "const x = function () {};\n\nexport { x };\n"
	if code != want {
		t.Errorf("Render() = %q, want %q", code, want)
	}
}

func TestRender_CJSWithImport(t *testing.T) {
	c := &Chunk{ExportMode: ExportNone}
	code, err := c.Render(RenderOptions{Dialect: DialectCJS}, "dep.run();", []ImportBinding{
		{Source: "dep.js", Names: []string{"*namespace*"}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(code, "require(\"dep.js\")") {
		t.Errorf("Render() missing require() call: %q", code)
	}
}

func TestRender_UMDRequiresNameWhenExporting(t *testing.T) {
	c := &Chunk{ExportMode: ExportNamed, exportNames: []string{"x"}}
	_, err := c.Render(RenderOptions{Dialect: DialectUMD}, "const x = 1;", nil)
	if err == nil {
		t.Fatal("expected an error for UMD export with no output.name")
	}
}

func TestRender_IIFENoExportsNoNameRequired(t *testing.T) {
	c := &Chunk{ExportMode: ExportNone}
	code, err := c.Render(RenderOptions{Dialect: DialectIIFE}, "console.log(42);", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(code, "console.log(42);") {
		t.Errorf("Render() = %q, missing body", code)
	}
}

func TestRender_AMDWrapsDependencies(t *testing.T) {
	c := &Chunk{ExportMode: ExportNone}
	code, err := c.Render(RenderOptions{Dialect: DialectAMD}, "dep.run();", []ImportBinding{
		{Source: "dep.js", Names: []string{"*namespace*"}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(code, "define([\"dep.js\"]") {
		t.Errorf("Render() = %q, want define([...]) wrapper", code)
	}
}

func TestRender_UnknownDialect(t *testing.T) {
	c := &Chunk{}
	_, err := c.Render(RenderOptions{Dialect: "weird"}, "", nil)
	if err == nil {
		t.Fatal("expected an error for an unrecognised dialect")
	}
}
