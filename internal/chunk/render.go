package chunk

import (
	"fmt"
	"strings"

	ferrors "forge/internal/errors"
)

// ImportBinding is one cross-chunk or external dependency of a chunk, as
// passed to Render.
type ImportBinding struct {
	Source     string // resolved chunk id or external module id
	IsExternal bool
	Names      []string // imported binding names, "*namespace*" for a namespace import
}

// Render produces the chunk's final source text in the requested dialect.
// body is the already-concatenated, tree-shaken module bodies (module
// bindings deduplicated and ordered by the caller); imports describes the
// chunk's cross-chunk and external dependencies in declaration order.
func (c *Chunk) Render(opts RenderOptions, body string, imports []ImportBinding) (string, error) {
	switch opts.Dialect {
	case DialectESM:
		return c.renderESM(body, imports), nil
	case DialectCJS:
		return c.renderCJS(body, imports), nil
	case DialectAMD:
		return c.renderAMD(opts, body, imports), nil
	case DialectSystem:
		return c.renderSystem(body, imports), nil
	case DialectIIFE:
		return c.renderIIFE(opts, body, imports)
	case DialectUMD:
		return c.renderUMD(opts, body, imports)
	default:
		return "", ferrors.New(ferrors.InvalidOption, fmt.Sprintf("unrecognised output format: %q", opts.Dialect))
	}
}

func (c *Chunk) renderESM(body string, imports []ImportBinding) string {
	var b strings.Builder
	for _, imp := range imports {
		writeESMImport(&b, imp)
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(body)

	if c.ExportMode == ExportNamed {
		b.WriteString("\n\nexport { ")
		b.WriteString(strings.Join(exportClauseESM(c.exportNames), ", "))
		b.WriteString(" };\n")
	} else if c.ExportMode == ExportDefault {
		// *default* binding is emitted in body as `export default ...` already.
	}
	return b.String()
}

func writeESMImport(b *strings.Builder, imp ImportBinding) {
	if len(imp.Names) == 0 {
		fmt.Fprintf(b, "import %q;\n", imp.Source)
		return
	}
	if len(imp.Names) == 1 && imp.Names[0] == "*namespace*" {
		fmt.Fprintf(b, "import * as %s from %q;\n", chunkVarName(imp.Source), imp.Source)
		return
	}
	fmt.Fprintf(b, "import { %s } from %q;\n", strings.Join(imp.Names, ", "), imp.Source)
}

func exportClauseESM(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "*default*" {
			out = append(out, "value as default")
			continue
		}
		out = append(out, n)
	}
	return out
}

func (c *Chunk) renderCJS(body string, imports []ImportBinding) string {
	var b strings.Builder
	b.WriteString("'use strict';\n\n")
	for _, imp := range imports {
		fmt.Fprintf(&b, "const %s = require(%q);\n", chunkVarName(imp.Source), imp.Source)
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(body)

	if c.ExportMode == ExportDefault {
		b.WriteString("\n\nmodule.exports = value;\n")
	} else if c.ExportMode == ExportNamed {
		b.WriteString("\n\nObject.defineProperty(exports, '__esModule', { value: true });\n")
		for _, n := range c.exportNames {
			fmt.Fprintf(&b, "exports.%s = %s;\n", n, n)
		}
	}
	return b.String()
}

func (c *Chunk) renderAMD(opts RenderOptions, body string, imports []ImportBinding) string {
	deps := make([]string, 0, len(imports))
	args := make([]string, 0, len(imports))
	for _, imp := range imports {
		deps = append(deps, fmt.Sprintf("%q", imp.Source))
		args = append(args, chunkVarName(imp.Source))
	}
	if c.ExportMode != ExportNone {
		deps = append(deps, "'exports'")
		args = append(args, "exports")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "define([%s], function (%s) { 'use strict';\n\n", strings.Join(deps, ", "), strings.Join(args, ", "))
	b.WriteString(indent(body))

	switch c.ExportMode {
	case ExportDefault:
		b.WriteString("\n\n\texports.default = value;\n")
	case ExportNamed:
		b.WriteString("\n\n")
		for _, n := range c.exportNames {
			fmt.Fprintf(&b, "\texports.%s = %s;\n", n, n)
		}
	}

	b.WriteString("\n});\n")
	return b.String()
}

func (c *Chunk) renderSystem(body string, imports []ImportBinding) string {
	deps := make([]string, 0, len(imports))
	for _, imp := range imports {
		deps = append(deps, fmt.Sprintf("%q", imp.Source))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "System.register([%s], function (exports) {\n", strings.Join(deps, ", "))
	b.WriteString("\t'use strict';\n\treturn {\n\t\tsetters: [],\n\t\texecute: function () {\n\n")
	b.WriteString(indentN(body, 3))

	switch c.ExportMode {
	case ExportDefault:
		b.WriteString("\n\n\t\t\texports('default', value);\n")
	case ExportNamed:
		b.WriteString("\n\n")
		for _, n := range c.exportNames {
			fmt.Fprintf(&b, "\t\t\texports(%q, %s);\n", n, n)
		}
	}

	b.WriteString("\n\t\t}\n\t};\n});\n")
	return b.String()
}

func (c *Chunk) renderIIFE(opts RenderOptions, body string, imports []ImportBinding) (string, error) {
	if c.ExportMode != ExportNone && opts.Name == "" {
		return "", ferrors.New(ferrors.MissingNameForFormat, "You must supply output.name for UMD/IIFE bundles that have exports")
	}

	args, params := iifeGlobalsArgs(imports, opts.Globals)

	var b strings.Builder
	if c.ExportMode != ExportNone {
		fmt.Fprintf(&b, "var %s = (function (%s) {\n\t'use strict';\n\n", opts.Name, strings.Join(params, ", "))
	} else {
		fmt.Fprintf(&b, "(function (%s) {\n\t'use strict';\n\n", strings.Join(params, ", "))
	}
	b.WriteString(indent(body))

	switch c.ExportMode {
	case ExportDefault:
		b.WriteString("\n\n\treturn value;\n")
	case ExportNamed:
		b.WriteString("\n\n\tvar exports = {};\n")
		for _, n := range c.exportNames {
			fmt.Fprintf(&b, "\texports.%s = %s;\n", n, n)
		}
		b.WriteString("\treturn exports;\n")
	}

	if c.ExportMode != ExportNone {
		fmt.Fprintf(&b, "\n})(%s);\n", strings.Join(args, ", "))
	} else {
		fmt.Fprintf(&b, "\n})(%s);\n", strings.Join(args, ", "))
	}
	return b.String(), nil
}

func (c *Chunk) renderUMD(opts RenderOptions, body string, imports []ImportBinding) (string, error) {
	if c.ExportMode != ExportNone && opts.Name == "" {
		return "", ferrors.New(ferrors.MissingNameForFormat, "You must supply output.name for UMD/IIFE bundles that have exports")
	}

	amdDeps := make([]string, 0, len(imports))
	cjsRequires := make([]string, 0, len(imports))
	globalArgs, globalParams := iifeGlobalsArgs(imports, opts.Globals)

	for _, imp := range imports {
		amdDeps = append(amdDeps, fmt.Sprintf("%q", imp.Source))
		cjsRequires = append(cjsRequires, fmt.Sprintf("require(%q)", imp.Source))
	}

	var b strings.Builder
	b.WriteString("(function (global, factory) {\n")
	fmt.Fprintf(&b, "\ttypeof exports === 'object' && typeof module !== 'undefined' ? factory(%s) :\n", strings.Join(append(cjsRequires, exportsArgIf(c)...), ", "))
	fmt.Fprintf(&b, "\ttypeof define === 'function' && define.amd ? define([%s], factory) :\n", strings.Join(append(amdDeps, amdExportsArgIf(c)...), ", "))
	fmt.Fprintf(&b, "\t(global = typeof globalThis !== 'undefined' ? globalThis : global || self, factory(%s));\n", strings.Join(append(globalArgs, globalExportsTarget(opts, c)...), ", "))
	fmt.Fprintf(&b, "})(this, (function (%s) {\n\t'use strict';\n\n", strings.Join(append(globalParams, exportsParamIf(c)...), ", "))

	b.WriteString(indent(body))

	switch c.ExportMode {
	case ExportDefault:
		b.WriteString("\n\n\texports.default = value;\n")
	case ExportNamed:
		b.WriteString("\n\n")
		for _, n := range c.exportNames {
			fmt.Fprintf(&b, "\texports.%s = %s;\n", n, n)
		}
	}

	b.WriteString("\n}));\n")
	return b.String(), nil
}

func exportsArgIf(c *Chunk) []string {
	if c.ExportMode == ExportNone {
		return nil
	}
	return []string{"exports"}
}

func amdExportsArgIf(c *Chunk) []string {
	if c.ExportMode == ExportNone {
		return nil
	}
	return []string{"'exports'"}
}

func exportsParamIf(c *Chunk) []string {
	if c.ExportMode == ExportNone {
		return nil
	}
	return []string{"exports"}
}

func globalExportsTarget(opts RenderOptions, c *Chunk) []string {
	if c.ExportMode == ExportNone {
		return nil
	}
	return []string{fmt.Sprintf("global.%s = {}", opts.Name)}
}

func iifeGlobalsArgs(imports []ImportBinding, globals map[string]string) (args, params []string) {
	for _, imp := range imports {
		name := chunkVarName(imp.Source)
		global, ok := globals[imp.Source]
		if !ok {
			global = name
		}
		args = append(args, global)
		params = append(params, name)
	}
	return args, params
}

func chunkVarName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		return "dep"
	}
	return strings.TrimLeft(name, "0123456789")
}

func indent(s string) string {
	return indentN(s, 1)
}

func indentN(s string, n int) string {
	prefix := strings.Repeat("\t", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
