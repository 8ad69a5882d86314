// Package parser extracts the static import, dynamic import, and export
// declarations of a JavaScript module using tree-sitter, the data the
// dependency graph needs to resolve and tree-shake a module.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"forge/internal/graph"
)

// Parser wraps a tree-sitter JavaScript grammar. A Parser is not safe for
// concurrent use; callers running the graph build in parallel should use
// one Parser per goroutine.
type Parser struct {
	ts *sitter.Parser
}

// New creates a Parser bound to the JavaScript grammar.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &Parser{ts: p}
}

// Parse implements graph.Parser.
func (p *Parser) Parse(id string, src []byte) (imports []graph.Import, exports []string, hasDefault bool, err error) {
	tree, err := p.ts.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%s: %w", id, err)
	}
	root := tree.RootNode()

	imports = collectImports(root, src)
	exports, hasDefault = collectExports(root, src)
	return imports, exports, hasDefault, nil
}

func collectImports(root *sitter.Node, src []byte) []graph.Import {
	var imports []graph.Import

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Type() {
		case "import_statement":
			if imp, ok := parseStaticImport(node, src); ok {
				imports = append(imports, imp)
			}
		case "call_expression":
			if imp, ok := parseDynamicImport(node, src); ok {
				imports = append(imports, imp)
			}
		case "export_statement":
			if imp, ok := parseReExport(node, src); ok {
				imports = append(imports, imp)
			}
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	return imports
}

// parseStaticImport handles `import ... from "specifier"` and the bare
// side-effect form `import "specifier"`.
func parseStaticImport(node *sitter.Node, src []byte) (graph.Import, bool) {
	var specifier string
	var names []string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string":
			specifier = unquote(text(child, src))
		case "import_clause":
			names = append(names, importClauseNames(child, src)...)
		}
	}

	if specifier == "" {
		return graph.Import{}, false
	}
	return graph.Import{Specifier: specifier, Kind: graph.ImportStatic, Names: names}, true
}

func importClauseNames(clause *sitter.Node, src []byte) []string {
	var names []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			// Default import binding; the binding name is local, the
			// export it reaches for is always "*default*".
			names = append(names, "*default*")
		case "namespace_import":
			names = append(names, "*namespace*")
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := importedBindingName(spec, src)
				if name != "" {
					names = append(names, name)
				}
			}
		}
	}
	return names
}

func importedBindingName(spec *sitter.Node, src []byte) string {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		for i := 0; i < int(spec.ChildCount()); i++ {
			if spec.Child(i).Type() == "identifier" {
				nameNode = spec.Child(i)
				break
			}
		}
	}
	if nameNode == nil {
		return ""
	}
	return text(nameNode, src)
}

// parseDynamicImport recognises `import("specifier")` call expressions.
func parseDynamicImport(node *sitter.Node, src []byte) (graph.Import, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "import" {
		return graph.Import{}, false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return graph.Import{}, false
	}

	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		// A dynamically computed specifier cannot be statically resolved;
		// the module is left out of the graph and the call is passed through.
		return graph.Import{}, false
	}

	return graph.Import{
		Specifier: unquote(text(arg, src)),
		Kind:      graph.ImportDynamic,
		Names:     []string{"*namespace*"},
	}, true
}

// parseReExport handles `export ... from "specifier"` forms, which both
// re-export bindings and create a dependency edge.
func parseReExport(node *sitter.Node, src []byte) (graph.Import, bool) {
	var specifier string
	var names []string
	isStar := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string":
			specifier = unquote(text(child, src))
		case "*":
			isStar = true
		case "export_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				if nameNode != nil {
					names = append(names, text(nameNode, src))
				}
			}
		}
	}

	if specifier == "" {
		return graph.Import{}, false
	}
	if isStar {
		names = []string{"*namespace*"}
	}
	return graph.Import{Specifier: specifier, Kind: graph.ImportStatic, Names: names}, true
}

func collectExports(root *sitter.Node, src []byte) (exports []string, hasDefault bool) {
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		exports = append(exports, name)
	}

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		if node.Type() == "export_statement" {
			isDefault := false
			for i := 0; i < int(node.ChildCount()); i++ {
				if node.Child(i).Type() == "default" {
					isDefault = true
				}
			}

			if isDefault {
				hasDefault = true
				add("*default*")
			} else {
				for _, name := range exportedNames(node, src) {
					add(name)
				}
			}
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	return exports, hasDefault
}

func exportedNames(node *sitter.Node, src []byte) []string {
	var names []string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "export_clause":
			// `export { a, b as c }`, with or without a `from` clause: the
			// exported name (the alias when there is one) is what importers
			// reference.
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("alias")
				if nameNode == nil {
					nameNode = spec.ChildByFieldName("name")
				}
				if nameNode != nil {
					names = append(names, text(nameNode, src))
				}
			}
		case "function_declaration", "class_declaration", "generator_function_declaration":
			nameNode := child.ChildByFieldName("name")
			if nameNode != nil {
				names = append(names, text(nameNode, src))
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				declarator := child.Child(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				nameNode := declarator.ChildByFieldName("name")
				if nameNode != nil {
					names = append(names, text(nameNode, src))
				}
			}
		}
	}

	return names
}

func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
