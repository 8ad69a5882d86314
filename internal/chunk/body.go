package chunk

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ExtractBody strips the import and export syntax from a module's source,
// leaving the executable statements a chunk renderer wraps in its dialect
// envelope. Re-exports (`export { x } from './y'`) and bare `export { x }`
// clauses are dropped entirely — the chunk's own export list, not the
// module body, is what a dialect wrapper surfaces to importers.
//
// This preserves the author's original statement formatting rather than
// re-printing it; forge does not attempt prettier-equivalent output.
func ExtractBody(src []byte) (string, error) {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return "", fmt.Errorf("chunk: failed to parse module body: %w", err)
	}
	root := tree.RootNode()

	var statements []string
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			continue
		case "export_statement":
			if stmt := exportStatementBody(child, src); stmt != "" {
				statements = append(statements, stmt)
			}
		default:
			statements = append(statements, text(child, src))
		}
	}

	return strings.Join(statements, "\n\n"), nil
}

// exportStatementBody returns the declaration text of an export statement
// with its leading "export"/"export default" keywords stripped, or "" for
// a re-export or bare export clause that has no declaration of its own.
func exportStatementBody(node *sitter.Node, src []byte) string {
	decl := node.ChildByFieldName("declaration")
	if decl != nil {
		return text(decl, src)
	}

	// `export default <expr>;` without a field-named declaration (e.g. a
	// default-exported expression rather than a named declaration).
	sawDefault := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "default":
			sawDefault = true
		case "export", ";":
		default:
			if sawDefault {
				return text(child, src)
			}
		}
	}
	return ""
}

func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
