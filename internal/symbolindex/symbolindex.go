// Package symbolindex writes a SCIP-shaped protobuf index describing a
// finished bundle's chunks and their exported/imported symbols — an
// optional build artifact an editor or code-intelligence tool can load to
// answer "which output chunk defines export X" without re-parsing sources.
//
// This mirrors, in reverse, the loader in the code-intelligence backend
// this project grew out of: that loader used proto.Unmarshal to turn a
// SCIP index into an in-memory query structure, and this package uses
// proto.Marshal to go the other way, turning a finished build into one.
package symbolindex

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"

	scip "github.com/sourcegraph/scip/bindings/go/scip"
)

// ChunkSymbols describes one rendered chunk's document for the index:
// its output file name, the export names it surfaces, and the import
// specifiers (chunk ids or external module ids) it depends on.
type ChunkSymbols struct {
	FileName string
	Exports  []string
	Imports  []string
}

// Build constructs a SCIP index for a finished bundle. toolVersion is
// forge's own version string, embedded in the index metadata the way a
// language server stamps its own version into every index it emits.
func Build(projectRoot, toolVersion string, chunks []ChunkSymbols) *scip.Index {
	idx := &scip.Index{
		Metadata: &scip.Metadata{
			Version: scip.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scip.ToolInfo{
				Name:    "forge",
				Version: toolVersion,
			},
			ProjectRoot: projectRoot,
		},
	}

	for _, c := range chunks {
		doc := &scip.Document{
			Language:     "javascript",
			RelativePath: c.FileName,
		}

		for _, name := range c.Exports {
			symbol := chunkSymbolID(c.FileName, name)
			doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
				Symbol:      symbol,
				SymbolRoles: int32(scip.SymbolRole_Definition),
			})
			doc.Symbols = append(doc.Symbols, &scip.SymbolInformation{
				Symbol:        symbol,
				Documentation: []string{fmt.Sprintf("export %s from %s", name, c.FileName)},
			})
		}

		for _, dep := range c.Imports {
			doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
				Symbol:      chunkSymbolID(dep, "*"),
				SymbolRoles: int32(scip.SymbolRole_UnspecifiedSymbolRole),
			})
		}

		idx.Documents = append(idx.Documents, doc)
	}

	return idx
}

// chunkSymbolID builds a SCIP-style symbol string scoped to a chunk's file
// name, so two chunks exporting the same local name never collide.
func chunkSymbolID(fileName, exportName string) string {
	return fmt.Sprintf("forge . . `%s`/%s.", fileName, exportName)
}

// Write marshals idx as protobuf and writes it to path.
func Write(path string, idx *scip.Index) error {
	data, err := proto.Marshal(idx)
	if err != nil {
		return fmt.Errorf("symbolindex: failed to marshal index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("symbolindex: failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads back a previously written index, for tooling that wants to
// inspect a build's symbol index without forge itself.
func Load(path string) (*scip.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("symbolindex: failed to read %s: %w", path, err)
	}
	idx := &scip.Index{}
	if err := proto.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("symbolindex: failed to unmarshal %s: %w", path, err)
	}
	return idx, nil
}
