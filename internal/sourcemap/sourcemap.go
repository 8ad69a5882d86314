// Package sourcemap builds and concatenates version-3 source maps for
// rendered chunks. No library in the example pack models a VLQ/base64
// mapping codec (see DESIGN.md for why this is implemented directly
// against the stdlib rather than against a pack dependency).
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Map is a version-3 source map, serialised the way bundlers publish them
// (an inline data URL appended to a chunk, or a sibling .map file).
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// segment is one VLQ-encoded group within a single output line:
// [generatedColumn, sourceIndex, sourceLine, sourceColumn, nameIndex].
type segment struct {
	generatedColumn int
	sourceIndex     int
	sourceLine      int
	sourceColumn    int
	nameIndex       int
	hasName         bool
}

// Builder accumulates mappings for a single chunk as it is rendered line
// by line, then produces the final Map.
type Builder struct {
	file    string
	sources []string
	names   []string

	sourceIndex map[string]int
	nameIndex   map[string]int

	lines [][]segment
	cur   []segment

	// previous* are not read or written; Build tracks the running deltas
	// the VLQ mapping format requires in local variables.
	prevGeneratedColumn int
	prevSourceIndex     int
	prevSourceLine      int
	prevSourceColumn    int
	prevNameIndex       int
}

// NewBuilder creates a Builder for a chunk whose generated file name is
// file (used only for the map's "file" field).
func NewBuilder(file string) *Builder {
	return &Builder{
		file:        file,
		sourceIndex: make(map[string]int),
		nameIndex:   make(map[string]int),
	}
}

// AddMapping records that generatedColumn on the current line corresponds
// to (source, sourceLine, sourceColumn), optionally naming the symbol at
// that position. Call EndLine after each generated line of output.
func (b *Builder) AddMapping(generatedColumn int, source string, sourceLine, sourceColumn int, name string) {
	si, ok := b.sourceIndex[source]
	if !ok {
		si = len(b.sources)
		b.sourceIndex[source] = si
		b.sources = append(b.sources, source)
	}

	seg := segment{
		generatedColumn: generatedColumn,
		sourceIndex:     si,
		sourceLine:      sourceLine,
		sourceColumn:    sourceColumn,
	}
	if name != "" {
		ni, ok := b.nameIndex[name]
		if !ok {
			ni = len(b.names)
			b.nameIndex[name] = ni
			b.names = append(b.names, name)
		}
		seg.nameIndex = ni
		seg.hasName = true
	}

	b.cur = append(b.cur, seg)
}

// EndLine closes the current generated line, starting a new one.
func (b *Builder) EndLine() {
	b.lines = append(b.lines, b.cur)
	b.cur = nil
}

// Build renders the accumulated mappings into a Map. sourcesContent, when
// non-nil, is embedded in the same order as the sources the builder saw.
func (b *Builder) Build(sourcesContent map[string]string) *Map {
	if len(b.cur) > 0 {
		b.EndLine()
	}

	m := &Map{
		Version: 3,
		File:    b.file,
		Sources: append([]string(nil), b.sources...),
		Names:   append([]string(nil), b.names...),
	}

	if sourcesContent != nil {
		m.SourcesContent = make([]string, len(m.Sources))
		for i, s := range m.Sources {
			m.SourcesContent[i] = sourcesContent[s]
		}
	}

	var out strings.Builder
	prevSourceIndex, prevSourceLine, prevSourceColumn, prevNameIndex := 0, 0, 0, 0

	for lineIdx, line := range b.lines {
		if lineIdx > 0 {
			out.WriteByte(';')
		}
		prevGeneratedColumn := 0
		for segIdx, seg := range line {
			if segIdx > 0 {
				out.WriteByte(',')
			}
			encodeVLQ(&out, seg.generatedColumn-prevGeneratedColumn)
			encodeVLQ(&out, seg.sourceIndex-prevSourceIndex)
			encodeVLQ(&out, seg.sourceLine-prevSourceLine)
			encodeVLQ(&out, seg.sourceColumn-prevSourceColumn)
			if seg.hasName {
				encodeVLQ(&out, seg.nameIndex-prevNameIndex)
				prevNameIndex = seg.nameIndex
			}
			prevGeneratedColumn = seg.generatedColumn
			prevSourceIndex = seg.sourceIndex
			prevSourceLine = seg.sourceLine
			prevSourceColumn = seg.sourceColumn
		}
	}

	m.Mappings = out.String()
	return m
}

// Concat merges a sequence of per-module maps, already offset to their
// position within a single rendered chunk, into one chunk-level map. Used
// when the chunk is assembled by concatenating module bodies in order.
func Concat(maps []*Map) *Map {
	if len(maps) == 0 {
		return &Map{Version: 3}
	}

	out := &Map{Version: 3, File: maps[0].File}
	sourceOffset := 0
	nameOffset := 0
	var mappings []string

	for _, m := range maps {
		out.Sources = append(out.Sources, m.Sources...)
		out.SourcesContent = append(out.SourcesContent, m.SourcesContent...)
		out.Names = append(out.Names, m.Names...)

		mappings = append(mappings, offsetMappings(m.Mappings, sourceOffset, nameOffset))

		sourceOffset += len(m.Sources)
		nameOffset += len(m.Names)
	}

	out.Mappings = strings.Join(mappings, ";")
	return out
}

// offsetMappings shifts every source-index and name-index field in an
// already-encoded mapping string by a constant offset, so the segments
// from a second map reference the correct position in a merged sources
// array.
func offsetMappings(mappings string, sourceOffset, nameOffset int) string {
	if mappings == "" {
		return ""
	}

	var out strings.Builder
	lines := strings.Split(mappings, ";")
	for lineIdx, line := range lines {
		if lineIdx > 0 {
			out.WriteByte(';')
		}
		if line == "" {
			continue
		}
		segs := strings.Split(line, ",")
		for segIdx, s := range segs {
			if segIdx > 0 {
				out.WriteByte(',')
			}
			fields := decodeVLQSequence(s)
			if len(fields) >= 2 {
				fields[1] += sourceOffset
			}
			if len(fields) >= 5 {
				fields[4] += nameOffset
			}
			for i, f := range fields {
				if i > 0 {
					// fields within one segment are concatenated directly
				}
				encodeVLQ(&out, f)
			}
		}
	}
	return out.String()
}

// ToDataURL renders the map as a base64 `data:` URL suitable for an inline
// `//# sourceMappingURL=` comment.
func (m *Map) ToDataURL() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Marshal serialises the map as the JSON body of a standalone .map file.
func (m *Map) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
