package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ChunksDeclarationFile is the default filename for a manual-chunk
// manifest, loaded instead of (or alongside) a RawInput.ManualChunks map
// built in code.
const ChunksDeclarationFile = "chunks.toml"

// ChunksDeclarationFileYAML is the YAML alternative to
// ChunksDeclarationFile, checked when no chunks.toml is present,
// mirroring forge.toml/forge.yaml's dual-format project config.
const ChunksDeclarationFileYAML = "chunks.yaml"

// ChunkDeclaration is one named chunk entry in chunks.toml: a chunk name
// and the module specifiers it should force into that chunk, regardless
// of how the dependency graph would otherwise partition them.
type ChunkDeclaration struct {
	Name    string   `toml:"name" yaml:"name"`
	Modules []string `toml:"modules" yaml:"modules"`
}

// ChunksFile is the root structure of chunks.toml/chunks.yaml.
type ChunksFile struct {
	Version int                `toml:"version" yaml:"version"`
	Chunk   []ChunkDeclaration `toml:"chunk" yaml:"chunk"`
}

// ParseChunksFile parses a chunks.toml file from the given path.
func ParseChunksFile(path string) (*ChunksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var file ChunksFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return normalizeChunksFile(&file), nil
}

// ParseChunksFileYAML parses a chunks.yaml file from the given path.
func ParseChunksFileYAML(path string) (*ChunksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var file ChunksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return normalizeChunksFile(&file), nil
}

func normalizeChunksFile(file *ChunksFile) *ChunksFile {
	if file.Version < 1 {
		file.Version = 1
	}
	return file
}

// LoadManualChunks loads a manual-chunk manifest from
// projectRoot/chunks.toml, falling back to projectRoot/chunks.yaml, and
// returning nil (not an error) if neither file exists.
func LoadManualChunks(projectRoot string) (map[string][]string, error) {
	tomlPath := filepath.Join(projectRoot, ChunksDeclarationFile)
	yamlPath := filepath.Join(projectRoot, ChunksDeclarationFileYAML)

	var file *ChunksFile
	switch {
	case fileExists(tomlPath):
		f, err := ParseChunksFile(tomlPath)
		if err != nil {
			return nil, err
		}
		file = f
	case fileExists(yamlPath):
		f, err := ParseChunksFileYAML(yamlPath)
		if err != nil {
			return nil, err
		}
		file = f
	default:
		return nil, nil
	}

	out := make(map[string][]string, len(file.Chunk))
	for _, decl := range file.Chunk {
		out[decl.Name] = decl.Modules
	}
	return out, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
