package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/viper"

	ferrors "forge/internal/errors"
)

// ProjectDefaults holds the subset of build/output options a project can
// pin in forge.toml/forge.yaml so command-line invocations don't need to
// repeat them every time.
type ProjectDefaults struct {
	Input           []string `mapstructure:"input"`
	Dialect         string   `mapstructure:"dialect"`
	Dir             string   `mapstructure:"dir"`
	File            string   `mapstructure:"file"`
	Sourcemap       string   `mapstructure:"sourcemap"`
	PreserveModules bool     `mapstructure:"preserveModules"`
	Cache           bool     `mapstructure:"cache"`
	Name            string   `mapstructure:"name"`
}

// ProjectLoadResult carries a loaded ProjectDefaults plus metadata about
// where it came from: the resolved config path, whether it fell back to
// built-in defaults, and any FORGE_* environment overrides applied.
type ProjectLoadResult struct {
	Defaults     *ProjectDefaults
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
	Warnings     []Warning
}

// recognizedProjectKeys is the closed set of top-level forge.toml/
// forge.yaml keys ProjectDefaults understands, lower-cased to match
// viper's own key normalization.
var recognizedProjectKeys = map[string]bool{
	"input":           true,
	"dialect":         true,
	"dir":             true,
	"file":            true,
	"sourcemap":       true,
	"preservemodules": true,
	"cache":           true,
	"name":            true,
}

// unknownKeyWarnings reports a UNKNOWN_OPTION warning for every top-level
// key v holds that ProjectDefaults does not recognize, sorted for
// deterministic ordering.
func unknownKeyWarnings(v *viper.Viper) []Warning {
	var unknown []string
	for _, key := range v.AllKeys() {
		if !recognizedProjectKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	warnings := make([]Warning, 0, len(unknown))
	for _, key := range unknown {
		warnings = append(warnings, Warning{
			Code:    ferrors.UnknownOption,
			Message: fmt.Sprintf("Unknown top-level option %q", key),
		})
	}
	return warnings
}

// EnvOverride records a FORGE_* environment variable that overrode a
// value from the project config file.
type EnvOverride struct {
	EnvVar    string
	Path      string
	Value     interface{}
	FromValue string
}

func defaultProjectDefaults() *ProjectDefaults {
	return &ProjectDefaults{
		Dialect:   "esm",
		Sourcemap: "off",
		Cache:     true,
	}
}

// LoadProject looks for forge.toml or forge.yaml under projectRoot,
// honoring FORGE_CONFIG_PATH as a direct override of which file to load.
func LoadProject(projectRoot string) (*ProjectLoadResult, error) {
	result := &ProjectLoadResult{}

	if path := os.Getenv("FORGE_CONFIG_PATH"); path != "" {
		defaults, warnings, err := loadProjectFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from FORGE_CONFIG_PATH=%s: %w", path, err)
		}
		result.Defaults = defaults
		result.ConfigPath = path
		result.Warnings = warnings
	} else {
		v := viper.New()
		v.SetDefault("dialect", "esm")
		v.SetDefault("sourcemap", "off")
		v.SetDefault("cache", true)

		v.SetConfigName("forge")
		v.AddConfigPath(projectRoot)

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				result.Defaults = defaultProjectDefaults()
				result.UsedDefaults = true
			} else {
				return nil, err
			}
		} else {
			var defaults ProjectDefaults
			if err := v.Unmarshal(&defaults); err != nil {
				return nil, err
			}
			result.Defaults = &defaults
			result.ConfigPath = v.ConfigFileUsed()
			result.Warnings = unknownKeyWarnings(v)
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Defaults)
	return result, nil
}

func loadProjectFromPath(path string) (*ProjectDefaults, []Warning, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configTypeFor(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, err
	}
	var defaults ProjectDefaults
	if err := v.Unmarshal(&defaults); err != nil {
		return nil, nil, err
	}
	return &defaults, unknownKeyWarnings(v), nil
}

func configTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

type envVarDef struct {
	path    string
	varType string
}

var envVarMappings = map[string]envVarDef{
	"FORGE_DIALECT":          {path: "dialect", varType: "string"},
	"FORGE_DIR":              {path: "dir", varType: "string"},
	"FORGE_FILE":             {path: "file", varType: "string"},
	"FORGE_SOURCEMAP":        {path: "sourcemap", varType: "string"},
	"FORGE_NAME":             {path: "name", varType: "string"},
	"FORGE_PRESERVE_MODULES": {path: "preserveModules", varType: "bool"},
	"FORGE_CACHE":            {path: "cache", varType: "bool"},
}

func applyEnvOverrides(defaults *ProjectDefaults) []EnvOverride {
	var overrides []EnvOverride

	for envVar, def := range envVarMappings {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		var parsed interface{}
		var err error
		switch def.varType {
		case "string":
			parsed = value
		case "bool":
			parsed, err = strconv.ParseBool(value)
			if err != nil {
				continue
			}
		}

		if applyOverride(defaults, def.path, parsed) {
			overrides = append(overrides, EnvOverride{EnvVar: envVar, Path: def.path, Value: parsed, FromValue: value})
		}
	}

	return overrides
}

func applyOverride(defaults *ProjectDefaults, path string, value interface{}) bool {
	switch path {
	case "dialect":
		if v, ok := value.(string); ok {
			defaults.Dialect = v
			return true
		}
	case "dir":
		if v, ok := value.(string); ok {
			defaults.Dir = v
			return true
		}
	case "file":
		if v, ok := value.(string); ok {
			defaults.File = v
			return true
		}
	case "sourcemap":
		if v, ok := value.(string); ok {
			defaults.Sourcemap = v
			return true
		}
	case "name":
		if v, ok := value.(string); ok {
			defaults.Name = v
			return true
		}
	case "preserveModules":
		if v, ok := value.(bool); ok {
			defaults.PreserveModules = v
			return true
		}
	case "cache":
		if v, ok := value.(bool); ok {
			defaults.Cache = v
			return true
		}
	}
	return false
}

// ToRawOutput projects the defaults onto a RawOutput the caller can
// further override with explicit flags.
func (d *ProjectDefaults) ToRawOutput() RawOutput {
	return RawOutput{
		Dialect:   d.Dialect,
		File:      d.File,
		Dir:       d.Dir,
		Sourcemap: SourcemapMode(d.Sourcemap),
		Name:      d.Name,
	}
}

// ToRawInput projects the defaults onto a RawInput, using entries as the
// input shape when the project file does not pin one.
func (d *ProjectDefaults) ToRawInput(entries []string) RawInput {
	input := d.Input
	if len(input) == 0 {
		input = entries
	}
	var inputValue interface{}
	switch len(input) {
	case 0:
		inputValue = nil
	case 1:
		inputValue = input[0]
	default:
		inputValue = input
	}
	return RawInput{
		Input:           inputValue,
		PreserveModules: d.PreserveModules,
		Cache:           d.Cache,
		Output:          d.ToRawOutput(),
	}
}
