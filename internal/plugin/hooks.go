package plugin

import (
	"context"
	"fmt"

	"forge/internal/config"
	ferrors "forge/internal/errors"
)

// Options applies every extension's Options hook in sequence, each
// seeing the previous one's rewritten RawInput. The Build Orchestrator
// calls this before config.NormalizeInput.
func Options(ctx context.Context, extensions []config.Extension, raw config.RawInput) (config.RawInput, error) {
	return RunSequential(ctx, extensions, raw, func(_ context.Context, ext config.Extension, value config.RawInput) (config.RawInput, error) {
		if ext.Options == nil {
			return value, nil
		}
		rewritten, err := ext.Options(value)
		if err != nil {
			return value, err
		}
		if rewritten == nil {
			return value, nil
		}
		return *rewritten, nil
	})
}

// BuildStart runs every extension's BuildStart hook in parallel.
func BuildStart(ctx context.Context, extensions []config.Extension, input *config.InputConfig) error {
	return RunParallel(ctx, extensions, func(ctx context.Context, ext config.Extension) error {
		if ext.BuildStart == nil {
			return nil
		}
		return ext.BuildStart(ctx, input)
	})
}

// BuildEnd runs every extension's BuildEnd hook in parallel, passing the
// build's own error (nil on success) to each.
func BuildEnd(ctx context.Context, extensions []config.Extension, buildErr error) error {
	return RunParallel(ctx, extensions, func(ctx context.Context, ext config.Extension) error {
		if ext.BuildEnd == nil {
			return nil
		}
		return ext.BuildEnd(ctx, buildErr)
	})
}

// RenderError runs every extension's RenderError hook in parallel when a
// generate call fails before generateBundle. The caller always rethrows
// the original error regardless of what this returns.
func RenderError(ctx context.Context, extensions []config.Extension, renderErr error) error {
	return RunParallel(ctx, extensions, func(ctx context.Context, ext config.Extension) error {
		if ext.RenderError == nil {
			return nil
		}
		return ext.RenderError(ctx, renderErr)
	})
}

// ResolveID tries every extension's ResolveID hook in order and returns
// the first one that resolves the (specifier, importer) pair.
func ResolveID(ctx context.Context, extensions []config.Extension, specifier, importer string) (id string, external bool, ok bool, err error) {
	type result struct {
		id       string
		external bool
	}
	r, found, err := RunFirstNonEmpty(ctx, extensions, func(ctx context.Context, ext config.Extension) (result, bool, error) {
		if ext.ResolveID == nil {
			return result{}, false, nil
		}
		id, external, ok, err := ext.ResolveID(ctx, specifier, importer)
		if err != nil || !ok {
			return result{}, false, err
		}
		return result{id: id, external: external}, true, nil
	})
	return r.id, r.external, found, err
}

// Load tries every extension's Load hook in order and returns the first
// one that supplies source for id.
func Load(ctx context.Context, extensions []config.Extension, id string) ([]byte, bool, error) {
	return RunFirstNonEmpty(ctx, extensions, func(ctx context.Context, ext config.Extension) ([]byte, bool, error) {
		if ext.Load == nil {
			return nil, false, nil
		}
		return ext.Load(ctx, id)
	})
}

// Transform runs every extension's Transform hook in sequence, each
// seeing the previous one's rewritten source.
func Transform(ctx context.Context, extensions []config.Extension, id string, src []byte) ([]byte, error) {
	return RunSequential(ctx, extensions, src, func(ctx context.Context, ext config.Extension, value []byte) ([]byte, error) {
		if ext.Transform == nil {
			return value, nil
		}
		return ext.Transform(ctx, id, value)
	})
}

// RenderStart runs every extension's RenderStart hook in parallel.
func RenderStart(ctx context.Context, extensions []config.Extension, output *config.OutputConfig) error {
	return RunParallel(ctx, extensions, func(ctx context.Context, ext config.Extension) error {
		if ext.RenderStart == nil {
			return nil
		}
		return ext.RenderStart(ctx, output)
	})
}

// RenderChunk runs every extension's RenderChunk hook in sequence, each
// seeing the previous one's rewritten code.
func RenderChunk(ctx context.Context, extensions []config.Extension, code, chunkFileName string) (string, error) {
	return RunSequential(ctx, extensions, code, func(ctx context.Context, ext config.Extension, value string) (string, error) {
		if ext.RenderChunk == nil {
			return value, nil
		}
		return ext.RenderChunk(ctx, value, chunkFileName)
	})
}

// GenerateBundle runs every extension's GenerateBundle hook in sequence,
// each seeing whatever the previous one emitted into the bundle, giving
// each a view of the finished bundle keyed by file name.
func GenerateBundle(ctx context.Context, extensions []config.Extension, bundle map[string]interface{}) error {
	_, err := RunSequential(ctx, extensions, bundle, func(ctx context.Context, ext config.Extension, value map[string]interface{}) (map[string]interface{}, error) {
		if ext.GenerateBundle == nil {
			return value, nil
		}
		return value, ext.GenerateBundle(ctx, value)
	})
	return err
}

// OnWrite runs every extension's OnWrite hook in sequence for one written
// file, so each extension observes the file after the previous one's
// side effects have run.
func OnWrite(ctx context.Context, extensions []config.Extension, fileName string) error {
	_, err := RunSequential(ctx, extensions, fileName, func(ctx context.Context, ext config.Extension, value string) (string, error) {
		if ext.OnWrite == nil {
			return value, nil
		}
		return value, ext.OnWrite(ctx, value)
	})
	return err
}

// OnGenerate runs every extension's deprecated OnGenerate hook in
// parallel for one rendered chunk, matching the hook table's
// per-chunk/parallel dispatch for this legacy entry point.
func OnGenerate(ctx context.Context, extensions []config.Extension, chunkFileName string) error {
	return RunParallel(ctx, extensions, func(ctx context.Context, ext config.Extension) error {
		if ext.OnGenerate == nil {
			return nil
		}
		return ext.OnGenerate(ctx, chunkFileName)
	})
}

// OnGenerateWarnings returns one PLUGIN_WARNING per extension that still
// defines the deprecated OnGenerate hook, naming each by its position in
// the extension list.
func OnGenerateWarnings(extensions []config.Extension) []config.Warning {
	var warnings []config.Warning
	for i, ext := range extensions {
		if ext.OnGenerate == nil {
			continue
		}
		warnings = append(warnings, config.Warning{
			Code:       ferrors.PluginWarning,
			PluginCode: "ONGENERATE_HOOK_DEPRECATED",
			Message:    fmt.Sprintf("extension at position %d uses the deprecated ongenerate hook; use generateBundle instead", i),
		})
	}
	return warnings
}
