package generate

import (
	"path/filepath"
	"strings"

	"forge/internal/fsutil"
)

// FinalizeAsset computes an asset's output file name from the
// output.assetFileNames pattern, substituting [name], [hash] and
// [extname] from the asset's declared name and content.
func FinalizeAsset(asset *Asset, pattern string) string {
	if asset.FileName != "" {
		return asset.FileName
	}

	ext := filepath.Ext(asset.Name)
	name := strings.TrimSuffix(filepath.Base(asset.Name), ext)
	hash := fsutil.ContentHash(asset.Source, 8)

	fileName := pattern
	fileName = strings.ReplaceAll(fileName, "[name]", name)
	fileName = strings.ReplaceAll(fileName, "[hash]", hash)
	fileName = strings.ReplaceAll(fileName, "[extname]", ext)

	asset.FileName = fileName
	return fileName
}
