package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/vsdx-go/pkg/vsdx"
)

// openDocument opens the diagram at path with the context's logger.
func openDocument(ctx context.Context, path string, skipIntegrity bool) (*vsdx.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	doc, err := vsdx.OpenWithOptions(path, vsdx.Options{
		Logger:             loggerFromContext(ctx),
		SkipIntegrityCheck: skipIntegrity,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return doc, nil
}

// derivedPath returns input with "-suffix" inserted before its extension.
func derivedPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-" + suffix + ext
}
