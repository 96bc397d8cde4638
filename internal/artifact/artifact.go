// Package artifact names, writes and fetches the JSON artifacts produced by a build.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RelatedIndexFile is the related-posts artifact name.
	RelatedIndexFile = "related-index.json"

	// SearchIndexFile is the search artifact name.
	SearchIndexFile = "search-index.json"

	// MaxArtifactBytes bounds how much a fetcher reads.
	MaxArtifactBytes = 256 * 1024 * 1024
)

// Path returns the URL path of an artifact under a language path prefix,
// e.g. Path("", SearchIndexFile) = "/api/search-index.json" and
// Path("/es", SearchIndexFile) = "/es/api/search-index.json".
func Path(prefix, name string) string {
	return prefix + "/api/" + name
}

// FilePath maps an artifact URL path to a file under root.
func FilePath(root, urlPath string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
}

// WriteFile writes data to the artifact at urlPath under root atomically.
// Uses write-to-temp + rename so readers never observe a partial file.
func WriteFile(root, urlPath string, data []byte) error {
	path := FilePath(root, urlPath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename artifact file: %w", err)
	}
	return nil
}
