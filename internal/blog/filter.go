package blog

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultMaxFileSize bounds the size of a post file.
const DefaultMaxFileSize = 4 * 1024 * 1024

// ContentExtensions are the file extensions loaded as posts.
var ContentExtensions = []string{".md", ".mdx"}

// DefaultExcludePatterns contains content paths that are never posts:
// hidden files, underscore-prefixed partials and editor leftovers.
var DefaultExcludePatterns = []string{
	".*", "_*",
	"node_modules/**",
	"*~", "*.swp",
}

// ContentFilter decides which files under a collection are posts.
type ContentFilter struct {
	patterns    []string
	maxFileSize int64
}

// NewContentFilter creates a ContentFilter with the default exclusion patterns.
func NewContentFilter(maxFileSize int64) *ContentFilter {
	return NewContentFilterWithPatterns(DefaultExcludePatterns, maxFileSize)
}

// NewContentFilterWithPatterns creates a ContentFilter with custom patterns.
func NewContentFilterWithPatterns(patterns []string, maxFileSize int64) *ContentFilter {
	return &ContentFilter{
		patterns:    patterns,
		maxFileSize: maxFileSize,
	}
}

// IsPost reports whether a file of the given size at relPath (relative to
// the collection root) should be loaded.
func (f *ContentFilter) IsPost(relPath string, size int64) bool {
	if !IsContentFile(relPath) {
		return false
	}
	if f.maxFileSize > 0 && size > f.maxFileSize {
		return false
	}
	return !f.ShouldExclude(relPath)
}

// ShouldExclude returns true if relPath matches any exclusion pattern.
func (f *ContentFilter) ShouldExclude(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.patterns {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory and everything under it is excluded.
func (f *ContentFilter) SkipDir(relDir string) bool {
	relDir = filepath.ToSlash(relDir)
	if relDir == "." || relDir == "" {
		return false
	}
	return f.ShouldExclude(relDir)
}

// IsContentFile reports whether path has a post extension.
func IsContentFile(p string) bool {
	return slices.Contains(ContentExtensions, strings.ToLower(filepath.Ext(p)))
}

// matchPattern matches a slash-separated path against a glob pattern.
// A "**/" prefix matches at any depth and a "/**" suffix matches a
// directory and its contents.
func matchPattern(pattern, p string) bool {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		parts := strings.Split(strings.TrimSuffix(p, "/"), "/")
		for i := range parts {
			if matchPattern(rest, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
		for _, part := range strings.Split(strings.TrimSuffix(p, "/"), "/") {
			if part == dir {
				return true
			}
		}
		return false
	}

	p = strings.TrimSuffix(p, "/")
	if matched, _ := path.Match(pattern, p); matched {
		return true
	}
	if strings.Contains(pattern, "/") {
		return false
	}
	// Patterns without a slash match any single path segment.
	for _, part := range strings.Split(p, "/") {
		if matched, _ := path.Match(pattern, part); matched {
			return true
		}
	}
	return false
}
