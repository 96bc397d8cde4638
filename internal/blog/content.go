// Package blog loads markdown posts, builds the related-post and search
// artifacts from them, and answers queries against the built artifacts.
package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sha1n/relic-posts/internal/domain"
	"github.com/sha1n/relic-posts/internal/locale"
	"gopkg.in/yaml.v3"
)

// dateLayouts are the accepted front matter date formats.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// frontMatter is the YAML header of a post.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Date        string   `yaml:"date"`
	Draft       bool     `yaml:"draft"`
	Tags        []string `yaml:"tags"`
	Featured    bool     `yaml:"featured"`
	OGImage     string   `yaml:"ogImage"`
}

// ContentLoader reads the post collections of a content directory. The
// default language lives in <root>/posts, every other language in
// <root>/<code>/posts.
type ContentLoader struct {
	root     string
	registry *locale.Registry
	filter   *ContentFilter
}

// NewContentLoader creates a ContentLoader.
func NewContentLoader(root string, registry *locale.Registry, filter *ContentFilter) *ContentLoader {
	if filter == nil {
		filter = NewContentFilter(DefaultMaxFileSize)
	}
	return &ContentLoader{
		root:     root,
		registry: registry,
		filter:   filter,
	}
}

// CollectionDir returns the directory holding a language's posts.
func (l *ContentLoader) CollectionDir(lang string) string {
	if lang == "" || lang == l.registry.Default() {
		return filepath.Join(l.root, "posts")
	}
	return filepath.Join(l.root, lang, "posts")
}

// Load returns the published posts of a language, featured posts first and
// newest first within each group. A missing collection yields no posts.
// Unparseable posts are logged and skipped.
func (l *ContentLoader) Load(ctx context.Context, lang string) ([]domain.Document, error) {
	code, err := l.registry.Resolve(lang)
	if err != nil {
		return nil, err
	}

	dir := l.CollectionDir(code)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Content collection not found", "lang", code, "dir", dir)
		return []domain.Document{}, nil
	}

	docs := []domain.Document{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if l.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || !l.filter.IsPost(rel, info.Size()) {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}

		doc, draft, err := parsePost(PostID(rel), code, src)
		if err != nil {
			slog.Warn("Skipping invalid post", "lang", code, "path", rel, "error", err)
			return nil
		}
		if draft {
			slog.Debug("Skipping draft", "lang", code, "path", rel)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s posts: %w", code, err)
	}

	SortFeaturedThenRecent(docs)
	return docs, nil
}

// PostID derives a post ID from its path relative to the collection root:
// slash separated, without extension, with a trailing "/index" removed.
func PostID(relPath string) string {
	id := filepath.ToSlash(relPath)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	if trimmed, ok := strings.CutSuffix(id, "/index"); ok {
		id = trimmed
	}
	return id
}

// SortFeaturedThenRecent orders featured posts first, then newest first.
// Posts that tie keep their relative order.
func SortFeaturedThenRecent(docs []domain.Document) {
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		return b.Date.Compare(a.Date)
	})
}

func parsePost(id, lang string, src []byte) (domain.Document, bool, error) {
	header, body := splitFrontMatter(src)

	var fm frontMatter
	if len(header) > 0 {
		if err := yaml.Unmarshal(header, &fm); err != nil {
			return domain.Document{}, false, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	date, err := parseDate(fm.Date)
	if err != nil {
		return domain.Document{}, false, err
	}

	tags := make([]string, 0, len(fm.Tags))
	for _, tag := range fm.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return domain.Document{
		ID:          id,
		Title:       strings.TrimSpace(fm.Title),
		Description: strings.TrimSpace(fm.Description),
		Body:        string(body),
		Tags:        tags,
		Date:        date,
		OGImage:     fm.OGImage,
		Featured:    fm.Featured,
		Lang:        lang,
	}, fm.Draft, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from
// the markdown body. Without one, the whole source is the body.
func splitFrontMatter(src []byte) (header, body []byte) {
	src = bytes.TrimPrefix(src, []byte("\uFEFF"))
	first, rest, ok := cutLine(src)
	if !ok || string(bytes.TrimRight(first, " \t\r")) != "---" {
		return nil, src
	}

	offset := 0
	for len(rest[offset:]) > 0 {
		line, next, _ := cutLine(rest[offset:])
		if string(bytes.TrimRight(line, " \t\r")) == "---" {
			return rest[:offset], next
		}
		offset = len(rest) - len(next)
	}
	return nil, src
}

// cutLine splits off the first line of b. ok is false if b is empty.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	line, rest, found := bytes.Cut(b, []byte("\n"))
	if !found {
		return line, nil, true
	}
	return line, rest, true
}

// parseDate parses a front matter date. An empty value is the Unix epoch.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
