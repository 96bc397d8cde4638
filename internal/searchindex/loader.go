package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sha1n/relic-posts/internal/artifact"
	"github.com/sha1n/relic-posts/internal/cache"
	"github.com/sha1n/relic-posts/internal/locale"
)

// Loader fetches and opens search bundles per language, at most once per
// language at a time. Opened bundles are cached until Close; failed loads
// are retried on the next call.
type Loader struct {
	fetcher  artifact.Fetcher
	registry *locale.Registry
	workDir  string
	bundles  *cache.Group[*Bundle]
}

// NewLoader creates a Loader. timeout bounds each fetch and parse; zero
// means no timeout.
func NewLoader(fetcher artifact.Fetcher, registry *locale.Registry, workDir string, timeout time.Duration) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		registry: registry,
		workDir:  workDir,
	}
	l.bundles = cache.New("search_index", l.load,
		cache.WithTimeout[*Bundle](timeout),
		cache.WithRelease(func(b *Bundle) {
			if err := b.Close(); err != nil {
				slog.Error("Failed to close search bundle", "error", err)
			}
		}),
	)
	return l
}

// cacheKey is the language's path prefix, or "/" for the default language.
func (l *Loader) cacheKey(lang string) string {
	if prefix := l.registry.PathPrefix(lang); prefix != "" {
		return prefix
	}
	return "/"
}

// Load returns the search bundle for lang ("" means the default language).
func (l *Loader) Load(ctx context.Context, lang string) (*Bundle, error) {
	code, err := l.registry.Resolve(lang)
	if err != nil {
		return nil, err
	}
	return l.bundles.GetOrLoad(ctx, l.cacheKey(code))
}

func (l *Loader) load(ctx context.Context, key string) (*Bundle, error) {
	prefix := key
	if prefix == "/" {
		prefix = ""
	}
	path := artifact.Path(prefix, artifact.SearchIndexFile)

	slog.Info("Loading search index", "path", path)
	data, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	bundle, err := Open(data, l.workDir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("Search index ready", "path", path, "items", bundle.Len())
	return bundle, nil
}

// Invalidate drops the cached bundle for lang so the next Load fetches it again.
func (l *Loader) Invalidate(lang string) {
	l.bundles.Forget(l.cacheKey(lang))
}

// Close releases all cached bundles.
func (l *Loader) Close() {
	l.bundles.Close()
}
