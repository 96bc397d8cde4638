package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sha1n/relic-posts/internal/artifact"
	"github.com/sha1n/relic-posts/internal/cache"
	"github.com/sha1n/relic-posts/internal/config"
	"github.com/sha1n/relic-posts/internal/domain"
	"github.com/sha1n/relic-posts/internal/locale"
	"github.com/sha1n/relic-posts/internal/metrics"
	"github.com/sha1n/relic-posts/internal/relevance"
	"github.com/sha1n/relic-posts/internal/searchindex"
)

const (
	// MaxParallelBuilds is the maximum number of languages built concurrently
	MaxParallelBuilds = 4

	artifactRelated = "related"
	artifactSearch  = "search"

	queryKindSearch  = "search"
	queryKindRelated = "related"
	queryKindRead    = "read"
)

// Service builds the per-language artifacts and answers search, related
// and read queries against them.
type Service struct {
	settings *config.Settings
	registry *locale.Registry
	content  *ContentLoader
	fetcher  artifact.Fetcher
	search   *searchindex.Loader
	related  *cache.Group[*domain.RelatedIndex]
	lock     *BuildLock
	now      func() time.Time
}

// NewService creates a service. Artifacts are read from search.source_url
// when set and from the output dir otherwise.
func NewService(settings *config.Settings) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	var fetcher artifact.Fetcher = &artifact.FileFetcher{Root: settings.Output.Dir}
	if settings.Search.SourceURL != "" {
		fetcher = artifact.NewHTTPFetcher(settings.Search.SourceURL)
	}
	return NewServiceWithFetcher(settings, fetcher)
}

// NewServiceWithFetcher creates a service that reads artifacts through fetcher.
func NewServiceWithFetcher(settings *config.Settings, fetcher artifact.Fetcher) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	registry, err := locale.NewRegistry(settings.Content.DefaultLang, settings.Content.Langs)
	if err != nil {
		return nil, fmt.Errorf("invalid languages: %w", err)
	}

	if settings.Output.WorkDir != "" {
		if err := os.MkdirAll(settings.Output.WorkDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create work directory: %w", err)
		}
	}

	s := &Service{
		settings: settings,
		registry: registry,
		content:  NewContentLoader(settings.Content.Dir, registry, nil),
		fetcher:  fetcher,
		search:   searchindex.NewLoader(fetcher, registry, settings.Output.WorkDir, settings.Search.FetchTimeout),
		lock:     NewBuildLock(filepath.Join(settings.Output.Dir, LockFilename)),
		now:      time.Now,
	}
	s.related = cache.New("related_index", s.loadRelated,
		cache.WithTimeout[*domain.RelatedIndex](settings.Search.FetchTimeout))
	return s, nil
}

// Registry returns the language registry.
func (s *Service) Registry() *locale.Registry {
	return s.registry
}

// GetSettings returns the service settings.
func (s *Service) GetSettings() *config.Settings {
	return s.settings
}

// Build loads every language's posts and writes its related and search
// artifacts plus the build manifest, holding the build lock throughout.
// A failing language does not stop the others; the returned error
// summarizes all failures.
func (s *Service) Build(ctx context.Context) (*Manifest, error) {
	if err := s.lock.Acquire(ctx, s.settings.Build.LockTimeout); err != nil {
		return nil, fmt.Errorf("failed to acquire build lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			slog.Error("Failed to release build lock", "error", err)
		}
	}()

	outDir := s.settings.Output.Dir
	manifest, err := LoadManifest(filepath.Join(outDir, ManifestFilename))
	if err != nil {
		slog.Warn("Discarding unreadable manifest", "error", err)
		manifest = NewManifest()
	}

	langs := s.registry.Languages()
	codes := make([]string, len(langs))
	for i, lang := range langs {
		codes[i] = lang.Code
	}
	for _, lang := range manifest.RemoveStaleLangs(codes) {
		slog.Info("Dropping language no longer configured", "lang", lang)
	}

	sem := make(chan struct{}, MaxParallelBuilds)
	var wg sync.WaitGroup
	errChan := make(chan error, len(codes))

	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			state, err := s.buildLang(ctx, code)
			if err != nil {
				slog.Error("Failed to build language", "lang", code, "error", err)
				manifest.SetLangError(code, err.Error())
				errChan <- fmt.Errorf("build %s: %w", code, err)
				return
			}
			manifest.SetLangState(code, state)
		}(code)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	manifest.UpdateLastBuild(s.now())
	if err := manifest.Save(outDir); err != nil {
		errs = append(errs, err)
	}

	// Drop anything cached from the previous build.
	s.Invalidate()

	if len(errs) > 0 {
		return manifest, fmt.Errorf("%d build step(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return manifest, nil
}

// buildLang writes the artifacts of one language.
func (s *Service) buildLang(ctx context.Context, code string) (LangState, error) {
	start := s.now()
	docs, err := s.content.Load(ctx, code)
	if err != nil {
		return LangState{}, err
	}
	prefix := s.registry.PathPrefix(code)

	related := relevance.BuildIndex(docs, code)
	relatedData, err := json.Marshal(related)
	if err == nil {
		err = artifact.WriteFile(s.settings.Output.Dir, artifact.Path(prefix, artifact.RelatedIndexFile), relatedData)
	}
	recordBuild(artifactRelated, code, len(related.Docs), err)
	if err != nil {
		return LangState{}, fmt.Errorf("related index: %w", err)
	}

	searchData, err := s.buildSearch(docs)
	if err == nil {
		err = artifact.WriteFile(s.settings.Output.Dir, artifact.Path(prefix, artifact.SearchIndexFile), searchData)
	}
	recordBuild(artifactSearch, code, len(docs), err)
	if err != nil {
		return LangState{}, fmt.Errorf("search index: %w", err)
	}

	slog.Info("Built artifacts", "lang", code, "posts", len(docs), "terms", len(related.Terms),
		"duration", s.now().Sub(start))

	return LangState{
		BuiltAt:      start,
		PostCount:    len(docs),
		TermCount:    len(related.Terms),
		RelatedBytes: len(relatedData),
		SearchBytes:  len(searchData),
	}, nil
}

func (s *Service) buildSearch(docs []domain.Document) ([]byte, error) {
	a, err := searchindex.Build(docs, s.settings.Output.WorkDir)
	if err != nil {
		return nil, err
	}
	return a.Marshal()
}

func recordBuild(name, lang string, docs int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		metrics.ArtifactDocuments.WithLabelValues(name, lang).Set(float64(docs))
	}
	metrics.ArtifactBuildsTotal.WithLabelValues(name, lang, status).Inc()
}

// loadRelated fetches and decodes the related index of a language.
func (s *Service) loadRelated(ctx context.Context, code string) (*domain.RelatedIndex, error) {
	path := artifact.Path(s.registry.PathPrefix(code), artifact.RelatedIndexFile)
	data, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	var idx domain.RelatedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, domain.NewError(domain.CodeInvalidData, "malformed related index "+path, err)
	}
	if idx.Version != domain.RelatedIndexVersion {
		return nil, domain.NewError(domain.CodeInvalidData,
			fmt.Sprintf("related index %s has version %d, want %d", path, idx.Version, domain.RelatedIndexVersion), nil)
	}
	return &idx, nil
}

// Search runs a full-text query against a language's search artifact.
// limit <= 0 means search.max_results.
func (s *Service) Search(ctx context.Context, lang, query string, limit int) (hits []searchindex.Hit, err error) {
	code, err := s.registry.Resolve(lang)
	if err != nil {
		return nil, err
	}
	defer func() { recordQuery(queryKindSearch, code, err) }()

	if limit <= 0 {
		limit = s.settings.Search.MaxResults
	}
	bundle, err := s.search.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	return bundle.Search(query, limit)
}

// Related returns the posts most related to slug, best first.
// limit <= 0 means related.limit.
func (s *Service) Related(ctx context.Context, lang, slug string, limit int) (scored []relevance.Scored, err error) {
	code, err := s.registry.Resolve(lang)
	if err != nil {
		return nil, err
	}
	defer func() { recordQuery(queryKindRelated, code, err) }()

	idx, err := s.related.GetOrLoad(ctx, code)
	if err != nil {
		return nil, err
	}
	current, ok := idx.Find(slug)
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, fmt.Sprintf("post %q not found in %s", slug, code), nil)
	}

	if limit <= 0 {
		limit = s.settings.Related.Limit
	}
	opts := relevance.Options{
		TagBoost:            s.settings.Related.TagBoost,
		RecencyHalfLifeDays: s.settings.Related.HalfLifeDays,
		Limit:               limit,
		Now:                 s.now(),
	}
	scored = relevance.ScoreCandidates(current, idx.Docs, opts)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Post returns the search item of a single post.
func (s *Service) Post(ctx context.Context, lang, slug string) (item domain.SearchItem, err error) {
	code, err := s.registry.Resolve(lang)
	if err != nil {
		return domain.SearchItem{}, err
	}
	defer func() { recordQuery(queryKindRead, code, err) }()

	bundle, err := s.search.Load(ctx, code)
	if err != nil {
		return domain.SearchItem{}, err
	}
	item, ok := bundle.Get(slug)
	if !ok {
		return domain.SearchItem{}, domain.NewError(domain.CodeNotFound, fmt.Sprintf("post %q not found in %s", slug, code), nil)
	}
	return item, nil
}

func recordQuery(kind, lang string, err error) {
	status := "ok"
	if err != nil {
		status = domain.ErrorCode(err)
		if status == "" {
			status = "error"
		}
	}
	metrics.QueriesTotal.WithLabelValues(kind, lang, status).Inc()
}

// Invalidate drops all cached artifacts so the next query reloads them.
func (s *Service) Invalidate() {
	for _, lang := range s.registry.Languages() {
		s.search.Invalidate(lang.Code)
		s.related.Forget(lang.Code)
	}
}

// Close releases all resources.
func (s *Service) Close() error {
	s.search.Close()
	s.related.Close()
	return s.lock.Release()
}
