package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/relic-posts/internal/artifact"
	"github.com/sha1n/relic-posts/internal/config"
	"github.com/sha1n/relic-posts/internal/domain"
)

// setupService creates a service over seeded content. When build is true
// the artifacts are built before returning.
func setupService(t *testing.T, build bool) (*Service, *config.Settings) {
	t.Helper()
	settings := newTestSettings(t)
	seedContent(t, settings.Content.Dir)

	svc, err := NewService(settings)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	if build {
		if _, err := svc.Build(context.Background()); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
	}
	return svc, settings
}

func TestNewService_NilSettings(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Error("Expected error for nil settings")
	}
}

func TestNewService_DefaultLangNotSupported(t *testing.T) {
	settings := newTestSettings(t)
	settings.Content.DefaultLang = "fr"

	if _, err := NewService(settings); err == nil {
		t.Error("Expected error when the default language is not configured")
	}
}

func TestService_Build(t *testing.T) {
	svc, settings := setupService(t, false)

	manifest, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	out := settings.Output.Dir
	for _, rel := range []string{
		"api/related-index.json",
		"api/search-index.json",
		"es/api/related-index.json",
		"es/api/search-index.json",
		ManifestFilename,
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing artifact %s: %v", rel, err)
		}
	}

	en, ok := manifest.LangState("en")
	if !ok || en.PostCount != 3 || en.TermCount == 0 || en.SearchBytes == 0 {
		t.Errorf("en state = %+v", en)
	}
	es, ok := manifest.LangState("es")
	if !ok || es.PostCount != 1 {
		t.Errorf("es state = %+v", es)
	}
	if manifest.LastBuild.IsZero() {
		t.Error("LastBuild should be set")
	}

	data, err := os.ReadFile(filepath.Join(out, "api", "related-index.json"))
	if err != nil {
		t.Fatal(err)
	}
	var idx domain.RelatedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("related index is not valid JSON: %v", err)
	}
	if idx.Version != domain.RelatedIndexVersion || idx.Lang != "en" || len(idx.Docs) != 3 {
		t.Errorf("related index version=%d lang=%q docs=%d", idx.Version, idx.Lang, len(idx.Docs))
	}
}

func TestService_Build_LockHeld(t *testing.T) {
	svc, settings := setupService(t, false)
	settings.Build.LockTimeout = 100 * time.Millisecond

	holder := NewBuildLock(filepath.Join(settings.Output.Dir, LockFilename))
	if ok, err := holder.TryAcquire(); err != nil || !ok {
		t.Fatalf("TryAcquire = %v, %v", ok, err)
	}
	defer releaseLock(t, holder)

	_, err := svc.Build(context.Background())
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Build error = %v, want ErrLockTimeout", err)
	}
}

func TestService_QueriesBeforeBuild(t *testing.T) {
	svc, _ := setupService(t, false)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "", "go", 0); !domain.IsCode(err, domain.CodeUnavailable) {
		t.Errorf("Search error = %v, want %s", err, domain.CodeUnavailable)
	}
	if _, err := svc.Related(ctx, "", "goroutines", 0); !domain.IsCode(err, domain.CodeUnavailable) {
		t.Errorf("Related error = %v, want %s", err, domain.CodeUnavailable)
	}
}

func TestService_Related(t *testing.T) {
	svc, _ := setupService(t, true)
	ctx := context.Background()

	scored, err := svc.Related(ctx, "", "goroutines", 0)
	if err != nil {
		t.Fatalf("Related failed: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("len(scored) = %d, want 2", len(scored))
	}
	if scored[0].Doc.Slug != "worker-pools" {
		t.Errorf("top related = %q, want worker-pools", scored[0].Doc.Slug)
	}
	if scored[0].Score <= scored[1].Score {
		t.Errorf("scores not descending: %v, %v", scored[0].Score, scored[1].Score)
	}
	for _, s := range scored {
		if s.Doc.Slug == "goroutines" {
			t.Error("post should not be related to itself")
		}
	}

	limited, err := svc.Related(ctx, "en", "goroutines", 1)
	if err != nil {
		t.Fatalf("Related failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestService_Related_Errors(t *testing.T) {
	svc, _ := setupService(t, true)
	ctx := context.Background()

	if _, err := svc.Related(ctx, "", "missing", 0); !domain.IsCode(err, domain.CodeNotFound) {
		t.Errorf("unknown slug error = %v, want %s", err, domain.CodeNotFound)
	}
	if _, err := svc.Related(ctx, "de", "goroutines", 0); !domain.IsCode(err, domain.CodeNotFound) {
		t.Errorf("unknown lang error = %v, want %s", err, domain.CodeNotFound)
	}
}

func TestService_Related_CorruptIndex(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "{"},
		{"wrong version", `{"version":2,"lang":"en","terms":[],"docs":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, settings := setupService(t, true)
			if err := artifact.WriteFile(settings.Output.Dir, "/api/related-index.json", []byte(tt.data)); err != nil {
				t.Fatal(err)
			}

			_, err := svc.Related(context.Background(), "", "goroutines", 0)
			if !domain.IsCode(err, domain.CodeInvalidData) {
				t.Errorf("error = %v, want %s", err, domain.CodeInvalidData)
			}
		})
	}
}

func TestService_Search(t *testing.T) {
	svc, _ := setupService(t, true)
	ctx := context.Background()

	hits, err := svc.Search(ctx, "", "channels", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 || hits[0].Item.Slug != "goroutines" {
		t.Fatalf("hits = %+v, want goroutines first", hits)
	}

	hits, err = svc.Search(ctx, "es", "hola", 0)
	if err != nil {
		t.Fatalf("Search(es) failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.Slug != "hola" {
		t.Errorf("es hits = %+v", hits)
	}

	hits, err = svc.Search(ctx, "", "  ", 0)
	if err != nil {
		t.Fatalf("Search(blank) failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("blank query returned %d hits", len(hits))
	}
}

func TestService_Post(t *testing.T) {
	svc, _ := setupService(t, true)
	ctx := context.Background()

	item, err := svc.Post(ctx, "", "sourdough")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if item.Title != "Sourdough bread" || item.ReadingTimeMinutes != 1 {
		t.Errorf("item = %+v", item)
	}

	if _, err := svc.Post(ctx, "", "unfinished"); !domain.IsCode(err, domain.CodeNotFound) {
		t.Errorf("draft lookup error = %v, want %s", err, domain.CodeNotFound)
	}
}

func TestService_RebuildRefreshesQueries(t *testing.T) {
	svc, settings := setupService(t, true)
	ctx := context.Background()

	if hits, _ := svc.Search(ctx, "", "kubernetes", 0); len(hits) != 0 {
		t.Fatalf("unexpected hits before adding the post: %+v", hits)
	}

	writeFile(t, settings.Content.Dir, "posts/k8s.md", "---\ntitle: Kubernetes operators\ndate: 2024-07-01\ntags: [go]\n---\nReconcile loops.")
	if _, err := svc.Build(ctx); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	hits, err := svc.Search(ctx, "", "kubernetes", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.Slug != "k8s" {
		t.Errorf("hits after rebuild = %+v", hits)
	}
}

func TestService_HTTPSource(t *testing.T) {
	_, settings := setupService(t, true)

	srv := httptest.NewServer(http.FileServer(http.Dir(settings.Output.Dir)))
	defer srv.Close()

	remote := newTestSettings(t)
	remote.Search.SourceURL = srv.URL
	svc, err := NewService(remote)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	hits, err := svc.Search(context.Background(), "", "sourdough", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 || hits[0].Item.Slug != "sourdough" {
		t.Errorf("hits = %+v", hits)
	}

	if _, err := svc.Related(context.Background(), "es", "hola", 0); err != nil {
		t.Errorf("Related over HTTP failed: %v", err)
	}
}
