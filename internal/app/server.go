package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sha1n/relic-posts/internal/artifact"
	"github.com/sha1n/relic-posts/internal/auth"
	"github.com/sha1n/relic-posts/internal/config"
	"github.com/sha1n/relic-posts/internal/metrics"
)

// StartSSEServer starts the SSE server with authentication
func StartSSEServer(s *mcp.Server, settings *config.Settings) error {
	srv, err := NewSSEServer(s, settings)
	if err != nil {
		return err
	}

	slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth_type", settings.Auth.Type)
	return srv.ListenAndServe()
}

// NewSSEServer creates a new SSE server with authentication middleware.
// Built artifacts are public, like the rest of the static site, and bypass authentication.
func NewSSEServer(s *mcp.Server, settings *config.Settings) (*http.Server, error) {
	metrics.Register()

	// Factory function returns the server instance for each request
	sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc(auth.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/sse", sseHandler)

	paths := artifactPaths(settings)
	files := artifactHandler(settings.Output.Dir)
	for _, p := range paths {
		mux.Handle(p, files)
	}

	authMiddleware, err := auth.NewMiddleware(settings.Auth, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	handler := authMiddleware(mux)
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}, nil
}

// artifactHandler serves artifact files read-only from the output directory.
func artifactHandler(outDir string) http.Handler {
	files := http.FileServer(http.Dir(outDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		files.ServeHTTP(w, r)
	})
}

// artifactPaths lists the URL paths of every configured language's artifacts.
func artifactPaths(settings *config.Settings) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, code := range settings.Content.Langs {
		if seen[code] {
			continue
		}
		seen[code] = true
		prefix := ""
		if code != settings.Content.DefaultLang {
			prefix = "/" + code
		}
		paths = append(paths,
			artifact.Path(prefix, artifact.RelatedIndexFile),
			artifact.Path(prefix, artifact.SearchIndexFile),
		)
	}
	return paths
}
