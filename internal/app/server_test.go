package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/config"
)

func TestNewSSEServer_NoAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeNone},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if srv == nil {
		t.Fatal("Expected server to be created")
	}
	if srv.Addr != "localhost:8080" {
		t.Errorf("Expected addr 'localhost:8080', got '%s'", srv.Addr)
	}
}

func TestNewSSEServer_BasicAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 9090,
		Auth: config.AuthSettings{
			Type: config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if srv == nil {
		t.Fatal("Expected server to be created")
	}
}

func TestNewSSEServer_APIKeyAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 9090,
		Auth: config.AuthSettings{
			Type:    config.AuthTypeAPIKey,
			APIKeys: []string{"key1", "key2"},
		},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if srv == nil {
		t.Fatal("Expected server to be created")
	}
}

func TestNewSSEServer_InvalidAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 9090,
		Auth: config.AuthSettings{
			Type: config.AuthTypeBasic,
			// Missing username and password
		},
	}

	_, err := NewSSEServer(server, settings)
	if err == nil {
		t.Error("Expected error for invalid auth settings")
	}
}

func TestNewSSEServer_HealthEndpoint(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeNone},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Test health endpoint
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Expected Content-Type 'text/plain; charset=utf-8', got '%s'", rec.Header().Get("Content-Type"))
	}
}

func TestNewSSEServer_HealthEndpointBypassesAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{
			Type: config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Test health endpoint without auth - should still work
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /health without auth, got %d", rec.Code)
	}
}

func TestNewSSEServer_SSEEndpointRequiresAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{
			Type: config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Test SSE endpoint without auth - should fail
	req := httptest.NewRequest("GET", "/sse", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for /sse without auth, got %d", rec.Code)
	}
}

func TestNewSSEServer_MetricsEndpoint(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeNone},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("Expected metrics exposition to contain go_goroutines")
	}
}

func TestNewSSEServer_MetricsEndpointRequiresAuth(t *testing.T) {
	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{
			Type:    config.AuthTypeAPIKey,
			APIKeys: []string{"key1"},
		},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for /metrics without auth, got %d", rec.Code)
	}
}

func TestNewSSEServer_Artifacts(t *testing.T) {
	outDir := t.TempDir()
	files := map[string]string{
		"api/search-index.json":     `{"lang":"en"}`,
		"es/api/related-index.json": `{"lang":"es"}`,
		"manifest.json":             `{}`,
	}
	for rel, content := range files {
		path := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	impl := &mcp.Implementation{Name: "test", Version: "1.0"}
	server := mcp.NewServer(impl, nil)

	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{
			Type: config.AuthTypeBasic,
			Basic: config.BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
		Content: config.ContentSettings{DefaultLang: "en", Langs: []string{"en", "es"}},
		Output:  config.OutputSettings{Dir: outDir},
	}

	srv, err := NewSSEServer(server, settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "default language", method: "GET", path: "/api/search-index.json", wantCode: http.StatusOK, wantBody: `{"lang":"en"}`},
		{name: "prefixed language", method: "GET", path: "/es/api/related-index.json", wantCode: http.StatusOK, wantBody: `{"lang":"es"}`},
		{name: "not built yet", method: "GET", path: "/api/related-index.json", wantCode: http.StatusNotFound},
		{name: "unconfigured language", method: "GET", path: "/fr/api/search-index.json", wantCode: http.StatusUnauthorized},
		{name: "manifest is private", method: "GET", path: "/manifest.json", wantCode: http.StatusUnauthorized},
		{name: "write method", method: "POST", path: "/api/search-index.json", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}
