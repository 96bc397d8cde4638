package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/blog"
	"github.com/sha1n/relic-posts/internal/config"
	mcputil "github.com/sha1n/relic-posts/internal/mcp"
	"github.com/sha1n/relic-posts/internal/metrics"
	"github.com/spf13/pflag"
)

// ServerName is the MCP implementation name.
const ServerName = "relic-posts"

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings) (*mcp.Server, func(), error)
	CreateService     func(*config.Settings) (*blog.Service, error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// QueryOptions selects the language and result count of a one-shot query.
// Zero values mean the default language and the configured limit.
type QueryOptions struct {
	Lang  string
	Limit int
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
		CreateService:  blog.NewService,
	}
}

// prepare loads and validates settings and configures logging.
func prepare(params RunParams, flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr so stdout stays free for stdio and query output
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))
	return settings, nil
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := prepare(params, flags)
	if err != nil {
		return err
	}

	slog.Info("Starting relic-posts server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// CreateMCPServer creates the MCP server with the post tools registered
func CreateMCPServer(settings *config.Settings) (*mcp.Server, func(), error) {
	metrics.Register()

	svc, err := blog.NewService(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create posts service: %w", err)
	}
	cleanup := func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close posts service", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    ServerName,
		Version: "1.0.0",
		Posts:   svc,
	})

	return server, cleanup, nil
}

// withService runs fn against a freshly created posts service.
func withService(params RunParams, flags *pflag.FlagSet, fn func(*blog.Service) error) error {
	settings, err := prepare(params, flags)
	if err != nil {
		return err
	}

	svc, err := params.CreateService(settings)
	if err != nil {
		return fmt.Errorf("failed to create posts service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close posts service", "error", err)
		}
	}()

	return fn(svc)
}

// RunBuild builds every language's artifacts and prints a per-language summary.
func RunBuild(ctx context.Context, params RunParams, flags *pflag.FlagSet, out io.Writer) error {
	return withService(params, flags, func(svc *blog.Service) error {
		config.Log(svc.GetSettings())

		manifest, err := svc.Build(ctx)
		if manifest != nil {
			for _, lang := range svc.Registry().Languages() {
				state, ok := manifest.LangState(lang.Code)
				if !ok {
					continue
				}
				if state.Error != "" {
					_, _ = fmt.Fprintf(out, "%s\tfailed\t%s\n", lang.Code, state.Error)
					continue
				}
				_, _ = fmt.Fprintf(out, "%s\t%d posts\t%d terms\n", lang.Code, state.PostCount, state.TermCount)
			}
		}
		return err
	})
}

// RunSearch runs a single full-text query and prints the hits.
func RunSearch(ctx context.Context, params RunParams, flags *pflag.FlagSet, query string, opts QueryOptions, out io.Writer) error {
	return withService(params, flags, func(svc *blog.Service) error {
		hits, err := svc.Search(ctx, opts.Lang, query, opts.Limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			_, _ = fmt.Fprintf(out, "No posts found for %q\n", query)
			return nil
		}
		for _, hit := range hits {
			_, _ = fmt.Fprintf(out, "%.3f\t%s\t%s\n", hit.Score, hit.Item.Slug, hit.Item.Title)
		}
		return nil
	})
}

// RunRelated prints the posts most related to slug.
func RunRelated(ctx context.Context, params RunParams, flags *pflag.FlagSet, slug string, opts QueryOptions, out io.Writer) error {
	return withService(params, flags, func(svc *blog.Service) error {
		scored, err := svc.Related(ctx, opts.Lang, slug, opts.Limit)
		if err != nil {
			return err
		}
		if len(scored) == 0 {
			_, _ = fmt.Fprintf(out, "No related posts for %q\n", slug)
			return nil
		}
		for _, s := range scored {
			_, _ = fmt.Fprintf(out, "%.3f\t%s\t%s\n", s.Score, s.Doc.Slug, s.Doc.Title)
		}
		return nil
	})
}
