package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/blog"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string
	Posts   *blog.Service
}

// CreateServer creates and configures the MCP server.
// Post tools are only registered when a posts service is provided.
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Posts != nil {
		blog.RegisterSearchTool(s, cfg.Posts)
		blog.RegisterRelatedTool(s, cfg.Posts)
		blog.RegisterReadTool(s, cfg.Posts)
	}

	return s
}
