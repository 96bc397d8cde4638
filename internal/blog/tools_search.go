package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/searchindex"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Search query; typos and partial last words are tolerated"`
	Lang  string `json:"lang,omitempty" jsonschema_description:"Language code of the posts to search (defaults to the site's default language)"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results"`
}

// SearchHandler handles the search_posts MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}
	if args.Limit < 0 {
		return errorResult("Limit cannot be negative"), nil, nil
	}

	hits, err := h.service.Search(ctx, args.Lang, args.Query, args.Limit)
	if err != nil {
		return serviceErrorResult("Search", err), nil, nil
	}
	return formatSearchResults(hits, args.Query), nil, nil
}

// formatSearchResults formats hits for the MCP response.
func formatSearchResults(hits []searchindex.Hit, queryStr string) *mcp.CallToolResult {
	if len(hits) == 0 {
		return textResult(fmt.Sprintf("No posts found for query: %s", queryStr))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d posts for '%s':\n\n", len(hits), queryStr)

	for i, hit := range hits {
		item := hit.Item
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, item.Title)
		fmt.Fprintf(&sb, "**Slug**: %s\n", item.Slug)
		fmt.Fprintf(&sb, "**Date**: %s | **Reading time**: %d min | **Score**: %.4f\n\n",
			item.Date.Format("2006-01-02"), item.ReadingTimeMinutes, hit.Score)
		if item.Description != "" {
			sb.WriteString(item.Description)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_posts",
		Description: "Full-text search over blog posts by title, description and content",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
