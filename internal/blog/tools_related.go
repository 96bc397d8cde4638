package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/relevance"
)

// RelatedArgument defines related-posts parameters.
type RelatedArgument struct {
	Slug  string `json:"slug" jsonschema_description:"Slug of the post to find related posts for"`
	Lang  string `json:"lang,omitempty" jsonschema_description:"Language code of the post (defaults to the site's default language)"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of related posts"`
}

// RelatedHandler handles the related_posts MCP tool.
type RelatedHandler struct {
	service *Service
}

// NewRelatedHandler creates a new related handler.
func NewRelatedHandler(service *Service) *RelatedHandler {
	return &RelatedHandler{
		service: service,
	}
}

// Handle ranks the posts related to the requested one.
func (h *RelatedHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RelatedArgument) (*mcp.CallToolResult, any, error) {
	slug := strings.Trim(strings.TrimSpace(args.Slug), "/")
	if slug == "" {
		return errorResult("Slug cannot be empty"), nil, nil
	}
	if args.Limit < 0 {
		return errorResult("Limit cannot be negative"), nil, nil
	}

	scored, err := h.service.Related(ctx, args.Lang, slug, args.Limit)
	if err != nil {
		return serviceErrorResult("Related posts", err), nil, nil
	}
	return formatRelated(slug, scored), nil, nil
}

func formatRelated(slug string, scored []relevance.Scored) *mcp.CallToolResult {
	if len(scored) == 0 {
		return textResult(fmt.Sprintf("No related posts for: %s", slug))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Posts related to '%s':\n\n", slug)
	for i, s := range scored {
		fmt.Fprintf(&sb, "%d. %s (%s) score %.4f\n", i+1, s.Doc.Title, s.Doc.Slug, s.Score)
		if len(s.Doc.Tags) > 0 {
			fmt.Fprintf(&sb, "   tags: %s\n", strings.Join(s.Doc.Tags, ", "))
		}
	}
	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *RelatedHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "related_posts",
		Description: "List the posts most related to a given post by content similarity, shared tags and recency",
	}
}

// RegisterRelatedTool registers the related tool with an MCP server.
func RegisterRelatedTool(server *mcp.Server, service *Service) {
	handler := NewRelatedHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
