package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadArgument defines read parameters.
type ReadArgument struct {
	Slug string `json:"slug" jsonschema_description:"Slug of the post to read"`
	Lang string `json:"lang,omitempty" jsonschema_description:"Language code of the post (defaults to the site's default language)"`
}

// ReadHandler handles the read_post MCP tool.
type ReadHandler struct {
	service *Service
}

// NewReadHandler creates a new read handler.
func NewReadHandler(service *Service) *ReadHandler {
	return &ReadHandler{
		service: service,
	}
}

// Handle returns a post's metadata and markdown body.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgument) (*mcp.CallToolResult, any, error) {
	slug := strings.Trim(strings.TrimSpace(args.Slug), "/")
	if slug == "" {
		return errorResult("Slug cannot be empty"), nil, nil
	}

	item, err := h.service.Post(ctx, args.Lang, slug)
	if err != nil {
		return serviceErrorResult("Read", err), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", item.Title)
	fmt.Fprintf(&sb, "**Slug**: %s\n", item.Slug)
	fmt.Fprintf(&sb, "**Date**: %s\n", item.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "**Reading time**: %d min\n", item.ReadingTimeMinutes)
	if item.Description != "" {
		fmt.Fprintf(&sb, "**Description**: %s\n", item.Description)
	}
	fmt.Fprintf(&sb, "\n```markdown\n%s\n```", strings.TrimSpace(item.Body))

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ReadHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "read_post",
		Description: "Read a blog post's metadata and markdown body",
	}
}

// RegisterReadTool registers the read tool with an MCP server.
func RegisterReadTool(server *mcp.Server, service *Service) {
	handler := NewReadHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
