package blog

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-posts/internal/domain"
)

// textResult wraps text in a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// errorResult reports a tool failure to the client. Tool failures are
// results, not protocol errors.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

// serviceErrorResult maps a service error to a tool failure.
func serviceErrorResult(action string, err error) *mcp.CallToolResult {
	switch domain.ErrorCode(err) {
	case domain.CodeUnavailable:
		return errorResult("%s is not available. The site artifacts could not be loaded: %s", action, err)
	case domain.CodeInvalidData:
		return errorResult("%s is not available. The site artifacts are corrupt: %s", action, err)
	case domain.CodeNotFound:
		return errorResult("%s", err)
	default:
		return errorResult("%s failed: %s", action, err)
	}
}
