// Package excerpt derives plain-text excerpts and reading time from markdown bodies.
package excerpt

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// DefaultLength is the excerpt length used when a post has no description.
	DefaultLength = 200

	// FullLength is large enough to keep a whole post body as plain text.
	FullLength = 1_000_000

	// WordsPerMinute is the reading speed used by ReadingTimeMinutes.
	WordsPerMinute = 200

	ellipsis = "…"
)

// Excerpt renders markdown to plain text and truncates it to at most length
// runes, appending an ellipsis when truncated. Code, raw HTML and autolinks
// are skipped; image alt text is kept.
func Excerpt(markdown string, length int) string {
	stripped := plainText(markdown)
	if utf8.RuneCountInString(stripped) <= length {
		return stripped
	}
	runes := []rune(stripped)
	return strings.TrimRight(string(runes[:length]), " \t\n") + ellipsis
}

func plainText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var parts []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindCodeSpan,
			ast.KindHTMLBlock, ast.KindRawHTML, ast.KindAutoLink:
			return ast.WalkSkipChildren, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			parts = append(parts, string(node.Segment.Value(source)))
		case *ast.String:
			parts = append(parts, string(node.Value))
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ReadingTimeMinutes estimates the minutes needed to read text, rounded up.
func ReadingTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) / WordsPerMinute))
}
