package domain

import "time"

// Document is a single non-draft post as loaded from the content tree.
// It is the input to both the related index and the search index builders.
type Document struct {
	// ID is the post slug, unique within one language.
	// Example: "2024/hello-world"
	ID string `json:"id"`

	Title string `json:"title"`

	// Description is optional; builders derive an excerpt from Body when empty.
	Description string `json:"description,omitempty"`

	// Body is the raw markdown body without front matter.
	Body string `json:"body"`

	Tags []string  `json:"tags"`
	Date time.Time `json:"date"`

	OGImage  string `json:"ogImage,omitempty"`
	Featured bool   `json:"featured,omitempty"`

	// Lang is the language code of the collection the post was loaded from.
	Lang string `json:"lang,omitempty"`
}

// SearchItem is one entry of the search artifact's data array.
type SearchItem struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Slug               string    `json:"slug"`
	Content            string    `json:"content"`
	OGImage            string    `json:"ogImage,omitempty"`
	Date               time.Time `json:"date"`
	Body               string    `json:"body"`
	ReadingTimeMinutes int       `json:"readingTimeMinutes"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	SearchFieldTitle       = "title"
	SearchFieldDescription = "description"
	SearchFieldContent     = "content"
	SearchFieldSlug        = "slug"
)

// SearchFields lists the fields matched by free-text queries, in order.
var SearchFields = []string{SearchFieldTitle, SearchFieldDescription, SearchFieldContent}
