// Package searchindex builds, serializes and queries the per-language
// full-text search artifact backed by a Bleve index.
package searchindex

import (
	"github.com/sha1n/relic-posts/internal/domain"
	"github.com/sha1n/relic-posts/internal/excerpt"
)

// ItemFromDocument maps a post to its search item.
func ItemFromDocument(doc domain.Document) domain.SearchItem {
	desc := doc.Description
	if desc == "" {
		desc = excerpt.Excerpt(doc.Body, excerpt.DefaultLength)
	}
	return domain.SearchItem{
		Title:              doc.Title,
		Description:        desc,
		Slug:               doc.ID,
		Content:            excerpt.Excerpt(doc.Body, excerpt.FullLength),
		OGImage:            doc.OGImage,
		Date:               doc.Date,
		Body:               doc.Body,
		ReadingTimeMinutes: excerpt.ReadingTimeMinutes(doc.Body),
	}
}

// ItemsFromDocuments maps posts to search items, keeping the first post
// for each ID and the input order.
func ItemsFromDocuments(docs []domain.Document) []domain.SearchItem {
	seen := make(map[string]struct{}, len(docs))
	items := make([]domain.SearchItem, 0, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		items = append(items, ItemFromDocument(doc))
	}
	return items
}
