package searchindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/sha1n/relic-posts/internal/domain"
)

// indexDocument is the shape stored in the Bleve index. Other item fields
// live in the artifact's data array and are joined back by slug.
type indexDocument struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Slug        string `json:"slug"`
}

// CreateIndexMapping creates the Bleve index mapping for search items.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Free-text fields - analyzed, not stored (the data array carries them)
	for _, name := range domain.SearchFields {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = standard.Name
		field.Store = false
		docMapping.AddFieldMappingsAt(name, field)
	}

	// Slug - keyword (not analyzed)
	slugField := bleve.NewTextFieldMapping()
	slugField.Analyzer = keyword.Name
	slugField.Store = false
	docMapping.AddFieldMappingsAt(domain.SearchFieldSlug, slugField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}
