package searchindex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/relic-posts/internal/domain"
)

const (
	// DefaultMaxResults is used when Search is called without a limit.
	DefaultMaxResults = 10

	// Fuzziness is the edit distance tolerated per query term.
	Fuzziness = 1

	titleBoost = 2.0
)

// Hit is one ranked search result.
type Hit struct {
	Item  domain.SearchItem
	Score float64
}

// Bundle is a queryable search index reconstructed from an artifact.
// It is safe for concurrent use until Close.
type Bundle struct {
	items  []domain.SearchItem
	bySlug map[string]int
	index  bleve.Index
	dir    string
}

// Open parses a serialized artifact and opens its index under workDir.
func Open(data []byte, workDir string) (*Bundle, error) {
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, err
	}
	return OpenArtifact(a, workDir)
}

// OpenArtifact opens the index carried by a decoded artifact.
func OpenArtifact(a *Artifact, workDir string) (*Bundle, error) {
	dir, err := os.MkdirTemp(workDir, "search-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	indexPath := filepath.Join(dir, indexDirName)
	if err := unpackDir(a.Index, indexPath); err != nil {
		_ = os.RemoveAll(dir)
		return nil, domain.NewError(domain.CodeInvalidData, "corrupt search index", err)
	}

	index, err := bleve.OpenUsing(indexPath, map[string]interface{}{"read_only": true})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, domain.NewError(domain.CodeInvalidData, "failed to open search index", err)
	}

	bySlug := make(map[string]int, len(a.Data))
	for i, item := range a.Data {
		if _, dup := bySlug[item.Slug]; !dup {
			bySlug[item.Slug] = i
		}
	}

	return &Bundle{
		items:  a.Data,
		bySlug: bySlug,
		index:  index,
		dir:    dir,
	}, nil
}

// Items returns the artifact's items in stored order.
func (b *Bundle) Items() []domain.SearchItem {
	out := make([]domain.SearchItem, len(b.items))
	copy(out, b.items)
	return out
}

// Get returns the item with the given slug.
func (b *Bundle) Get(slug string) (domain.SearchItem, bool) {
	i, ok := b.bySlug[slug]
	if !ok {
		return domain.SearchItem{}, false
	}
	return b.items[i], true
}

// Search returns up to limit items matching queryStr over title,
// description and content, best first. A blank query matches nothing.
func (b *Bundle) Search(queryStr string, limit int) ([]Hit, error) {
	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	req := bleve.NewSearchRequestOptions(buildQuery(queryStr), limit, 0, false)
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		item, ok := b.Get(h.ID)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Item: item, Score: h.Score})
	}
	return hits, nil
}

// buildQuery matches every searchable field fuzzily and treats the last
// token as a prefix so partially typed words still match.
func buildQuery(queryStr string) query.Query {
	tokens := strings.Fields(strings.ToLower(queryStr))
	last := tokens[len(tokens)-1]

	var disjuncts []query.Query
	for _, field := range domain.SearchFields {
		boost := 1.0
		if field == domain.SearchFieldTitle {
			boost = titleBoost
		}

		match := bleve.NewMatchQuery(queryStr)
		match.SetField(field)
		match.SetFuzziness(Fuzziness)
		match.SetBoost(boost)
		disjuncts = append(disjuncts, match)

		if len([]rune(last)) >= 2 {
			prefix := bleve.NewPrefixQuery(last)
			prefix.SetField(field)
			prefix.SetBoost(boost)
			disjuncts = append(disjuncts, prefix)
		}
	}

	return bleve.NewDisjunctionQuery(disjuncts...)
}

// Len returns the number of items.
func (b *Bundle) Len() int {
	return len(b.items)
}

// Close closes the index and removes its working directory.
func (b *Bundle) Close() error {
	err := b.index.Close()
	if rmErr := os.RemoveAll(b.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
