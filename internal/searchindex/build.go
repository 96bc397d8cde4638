package searchindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/sha1n/relic-posts/internal/domain"
)

const (
	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100

	indexDirName = "index.bleve"
)

// Artifact is the serialized search index for one language: the flat item
// list plus an opaque archive of the Bleve index built over it.
type Artifact struct {
	Data  []domain.SearchItem `json:"data"`
	Index []byte              `json:"index"`
}

// Build indexes docs and returns the serialized artifact. workDir holds
// the temporary index; empty means the OS temp dir.
func Build(docs []domain.Document, workDir string) (*Artifact, error) {
	items := ItemsFromDocuments(docs)

	tmp, err := os.MkdirTemp(workDir, "search-build-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tmp)
	}()

	indexPath := filepath.Join(tmp, indexDirName)
	if err := writeIndex(indexPath, items); err != nil {
		return nil, err
	}

	packed, err := packDir(indexPath)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: items, Index: packed}, nil
}

func writeIndex(path string, items []domain.SearchItem) (err error) {
	index, err := bleve.New(path, CreateIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := index.NewBatch()
	for _, item := range items {
		doc := indexDocument{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Slug:        item.Slug,
		}
		if err := batch.Index(item.Slug, doc); err != nil {
			return fmt.Errorf("failed to index %q: %w", item.Slug, err)
		}

		if batch.Size() >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("batch index failed: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("final batch index failed: %w", err)
		}
	}
	return nil
}

// Marshal encodes the artifact as JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// ParseArtifact decodes an artifact. Malformed input yields a
// domain.CodeInvalidData error.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, domain.NewError(domain.CodeInvalidData, "malformed search index", err)
	}
	if len(a.Index) == 0 {
		return nil, domain.NewError(domain.CodeInvalidData, "search index has no index data", nil)
	}
	return &a, nil
}
