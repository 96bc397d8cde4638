package relevance

import (
	"math"
	"sort"
	"strings"

	"github.com/sha1n/relic-posts/internal/domain"
	"github.com/sha1n/relic-posts/internal/excerpt"
)

const (
	// MaxVectorTerms caps the number of terms kept per document vector.
	MaxVectorTerms = 25

	// MaxBodyRunes is how much of a body contributes to its vector.
	MaxBodyRunes = 4000
)

// IDF returns the smoothed inverse document frequency ln((n+1)/(df+1)) + 1.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// DocumentText returns the text a document is vectorized from: its title,
// its description (or a derived excerpt) and the head of its body.
func DocumentText(doc domain.Document) string {
	desc := doc.Description
	if desc == "" {
		desc = excerpt.Excerpt(doc.Body, excerpt.DefaultLength)
	}
	return doc.Title + "\n" + desc + "\n" + truncateRunes(doc.Body, MaxBodyRunes)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// BuildIndex computes the TF-IDF related index for one language's corpus.
// Documents keep their input order. It never fails: an empty corpus yields
// an empty index and a document without text yields an empty vector.
func BuildIndex(docs []domain.Document, lang string) *domain.RelatedIndex {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		tokens := Tokenize(DocumentText(doc))
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	idf := make(domain.IDFTable, len(df))
	for term, freq := range df {
		idf[term] = IDF(len(docs), freq)
	}

	related := make([]domain.RelatedDoc, len(docs))
	for i, doc := range docs {
		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		related[i] = domain.RelatedDoc{
			Slug:   doc.ID,
			Title:  doc.Title,
			Date:   doc.Date,
			Tags:   tags,
			Vector: vectorize(tokenized[i], idf),
		}
	}

	return &domain.RelatedIndex{
		Version: domain.RelatedIndexVersion,
		Lang:    lang,
		Terms:   idf,
		Docs:    related,
	}
}

// vectorize weights tokens by tf*idf and keeps the MaxVectorTerms heaviest.
// Equal weights are ordered by term so the artifact is reproducible.
func vectorize(tokens []string, idf domain.IDFTable) domain.TermVector {
	counts := make(map[string]int)
	for _, t := range tokens {
		counts[t]++
	}
	length := max(len(tokens), 1)

	vector := make(domain.TermVector, 0, len(counts))
	for term, count := range counts {
		w := float64(count) / float64(length) * idf[term]
		if w > 0 {
			vector = append(vector, domain.Term{Term: term, Weight: w})
		}
	}

	sort.Slice(vector, func(i, j int) bool {
		if vector[i].Weight != vector[j].Weight {
			return vector[i].Weight > vector[j].Weight
		}
		return strings.Compare(vector[i].Term, vector[j].Term) < 0
	})

	if len(vector) > MaxVectorTerms {
		vector = vector[:MaxVectorTerms]
	}
	return vector
}
