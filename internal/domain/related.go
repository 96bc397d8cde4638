package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RelatedIndexVersion is the current related-index schema version.
const RelatedIndexVersion = 1

// Term is a weighted term. It encodes as a two element JSON array: ["term", 0.25].
type Term struct {
	Term   string
	Weight float64
}

// MarshalJSON implements json.Marshaler.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.Term, t.Weight})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Term) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("term pair must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Term); err != nil {
		return fmt.Errorf("term: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.Weight); err != nil {
		return fmt.Errorf("weight of %q: %w", t.Term, err)
	}
	return nil
}

// TermVector is a sparse document vector ordered by descending weight.
type TermVector []Term

// Map returns the vector as a term to weight map.
func (v TermVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v))
	for _, t := range v {
		m[t.Term] = t.Weight
	}
	return m
}

// IDFTable maps each corpus term to its inverse document frequency.
// It encodes as an array of [term, idf] pairs sorted by term.
type IDFTable map[string]float64

// MarshalJSON implements json.Marshaler.
func (t IDFTable) MarshalJSON() ([]byte, error) {
	terms := make([]string, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	pairs := make([]Term, len(terms))
	for i, term := range terms {
		pairs[i] = Term{Term: term, Weight: t[term]}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *IDFTable) UnmarshalJSON(data []byte) error {
	var pairs []Term
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	table := make(IDFTable, len(pairs))
	for _, p := range pairs {
		table[p.Term] = p.Weight
	}
	*t = table
	return nil
}

// RelatedDoc is the per-post record of the related index.
type RelatedDoc struct {
	Slug   string     `json:"slug"`
	Title  string     `json:"title"`
	Date   time.Time  `json:"date"`
	Tags   []string   `json:"tags"`
	Vector TermVector `json:"vector"`
}

// RelatedIndex is the persisted TF-IDF artifact for one language.
type RelatedIndex struct {
	Version int          `json:"version"`
	Lang    string       `json:"lang"`
	Terms   IDFTable     `json:"terms"`
	Docs    []RelatedDoc `json:"docs"`
}

// Find returns the document with the given slug.
func (idx *RelatedIndex) Find(slug string) (RelatedDoc, bool) {
	for _, d := range idx.Docs {
		if d.Slug == slug {
			return d, true
		}
	}
	return RelatedDoc{}, false
}
