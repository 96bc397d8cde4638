package relevance

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/sha1n/relic-posts/internal/domain"
)

const (
	// DefaultTagBoost is the score added per shared tag.
	DefaultTagBoost = 0.12

	// DefaultRecencyHalfLifeDays controls how fast the recency bonus decays.
	DefaultRecencyHalfLifeDays = 180

	// DefaultLimit is the number of related posts returned.
	DefaultLimit = 3

	// RecencyWeight scales the recency bonus; it only breaks near ties.
	RecencyWeight = 0.05
)

// Options tunes ScoreRelated. Zero fields take their defaults.
type Options struct {
	TagBoost            float64
	RecencyHalfLifeDays float64
	Limit               int

	// Now is the reference time for recency; zero means time.Now().
	Now time.Time
}

// DefaultOptions returns the default scoring options.
func DefaultOptions() Options {
	return Options{
		TagBoost:            DefaultTagBoost,
		RecencyHalfLifeDays: DefaultRecencyHalfLifeDays,
		Limit:               DefaultLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.TagBoost == 0 {
		o.TagBoost = DefaultTagBoost
	}
	if o.RecencyHalfLifeDays <= 0 {
		o.RecencyHalfLifeDays = DefaultRecencyHalfLifeDays
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Scored is a candidate together with its blended score.
type Scored struct {
	Doc   domain.RelatedDoc
	Score float64
}

// Cosine returns the cosine similarity of two sparse vectors, or 0 when
// either has zero magnitude.
func Cosine(a, b domain.TermVector) float64 {
	return cosineMaps(a.Map(), b.Map())
}

// cosineMaps sums in term order so that the result does not depend on map
// iteration order and Cosine(a, b) == Cosine(b, a) exactly.
func cosineMaps(a, b map[string]float64) float64 {
	var dot float64
	for _, term := range slices.Sorted(maps.Keys(a)) {
		if wb, ok := b[term]; ok {
			dot += a[term] * wb
		}
	}
	na, nb := sumSquares(a), sumSquares(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sumSquares(m map[string]float64) float64 {
	var sum float64
	for _, term := range slices.Sorted(maps.Keys(m)) {
		sum += m[term] * m[term]
	}
	return sum
}

// TagScore returns min(1, shared*boost) where shared counts the distinct
// tags of current that also appear on candidate.
func TagScore(current, candidate []string, boost float64) float64 {
	shared := 0
	seen := make(map[string]struct{}, len(current))
	for _, t := range current {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if slices.Contains(candidate, t) {
			shared++
		}
	}
	return math.Min(1, float64(shared)*boost)
}

// Recency returns exp(-age/halfLife). Future dates count as age zero.
func Recency(date, now time.Time, halfLifeDays float64) float64 {
	age := max(now.Sub(date), 0)
	halfLife := halfLifeDays * float64(24*time.Hour)
	return math.Exp(-float64(age) / halfLife)
}

// ScoreCandidates scores every candidate except current itself and returns
// them best first. Equal scores keep their input order.
func ScoreCandidates(current domain.RelatedDoc, candidates []domain.RelatedDoc, opts Options) []Scored {
	opts = opts.withDefaults()
	curVec := current.Vector.Map()

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Slug == current.Slug {
			continue
		}
		total := cosineMaps(curVec, c.Vector.Map()) +
			TagScore(current.Tags, c.Tags, opts.TagBoost) +
			RecencyWeight*Recency(c.Date, opts.Now, opts.RecencyHalfLifeDays)
		scored = append(scored, Scored{Doc: c, Score: total})
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return scored
}

// ScoreRelated returns at most opts.Limit related documents, best first.
func ScoreRelated(current domain.RelatedDoc, candidates []domain.RelatedDoc, opts Options) []domain.RelatedDoc {
	scored := ScoreCandidates(current, candidates, opts)
	limit := opts.withDefaults().Limit
	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]domain.RelatedDoc, len(scored))
	for i, s := range scored {
		out[i] = s.Doc
	}
	return out
}
